// Package score standardizes feature columns into comparable scores
package score

import (
	"errors"
	"fmt"
	"math"

	"github.com/gpadpoll/fixed-income-fund-recsys/internal/contracts"
	"github.com/gpadpoll/fixed-income-fund-recsys/internal/registry"
	"github.com/gpadpoll/fixed-income-fund-recsys/internal/table"
)

// Epsilon is added to the standard deviation so zero-variance groups
// standardize to 0 instead of dividing by zero
const Epsilon = 1e-6

// Engine appends one score column per definition
type Engine struct {
	defs []registry.ScoreDefinition
}

// NewEngine validates every definition. Unsupported types fail here.
func NewEngine(defs []registry.ScoreDefinition) (*Engine, error) {
	for _, d := range defs {
		if d.Name == "" {
			return nil, contracts.Configf("score", "score name is required")
		}
		switch d.Type {
		case registry.ScoreZ:
		default:
			return nil, contracts.Configf("score."+d.Name+".type", "unsupported score type: %q", d.Type)
		}
	}
	return &Engine{defs: defs}, nil
}

// Compute returns a copy of t with the score columns added.
//
// Scores are standardized within each value of groupBy. A score whose
// source feature is absent, or not configured, becomes an all-null column
// and is left as is.
func (e *Engine) Compute(t *table.Table, groupBy string) (*table.Table, error) {
	out := t.Clone()
	if len(e.defs) == 0 {
		return out, nil
	}

	groups, err := t.GroupBy(groupBy)
	if err != nil {
		if errors.Is(err, table.ErrColumnNotFound) {
			return nil, contracts.Configf("group_by", "grouping column %q not found in feature table", groupBy)
		}
		return nil, err
	}

	for _, d := range e.defs {
		values, ok := out.Numeric(d.Feature)
		if !ok {
			if err := out.AddFloats(d.Name, make([]table.Float, t.Len())); err != nil {
				return nil, err
			}
			continue
		}

		scores := ZScore(values, groups)
		for i, s := range scores {
			if d.Invert && s.Valid {
				s = table.Num(-s.V)
			}
			if d.Coalesce && !s.Valid {
				s = table.Num(0)
			}
			scores[i] = s
		}
		if err := out.AddFloats(d.Name, scores); err != nil {
			return nil, fmt.Errorf("score %s: %w", d.Name, err)
		}
	}
	return out, nil
}

// ZScore standardizes values within each group:
// (x - mean) / (sample std + Epsilon). Nulls are excluded from the
// statistics and stay null. A group with fewer than two defined values has
// no sample std, so all its scores are null. Rows outside every group
// (empty group key) are null.
func ZScore(values []table.Float, groups []table.Group) []table.Float {
	out := make([]table.Float, len(values))
	for _, g := range groups {
		sum, n := 0.0, 0
		for _, i := range g.Rows {
			if values[i].Valid {
				sum += values[i].V
				n++
			}
		}
		if n < 2 {
			continue
		}
		mean := sum / float64(n)

		ss := 0.0
		for _, i := range g.Rows {
			if values[i].Valid {
				d := values[i].V - mean
				ss += d * d
			}
		}
		std := math.Sqrt(ss / float64(n-1))

		for _, i := range g.Rows {
			if values[i].Valid {
				out[i] = table.Num((values[i].V - mean) / (std + Epsilon))
			}
		}
	}
	return out
}
