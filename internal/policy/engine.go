// Package policy combines score columns into weighted investor-profile
// scores and dense rankings
package policy

import (
	"fmt"
	"math"
	"sort"

	"github.com/gpadpoll/fixed-income-fund-recsys/internal/contracts"
	"github.com/gpadpoll/fixed-income-fund-recsys/internal/registry"
	"github.com/gpadpoll/fixed-income-fund-recsys/internal/table"
)

// Engine appends score_<profile> and rank_<profile> columns per profile
type Engine struct {
	profiles []registry.ProfileDefinition
}

// NewEngine validates the profiles: names are required and weights must be
// finite and non-negative
func NewEngine(profiles []registry.ProfileDefinition) (*Engine, error) {
	if len(profiles) == 0 {
		return nil, contracts.Configf("profile", "no profiles defined")
	}
	for _, p := range profiles {
		if p.Name == "" {
			return nil, contracts.Configf("profile", "profile name is required")
		}
		for _, w := range p.Weights {
			if math.IsNaN(w.Weight) || math.IsInf(w.Weight, 0) || w.Weight < 0 {
				return nil, contracts.Configf(fmt.Sprintf("profile.%s.%s", p.Name, w.Column), "weight must be a non-negative number, got %v", w.Weight)
			}
		}
	}
	return &Engine{profiles: profiles}, nil
}

// Profiles returns the configured profile names in order
func (e *Engine) Profiles() []string {
	names := make([]string, len(e.profiles))
	for i, p := range e.profiles {
		names[i] = p.Name
	}
	return names
}

// Compute returns a copy of t with a weighted score and a dense rank per profile.
//
// Only weighted columns present in t contribute; absent ones are skipped.
// A null in any contributing column makes the row's score null, and null
// scores get rank 0. A profile with no present column scores 0 everywhere.
// Ranking spans the whole table; filter to one period first when
// cross-period comparison is not wanted.
func (e *Engine) Compute(t *table.Table) (*table.Table, error) {
	out := t.Clone()
	for _, p := range e.profiles {
		scores := WeightedScore(t, p.Weights)
		if err := out.AddFloats(p.ScoreColumn(), scores); err != nil {
			return nil, fmt.Errorf("profile %s: %w", p.Name, err)
		}
		if err := out.AddInts(p.RankColumn(), DenseRank(scores)); err != nil {
			return nil, fmt.Errorf("profile %s: %w", p.Name, err)
		}
	}
	return out, nil
}

// WeightedScore computes Σ column·weight per row over the present columns
func WeightedScore(t *table.Table, weights []registry.Weight) []table.Float {
	scores := make([]table.Float, t.Len())
	for i := range scores {
		scores[i] = table.Num(0)
	}
	for _, w := range weights {
		vals, ok := t.Numeric(w.Column)
		if !ok {
			continue
		}
		for i, v := range vals {
			if !scores[i].Valid {
				continue
			}
			if !v.Valid {
				scores[i] = table.Null
				continue
			}
			scores[i] = table.Num(scores[i].V + v.V*w.Weight)
		}
	}
	return scores
}

// DenseRank ranks descending: the highest score gets 1, ties share a rank
// and the next distinct score gets the next integer. Nulls get 0.
func DenseRank(scores []table.Float) []int64 {
	var distinct []float64
	seen := make(map[float64]struct{})
	for _, s := range scores {
		if !s.Valid {
			continue
		}
		if _, ok := seen[s.V]; !ok {
			seen[s.V] = struct{}{}
			distinct = append(distinct, s.V)
		}
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(distinct)))

	rankOf := make(map[float64]int64, len(distinct))
	for i, v := range distinct {
		rankOf[v] = int64(i + 1)
	}

	ranks := make([]int64, len(scores))
	for i, s := range scores {
		if s.Valid {
			ranks[i] = rankOf[s.V]
		}
	}
	return ranks
}
