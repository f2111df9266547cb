// Package feature turns raw disclosure rows into one row per group key with
// one column per configured feature.
package feature

import (
	"fmt"

	"github.com/gpadpoll/fixed-income-fund-recsys/internal/contracts"
	"github.com/gpadpoll/fixed-income-fund-recsys/internal/registry"
	"github.com/gpadpoll/fixed-income-fund-recsys/internal/table"
)

// Engine computes a fixed, compiled list of features over any table
type Engine struct {
	keys     []string
	features []registry.Feature
}

// NewEngine compiles every definition up front. An unknown method or a bad
// adjustment fails here, before any data is touched.
func NewEngine(reg *registry.Registry, keys []string, defs []registry.FeatureDefinition) (*Engine, error) {
	if len(keys) == 0 {
		return nil, contracts.Configf("feature.group_keys", "at least one group key is required")
	}
	if len(defs) == 0 {
		return nil, contracts.Configf("feature.feature_registry", "no feature definitions")
	}
	features, err := reg.CompileAll(defs)
	if err != nil {
		return nil, err
	}
	return &Engine{keys: keys, features: features}, nil
}

// Features returns the output feature names in computation order
func (e *Engine) Features() []string {
	names := make([]string, len(e.features))
	for i, f := range e.features {
		names[i] = f.Name
	}
	return names
}

// Compute returns the group key columns plus one column per feature.
// Features are left-joined in definition order onto the first feature's table.
func (e *Engine) Compute(t *table.Table) (*table.Table, error) {
	var groups []table.Group
	groupsReady := false

	var final *table.Table
	for _, f := range e.features {
		var (
			part *table.Table
			err  error
		)
		switch f.Kind {
		case registry.Aggregation, registry.RowOperation:
			if !groupsReady {
				groups, err = t.GroupBy(e.keys...)
				if err != nil {
					return nil, fmt.Errorf("feature %s: %w", f.Name, err)
				}
				groupsReady = true
			}
			part, err = e.reduce(t, groups, f)
		case registry.Custom:
			part, err = e.custom(t, f)
		default:
			err = contracts.Configf(f.Name+".method", "method kind %s cannot compute a feature", f.Kind)
		}
		if err != nil {
			return nil, err
		}

		if final == nil {
			final = part
			continue
		}
		final, err = table.LeftJoin(final, part, e.keys...)
		if err != nil {
			return nil, fmt.Errorf("merge feature %s: %w", f.Name, err)
		}
	}
	return final, nil
}

// reduce handles aggregation and row_operation features.
// A missing source column behaves as an all-empty column.
func (e *Engine) reduce(t *table.Table, groups []table.Group, f registry.Feature) (*table.Table, error) {
	col, ok := t.Column(f.Column)
	if !ok {
		col = &table.Column{Name: f.Column, Kind: table.KindString, Strings: make([]string, t.Len())}
	}

	values := make([]table.Float, len(groups))
	for gi, g := range groups {
		var v table.Float
		if f.Kind == registry.Aggregation {
			v = f.Reduce(col, g.Rows)
		} else {
			total := 0.0
			for _, i := range g.Rows {
				if r := f.Row(col.StringAt(i)); r.Valid {
					total += r.V
				}
			}
			v = table.Num(total)
		}
		values[gi] = f.ApplyAdjustments(v)
	}

	out := t.KeyTable(e.keys, groups)
	if err := out.AddFloats(f.Name, values); err != nil {
		return nil, fmt.Errorf("feature %s: %w", f.Name, err)
	}
	return out, nil
}

// custom delegates to the bound custom function and keeps only the key
// columns plus the feature column
func (e *Engine) custom(t *table.Table, f registry.Feature) (*table.Table, error) {
	res, err := f.Custom(t, e.keys, f.Name)
	if err != nil {
		return nil, fmt.Errorf("feature %s: %w", f.Name, err)
	}
	values, ok := res.Numeric(f.Name)
	if !ok {
		return nil, fmt.Errorf("feature %s: custom method %s did not produce column %s", f.Name, f.Method, f.Name)
	}
	for i := range values {
		values[i] = f.ApplyAdjustments(values[i])
	}

	out, err := res.Select(e.keys...)
	if err != nil {
		return nil, fmt.Errorf("feature %s: %w", f.Name, err)
	}
	if err := out.AddFloats(f.Name, values); err != nil {
		return nil, fmt.Errorf("feature %s: %w", f.Name, err)
	}
	return out, nil
}
