package pipelineconfig

import (
	"github.com/gpadpoll/fixed-income-fund-recsys/internal/contracts"
	"github.com/gpadpoll/fixed-income-fund-recsys/internal/feature"
	"github.com/gpadpoll/fixed-income-fund-recsys/internal/registry"
)

// GroupKeys returns the feature group key, or nil without a feature section
func (c *Config) GroupKeys() []string {
	if c.Feature == nil {
		return nil
	}
	return append([]string(nil), c.Feature.GroupKeys...)
}

// DefaultScoreGroup is the column scores are standardized within when the
// caller does not choose one: the last group key (the period), or
// "competencia" without a feature section.
func (c *Config) DefaultScoreGroup() string {
	keys := c.GroupKeys()
	if len(keys) == 0 {
		return contracts.DefaultGroupKey
	}
	return keys[len(keys)-1]
}

// DatasetFeatures converts the feature registry into per-dataset
// definitions, in document order
func (c *Config) DatasetFeatures() []feature.DatasetFeatures {
	if c.Feature == nil {
		return nil
	}
	reg := c.Feature.FeatureRegistry
	out := make([]feature.DatasetFeatures, 0, reg.Len())
	for _, ds := range reg.Keys() {
		feats, _ := reg.Get(ds)
		df := feature.DatasetFeatures{Dataset: ds}
		for _, name := range feats.Keys() {
			spec, _ := feats.Get(name)
			df.Definitions = append(df.Definitions, registry.FeatureDefinition{
				Name:        name,
				Method:      spec.Method,
				Args:        spec.Args,
				Adjustments: spec.Adjustment,
			})
		}
		out = append(out, df)
	}
	return out
}

// Datasets returns the dataset names of the feature registry, in order
func (c *Config) Datasets() []string {
	if c.Feature == nil {
		return nil
	}
	return c.Feature.FeatureRegistry.Keys()
}

// ScoreDefinitions converts the score section, in document order
func (c *Config) ScoreDefinitions() []registry.ScoreDefinition {
	out := make([]registry.ScoreDefinition, 0, c.Score.Len())
	for _, name := range c.Score.Keys() {
		spec, _ := c.Score.Get(name)
		def := registry.ScoreDefinition{
			Name:    name,
			Type:    registry.ScoreType(spec.Type),
			Feature: spec.Args.Feature,
		}
		for _, adj := range spec.Adjustment {
			switch adj {
			case "invert":
				def.Invert = true
			case "coalesce":
				def.Coalesce = true
			}
		}
		out = append(out, def)
	}
	return out
}

// ProfileDefinitions converts the profile section, in document order
func (c *Config) ProfileDefinitions() []registry.ProfileDefinition {
	section := c.ProfileSection()
	out := make([]registry.ProfileDefinition, 0, section.Len())
	for _, name := range section.Keys() {
		weights, _ := section.Get(name)
		p := registry.ProfileDefinition{Name: name}
		for _, col := range weights.Keys() {
			w, _ := weights.Get(col)
			p.Weights = append(p.Weights, registry.Weight{Column: col, Weight: w})
		}
		out = append(out, p)
	}
	return out
}
