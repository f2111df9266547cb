// Package pipelineconfig loads the pipeline YAML: feature registry, score
// definitions, investor profiles and the fetch manifest.
package pipelineconfig

// Config is the whole pipeline YAML. Every section is optional at load
// time; commands require the sections they use.
type Config struct {
	Feature  *FeatureSection           `yaml:"feature" json:"feature,omitempty"`
	Score    Ordered[ScoreSpec]        `yaml:"score" json:"score"`
	Profile  Ordered[Ordered[float64]] `yaml:"profile" json:"profile"`
	Profiles Ordered[Ordered[float64]] `yaml:"profiles" json:"profiles"`
	Manifest Ordered[DatasetSource]    `yaml:"manifest" json:"manifest"`
}

// FeatureSection groups the feature registry by dataset
type FeatureSection struct {
	GroupKeys       []string                      `yaml:"group_keys" json:"group_keys" validate:"required,min=1,dive,required"`
	FeatureRegistry Ordered[Ordered[FeatureSpec]] `yaml:"feature_registry" json:"feature_registry"`
}

// FeatureSpec is one feature entry: {method, args, adjustment}
type FeatureSpec struct {
	Method     string        `yaml:"method" json:"method" validate:"required"`
	Args       []interface{} `yaml:"args" json:"args"`
	Adjustment []string      `yaml:"adjustment" json:"adjustment" validate:"dive,required"`
}

// ScoreSpec is one score entry: {type, args: {feature}, adjustment}
type ScoreSpec struct {
	Type       string    `yaml:"type" json:"type" validate:"required"`
	Args       ScoreArgs `yaml:"args" json:"args"`
	Adjustment []string  `yaml:"adjustment" json:"adjustment" validate:"dive,oneof=invert coalesce"`
}

// ScoreArgs holds the score's source feature. An empty feature is treated
// like a feature missing from the table: the score column is all null.
type ScoreArgs struct {
	Feature string `yaml:"feature" json:"feature"`
}

// DatasetSource describes where a dataset's periodic archives live.
// FilenameTemplate contains a {period} placeholder, e.g. "cda_fi_{period}.zip".
// Periods lists explicit periods; Latest > 0 with no Periods discovers the
// N most recent periods from the directory listing at BaseURL.
type DatasetSource struct {
	BaseURL          string   `yaml:"base_url" json:"base_url" validate:"required,url"`
	FilenameTemplate string   `yaml:"filename_template" json:"filename_template" validate:"required,contains={period}"`
	Member           string   `yaml:"member,omitempty" json:"member,omitempty"`
	Periods          []string `yaml:"periods" json:"periods" validate:"dive,required"`
	Latest           int      `yaml:"latest,omitempty" json:"latest,omitempty" validate:"gte=0"`
}

// ProfileSection returns whichever of `profile` / `profiles` is set
func (c *Config) ProfileSection() Ordered[Ordered[float64]] {
	if c.Profile.Len() > 0 {
		return c.Profile
	}
	return c.Profiles
}
