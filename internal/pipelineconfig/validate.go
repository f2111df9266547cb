package pipelineconfig

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/gpadpoll/fixed-income-fund-recsys/internal/contracts"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Use YAML tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Warning is a recommendation violation; it never stops a run
type Warning struct {
	Code    string
	Message string
}

// Validate checks every section that is present. Missing sections are
// checked by the Require* methods of the commands that need them.
func Validate(cfg *Config) error {
	if cfg.Profile.Len() > 0 && cfg.Profiles.Len() > 0 {
		return contracts.Configf("profile", "set either profile or profiles, not both")
	}

	if cfg.Feature != nil {
		if err := structErr("feature", cfg.Feature); err != nil {
			return err
		}
		for _, ds := range cfg.Feature.FeatureRegistry.Keys() {
			feats, _ := cfg.Feature.FeatureRegistry.Get(ds)
			for _, name := range feats.Keys() {
				spec, _ := feats.Get(name)
				if err := structErr(fmt.Sprintf("feature.feature_registry.%s.%s", ds, name), &spec); err != nil {
					return err
				}
			}
		}
	}

	for _, name := range cfg.Score.Keys() {
		spec, _ := cfg.Score.Get(name)
		if err := structErr("score."+name, &spec); err != nil {
			return err
		}
	}

	profiles := cfg.ProfileSection()
	for _, name := range profiles.Keys() {
		weights, _ := profiles.Get(name)
		for _, col := range weights.Keys() {
			w, _ := weights.Get(col)
			if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
				return contracts.Configf(fmt.Sprintf("profile.%s.%s", name, col), "weight must be a non-negative number, got %v", w)
			}
		}
	}

	for _, ds := range cfg.Manifest.Keys() {
		src, _ := cfg.Manifest.Get(ds)
		field := "manifest." + ds
		if err := structErr(field, &src); err != nil {
			return err
		}
		if len(src.Periods) == 0 && src.Latest == 0 {
			return contracts.Configf(field, "either periods or latest is required")
		}
	}
	return nil
}

// RequireFeature fails when the feature section is missing or empty
func (c *Config) RequireFeature() error {
	if c.Feature == nil || c.Feature.FeatureRegistry.Len() == 0 {
		return contracts.Configf("feature", "section is required")
	}
	return nil
}

// RequireScore fails when the score section is missing or empty
func (c *Config) RequireScore() error {
	if c.Score.Len() == 0 {
		return contracts.Configf("score", "section is required")
	}
	return nil
}

// RequireProfiles fails when neither profile nor profiles is set
func (c *Config) RequireProfiles() error {
	if c.ProfileSection().Len() == 0 {
		return contracts.Configf("profile", "section is required (profile or profiles)")
	}
	return nil
}

// RequireManifest fails when the manifest section is missing or empty
func (c *Config) RequireManifest() error {
	if c.Manifest.Len() == 0 {
		return contracts.Configf("manifest", "section is required")
	}
	return nil
}

// Warn returns recommendation violations: references between sections that
// do not resolve. Absent columns are tolerated at run time, so these are
// usually typos.
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	features := make(map[string]bool)
	if cfg.Feature != nil {
		for _, ds := range cfg.Feature.FeatureRegistry.Keys() {
			feats, _ := cfg.Feature.FeatureRegistry.Get(ds)
			if feats.Len() == 0 {
				warnings = append(warnings, Warning{
					Code:    "EMPTY_DATASET",
					Message: fmt.Sprintf("dataset %s has no features and will be skipped", ds),
				})
			}
			for _, name := range feats.Keys() {
				features[name] = true
			}
		}
	}

	scores := make(map[string]bool)
	for _, name := range cfg.Score.Keys() {
		scores[name] = true
		spec, _ := cfg.Score.Get(name)
		if spec.Args.Feature == "" {
			warnings = append(warnings, Warning{
				Code:    "NO_FEATURE",
				Message: fmt.Sprintf("score %s names no source feature and will be all null", name),
			})
			continue
		}
		if len(features) > 0 && !features[spec.Args.Feature] {
			warnings = append(warnings, Warning{
				Code:    "UNKNOWN_FEATURE",
				Message: fmt.Sprintf("score %s reads feature %s, which no dataset defines", name, spec.Args.Feature),
			})
		}
	}

	profiles := cfg.ProfileSection()
	for _, name := range profiles.Keys() {
		weights, _ := profiles.Get(name)
		for _, col := range weights.Keys() {
			if len(scores) > 0 && !scores[col] && !features[col] {
				warnings = append(warnings, Warning{
					Code:    "UNKNOWN_SCORE",
					Message: fmt.Sprintf("profile %s weights %s, which is neither a score nor a feature", name, col),
				})
			}
		}
	}
	return warnings
}

// structErr runs tag validation and converts the first failure into a
// ConfigurationError rooted at prefix
func structErr(prefix string, v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return contracts.Configf(prefix, "%v", err)
	}
	fe := verrs[0]

	// Namespace is "FeatureSpec.method"; drop the struct name
	path := fe.Namespace()
	if i := strings.Index(path, "."); i >= 0 {
		path = path[i+1:]
	}
	return contracts.Configf(prefix+"."+path, "%s", describe(fe))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %v", fe.Param(), fe.Value())
	case "url":
		return fmt.Sprintf("must be a valid URL, got %v", fe.Value())
	case "contains":
		return fmt.Sprintf("must contain %s", fe.Param())
	case "min":
		return fmt.Sprintf("must have at least %s entries", fe.Param())
	case "gte":
		return fmt.Sprintf("must be >= %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
