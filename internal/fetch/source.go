// Package fetch downloads periodic CVM disclosure archives and turns them
// into raw dataset tables.
package fetch

import (
	"strings"

	"github.com/gpadpoll/fixed-income-fund-recsys/internal/pipelineconfig"
)

// PeriodPlaceholder is replaced by the period in templates
const PeriodPlaceholder = "{period}"

// Source is one manifest entry
type Source struct {
	Dataset          string
	BaseURL          string
	FilenameTemplate string
	Member           string
	Periods          []string
	Latest           int
}

// URL returns the archive URL of a period
func (s Source) URL(period string) string {
	return s.BaseURL + s.Filename(period)
}

// Filename returns the archive file name of a period
func (s Source) Filename(period string) string {
	return strings.ReplaceAll(s.FilenameTemplate, PeriodPlaceholder, period)
}

// MemberName returns the CSV member to read, or "" for the first CSV
func (s Source) MemberName(period string) string {
	return strings.ReplaceAll(s.Member, PeriodPlaceholder, period)
}

// SourcesFrom converts the manifest section, in document order
func SourcesFrom(cfg *pipelineconfig.Config) []Source {
	out := make([]Source, 0, cfg.Manifest.Len())
	for _, ds := range cfg.Manifest.Keys() {
		m, _ := cfg.Manifest.Get(ds)
		out = append(out, Source{
			Dataset:          ds,
			BaseURL:          m.BaseURL,
			FilenameTemplate: m.FilenameTemplate,
			Member:           m.Member,
			Periods:          append([]string(nil), m.Periods...),
			Latest:           m.Latest,
		})
	}
	return out
}
