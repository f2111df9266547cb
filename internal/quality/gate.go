// Package quality checks that a loaded dataset carries the columns its
// feature definitions read, before any feature is computed
package quality

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gpadpoll/fixed-income-fund-recsys/internal/feature"
	"github.com/gpadpoll/fixed-income-fund-recsys/internal/registry"
	"github.com/gpadpoll/fixed-income-fund-recsys/internal/table"
)

// Config holds quality gate thresholds
type Config struct {
	MinKeyCoverage    float64 `yaml:"min_key_coverage"`    // 1.0 (every row keyed)
	MinColumnCoverage float64 `yaml:"min_column_coverage"` // 0.8
}

// DefaultConfig returns the thresholds used by feature build
func DefaultConfig() Config {
	return Config{
		MinKeyCoverage:    1.0,
		MinColumnCoverage: 0.8,
	}
}

// Gate validates dataset coverage and produces snapshots
type Gate struct {
	config Config
	keys   []string
}

// NewGate creates a Gate for tables grouped by keys
func NewGate(keys []string, config Config) *Gate {
	return &Gate{config: config, keys: keys}
}

// Snapshot is the coverage of one dataset: the share of non-empty cells
// per checked column
type Snapshot struct {
	Dataset      string             `json:"dataset"`
	Rows         int                `json:"rows"`
	Coverage     map[string]float64 `json:"coverage"`
	Missing      []string           `json:"missing,omitempty"`
	QualityScore float64            `json:"quality_score"`
	Issues       []string           `json:"issues,omitempty"`
}

// Passed reports whether every threshold was met
func (s *Snapshot) Passed() bool {
	return len(s.Issues) == 0
}

// RequiredColumns lists the input columns read by defs, in first-use order
func RequiredColumns(defs []registry.FeatureDefinition) []string {
	seen := make(map[string]bool)
	var cols []string
	add := func(c string) {
		if c != "" && !seen[c] {
			seen[c] = true
			cols = append(cols, c)
		}
	}
	for _, d := range defs {
		if custom := feature.CustomColumns(d.Method); custom != nil {
			for _, c := range custom {
				add(c)
			}
			continue
		}
		if len(d.Args) > 0 {
			if c, ok := d.Args[0].(string); ok {
				add(c)
			}
		}
	}
	return cols
}

// Check measures coverage of the group keys and of the columns defs read.
// Absent columns are reported, never fatal: the engines treat them as null.
func (g *Gate) Check(dataset string, t *table.Table, defs []registry.FeatureDefinition) *Snapshot {
	snap := &Snapshot{
		Dataset:  dataset,
		Rows:     t.Len(),
		Coverage: make(map[string]float64),
	}

	// keys weigh twice as much as feature inputs
	var weighted, total float64
	check := func(col string, min, weight float64) {
		c, ok := t.Column(col)
		if !ok {
			snap.Missing = append(snap.Missing, col)
			snap.Coverage[col] = 0
			snap.Issues = append(snap.Issues, fmt.Sprintf("column %s is missing", col))
			total += weight
			return
		}
		cov := coverage(c, t.Len())
		snap.Coverage[col] = cov
		weighted += cov * weight
		total += weight
		if cov < min {
			snap.Issues = append(snap.Issues, fmt.Sprintf("column %s coverage %.1f%% is below %.1f%%", col, cov*100, min*100))
		}
	}

	for _, k := range g.keys {
		check(k, g.config.MinKeyCoverage, 2)
	}
	for _, col := range RequiredColumns(defs) {
		if _, done := snap.Coverage[col]; done {
			continue
		}
		check(col, g.config.MinColumnCoverage, 1)
	}

	if total > 0 {
		snap.QualityScore = weighted / total
	}
	sort.Strings(snap.Missing)
	return snap
}

// coverage is the share of non-empty cells; an empty table has none
func coverage(c *table.Column, rows int) float64 {
	if rows == 0 {
		return 0
	}
	filled := 0
	for i := 0; i < rows; i++ {
		switch c.Kind {
		case table.KindFloat:
			if c.Floats[i].Valid {
				filled++
			}
		case table.KindInt:
			filled++
		default:
			if strings.TrimSpace(c.Strings[i]) != "" {
				filled++
			}
		}
	}
	return float64(filled) / float64(rows)
}
