// Package metrics holds the run metrics of a pipeline command. Metrics live
// on a private registry and are exported as a node-exporter textfile.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "fif"

// Metrics is the set of collectors shared by the pipeline stages. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	RowsLoaded       *prometheus.GaugeVec
	FetchFailures    *prometheus.CounterVec
	FeaturesComputed *prometheus.CounterVec
	StageDuration    *prometheus.GaugeVec
	RankedFunds      *prometheus.GaugeVec
}

// New creates the collectors and registers them on a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RowsLoaded: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "rows_loaded",
				Help:      "Rows loaded per dataset in the last run",
			},
			[]string{"dataset"},
		),
		FetchFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fetch_failures_total",
				Help:      "Periods that could not be fetched, by dataset",
			},
			[]string{"dataset"},
		),
		FeaturesComputed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "features_computed_total",
				Help:      "Feature columns computed, by dataset",
			},
			[]string{"dataset"},
		),
		StageDuration: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Wall time of the last run of each stage",
			},
			[]string{"stage"},
		),
		RankedFunds: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "ranked_funds",
				Help:      "Funds with a non-zero rank, by profile",
			},
			[]string{"profile"},
		),
	}

	m.registry.MustRegister(
		m.RowsLoaded,
		m.FetchFailures,
		m.FeaturesComputed,
		m.StageDuration,
		m.RankedFunds,
	)
	return m
}

// Registry exposes the private registry, e.g. for promhttp
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// SetRows records the row count of a dataset
func (m *Metrics) SetRows(dataset string, rows int) {
	if m == nil {
		return
	}
	m.RowsLoaded.WithLabelValues(dataset).Set(float64(rows))
}

// AddFetchFailure counts one failed period
func (m *Metrics) AddFetchFailure(dataset string) {
	if m == nil {
		return
	}
	m.FetchFailures.WithLabelValues(dataset).Inc()
}

// AddFeatures counts n computed feature columns
func (m *Metrics) AddFeatures(dataset string, n int) {
	if m == nil {
		return
	}
	m.FeaturesComputed.WithLabelValues(dataset).Add(float64(n))
}

// SetRanked records the number of ranked funds of a profile
func (m *Metrics) SetRanked(profile string, n int) {
	if m == nil {
		return
	}
	m.RankedFunds.WithLabelValues(profile).Set(float64(n))
}

// StartStage returns a func that records the stage's elapsed time
func (m *Metrics) StartStage(stage string) func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		d := time.Since(start)
		if m != nil {
			m.StageDuration.WithLabelValues(stage).Set(d.Seconds())
		}
		return d
	}
}

// WriteTextfile writes every metric in the text exposition format.
// An empty path is a no-op.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}
	return nil
}
