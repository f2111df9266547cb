package feature

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gpadpoll/fixed-income-fund-recsys/internal/contracts"
	"github.com/gpadpoll/fixed-income-fund-recsys/internal/registry"
	"github.com/gpadpoll/fixed-income-fund-recsys/internal/table"
	"github.com/gpadpoll/fixed-income-fund-recsys/pkg/logger"
)

// DatasetFeatures is the ordered feature set configured for one dataset
type DatasetFeatures struct {
	Dataset     string
	Definitions []registry.FeatureDefinition
}

// Assembler runs one Engine per dataset and outer-merges the results
type Assembler struct {
	reg  *registry.Registry
	keys []string
	log  *logger.Logger

	// Workers bounds concurrent dataset computations (0 = one per dataset)
	Workers int
}

// NewAssembler creates an Assembler
func NewAssembler(reg *registry.Registry, keys []string, log *logger.Logger) *Assembler {
	if log == nil {
		log = logger.Nop()
	}
	return &Assembler{reg: reg, keys: keys, log: log}
}

// Stats summarizes an Assemble call
type Stats struct {
	Datasets int
	Skipped  []string
	Features int
	Rows     int
	Duration time.Duration
}

// Plan holds the compiled engines of every dataset that defines features
type Plan struct {
	jobs    []planned
	skipped []string
}

type planned struct {
	name   string
	engine *Engine
}

// Datasets lists the datasets the plan computes, in configuration order
func (p *Plan) Datasets() []string {
	names := make([]string, len(p.jobs))
	for i, j := range p.jobs {
		names[i] = j.name
	}
	return names
}

// Compile resolves every definition against the registry without touching
// data. Datasets with no definitions are skipped and logged.
func (a *Assembler) Compile(specs []DatasetFeatures) (*Plan, error) {
	plan := &Plan{}
	for _, spec := range specs {
		if len(spec.Definitions) == 0 {
			a.log.WithField("dataset", spec.Dataset).Warn("Skipping dataset: no features defined in registry")
			plan.skipped = append(plan.skipped, spec.Dataset)
			continue
		}
		engine, err := NewEngine(a.reg, a.keys, spec.Definitions)
		if err != nil {
			return nil, fmt.Errorf("dataset %s: %w", spec.Dataset, err)
		}
		plan.jobs = append(plan.jobs, planned{name: spec.Dataset, engine: engine})
	}
	if len(plan.jobs) == 0 {
		return nil, contracts.Configf("feature.feature_registry", "no features computed; check the feature registry")
	}
	return plan, nil
}

// Assemble compiles specs and runs the resulting plan
func (a *Assembler) Assemble(ctx context.Context, datasets map[string]*table.Table, specs []DatasetFeatures) (*table.Table, Stats, error) {
	plan, err := a.Compile(specs)
	if err != nil {
		return nil, Stats{}, err
	}
	return a.Run(ctx, plan, datasets)
}

// Run computes every planned dataset's features and outer-merges them on
// the group key, in configuration order
func (a *Assembler) Run(ctx context.Context, plan *Plan, datasets map[string]*table.Table) (*table.Table, Stats, error) {
	start := time.Now()
	stats := Stats{Skipped: plan.skipped}

	type job struct {
		name   string
		engine *Engine
		input  *table.Table
	}
	jobs := make([]job, 0, len(plan.jobs))
	for _, p := range plan.jobs {
		input, ok := datasets[p.name]
		if !ok {
			return nil, stats, &contracts.NotFoundError{Resource: "dataset", Path: p.name}
		}
		jobs = append(jobs, job{name: p.name, engine: p.engine, input: input})
	}

	results := make([]*table.Table, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	if a.Workers > 0 {
		g.SetLimit(a.Workers)
	}
	for i, j := range jobs {
		i, j := i, j
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, err := j.engine.Compute(j.input)
			if err != nil {
				return fmt.Errorf("dataset %s: %w", j.name, err)
			}
			a.log.WithFields(map[string]interface{}{
				"dataset":  j.name,
				"rows_in":  j.input.Len(),
				"rows_out": out.Len(),
				"features": len(j.engine.Features()),
			}).Info("Dataset features computed")
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, stats, err
	}

	final := results[0]
	for _, r := range results[1:] {
		merged, err := table.OuterJoin(final, r, a.keys...)
		if err != nil {
			return nil, stats, fmt.Errorf("merge datasets: %w", err)
		}
		final = merged
	}

	stats.Datasets = len(jobs)
	for _, j := range jobs {
		stats.Features += len(j.engine.Features())
	}
	stats.Rows = final.Len()
	stats.Duration = time.Since(start)
	return final, stats, nil
}
