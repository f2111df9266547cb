// Package jobs holds the scheduled pipeline jobs
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gpadpoll/fixed-income-fund-recsys/internal/fetch"
	"github.com/gpadpoll/fixed-income-fund-recsys/pkg/logger"
)

// DefaultFetchSchedule runs on the 5th of each month at 06:00; CVM
// publishes the monthly portfolio archives in the first days of the month
const DefaultFetchSchedule = "0 6 5 * *"

// FetchJob downloads the manifest datasets and writes their partitions
type FetchJob struct {
	fetcher  *fetch.Client
	sources  []fetch.Source
	outDir   string
	schedule string
	logger   *logger.Logger

	now func() time.Time
}

// NewFetchJob creates a fetch job; an empty schedule means DefaultFetchSchedule
func NewFetchJob(fetcher *fetch.Client, sources []fetch.Source, outDir, schedule string, log *logger.Logger) *FetchJob {
	if schedule == "" {
		schedule = DefaultFetchSchedule
	}
	if log == nil {
		log = logger.Nop()
	}
	return &FetchJob{
		fetcher:  fetcher,
		sources:  sources,
		outDir:   outDir,
		schedule: schedule,
		logger:   log,
		now:      time.Now,
	}
}

// Name returns the job name
func (j *FetchJob) Name() string {
	return "data_fetch"
}

// Schedule returns the cron schedule
func (j *FetchJob) Schedule() string {
	return j.schedule
}

// Run fetches every source with today's reference date. It fails only when
// nothing could be fetched, so the scheduler retries total outages.
func (j *FetchJob) Run(ctx context.Context) error {
	ref := j.now().Format(time.DateOnly)
	j.logger.WithField("reference_date", ref).Info("Starting scheduled fetch")

	report, err := j.fetcher.Fetch(ctx, j.sources, ref)
	if err != nil {
		return err
	}
	if len(report.Datasets) == 0 {
		errs := make([]error, 0, len(report.Failures))
		for i := range report.Failures {
			errs = append(errs, &report.Failures[i])
		}
		return fmt.Errorf("no dataset fetched: %w", errors.Join(errs...))
	}

	written, err := fetch.WritePartitions(j.outDir, report, j.logger)
	if err != nil {
		return fmt.Errorf("write partitions: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"datasets":   len(report.Datasets),
		"partitions": len(written),
		"failures":   len(report.Failures),
		"dropped":    report.Dropped,
	}).Info("Scheduled fetch completed")
	return nil
}
