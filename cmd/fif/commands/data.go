package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gpadpoll/fixed-income-fund-recsys/internal/contracts"
	"github.com/gpadpoll/fixed-income-fund-recsys/internal/fetch"
	"github.com/gpadpoll/fixed-income-fund-recsys/internal/scheduler"
	"github.com/gpadpoll/fixed-income-fund-recsys/internal/scheduler/jobs"
	"github.com/gpadpoll/fixed-income-fund-recsys/pkg/httputil"
)

// dataCmd represents the data command
var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Download CVM datasets",
	Long: `Downloads the monthly CVM disclosure archives listed in the manifest
section of the pipeline config and writes them as period partitions:

  <output-dir>/<dataset>/period=<period>/data.parquet

Example:
  go run ./cmd/fif data fetch --config pipeline.yaml --output-dir data
  go run ./cmd/fif data schedule --config pipeline.yaml --cron "0 6 5 * *"`,
}

// dataFetchCmd represents the fetch subcommand
var dataFetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch every manifest dataset once",
	RunE:  runDataFetch,
}

// dataScheduleCmd represents the schedule subcommand
var dataScheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Fetch on a cron schedule until interrupted",
	RunE:  runDataSchedule,
}

var (
	// Data flags
	dataConfig        string
	dataOutputDir     string
	dataReferenceDate string
	dataCron          string
	dataRunNow        bool
)

func init() {
	rootCmd.AddCommand(dataCmd)
	dataCmd.AddCommand(dataFetchCmd)
	dataCmd.AddCommand(dataScheduleCmd)

	for _, c := range []*cobra.Command{dataFetchCmd, dataScheduleCmd} {
		c.Flags().StringVarP(&dataConfig, "config", "c", "manifest.yaml", "pipeline YAML with a manifest section")
		c.Flags().StringVarP(&dataOutputDir, "output-dir", "o", "data", "root directory for dataset partitions")
	}
	dataFetchCmd.Flags().StringVar(&dataReferenceDate, "reference-date", "", "reference date stamped on every row (default: today, YYYY-MM-DD)")
	dataScheduleCmd.Flags().StringVar(&dataCron, "cron", jobs.DefaultFetchSchedule, "cron expression (5 or 6 fields, or @descriptor)")
	dataScheduleCmd.Flags().BoolVar(&dataRunNow, "run-now", false, "run one fetch immediately before waiting for the schedule")
}

// newFetcher wires the download client into a fetch.Client
func newFetcher() *fetch.Client {
	client := httputil.New(rt.cfg, rt.log)
	return fetch.NewClient(client, rt.log).WithMetrics(rt.metrics)
}

func manifestSources() ([]fetch.Source, error) {
	cfg, err := loadPipeline(dataConfig)
	if err != nil {
		return nil, err
	}
	if err := cfg.RequireManifest(); err != nil {
		return nil, err
	}
	return fetch.SourcesFrom(cfg), nil
}

func runDataFetch(cmd *cobra.Command, args []string) error {
	ref := dataReferenceDate
	if ref == "" {
		ref = time.Now().Format(time.DateOnly)
	} else if _, err := time.Parse(time.DateOnly, ref); err != nil {
		return fmt.Errorf("invalid reference date %q: %w", ref, err)
	}

	sources, err := manifestSources()
	if err != nil {
		return err
	}

	PrintStageHeader(contracts.StageFetch, rt.runID)
	PrintKeyValue("Datasets", fmt.Sprintf("%d", len(sources)), 14)
	PrintKeyValue("Reference", ref, 14)
	PrintKeyValue("Output", dataOutputDir, 14)
	PrintSeparator()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := rt.metrics.StartStage(contracts.StageFetch.String())
	report, err := newFetcher().Fetch(ctx, sources, ref)
	if err != nil {
		return fmt.Errorf("fetch interrupted: %w", err)
	}

	written, err := fetch.WritePartitions(dataOutputDir, report, rt.log)
	if err != nil {
		return fmt.Errorf("write partitions: %w", err)
	}
	elapsed := done()

	rows := 0
	for _, ds := range report.Datasets {
		t := report.Tables[ds]
		rows += t.Len()
		PrintSuccess(fmt.Sprintf("%s: %d rows, %d periods", ds, t.Len(), len(fetch.Periods(t))))
	}
	for _, f := range report.Failures {
		PrintWarning(f.Error())
	}
	for _, ds := range report.Dropped {
		PrintWarning(fmt.Sprintf("%s: no period could be fetched, dataset dropped", ds))
	}

	if len(report.Datasets) == 0 {
		return fmt.Errorf("no dataset fetched (%d failures)", len(report.Failures))
	}

	PrintKeyValue("Partitions", fmt.Sprintf("%d", len(written)), 14)
	PrintStageCompletion(contracts.StageFetch, rows, elapsed)
	return nil
}

func runDataSchedule(cmd *cobra.Command, args []string) error {
	if _, err := scheduler.Parser.Parse(dataCron); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", dataCron, err)
	}

	sources, err := manifestSources()
	if err != nil {
		return err
	}

	sched := scheduler.New(rt.log)
	job := jobs.NewFetchJob(newFetcher(), sources, dataOutputDir, dataCron, rt.log)
	if err := sched.AddJob(job); err != nil {
		return fmt.Errorf("register fetch job: %w", err)
	}

	if dataRunNow {
		result, err := sched.RunJob(job.Name())
		if err != nil {
			return err
		}
		if !result.Success {
			PrintWarning(fmt.Sprintf("Initial fetch failed: %s", result.Error))
		} else {
			PrintSuccess(fmt.Sprintf("Initial fetch completed in %s", result.Duration))
		}
	}

	sched.Start()
	next, _ := sched.NextRun(job.Name())
	PrintInfo(fmt.Sprintf("Scheduled %s (%s), next run %s", job.Name(), dataCron, next.Format(time.RFC3339)))
	PrintInfo("Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println()
	PrintInfo("Shutting down scheduler...")
	sched.Stop()

	for name, stats := range sched.GetJobStats() {
		PrintKeyValue(name, fmt.Sprintf("%d runs, %.0f%% success, %d failing in a row",
			stats.TotalRuns, stats.SuccessRate*100, stats.ConsecutiveFailures), 14)
	}
	return nil
}
