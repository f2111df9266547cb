package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gpadpoll/fixed-income-fund-recsys/internal/contracts"
	"github.com/gpadpoll/fixed-income-fund-recsys/internal/feature"
	"github.com/gpadpoll/fixed-income-fund-recsys/internal/quality"
	"github.com/gpadpoll/fixed-income-fund-recsys/internal/store"
	"github.com/gpadpoll/fixed-income-fund-recsys/internal/table"
)

// featureCmd represents the feature command
var featureCmd = &cobra.Command{
	Use:   "feature",
	Short: "Build the feature store from dataset partitions",
}

// featureBuildCmd represents the build subcommand
var featureBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Compute every configured feature and write the feature table",
	Long: `Loads the partitions of every dataset named in feature.feature_registry,
computes the configured features per group key and outer-merges them into one
feature table.

Example:
  go run ./cmd/fif feature build --input-dir data --config pipeline.yaml --output data/features.parquet`,
	RunE: runFeatureBuild,
}

var (
	// Feature flags
	featureInputDir string
	featureConfig   string
	featureOutput   string
	featureWorkers  int
	featureStrict   bool
)

func init() {
	rootCmd.AddCommand(featureCmd)
	featureCmd.AddCommand(featureBuildCmd)

	featureBuildCmd.Flags().StringVarP(&featureInputDir, "input-dir", "i", "data", "directory containing dataset partitions")
	featureBuildCmd.Flags().StringVarP(&featureConfig, "config", "c", "manifest.yaml", "pipeline YAML with a feature section")
	featureBuildCmd.Flags().StringVarP(&featureOutput, "output", "o", "data/features.parquet", "feature table output path")
	featureBuildCmd.Flags().IntVar(&featureWorkers, "workers", 0, "datasets computed concurrently (0 = all)")
	featureBuildCmd.Flags().BoolVar(&featureStrict, "strict", false, "fail when a dataset misses the coverage thresholds")
}

func runFeatureBuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadPipeline(featureConfig)
	if err != nil {
		return err
	}
	if err := cfg.RequireFeature(); err != nil {
		return err
	}

	specs := cfg.DatasetFeatures()
	assembler := feature.NewAssembler(feature.NewRegistry(), cfg.GroupKeys(), rt.log)
	assembler.Workers = featureWorkers
	plan, err := assembler.Compile(specs)
	if err != nil {
		return fmt.Errorf("compile features: %w", err)
	}

	PrintStageHeader(contracts.StageFeature, rt.runID)
	done := rt.metrics.StartStage(contracts.StageFeature.String())

	gate := quality.NewGate(cfg.GroupKeys(), quality.DefaultConfig())
	datasets := make(map[string]*table.Table, len(specs))
	for _, spec := range specs {
		if len(spec.Definitions) == 0 {
			continue
		}
		t, err := store.ReadPartitioned(featureInputDir, spec.Dataset)
		if err != nil {
			return fmt.Errorf("load dataset %s: %w", spec.Dataset, err)
		}
		rt.metrics.SetRows(spec.Dataset, t.Len())
		snap := gate.Check(spec.Dataset, t, spec.Definitions)
		PrintKeyValue(spec.Dataset, fmt.Sprintf("%d rows, quality %.2f", t.Len(), snap.QualityScore), 16)
		for _, issue := range snap.Issues {
			rt.log.WithField("dataset", spec.Dataset).Warn(issue)
			PrintWarning(fmt.Sprintf("%s: %s", spec.Dataset, issue))
		}
		if featureStrict && !snap.Passed() {
			return fmt.Errorf("dataset %s failed the quality gate (%d issues)", spec.Dataset, len(snap.Issues))
		}
		datasets[spec.Dataset] = t
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	features, stats, err := assembler.Run(ctx, plan, datasets)
	if err != nil {
		return fmt.Errorf("compute features: %w", err)
	}
	for _, spec := range specs {
		if _, ok := datasets[spec.Dataset]; ok {
			rt.metrics.AddFeatures(spec.Dataset, len(spec.Definitions))
		}
	}
	for _, ds := range stats.Skipped {
		PrintWarning(fmt.Sprintf("Skipping dataset '%s': no features defined in registry", ds))
	}

	out, err := store.WriteTable(featureOutput, features, rt.log)
	if err != nil {
		return fmt.Errorf("write features: %w", err)
	}

	PrintSeparator()
	PrintKeyValue("Datasets", fmt.Sprintf("%d", stats.Datasets), 16)
	PrintKeyValue("Features", fmt.Sprintf("%d", stats.Features), 16)
	PrintSuccess(fmt.Sprintf("Features written to: %s", out))
	PrintStageCompletion(contracts.StageFeature, features.Len(), done())
	return nil
}
