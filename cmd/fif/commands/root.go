package commands

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/gpadpoll/fixed-income-fund-recsys/internal/pipelineconfig"
	"github.com/gpadpoll/fixed-income-fund-recsys/pkg/config"
	"github.com/gpadpoll/fixed-income-fund-recsys/pkg/logger"
	"github.com/gpadpoll/fixed-income-fund-recsys/pkg/metrics"
)

var (
	// Global flags
	verbose     bool
	metricsFile string
)

// runtime is built once per invocation, before the selected command runs
var rt struct {
	cfg     *config.Config
	log     *logger.Logger
	metrics *metrics.Metrics
	runID   string
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fif",
	Short: "Ranking Brazilian fixed income funds",
	Long: `fif ranks Brazilian fixed-income funds for investor profiles.

Pipeline:
  data fetch → feature build → model score → policy profile-score → policy top / publish

Examples:
  go run ./cmd/fif data fetch --config pipeline.yaml --output-dir data
  go run ./cmd/fif feature build --input-dir data --config pipeline.yaml
  go run ./cmd/fif model score --config pipeline.yaml
  go run ./cmd/fif policy profile-score --config pipeline.yaml
  go run ./cmd/fif policy top --profile conservative --n 10`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		path := metricsFile
		if path == "" && rt.cfg != nil {
			path = rt.cfg.MetricsFile
		}
		if err := rt.metrics.WriteTextfile(path); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "write prometheus metrics to this textfile after the command")
}

func setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	rt.cfg = cfg
	rt.runID = uuid.NewString()
	rt.log = logger.New(cfg).WithRunID(rt.runID)
	rt.metrics = metrics.New()
	return nil
}

// loadPipeline reads the pipeline YAML, logs its hash and prints its
// recommendation warnings
func loadPipeline(path string) (*pipelineconfig.Config, error) {
	cfg, _, err := pipelineconfig.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load pipeline config: %w", err)
	}

	hash, err := pipelineconfig.Hash(cfg)
	if err != nil {
		return nil, fmt.Errorf("hash pipeline config: %w", err)
	}
	rt.log.WithFields(map[string]interface{}{
		"config": path,
		"hash":   hash,
	}).Info("Pipeline config loaded")

	for _, w := range pipelineconfig.Warn(cfg) {
		rt.log.WithField("code", w.Code).Warn(w.Message)
		PrintWarning(w.Message)
	}
	return cfg, nil
}
