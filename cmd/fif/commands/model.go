package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gpadpoll/fixed-income-fund-recsys/internal/contracts"
	"github.com/gpadpoll/fixed-income-fund-recsys/internal/score"
	"github.com/gpadpoll/fixed-income-fund-recsys/internal/store"
)

// modelCmd represents the model command
var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Compute model scores from feature tables",
}

// modelScoreCmd represents the score subcommand
var modelScoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Append the configured z-scores to a feature table",
	Long: `Standardizes features within each value of the grouping column (the
period by default) and appends one column per entry of the score section.

Example:
  go run ./cmd/fif model score --input data/features.parquet --config pipeline.yaml`,
	RunE: runModelScore,
}

var (
	// Model flags
	modelInput   string
	modelConfig  string
	modelOutput  string
	modelGroupBy string
)

func init() {
	rootCmd.AddCommand(modelCmd)
	modelCmd.AddCommand(modelScoreCmd)

	modelScoreCmd.Flags().StringVarP(&modelInput, "input", "i", "data/features.parquet", "feature table input path (parquet or csv)")
	modelScoreCmd.Flags().StringVarP(&modelConfig, "config", "c", "feature.yaml", "pipeline YAML with a score section")
	modelScoreCmd.Flags().StringVarP(&modelOutput, "output", "o", "data/features_scored.parquet", "scored feature table output path")
	modelScoreCmd.Flags().StringVar(&modelGroupBy, "group-by", "", "column scores are standardized within (default: last feature group key)")
}

func runModelScore(cmd *cobra.Command, args []string) error {
	features, err := store.ReadTable(modelInput)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	cfg, err := loadPipeline(modelConfig)
	if err != nil {
		return err
	}
	if err := cfg.RequireScore(); err != nil {
		return err
	}

	groupBy := modelGroupBy
	if groupBy == "" {
		groupBy = cfg.DefaultScoreGroup()
	}

	engine, err := score.NewEngine(cfg.ScoreDefinitions())
	if err != nil {
		return err
	}

	PrintStageHeader(contracts.StageScore, rt.runID)
	PrintKeyValue("Input", modelInput, 10)
	PrintKeyValue("Group by", groupBy, 10)
	PrintKeyValue("Scores", fmt.Sprintf("%d", cfg.Score.Len()), 10)
	PrintSeparator()

	done := rt.metrics.StartStage(contracts.StageScore.String())
	scored, err := engine.Compute(features, groupBy)
	if err != nil {
		return fmt.Errorf("compute scores: %w", err)
	}

	out, err := store.WriteTable(modelOutput, scored, rt.log)
	if err != nil {
		return fmt.Errorf("write scores: %w", err)
	}

	PrintSuccess(fmt.Sprintf("Scored features written to: %s", out))
	PrintStageCompletion(contracts.StageScore, scored.Len(), done())
	return nil
}
