package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gpadpoll/fixed-income-fund-recsys/internal/contracts"
	"github.com/gpadpoll/fixed-income-fund-recsys/internal/policy"
	"github.com/gpadpoll/fixed-income-fund-recsys/internal/store"
	"github.com/gpadpoll/fixed-income-fund-recsys/internal/table"
	"github.com/gpadpoll/fixed-income-fund-recsys/pkg/database"
)

// policyCmd represents the policy command
var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Compute and publish investor-profile rankings",
	Long: `Combines score columns into one weighted score per investor profile,
ranks funds by it and exposes the result.

Example:
  go run ./cmd/fif policy profile-score --input data/features_scored.parquet --config pipeline.yaml
  go run ./cmd/fif policy top --profile conservative --n 10 --xlsx top.xlsx
  go run ./cmd/fif policy publish --config pipeline.yaml`,
}

// policyProfileScoreCmd represents the profile-score subcommand
var policyProfileScoreCmd = &cobra.Command{
	Use:   "profile-score",
	Short: "Append score_<profile> and rank_<profile> columns",
	RunE:  runPolicyProfileScore,
}

// policyTopCmd represents the top subcommand
var policyTopCmd = &cobra.Command{
	Use:   "top",
	Short: "Show the best ranked funds of a period",
	RunE:  runPolicyTop,
}

// policyPublishCmd represents the publish subcommand
var policyPublishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish profile rankings to PostgreSQL (FIF_DATABASE_URL)",
	RunE:  runPolicyPublish,
}

var (
	// profile-score flags
	profileScoreInput  string
	profileScoreConfig string
	profileScoreOutput string

	// top and publish flags
	policyInput   string
	policyConfig  string
	policyProfile string
	policyTopN    int
	policyPeriod  string
	policyXLSX    string
)

const profileScoredPath = "data/features_profile_scored.parquet"

func init() {
	rootCmd.AddCommand(policyCmd)
	policyCmd.AddCommand(policyProfileScoreCmd)
	policyCmd.AddCommand(policyTopCmd)
	policyCmd.AddCommand(policyPublishCmd)

	policyProfileScoreCmd.Flags().StringVarP(&profileScoreInput, "input", "i", "data/features_scored.parquet", "feature table with score components")
	policyProfileScoreCmd.Flags().StringVarP(&profileScoreConfig, "config", "c", "profiles.yaml", "pipeline YAML with a profile or profiles section")
	policyProfileScoreCmd.Flags().StringVarP(&profileScoreOutput, "output", "o", profileScoredPath, "output file with profile scores and rankings")

	for _, c := range []*cobra.Command{policyTopCmd, policyPublishCmd} {
		c.Flags().StringVarP(&policyInput, "input", "i", profileScoredPath, "profile-scored table")
		c.Flags().StringVarP(&policyConfig, "config", "c", "", "pipeline YAML; selects profiles in config order (default: every profile in the table)")
	}
	policyTopCmd.Flags().StringVarP(&policyProfile, "profile", "p", "", "profile to show (default: every profile)")
	policyTopCmd.Flags().IntVar(&policyTopN, "n", 10, "number of funds per profile (0 = all)")
	policyTopCmd.Flags().StringVar(&policyPeriod, "period", "", "period to rank (default: latest)")
	policyTopCmd.Flags().StringVar(&policyXLSX, "xlsx", "", "also write the result as an Excel workbook, one sheet per profile")
}

func runPolicyProfileScore(cmd *cobra.Command, args []string) error {
	scored, err := store.ReadTable(profileScoreInput)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	cfg, err := loadPipeline(profileScoreConfig)
	if err != nil {
		return err
	}
	if err := cfg.RequireProfiles(); err != nil {
		return err
	}

	engine, err := policy.NewEngine(cfg.ProfileDefinitions())
	if err != nil {
		return err
	}

	PrintStageHeader(contracts.StagePolicy, rt.runID)
	PrintList(engine.Profiles())
	PrintSeparator()

	done := rt.metrics.StartStage(contracts.StagePolicy.String())
	ranked, err := engine.Compute(scored)
	if err != nil {
		return fmt.Errorf("compute profile scores: %w", err)
	}
	for _, p := range engine.Profiles() {
		rt.metrics.SetRanked(p, rankedCount(ranked, p))
	}

	out, err := store.WriteTable(profileScoreOutput, ranked, rt.log)
	if err != nil {
		return fmt.Errorf("write profile scores: %w", err)
	}

	PrintSuccess(fmt.Sprintf("Profile scores written to: %s", out))
	PrintStageCompletion(contracts.StagePolicy, ranked.Len(), done())
	return nil
}

// selectProfiles resolves which profiles a read command works on: the
// --profile flag, else the config's profiles, else every profile in t
func selectProfiles(t *table.Table, only string) ([]string, error) {
	if only != "" {
		return []string{only}, nil
	}
	if policyConfig != "" {
		cfg, err := loadPipeline(policyConfig)
		if err != nil {
			return nil, err
		}
		if err := cfg.RequireProfiles(); err != nil {
			return nil, err
		}
		return cfg.ProfileSection().Keys(), nil
	}
	profiles := policy.ProfilesIn(t)
	if len(profiles) == 0 {
		return nil, contracts.Configf("profile", "%s has no score_<profile> columns; run policy profile-score first", policyInput)
	}
	return profiles, nil
}

func runPolicyTop(cmd *cobra.Command, args []string) error {
	ranked, err := store.ReadTable(policyInput)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	profiles, err := selectProfiles(ranked, policyProfile)
	if err != nil {
		return err
	}

	cols := policy.DefaultColumns
	var reports []store.TopReport
	for _, p := range profiles {
		top, period, err := policy.Top(ranked, p, policyTopN, policyPeriod, cols)
		if err != nil {
			return err
		}

		fmt.Println()
		PrintDoubleSeparator()
		fmt.Printf("  %s  (period %s, %d funds)\n", p, period, top.Len())
		PrintDoubleSeparator()
		PrintTable(top,
			[]string{"rank_" + p, cols.Fund, cols.Name, "score_" + p},
			[]int{6, 20, 40, 10})

		reports = append(reports, store.TopReport{Profile: p, Period: period, Table: top})
	}

	if policyXLSX != "" {
		if err := store.WriteTopReport(policyXLSX, reports); err != nil {
			return fmt.Errorf("write xlsx: %w", err)
		}
		fmt.Println()
		PrintSuccess(fmt.Sprintf("Rankings written to: %s", policyXLSX))
	}
	return nil
}

func runPolicyPublish(cmd *cobra.Command, args []string) error {
	if err := rt.cfg.RequireDatabase(); err != nil {
		return err
	}

	ranked, err := store.ReadTable(policyInput)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	profiles, err := selectProfiles(ranked, "")
	if err != nil {
		return err
	}

	var ranks []contracts.RankedFund
	for _, p := range profiles {
		rows, err := policy.Rankings(ranked, p, policy.DefaultColumns)
		if err != nil {
			return err
		}
		ranks = append(ranks, rows...)
		rt.metrics.SetRanked(p, rankedCount(ranked, p))
	}

	PrintStageHeader(contracts.StagePublish, rt.runID)
	PrintKeyValue("Profiles", fmt.Sprintf("%d", len(profiles)), 10)
	PrintKeyValue("Rows", fmt.Sprintf("%d", len(ranks)), 10)
	PrintSeparator()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.New(ctx, rt.cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	done := rt.metrics.StartStage(contracts.StagePublish.String())
	sink := store.NewPGSink(db.Pool, rt.runID, rt.log)
	n, err := sink.PublishRanks(ctx, ranks)
	if err != nil {
		return fmt.Errorf("publish rankings: %w", err)
	}

	PrintSuccess(fmt.Sprintf("Published %d rankings to fund_profile_ranks", n))
	PrintStageCompletion(contracts.StagePublish, int(n), done())
	return nil
}

// rankedCount counts rows with a non-zero rank for one profile
func rankedCount(t *table.Table, profile string) int {
	ranks, ok := t.Numeric("rank_" + profile)
	if !ok {
		return 0
	}
	n := 0
	for _, r := range ranks {
		if r.Or(0) > 0 {
			n++
		}
	}
	return n
}
