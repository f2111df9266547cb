package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gpadpoll/fixed-income-fund-recsys/internal/api"
	"github.com/gpadpoll/fixed-income-fund-recsys/internal/api/handlers"
	"github.com/gpadpoll/fixed-income-fund-recsys/internal/policy"
	"github.com/gpadpoll/fixed-income-fund-recsys/internal/store"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Serve profile rankings over HTTP",
}

// apiServeCmd represents the serve subcommand
var apiServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the read-only ranking API",
	Long: `Loads a profile-scored table and serves it until interrupted.

Endpoints:
  GET  /health                                          - Health check
  GET  /metrics                                         - Prometheus metrics
  GET  /api/profiles                                    - Ranked profiles
  GET  /api/profiles/{profile}/ranking?period=&limit=   - Ranking of one period (default: latest)

Example:
  go run ./cmd/fif api serve --input data/features_profile_scored.parquet --port 8089`,
	RunE: runAPIServe,
}

var (
	apiInput string
	apiPort  string
)

func init() {
	rootCmd.AddCommand(apiCmd)
	apiCmd.AddCommand(apiServeCmd)

	apiServeCmd.Flags().StringVarP(&apiInput, "input", "i", profileScoredPath, "profile-scored table to serve")
	apiServeCmd.Flags().StringVar(&apiPort, "port", "", "API server port (default: FIF_API_PORT)")
}

func runAPIServe(cmd *cobra.Command, args []string) error {
	cfg, log := rt.cfg, rt.log
	if apiPort != "" {
		cfg.APIPort = apiPort
	}

	ranked, err := store.ReadTable(apiInput)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	source, err := api.NewTableSource(ranked, policy.DefaultColumns)
	if err != nil {
		return err
	}
	for _, p := range source.Profiles() {
		rt.metrics.SetRanked(p, rankedCount(ranked, p))
	}

	log.WithFields(map[string]interface{}{
		"input":    apiInput,
		"rows":     ranked.Len(),
		"profiles": source.Profiles(),
	}).Info("Rankings loaded")

	router := api.NewRouter(handlers.NewRankingHandler(source, log), rt.metrics.Registry(), log)
	server := api.New(cfg, log, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.APIPort)
	fmt.Println("\nAvailable endpoints:")
	PrintList([]string{
		"GET  /health",
		"GET  /metrics",
		"GET  /api/profiles",
		"GET  /api/profiles/{profile}/ranking",
	})
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
