package httputil_test

import (
	"context"
	"fmt"
	"time"

	"github.com/gpadpoll/fixed-income-fund-recsys/pkg/config"
	"github.com/gpadpoll/fixed-income-fund-recsys/pkg/httputil"
	"github.com/gpadpoll/fixed-income-fund-recsys/pkg/logger"
)

// Example_download demonstrates fetching a monthly archive
func Example_download() {
	cfg := config.Default()
	log := logger.New(cfg)

	client := httputil.New(cfg, log)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	body, err := client.GetBytes(ctx, "https://dados.cvm.gov.br/dados/FI/DOC/CDA/DADOS/cda_fi_202401.zip")
	if err != nil {
		fmt.Printf("Download failed: %v\n", err)
		return
	}
	fmt.Printf("Downloaded %d bytes\n", len(body))
}

// Example_customRetry demonstrates tuning retry and rate
func Example_customRetry() {
	cfg := config.Default()
	log := logger.New(cfg)

	client := httputil.New(cfg, log).
		WithRetry(5, 500*time.Millisecond).
		WithRateLimit(0.5)

	_ = client
}
