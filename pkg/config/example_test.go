package config_test

import (
	"fmt"

	"github.com/gpadpoll/fixed-income-fund-recsys/pkg/config"
)

// Example_default shows the offline defaults and the publish precondition
func Example_default() {
	cfg := config.Default()
	fmt.Println(cfg.DataDir, cfg.HTTP.MaxRetries, cfg.APIPort)

	if err := cfg.RequireDatabase(); err != nil {
		fmt.Println(err)
	}

	cfg.Database.URL = "postgres://fif@localhost:5432/fif"
	fmt.Println(cfg.RequireDatabase() == nil)
	// Output:
	// data 3 8089
	// FIF_DATABASE_URL is required
	// true
}
