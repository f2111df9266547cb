package main

import (
	"os"

	"github.com/gpadpoll/fixed-income-fund-recsys/cmd/fif/commands"
)

// main is the entry point for the fif CLI: go run ./cmd/fif [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
