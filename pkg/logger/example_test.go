package logger_test

import (
	"errors"

	"github.com/gpadpoll/fixed-income-fund-recsys/pkg/config"
	"github.com/gpadpoll/fixed-income-fund-recsys/pkg/logger"
)

// Example_basic demonstrates basic logger usage
func Example_basic() {
	cfg := &config.Config{
		Env:       "development",
		LogLevel:  "info",
		LogFormat: "console",
	}

	log := logger.New(cfg)

	log.Debug("This won't appear (level is info)")
	log.Info("Pipeline started")
	log.Infof("Loaded %d rows", 1200)
}

// Example_withFields demonstrates structured logging with fields
func Example_withFields() {
	log := logger.New(config.Default())

	runLog := log.WithRunID("4f1c2a7e").WithField("stage", "FEATURE")
	runLog.Info("Stage started")

	runLog.WithError(errors.New("status 404")).
		WithFields(map[string]interface{}{
			"dataset": "cda_fi_BLC_1",
			"period":  "202401",
		}).
		Warn("Period skipped")
}
