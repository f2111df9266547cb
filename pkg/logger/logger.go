// Package logger wraps zerolog with the fields every pipeline entry carries
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gpadpoll/fixed-income-fund-recsys/pkg/config"
)

// Logger writes structured entries. Stdout is left to command output, so the
// default sink is stderr.
type Logger struct {
	zlog zerolog.Logger
}

// New builds a Logger on stderr from cfg
func New(cfg *config.Config) *Logger {
	return NewWithWriter(cfg, os.Stderr)
}

// NewWithWriter builds a Logger on w. LogFormat "console" or "pretty" selects
// human-readable output, anything else emits one JSON object per line.
// The level is applied globally.
func NewWithWriter(cfg *config.Config, w io.Writer) *Logger {
	switch cfg.LogFormat {
	case "console", "pretty":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	zerolog.SetGlobalLevel(parseLogLevel(cfg.LogLevel))

	return &Logger{
		zlog: zerolog.New(w).With().Timestamp().Str("env", cfg.Env).Logger(),
	}
}

// Nop discards everything; used by tests and optional dependencies
func Nop() *Logger {
	return &Logger{zlog: zerolog.Nop()}
}

// parseLogLevel falls back to info for empty or unknown names
func parseLogLevel(name string) zerolog.Level {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "warning" {
		name = "warn"
	}
	level, err := zerolog.ParseLevel(name)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

func (l *Logger) child(ctx zerolog.Context) *Logger {
	return &Logger{zlog: ctx.Logger()}
}

// WithField adds one field to every entry of the returned logger
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return l.child(l.zlog.With().Interface(key, value))
}

// WithFields adds several fields at once
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return l.child(l.zlog.With().Fields(fields))
}

// WithError attaches err under the "error" key
func (l *Logger) WithError(err error) *Logger {
	return l.child(l.zlog.With().Err(err))
}

// WithRunID tags entries with the pipeline run identifier
func (l *Logger) WithRunID(runID string) *Logger {
	return l.child(l.zlog.With().Str("run_id", runID))
}

func (l *Logger) Debug(msg string) { l.zlog.Debug().Msg(msg) }
func (l *Logger) Info(msg string)  { l.zlog.Info().Msg(msg) }
func (l *Logger) Warn(msg string)  { l.zlog.Warn().Msg(msg) }
func (l *Logger) Error(msg string) { l.zlog.Error().Msg(msg) }

func (l *Logger) Debugf(format string, args ...interface{}) { l.zlog.Debug().Msgf(format, args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.zlog.Info().Msgf(format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.zlog.Warn().Msgf(format, args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.zlog.Error().Msgf(format, args...) }
