// Package blog provides burrow's structured logging over zerolog: a
// global logger initialized once via Init, plus small helpers for
// component- and transaction-scoped child loggers.
package blog

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the global logger instance, safe for concurrent use once
// Init has run. Before Init is called it is the zerolog zero value,
// which discards everything; tests that don't care about log output can
// leave it that way.
var Logger zerolog.Logger

// Level names a logging threshold.
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

// Config configures the global logger.
type Config struct {
	Level      Level
	JSONOutput bool
	Output     io.Writer
}

// Init (re)configures the global Logger.
func Init(cfg Config) {
	var level zerolog.Level
	switch cfg.Level {
	case DebugLevel:
		level = zerolog.DebugLevel
	case WarnLevel:
		level = zerolog.WarnLevel
	case ErrorLevel:
		level = zerolog.ErrorLevel
	default:
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	if cfg.JSONOutput {
		Logger = zerolog.New(output).With().Timestamp().Logger()
	} else {
		Logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger()
	}
}

// WithComponent returns a child logger tagging every entry with the given
// component name (e.g. "worldstate", "commit").
func WithComponent(component string) zerolog.Logger {
	return Logger.With().Str("component", component).Logger()
}

// WithTxn returns a child logger tagging every entry with a transaction
// timestamp, for correlating a burst of log lines with one commit attempt.
func WithTxn(ts uint64) zerolog.Logger {
	return Logger.With().Uint64("tx", ts).Logger()
}
