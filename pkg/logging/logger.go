// Package logging provides structured logging for the reconciliation workflow
// using zerolog. Console output is used when stderr is a terminal and JSON
// output otherwise, so the same binary serves both interactive CLI runs and
// the HTTP service.
//
// Example usage:
//
//	log := logging.Default()
//	log.Info().Str("session_id", id).Msg("Analysis completed")
//
//	ctx := logging.WithSession(context.Background(), id)
//	logging.FromContext(ctx).Debug().Msg("Recording choice")
package logging

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var defaultLogger = NewLoggerFromConfig(DefaultConfig().ApplyEnv())

// Default returns the process-wide logger. Packages that are not handed a
// logger fall back to it.
func Default() *zerolog.Logger {
	return &defaultLogger
}

// SetDefault replaces the process-wide logger, including zerolog's global
// log.Logger.
func SetDefault(logger zerolog.Logger) {
	defaultLogger = logger
	log.Logger = logger
}

// New creates a JSON logger writing to w at the global level.
func New(w io.Writer) zerolog.Logger {
	return zerolog.New(w).
		Level(zerolog.GlobalLevel()).
		With().
		Timestamp().
		Logger()
}

// Warn starts a warning on the default logger.
func Warn() *zerolog.Event {
	return defaultLogger.Warn()
}

func stderrIsTerminal() bool {
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
