// Package logctx sets up zerolog the way cmd/cryptorun and cmd/cprotocol
// do in the teacher repo: a console writer on an interactive terminal,
// structured JSON otherwise, with field helpers for the pipeline's common
// dimensions.
package logctx

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

// Init configures the global zerolog logger at the given level
// ("debug", "info", "warn", "error"; empty defaults to "info").
func Init(level string) {
	zerolog.TimeFieldFormat = time.RFC3339

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
}

// Worker returns a logger pre-tagged with the venue and "worker" stage,
// used by every venue adapter for consistent, filterable log lines.
func Worker(venue string) zerolog.Logger {
	return log.With().Str("stage", "worker").Str("venue", venue).Logger()
}

// Stage returns a logger pre-tagged with an arbitrary pipeline stage
// name (e.g. "publisher", "matcher", "arb_engine", "snapshotter").
func Stage(stage string) zerolog.Logger {
	return log.With().Str("stage", stage).Logger()
}
