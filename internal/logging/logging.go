// Package logging configures the process-wide zerolog logger, grounded on
// the console-writer + level-from-config pattern used across the example
// pack's services.
package logging

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configures the global logger: console output in dev, JSON in
// production, level parsed from levelName (defaulting to info on a bad or
// empty value).
func Init(levelName string, pretty bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	}

	level, err := zerolog.ParseLevel(levelName)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

// For returns a child logger tagged with component, so log lines from the
// order service, the refund sync worker, and the discard-unpaid sweep stay
// distinguishable in a shared stream.
func For(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}
