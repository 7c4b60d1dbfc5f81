// README: zerolog setup; one root logger, children tagged per component.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns the root service logger writing JSON to stdout.
func New(service string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	return zerolog.New(os.Stdout).With().
		Timestamp().
		Str("service", service).
		Logger()
}

// Component derives a child logger tagged with a component name.
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}
