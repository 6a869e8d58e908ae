package logger

import (
	"os"

	"github.com/rs/zerolog"
)

// New returns the application logger writing human-readable output to
// stderr.
func New() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}
