package obs

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// NewLogger builds the logger shared across the client. Console mode is for
// interactive carectl runs; otherwise JSON lines go to stderr.
func NewLogger(console bool, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	var out io.Writer = os.Stderr
	if console {
		out = zerolog.ConsoleWriter{Out: os.Stderr}
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}

// Nop returns a disabled logger for tests and library defaults.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
