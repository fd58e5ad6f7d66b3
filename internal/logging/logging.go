// Package logging builds the process logger.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New returns a JSON logger on stdout, or a console logger in dev. Unknown
// level names fall back to info.
func New(env, level, version string) zerolog.Logger {
	var out io.Writer = os.Stdout
	if env == "dev" {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
	}
	return build(out, level).With().Str("version", version).Logger()
}

func build(out io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}

// Bootstrap is the stderr logger used before configuration has loaded.
// It returns a pointer so Fatal can be chained on the call.
func Bootstrap() *zerolog.Logger {
	l := build(os.Stderr, "info")
	return &l
}
