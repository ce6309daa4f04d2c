// Package logging builds the process loggers.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Profile int

const (
	// ProfileRuntime logs to stdout at info level and replaces the global logger.
	ProfileRuntime Profile = iota
	// ProfileTest logs to stderr at warn level and leaves the global logger alone.
	ProfileTest
)

const (
	EnvLogLevel   = "VC_LOG_LEVEL"
	EnvLogNoColor = "VC_LOG_NOCOLOR"
)

func New(app string, p Profile) zerolog.Logger {
	var out io.Writer = os.Stdout
	level := zerolog.InfoLevel
	if p == ProfileTest {
		out = os.Stderr
		level = zerolog.WarnLevel
	}
	logger := NewWithWriter(app, out, level)
	if p == ProfileRuntime {
		log.Logger = logger
	}
	return logger
}

// NewWithWriter applies env overrides on top of the given default level.
func NewWithWriter(app string, out io.Writer, level zerolog.Level) zerolog.Logger {
	if s := strings.TrimSpace(os.Getenv(EnvLogLevel)); s != "" {
		if l, err := zerolog.ParseLevel(strings.ToLower(s)); err == nil {
			level = l
		}
	}
	output := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		NoColor:    noColor(),
	}
	return zerolog.New(output).Level(level).With().Timestamp().Str("app", app).Logger()
}

func noColor() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(EnvLogNoColor))) {
	case "1", "true", "yes":
		return true
	}
	return false
}
