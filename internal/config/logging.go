package config

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const serviceName = "gatherkit"

// NewLogger builds the process-wide logger from LoggingConfig and also
// installs it as zerolog's global logger. Every line is stamped with the
// service name so aggregated logs stay attributable.
func NewLogger(cfg LoggingConfig) zerolog.Logger {
	logger := newLoggerTo(os.Stdout, cfg)
	log.Logger = logger
	return logger
}

func newLoggerTo(w io.Writer, cfg LoggingConfig) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	output := w
	if strings.EqualFold(cfg.Format, "console") {
		output = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		}
	}

	return zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Str("service", serviceName).
		Logger()
}
