package settings

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ConfigureLogging sets the global zerolog level and output.
// Pretty output goes to stderr so it never mixes with stdio transports.
func ConfigureLogging(cfg LogSettings) {
	ConfigureLoggingTo(cfg, os.Stderr)
}

// ConfigureLoggingTo is ConfigureLogging with an explicit writer
func ConfigureLoggingTo(cfg LogSettings, w io.Writer) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if cfg.Pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
}
