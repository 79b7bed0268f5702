// Package enginelog configures the structured logger used across the
// opinion-analysis engine. Components never instantiate their own logger;
// they call enginelog.Get() and attach a component field, mirroring the
// logging.getLogger(__name__) pattern used throughout the original
// named_matrix.py batch-update progress reporting.
package enginelog

import (
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	once   sync.Once
	logger zerolog.Logger
)

// base lazily builds the process-wide logger: JSON to stdout by default, or
// a human-readable console writer when OPINE_LOG_PRETTY is set (useful
// under `go test -v` and local development).
func base() zerolog.Logger {
	once.Do(func() {
		var w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
		if os.Getenv("OPINE_LOG_PRETTY") == "" {
			logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
			return
		}
		logger = zerolog.New(w).With().Timestamp().Logger()
	})
	return logger
}

// Get returns a logger scoped to the named component, e.g. enginelog.Get("matrix").
func Get(component string) zerolog.Logger {
	return base().With().Str("component", component).Logger()
}
