// Package logging wires a debug logger for the statusline. The process
// renders to stdout, so logs never go there; when CCLINE_DEBUG=1 they
// are appended to a file in the cache directory, otherwise every event
// is discarded.
package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

const debugEnv = "CCLINE_DEBUG"

// Setup returns the process logger. The returned closer is non-nil
// when a log file was opened.
func Setup(cacheDir string) (zerolog.Logger, io.Closer) {
	if os.Getenv(debugEnv) != "1" {
		zerolog.SetGlobalLevel(zerolog.Disabled)
		return zerolog.Nop(), nil
	}

	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return zerolog.New(os.Stderr).With().Timestamp().Logger(), nil
	}
	path := filepath.Join(cacheDir, "debug.log")
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return zerolog.New(os.Stderr).With().Timestamp().Logger(), nil
	}

	return zerolog.New(f).With().Timestamp().Logger(), f
}
