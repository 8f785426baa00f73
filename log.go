package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
)

// logConfig is read from the environment.
type logConfig struct {
	Level string `env:"FORMANT_LOG_LEVEL" envDefault:"warn"`
	File  string `env:"FORMANT_LOG_FILE"`
}

// setupLog configures the default logger. Without FORMANT_LOG_FILE it writes
// to stderr so stdout stays free for audio.
func setupLog() (func() error, error) {
	cfg, err := env.ParseAs[logConfig]()
	if err != nil {
		return nil, fmt.Errorf("error parsing log config: %w", err)
	}

	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid FORMANT_LOG_LEVEL %q: %w", cfg.Level, err)
	}
	log.SetLevel(level)
	log.SetReportTimestamp(false)

	if cfg.File == "" {
		log.SetOutput(os.Stderr)
		return func() error { return nil }, nil
	}

	return openLogFile(cfg.File)
}

func openLogFile(path string) (func() error, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil { //nolint:gosec
		// log disabled
		log.SetOutput(io.Discard)
		return func() error { return nil }, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) //nolint:gosec
	if err != nil {
		log.SetOutput(io.Discard)
		return func() error { return nil }, nil
	}
	log.SetOutput(f)
	log.SetReportTimestamp(true)
	return f.Close, nil
}
