package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/soltixdb/dbstats/internal/config"
)

// NewFromConfig creates a logger from configuration. OutputPath may list
// several targets separated by commas, e.g. "stderr,/var/log/dbstats.log".
// An unknown level falls back to info.
func NewFromConfig(cfg config.LoggingConfig) (*Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	var writers []io.Writer
	for _, target := range strings.Split(cfg.OutputPath, ",") {
		w, err := openOutput(strings.TrimSpace(target))
		if err != nil {
			return nil, err
		}
		if cfg.Format == "console" {
			w = zerolog.ConsoleWriter{Out: w, TimeFormat: timeLayout(cfg.TimeFormat)}
		}
		writers = append(writers, w)
	}

	if len(writers) == 1 {
		return NewWithWriter(writers[0], level), nil
	}
	return NewWithWriter(zerolog.MultiLevelWriter(writers...), level), nil
}

func openOutput(target string) (io.Writer, error) {
	switch target {
	case "", "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory for %s: %w", target, err)
	}
	file, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", target, err)
	}
	return file, nil
}

// timeLayout maps the configured name to a console time layout
func timeLayout(name string) string {
	switch strings.ToLower(name) {
	case "unix":
		return time.UnixDate
	case "kitchen":
		return time.Kitchen
	case "stamp":
		return time.StampMilli
	default:
		return time.RFC3339
	}
}
