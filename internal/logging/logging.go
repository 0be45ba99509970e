// Package logging builds the service logger from configuration.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/cypherlabdev/hedge-signal-service/internal/config"
)

// ServiceName is attached to every log line
const ServiceName = "hedge-signal"

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New builds a logger writing to stdout and, when cfg.File is set, to a rotated
// log file. The returned closer releases the file.
func New(cfg config.LoggingConfig) (zerolog.Logger, io.Closer, error) {
	return NewWithWriter(cfg, os.Stdout)
}

// NewWithWriter is New with the console output redirected to w
func NewWithWriter(cfg config.LoggingConfig, w io.Writer) (zerolog.Logger, io.Closer, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	var console io.Writer = w
	if cfg.Format == "console" {
		console = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	var closer io.Closer = nopCloser{}
	out := console

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		// Files always get JSON regardless of the console format
		file := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		closer = file
		out = io.MultiWriter(console, file)
	}

	logger := zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", ServiceName).
		Logger()

	return logger, closer, nil
}
