// Package logging builds the logrus logger used by vocrecord.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/sensorable/vocrecord/internal/config"
)

// RunIDKey is the field carrying the ID of a conversion run.
const RunIDKey = "run_id"

// Options describes logger construction parameters.
type Options struct {
	Level      string
	Output     io.Writer // Defaults to os.Stderr.
	File       string    // Optional rotating log file.
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// New constructs a logger using the provided options. Colors are only used when the output is a
// terminal.
func New(opts Options) (*logrus.Logger, error) {
	level, err := parseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetFormatter(&formatter.Formatter{
		NoColors:        !isTerminal(out),
		TimestampFormat: "2006-01-02 15:04:05",
		HideKeys:        false,
		FieldsOrder:     []string{RunIDKey, "image", "annotation"},
	})

	writers := []io.Writer{out}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, fmt.Errorf("ensure log directory: %w", err)
		}
		writers = append(writers, &lumberjack.Logger{
			Filename:   opts.File,
			LocalTime:  true,
			Compress:   true,
			MaxSize:    opts.MaxSizeMB,
			MaxAge:     opts.MaxAgeDays,
			MaxBackups: opts.MaxBackups,
		})
	}
	logger.SetOutput(io.MultiWriter(writers...))

	return logger, nil
}

// NewFromConfig creates a logger from the logging section of cfg, writing to stderr.
func NewFromConfig(cfg *config.Config) (*logrus.Logger, error) {
	if cfg == nil {
		return New(Options{Level: "info"})
	}
	return New(Options{
		Level:      cfg.Logging.Level,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
}

// WithRunID returns an entry tagged with a new random run ID.
func WithRunID(logger logrus.FieldLogger) *logrus.Entry {
	runID := "unknown"
	if id, err := uuid.NewRandom(); err == nil {
		runID = id.String()
	}
	return logger.WithField(RunIDKey, runID)
}

func parseLevel(value string) (logrus.Level, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "info":
		return logrus.InfoLevel, nil
	case "debug":
		return logrus.DebugLevel, nil
	case "warn", "warning":
		return logrus.WarnLevel, nil
	case "error":
		return logrus.ErrorLevel, nil
	}
	return logrus.InfoLevel, fmt.Errorf("log level: unsupported value %q", value)
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
