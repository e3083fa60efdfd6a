package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/sensorable/vocrecord/internal/config"
)

func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "warn", Output: &buf})
	require.NoError(t, err)

	logger.Info("hidden")
	logger.WithField("image", "a.png").Warn("shown")

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "shown")
	require.Contains(t, out, "a.png")
	require.NotContains(t, out, "\x1b[", "no colors when not writing to a terminal")
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Options{Level: "verbose"})
	require.ErrorContains(t, err, `unsupported value "verbose"`)
}

func TestNewWritesLogFile(t *testing.T) {
	var buf bytes.Buffer
	file := filepath.Join(t.TempDir(), "logs", "vocrecord.log")
	logger, err := New(Options{Level: "debug", Output: &buf, File: file, MaxSizeMB: 1})
	require.NoError(t, err)

	logger.Debug("to both")

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	require.Contains(t, string(data), "to both")
	require.Contains(t, buf.String(), "to both")
}

func TestNewFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Level = "error"
	logger, err := NewFromConfig(&cfg)
	require.NoError(t, err)
	require.Equal(t, "error", logger.GetLevel().String())
}

func TestWithRunID(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Output: &buf})
	require.NoError(t, err)

	entry := WithRunID(logger)
	runID, ok := entry.Data[RunIDKey].(string)
	require.True(t, ok)
	_, err = uuid.Parse(runID)
	require.NoError(t, err)

	entry.Info("started")
	require.Contains(t, buf.String(), runID)
	require.NotEqual(t, runID, WithRunID(logger).Data[RunIDKey])
}
