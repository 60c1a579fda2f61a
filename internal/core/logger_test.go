package core

import (
	"bufio"
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	scanner := bufio.NewScanner(buf)
	for scanner.Scan() {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.level))
		})
	}
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, "warn")

	logger.Debug("seat counted", "year", "7")
	logger.Info("record committed", "id", "VIS-1")
	logger.Warn("commit rejected", "id", "VIS-2", "field", "school_year")
	logger.Error("save failed", "id", "VIS-3")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "commit rejected", entries[0]["msg"])
	assert.Equal(t, "WARN", entries[0]["level"])
	assert.Equal(t, "school_year", entries[0]["field"])
	assert.Equal(t, "save failed", entries[1]["msg"])
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, "debug").With("component", "editor")

	logger.Debug("record deleted", "id", "VIS-1")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "editor", entries[0]["component"])
	assert.Equal(t, "VIS-1", entries[0]["id"])
}

func TestNopLogger(t *testing.T) {
	logger := NopLogger().With("component", "editor")
	assert.NotPanics(t, func() {
		logger.Info("dropped")
		logger.Error("dropped")
	})
	assert.Equal(t, NopLogger(), logger)
}
