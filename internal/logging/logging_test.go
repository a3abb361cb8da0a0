package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFromString(t *testing.T) {
	t.Parallel()

	cases := map[string]slog.Level{
		"error":   slog.LevelError,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		" info ":  slog.LevelInfo,
		"":        slog.LevelDebug,
		"debug":   slog.LevelDebug,
	}
	for in, want := range cases {
		assert.Equal(t, want, levelFromString(in), in)
	}
}

func TestJSONFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "info", "json")
	logger.With("component", "gateway").Info("call done", "attempt", 2)
	logger.Debug("dropped")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "call done", rec["msg"])
	assert.Equal(t, "gateway", rec["component"])
	assert.EqualValues(t, 2, rec["attempt"])
}
