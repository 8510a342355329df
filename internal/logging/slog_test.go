package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJSONSlog(t *testing.T, level slog.Level) (*SlogLogger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	h := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: level})
	return NewSlogLogger(slog.New(h)), &buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	dec := json.NewDecoder(buf)
	for dec.More() {
		var line map[string]any
		require.NoError(t, dec.Decode(&line))
		out = append(out, line)
	}
	return out
}

func TestSlogLogger_Levels(t *testing.T) {
	log, buf := newJSONSlog(t, slog.LevelDebug)
	ctx := context.Background()

	log.Debug(ctx, "record loaded", "user_id", "u1")
	log.Info(ctx, "rate increased", "user_id", "u1", "rate", 5.0)
	log.Warn(ctx, "reset boundary missed", "marker", int64(86_400_000))
	log.Error(ctx, "sweep failed", "error", "store error")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 4)

	tests := []struct {
		level, msg, key string
		val             any
	}{
		{"DEBUG", "record loaded", "user_id", "u1"},
		{"INFO", "rate increased", "rate", 5.0},
		{"WARN", "reset boundary missed", "marker", 86_400_000.0},
		{"ERROR", "sweep failed", "error", "store error"},
	}
	for i, tc := range tests {
		assert.Equal(t, tc.level, lines[i]["level"])
		assert.Equal(t, tc.msg, lines[i]["msg"])
		assert.Equal(t, tc.val, lines[i][tc.key])
	}
}

func TestSlogLogger_LevelFiltersDebug(t *testing.T) {
	log, buf := newJSONSlog(t, slog.LevelInfo)

	log.Debug(context.Background(), "record loaded", "user_id", "u1")
	assert.Zero(t, buf.Len())
}

func TestSlogLogger_WithScopesChild(t *testing.T) {
	log, buf := newJSONSlog(t, slog.LevelInfo)

	sweeper := log.With("module", "sweeper").With("sweep_id", "s-1")
	sweeper.Info(context.Background(), "sweep finished", "reset", 3)
	log.Info(context.Background(), "server started")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "sweeper", lines[0]["module"])
	assert.Equal(t, "s-1", lines[0]["sweep_id"])
	assert.Equal(t, 3.0, lines[0]["reset"])
	assert.NotContains(t, lines[1], "module")
}

func TestSlogLogger_NilInputs(t *testing.T) {
	assert.NotNil(t, NewSlogLogger(nil).l)

	log, buf := newJSONSlog(t, slog.LevelInfo)
	var ctx context.Context
	log.Info(ctx, "sweep started")
	assert.Contains(t, buf.String(), "sweep started")
}
