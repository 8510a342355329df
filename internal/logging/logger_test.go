package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_SlogJSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := New("slog", "debug", &buf)
	require.NoError(t, err)

	log.Debug(context.Background(), "settled", "uid", "u1")

	assert.Contains(t, buf.String(), `"msg":"settled"`)
	assert.Contains(t, buf.String(), `"uid":"u1"`)
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log, err := New("", "warn", &buf)
	require.NoError(t, err)

	log.Info(context.Background(), "hidden")
	assert.Empty(t, buf.String())
}

func TestNew_Errors(t *testing.T) {
	_, err := New("logrus", "info", nil)
	require.Error(t, err)

	_, err = New("slog", "chatty", nil)
	require.Error(t, err)
}

func TestNop(t *testing.T) {
	log := Nop().With("k", "v")
	log.Error(context.Background(), "ignored")
}
