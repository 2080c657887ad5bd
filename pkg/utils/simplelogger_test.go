package utils

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_WritesKeyValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")
	require.NoError(t, InitLogger(path))
	t.Cleanup(Close)

	Info("tool dispatched", "tool", "create_draft", "success", true)
	SetDebug(false)
	Debug("hidden")
	SetDebug(true)
	Warn("description too long", "length", 2048)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)

	assert.Contains(t, out, "INFO: Logger initialized")
	assert.Contains(t, out, "INFO: tool dispatched tool=create_draft success=true")
	assert.Contains(t, out, "WARN: description too long length=2048")
	assert.NotContains(t, out, "hidden")
}

func TestLogr_UsesFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logr.log")
	require.NoError(t, InitLogger(path))
	t.Cleanup(Close)

	logger := Logr().WithName("conversation").WithValues("run_id", "r1")
	logger.Info("round started", "round", 1)
	logger.V(1).Info("model request", "messages", 3)
	logger.Error(errors.New("boom"), "model call failed")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)

	assert.Contains(t, out, "INFO: conversation: round started run_id=r1 round=1")
	assert.Contains(t, out, "DEBUG: conversation: model request run_id=r1 messages=3")
	assert.Contains(t, out, "ERROR: conversation: model call failed error=boom run_id=r1")
}

func TestLogger_NoFileIsNoop(t *testing.T) {
	Close()
	assert.NotPanics(t, func() {
		Info("dropped")
		Logr().Info("dropped too")
	})
}
