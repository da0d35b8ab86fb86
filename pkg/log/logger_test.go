package log

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNew_JSONAndLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "warn", "json")
	l.Info("dropped")
	l.Warn("kept", "tool", "graph_search")
	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, `"msg":"kept"`)
	assert.Contains(t, out, `"tool":"graph_search"`)
}

func TestNew_TextWith(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "debug", "text").With("component", "router")
	l.Debug("classified")
	assert.Contains(t, buf.String(), "component=router")
}

func TestNewLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "app.log")
	l, err := NewLogger(&Config{Level: "info", File: path})
	require.NoError(t, err)
	l.Info("hello")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
}

func TestNewLogger_NilConfig(t *testing.T) {
	l, err := NewLogger(nil)
	require.NoError(t, err)
	assert.NotNil(t, l.Logger)
}

func TestLevelVar(t *testing.T) {
	v := LevelVar("debug")
	assert.Equal(t, slog.LevelDebug, v.Level())
	v.Set(slog.LevelError)
	assert.Equal(t, slog.LevelError, v.Level())
}
