package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger

	assert.NotPanics(t, func() {
		l.Info("ORDER", "hello")
		l.Warn("ORDER", "hello")
		l.Error("ORDER", "hello")
		l.LogOrder("o-1", "placed")
		l.LogPayment("o-1", "paid")
		l.LogAPI("GET", "/healthz", 200)
	})
	assert.NoError(t, l.Close())
}

func TestLoggerWritesJSONLines(t *testing.T) {
	dir := t.TempDir()

	l, err := New(dir)
	require.NoError(t, err)
	defer l.Close()

	l.Info("ORDER", "order placed")
	l.Error("KAFKA", "publish failed")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var first entry
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, LevelInfo, first.Level)
	assert.Equal(t, "ORDER", first.Category)
	assert.Equal(t, "order placed", first.Message)

	var second entry
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, LevelError, second.Level)
	assert.Equal(t, "publish failed", second.Message)
}
