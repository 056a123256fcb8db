package logger

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsolatedLogger_WritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync.log")
	l := NewIsolatedLogger(path)

	l.Info("Hub", "client registered", map[string]interface{}{"user_id": "u-1"})
	l.Error("Hub", "publish failed", map[string]interface{}{"error": errors.New("boom")})
	l.Debug("Hub", "below file level", nil)
	require.NoError(t, l.Sync())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []map[string]interface{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		lines = append(lines, entry)
	}

	require.Len(t, lines, 2)
	assert.Equal(t, "INFO", lines[0]["level"])
	assert.Equal(t, "Hub", lines[0]["module"])
	assert.Equal(t, "client registered", lines[0]["message"])
	assert.Equal(t, "ERROR", lines[1]["level"])
	assert.Equal(t, "boom", lines[1]["error"])
}

func TestNopLogger_NilDetails(t *testing.T) {
	l := NewNopLogger()
	assert.NotPanics(t, func() {
		l.Warn("Test", "nil details", nil)
		_ = l.Sync()
	})
}
