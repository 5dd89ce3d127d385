package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func restoreDefault(t *testing.T) {
	old := slog.Default()
	t.Cleanup(func() { slog.SetDefault(old) })
}

func TestInitLogger_Levels(t *testing.T) {
	restoreDefault(t)

	var buf bytes.Buffer
	InitLogger(false, "", &buf)
	LogDebug("hidden")
	LogInfo("scan finished", "scan_id", "abc")
	LogError("store failed", errors.New("boom"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "scan finished", rec["msg"])
	assert.Equal(t, "abc", rec["scan_id"])

	require.NoError(t, json.Unmarshal([]byte(lines[1]), &rec))
	assert.Equal(t, "boom", rec["error"])

	buf.Reset()
	InitLogger(true, "", &buf)
	LogDebug("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestInitLogger_File(t *testing.T) {
	restoreDefault(t)

	logFile := filepath.Join(t.TempDir(), "sentinel.log")
	var buf bytes.Buffer
	closeLog := InitLogger(false, logFile, &buf)
	slog.Default().With("component", "test").Info("both sinks")
	LogWarn("careful")
	require.NoError(t, closeLog())

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "both sinks")
	assert.Contains(t, string(data), `"component":"test"`)
	assert.Contains(t, buf.String(), "careful")
}

func TestInitLogger_FileError(t *testing.T) {
	restoreDefault(t)

	var buf bytes.Buffer
	closeLog := InitLogger(false, filepath.Join(t.TempDir(), "missing", "dir", "x.log"), &buf)
	LogInfo("still logging")
	assert.Contains(t, buf.String(), "Failed to open log file")
	assert.Contains(t, buf.String(), "still logging")
	assert.NoError(t, closeLog())
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("sink down") }

func TestFanout_KeepsWritingAfterSinkError(t *testing.T) {
	var buf bytes.Buffer
	h := fanout{failingHandler{slog.NewJSONHandler(io.Discard, nil)}, slog.NewJSONHandler(&buf, nil)}

	err := h.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "scan done", 0))
	assert.EqualError(t, err, "sink down")
	assert.Contains(t, buf.String(), "scan done")
}
