package ui_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/devfs/internal/ui"
)

// decodeLines parses JSON log output, one record per line.
func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		out = append(out, rec)
	}
	return out
}

// A terminal that only wants warnings next to a debug log file, the way
// main wires them with --log.
func TestMultiHandler_ConsoleAndLogFile(t *testing.T) {
	t.Parallel()

	var console, file bytes.Buffer
	logger := slog.New(ui.NewMultiHandler(
		ui.NewConsoleHandler(&console, slog.LevelWarn, false),
		slog.NewJSONHandler(&file, &slog.HandlerOptions{Level: slog.LevelDebug}),
	))
	logger.Debug("transfer planned", "objects", 3)
	logger.Warn("move incomplete, sources kept", "errors", 1)

	assert.NotContains(t, console.String(), "transfer planned")
	assert.Contains(t, console.String(), "move incomplete")
	assert.Contains(t, console.String(), "errors=1")

	recs := decodeLines(t, &file)
	require.Len(t, recs, 2)
	assert.Equal(t, "transfer planned", recs[0]["msg"])
	assert.Equal(t, "DEBUG", recs[0]["level"])
	assert.InDelta(t, 3, recs[0]["objects"], 0)
	assert.Equal(t, "WARN", recs[1]["level"])
}

func TestMultiHandler_Enabled(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tests := []struct {
		name   string
		levels []slog.Level
		level  slog.Level
		want   bool
	}{
		{"no handlers", nil, slog.LevelError, false},
		{"below every handler", []slog.Level{slog.LevelWarn, slog.LevelError}, slog.LevelInfo, false},
		{"accepted by one", []slog.Level{slog.LevelWarn, slog.LevelError}, slog.LevelWarn, true},
		{"accepted by all", []slog.Level{slog.LevelDebug, slog.LevelInfo}, slog.LevelError, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hs []slog.Handler
			for _, l := range tt.levels {
				hs = append(hs, slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: l}))
			}
			assert.Equal(t, tt.want, ui.NewMultiHandler(hs...).Enabled(ctx, tt.level))
		})
	}
}

func TestMultiHandler_AttrsAndGroupsReachEveryHandler(t *testing.T) {
	t.Parallel()

	var text, js bytes.Buffer
	m := ui.NewMultiHandler(
		slog.NewTextHandler(&text, nil),
		slog.NewJSONHandler(&js, nil),
	)
	logger := slog.New(m).With("device", "phone").WithGroup("copy")
	logger.Info("file done", "path", "DCIM/a.jpg")

	assert.Contains(t, text.String(), "device=phone")
	assert.Contains(t, text.String(), "copy.path=DCIM/a.jpg")

	recs := decodeLines(t, &js)
	require.Len(t, recs, 1)
	assert.Equal(t, "phone", recs[0]["device"])
	group, ok := recs[0]["copy"].(map[string]any)
	require.True(t, ok, "expected a copy group, got %v", recs[0])
	assert.Equal(t, "DCIM/a.jpg", group["path"])
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("disk full") }

func TestMultiHandler_KeepsWritingAfterFailure(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	m := ui.NewMultiHandler(
		failingHandler{slog.NewTextHandler(&bytes.Buffer{}, nil)},
		slog.NewTextHandler(&buf, nil),
	)
	rec := slog.NewRecord(time.Time{}, slog.LevelInfo, "scan done", 0)

	err := m.Handle(context.Background(), rec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Contains(t, buf.String(), "scan done")
}

func TestConsoleHandler_NoColor(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(ui.NewConsoleHandler(&buf, slog.LevelInfo, false))
	logger.Debug("hidden")
	logger.Warn("copy failed", "path", "pics/a.jpg")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "copy failed")
	assert.Contains(t, out, "path=pics/a.jpg")
	assert.NotContains(t, out, "\x1b[")
}
