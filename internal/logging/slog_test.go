package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufLogger(level slog.Level) (*SlogLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: level})
	return NewSlogLogger(slog.New(h)), &buf
}

func TestSlogLogger_Levels(t *testing.T) {
	ctx := context.Background()

	log, buf := newBufLogger(slog.LevelDebug)

	log.Debug(ctx, "d", "k", 1)
	log.Info(ctx, "i", "k", 2)
	log.Warn(ctx, "w", "k", 3)
	log.Error(ctx, "e", "k", 4)

	out := buf.String()
	assert.Contains(t, out, "level=DEBUG")
	assert.Contains(t, out, "level=INFO")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "level=ERROR")
	assert.Contains(t, out, "k=4")
}

func TestSlogLogger_With(t *testing.T) {
	ctx := context.Background()

	log, buf := newBufLogger(slog.LevelInfo)

	child := log.With("measurement", int64(42))
	require.NotNil(t, child)

	child.Info(ctx, "probing session")
	assert.Contains(t, buf.String(), "measurement=42")
	assert.Contains(t, buf.String(), "probing session")
}
