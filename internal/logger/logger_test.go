package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextAttrsAreLogged(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "json", "debug")

	ctx := Ctx(context.Background(), slog.String("mount", "m-1"))
	ctx = Ctx(ctx, slog.String("path", "/profile"))
	l.InfoContext(ctx, "loaded")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "loaded", line["msg"])
	assert.Equal(t, "m-1", line["mount"])
	assert.Equal(t, "/profile", line["path"])
}

func TestCtxDoesNotLeakBetweenSiblings(t *testing.T) {
	parent := Ctx(context.Background(), slog.String("a", "1"))

	left := Ctx(parent, slog.String("b", "2"))
	right := Ctx(parent, slog.String("c", "3"))

	assert.Len(t, Attrs(left), 2)
	assert.Len(t, Attrs(right), 2)
	assert.Equal(t, "b", Attrs(left)[1].Key)
	assert.Equal(t, "c", Attrs(right)[1].Key)
}

func TestLevelFallback(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "text", "not-a-level")

	l.Debug("hidden")
	assert.Empty(t, buf.String())

	l.Info("shown")
	assert.Contains(t, buf.String(), "shown")
}
