package ctxlog

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext(t *testing.T) {
	t.Run("returns embedded logger", func(t *testing.T) {
		logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
		ctx := WithLogger(context.Background(), logger)
		assert.Same(t, logger, FromContext(ctx))
	})

	t.Run("falls back to default logger", func(t *testing.T) {
		assert.Same(t, slog.Default(), FromContext(context.Background()))
	})
}

func TestWith(t *testing.T) {
	buf := &bytes.Buffer{}
	ctx := WithLogger(context.Background(), slog.New(slog.NewTextHandler(buf, nil)))

	ctx, logger := With(ctx, "task", "css:0")
	require.NotNil(t, logger)
	FromContext(ctx).Info("hello")

	assert.Contains(t, buf.String(), "task=css:0")
}
