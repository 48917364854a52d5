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
	t.Run("missing logger falls back to discard", func(t *testing.T) {
		logger := FromContext(context.Background())
		require.NotNil(t, logger)
		logger.Info("dropped")
	})

	t.Run("attached logger is returned", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		ctx := WithLogger(context.Background(), logger)
		FromContext(ctx).Info("hello")
		assert.Contains(t, buf.String(), "msg=hello")
	})
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), slog.New(slog.NewTextHandler(&buf, nil)))

	ctx, logger := With(ctx, "step", "wf_blsub")
	logger.Info("first")
	FromContext(ctx).Info("second")

	out := buf.String()
	assert.Contains(t, out, "msg=first step=wf_blsub")
	assert.Contains(t, out, "msg=second step=wf_blsub")
}
