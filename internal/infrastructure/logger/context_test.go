package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromContext(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))

	l := zap.NewExample()
	assert.Same(t, l, FromContext(WithContext(context.Background(), l)))
}

func TestCorrelationFields(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	ctx, l := WithRequestID(context.Background(), base, "req-1")
	ctx, l = WithActor(ctx, l, "Dana")
	ctx, _ = WithImportID(ctx, l, "imp-9")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "Dana", GetActor(ctx))
	assert.Equal(t, "imp-9", GetImportID(ctx))

	L(ctx).Info("hello")

	entries := recorded.All()
	require.Len(t, entries, 1)
	assert.Equal(t, map[string]any{"request_id": "req-1", "actor": "Dana", "import_id": "imp-9"}, entries[0].ContextMap())
}

func TestGetters_Empty(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetRequestID(ctx))
	assert.Empty(t, GetActor(ctx))
	assert.Empty(t, GetImportID(ctx))
}

func TestEnrich(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	component := zap.New(core)

	ctx, _ := WithRequestID(context.Background(), zap.NewNop(), "req-2")

	Enrich(ctx, component).Info("with id")
	Enrich(context.Background(), component).Info("without id")
	Enrich(ctx, nil).Info("dropped")

	entries := recorded.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "req-2", entries[0].ContextMap()["request_id"])
	assert.Empty(t, entries[1].ContextMap())
}
