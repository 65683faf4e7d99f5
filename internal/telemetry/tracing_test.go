package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTracerProvider_StartsAndEndsASpan(t *testing.T) {
	tp := NewTracerProvider()
	defer tp.Shutdown(context.Background())

	tracer := tp.Tracer("test")
	_, span := tracer.Start(context.Background(), "op")
	span.End()

	assert.True(t, span.SpanContext().IsValid())
}

func TestShutdown_StopsTheProvider(t *testing.T) {
	tp := NewTracerProvider()
	require.NoError(t, Shutdown(context.Background(), tp))
}
