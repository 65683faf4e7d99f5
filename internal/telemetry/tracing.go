// Package telemetry bootstraps the process-wide otel TracerProvider that
// internal/runtime's package-level tracer publishes spans to.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// NewTracerProvider builds an SDK TracerProvider tagged with the service's
// resource attributes. No exporter is wired by default: spans are still
// created and sampled (useful for local debugging via exported traces
// from a future batcher), but nothing ships off-process until one is
// registered with sdktrace.WithBatcher.
func NewTracerProvider() *sdktrace.TracerProvider {
	res := sdkresource.NewSchemaless(
		attribute.String("service.name", "tournament-runtime"),
		attribute.String("service.namespace", "webitel"),
	)
	return sdktrace.NewTracerProvider(sdktrace.WithResource(res))
}

// Register installs tp as the global TracerProvider so every package-level
// otel.Tracer(...) call across the module resolves to it.
func Register(tp *sdktrace.TracerProvider) {
	otel.SetTracerProvider(tp)
}

// Shutdown flushes and stops tp.
func Shutdown(ctx context.Context, tp *sdktrace.TracerProvider) error {
	return tp.Shutdown(ctx)
}
