package telemetry

import (
	"context"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
)

// Module provides the process-wide TracerProvider and registers it as the
// otel global on start, shutting it down on stop.
var Module = fx.Module("telemetry",
	fx.Provide(NewTracerProvider),
	fx.Invoke(registerTracing),
)

func registerTracing(lc fx.Lifecycle, tp *sdktrace.TracerProvider) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			Register(tp)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return Shutdown(ctx, tp)
		},
	})
}
