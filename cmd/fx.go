package cmd

import (
	"log/slog"
	"os"

	"go.uber.org/fx"

	"github.com/webitel/tournament-runtime/config"
	"github.com/webitel/tournament-runtime/internal/admin"
	"github.com/webitel/tournament-runtime/internal/ingress"
	"github.com/webitel/tournament-runtime/internal/pubsub"
	"github.com/webitel/tournament-runtime/internal/repository"
	"github.com/webitel/tournament-runtime/internal/runtime"
	"github.com/webitel/tournament-runtime/internal/telemetry"
	"github.com/webitel/tournament-runtime/internal/transport/ws"
)

// ProvideLogger builds the process-wide structured logger, exactly as the
// teacher wires slog: one handler, passed down via constructors.
func ProvideLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil)).With(
		slog.String("service", ServiceName),
		slog.String("namespace", ServiceNamespace),
	)
}

// NewApp composes the full process from its fx modules.
func NewApp(cfg *config.Config) *fx.App {
	return fx.New(
		fx.Provide(
			func() *config.Config { return cfg },
			ProvideLogger,
		),
		telemetry.Module,
		repository.Module,
		runtime.Module,
		ingress.Module,
		ws.Module,
		pubsub.Module,
		admin.Module,
	)
}
