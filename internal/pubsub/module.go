package pubsub

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/webitel/tournament-runtime/config"
	"github.com/webitel/tournament-runtime/internal/repository"
	"github.com/webitel/tournament-runtime/internal/runtime"
)

// Module provides the event bus, bound both concretely and as
// runtime.EventBus, and starts/stops its router via fx.Lifecycle.
var Module = fx.Module("pubsub",
	fx.Provide(
		func(cfg *config.Config, logger *slog.Logger) Factory {
			if cfg.PubSub.Driver == "amqp" {
				return NewAMQPFactory(cfg.PubSub.AMQPURI, logger)
			}
			return NewGoChannelFactory(logger)
		},
		func(factory Factory, repo repository.Repository, logger *slog.Logger) (*Bus, error) {
			return NewBus(factory, repo, logger)
		},
		fx.Annotate(func(b *Bus) *Bus { return b }, fx.As(new(runtime.EventBus))),
	),
	fx.Invoke(registerRouter),
)

func registerRouter(lc fx.Lifecycle, bus *Bus, logger *slog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := bus.Run(context.Background()); err != nil {
					logger.Error("pubsub router error", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return bus.Close()
		},
	})
}
