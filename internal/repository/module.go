package repository

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/webitel/tournament-runtime/config"
)

// Module provides the decorated Repository: an in-memory store wrapped by
// the LRU cache-aside and circuit-breaker decorators, matching the
// teacher's layered peer_enricher.go composition.
var Module = fx.Module("repository",
	fx.Provide(
		func() *InMemory { return NewInMemory() },
		func(cfg *config.Config, base *InMemory, logger *slog.Logger) (Repository, error) {
			cached, err := NewCached(base, cfg.Repository.CacheSize)
			if err != nil {
				return nil, err
			}
			return NewBreakerGuarded(cached, cfg.Repository.BreakerName), nil
		},
	),
)
