package runtime

import (
	"log/slog"
	"time"

	"go.uber.org/fx"

	"github.com/webitel/tournament-runtime/config"
	"github.com/webitel/tournament-runtime/internal/domain/algorithm"
	"github.com/webitel/tournament-runtime/internal/domain/model"
	"github.com/webitel/tournament-runtime/internal/domain/scheduler"
	"github.com/webitel/tournament-runtime/internal/repository"
	"github.com/webitel/tournament-runtime/internal/transport"
)

// Module provides the shared collaborators every Runtime in the process is
// built from: the two Keyed registries, the process-wide Scheduler, and a
// DepsFactory closure that ingress uses to stamp each new Runtime.
var Module = fx.Module("runtime",
	fx.Provide(
		NewRuntimeRegistry,
		NewSessionRegistry,
		func() *scheduler.Scheduler { return scheduler.New(time.Now) },
		func(cfg *config.Config) Config {
			return Config{
				JoinGrace:         cfg.Runtime.JoinGrace,
				MatchDuration:     cfg.Runtime.MatchDuration,
				EvictionDelay:     cfg.Runtime.EvictionDelay,
				InactivityTimeout: cfg.Runtime.InactivityTimeout,
				Ingest:            DefaultConfig().Ingest,
				Fanout:            DefaultConfig().Fanout,
			}
		},
		NewDepsFactory,
	),
)

// DepsFactory builds the per-Runtime Deps value for a loaded
// TournamentMeta, closing over every shared collaborator.
type DepsFactory func(meta model.TournamentMeta) Deps

// NewDepsFactory assembles a DepsFactory from the process-wide
// collaborators. Module provides it, so ingress depends on the DepsFactory
// type rather than on the individual collaborators.
func NewDepsFactory(
	repo repository.Repository,
	tr transport.Transport,
	sched *scheduler.Scheduler,
	runtimeRegistry *RuntimeRegistry,
	sessionRegistry *SessionRegistry,
	bus EventBus,
	cfg Config,
	logger *slog.Logger,
) DepsFactory {
	return func(meta model.TournamentMeta) Deps {
		return Deps{
			Repository:      repo,
			Transport:       tr,
			Scheduler:       sched,
			Algorithm:       algorithm.ZeroProceed{},
			SessionRegistry: sessionRegistry,
			RuntimeRegistry: runtimeRegistry,
			EventBus:        bus,
			Config:          cfg,
			Logger:          logger,
		}
	}
}
