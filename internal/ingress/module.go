package ingress

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/webitel/tournament-runtime/internal/repository"
	"github.com/webitel/tournament-runtime/internal/runtime"
	"github.com/webitel/tournament-runtime/internal/transport"
)

// Module provides the Dispatcher (C8) wired to the shared Repository,
// Transport, RuntimeRegistry and the runtime package's DepsFactory.
var Module = fx.Module("ingress",
	fx.Provide(
		func(
			repo repository.Repository,
			tr transport.Transport,
			runtimeRegistry *runtime.RuntimeRegistry,
			depsFor runtime.DepsFactory,
			logger *slog.Logger,
		) *Dispatcher {
			return New(repo, tr, runtimeRegistry, depsFor, logger)
		},
	),
)
