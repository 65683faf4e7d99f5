package admin

import (
	"context"
	"log/slog"
	"net"

	"go.uber.org/fx"

	"github.com/webitel/tournament-runtime/config"
)

// Module provides the admin gRPC Server and starts/stops its listener via
// fx.Lifecycle.
var Module = fx.Module("admin",
	fx.Provide(NewServer),
	fx.Invoke(registerAdminServer),
)

func registerAdminServer(lc fx.Lifecycle, srv *Server, cfg *config.Config, logger *slog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			lis, err := net.Listen("tcp", cfg.Admin.Addr)
			if err != nil {
				return err
			}
			go func() {
				if err := srv.Serve(lis); err != nil {
					logger.Error("admin server error", "error", err)
				}
			}()
			logger.Info("admin gRPC listener started", "addr", cfg.Admin.Addr)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			srv.Stop()
			return nil
		},
	})
}
