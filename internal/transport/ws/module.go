package ws

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/fx"

	"github.com/webitel/tournament-runtime/config"
	"github.com/webitel/tournament-runtime/internal/transport"
)

// Module provides the Hub (bound as transport.Transport), the websocket
// upgrade Handler, and mounts both plus a health check onto the HTTP
// listener started by an fx.Lifecycle hook.
var Module = fx.Module("transport-ws",
	fx.Provide(
		NewHub,
		fx.Annotate(func(h *Hub) *Hub { return h }, fx.As(new(transport.Transport))),
		NewHandler,
	),
	fx.Invoke(registerHTTPServer),
)

func registerHTTPServer(lc fx.Lifecycle, handler *Handler, cfg *config.Config, logger *slog.Logger) {
	router := chi.NewRouter()
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Get("/ws", handler.ServeHTTP)

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: router}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			lis, err := net.Listen("tcp", cfg.HTTP.Addr)
			if err != nil {
				return err
			}
			go func() {
				if err := server.Serve(lis); err != nil && err != http.ErrServerClosed {
					logger.Error("http server error", "error", err)
				}
			}()
			logger.Info("websocket listener started", "addr", cfg.HTTP.Addr)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return server.Shutdown(ctx)
		},
	})
}
