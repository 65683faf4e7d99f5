// Package admin exposes a small operational gRPC surface alongside the
// tournament websocket transport: the standard health service plus a
// hand-rolled Stats RPC reporting live Runtime/Session Registry counts.
package admin

import (
	"context"
	"log/slog"
	"net"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/webitel/tournament-runtime/internal/runtime"
)

// Server wraps a *grpc.Server carrying the health and Stats services.
type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	logger     *slog.Logger
}

// NewServer builds the admin gRPC server, wired with logging/recovery
// interceptors.
func NewServer(runtimeRegistry *runtime.RuntimeRegistry, sessionRegistry *runtime.SessionRegistry, logger *slog.Logger) *Server {
	healthSrv := health.NewServer()

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			recovery.UnaryServerInterceptor(),
			logging.UnaryServerInterceptor(interceptorLogger(logger)),
		),
	)

	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	grpcServer.RegisterService(&statsServiceDesc, &statsService{
		runtimeRegistry: runtimeRegistry,
		sessionRegistry: sessionRegistry,
	})
	healthSrv.SetServingStatus("admin.v1.Stats", healthpb.HealthCheckResponse_SERVING)

	return &Server{grpcServer: grpcServer, health: healthSrv, logger: logger}
}

func interceptorLogger(l *slog.Logger) logging.Logger {
	return logging.LoggerFunc(func(ctx context.Context, lvl logging.Level, msg string, fields ...any) {
		level := slog.LevelInfo
		switch lvl {
		case logging.LevelDebug:
			level = slog.LevelDebug
		case logging.LevelWarn:
			level = slog.LevelWarn
		case logging.LevelError:
			level = slog.LevelError
		}
		l.Log(ctx, level, msg, fields...)
	})
}

// Serve accepts connections on lis until the server is stopped. Intended
// to run on its own goroutine from an fx.Lifecycle OnStart hook.
func (s *Server) Serve(lis net.Listener) error {
	return s.grpcServer.Serve(lis)
}

// Stop gracefully stops the server.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}
