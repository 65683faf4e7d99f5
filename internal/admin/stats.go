package admin

import (
	"context"

	"google.golang.org/grpc"

	"github.com/webitel/tournament-runtime/internal/runtime"
)

// StatsRequest is the (empty) request for Stats/Get.
type StatsRequest struct{}

// StatsResponse reports the process-wide Runtime/Session Registry counts,
// for ops dashboards — a process-wide view of the same live participation
// state a single Runtime answers per member via LiveData.
type StatsResponse struct {
	ActiveTournaments int `json:"activeTournaments"`
	ActiveSessions    int `json:"activeSessions"`
}

// StatsServer is implemented by the admin service's Stats handler.
type StatsServer interface {
	Get(context.Context, *StatsRequest) (*StatsResponse, error)
}

type statsService struct {
	runtimeRegistry *runtime.RuntimeRegistry
	sessionRegistry *runtime.SessionRegistry
}

func (s *statsService) Get(_ context.Context, _ *StatsRequest) (*StatsResponse, error) {
	return &StatsResponse{
		ActiveTournaments: s.runtimeRegistry.Count(),
		ActiveSessions:    s.sessionRegistry.Count(),
	}, nil
}

func statsGetHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(StatsRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StatsServer).Get(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/admin.v1.Stats/Get"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StatsServer).Get(ctx, req.(*StatsRequest))
	}
	return interceptor(ctx, req, info, handler)
}

// statsServiceDesc describes the hand-rolled Stats service: there is no
// .proto source behind it, only the jsonCodec wire format registered in
// codec.go.
var statsServiceDesc = grpc.ServiceDesc{
	ServiceName: "admin.v1.Stats",
	HandlerType: (*StatsServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Get",
			Handler:    statsGetHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "internal/admin/stats.go",
}
