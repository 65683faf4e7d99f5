package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/webitel/tournament-runtime/internal/domain/model"
	"github.com/webitel/tournament-runtime/internal/ingress"
	"github.com/webitel/tournament-runtime/internal/runtime"
)

// Handler upgrades incoming HTTP requests to websockets and dispatches
// inbound frames to the resolved Runtime via a static dispatch table: Go
// has no socket.io-style on(event, fn) primitive, so every handler is
// always wired and instead no-ops when the room/member state says it
// shouldn't act (e.g. typing before start, or a spectator sending type).
type Handler struct {
	hub        *Hub
	dispatcher *ingress.Dispatcher
	logger     *slog.Logger
	upgrader   websocket.Upgrader
}

// NewHandler builds a Handler backed by hub for delivery and dispatcher for
// handshake resolution.
func NewHandler(hub *Hub, dispatcher *ingress.Dispatcher, logger *slog.Logger) *Handler {
	return &Handler{
		hub:        hub,
		dispatcher: dispatcher,
		logger:     logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req, err := ingress.ParseRequest(r, authUserFromContext(r.Context()))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sock, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("ws upgrade failed", "error", err)
		return
	}

	connID := uuid.NewString()
	conn := newConnection(connID, sock, h.logger)
	h.hub.register(conn)
	defer func() {
		h.hub.unregister(connID)
		conn.Close()
	}()

	member, err := h.dispatcher.Dispatch(r.Context(), connID, req)
	if err != nil {
		return
	}

	rt, ok := h.dispatcher.RuntimeFor(req.TournamentID)
	if !ok {
		return
	}

	conn.readLoop(func(env inboundEnvelope) {
		h.route(rt, conn, member, req.Spectator, env)
	})

	if !req.Spectator {
		rt.HandleDisconnect(member)
	}
}

func (h *Handler) route(rt *runtime.Runtime, conn *connection, member model.Member, spectator bool, env inboundEnvelope) {
	switch env.Event {
	case "type":
		if spectator {
			return
		}
		var payload model.TypeEventPayload
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return
		}
		rt.HandleType(conn.id, member.ID, payload)
	case "progress":
		if spectator {
			return
		}
		var payload model.ProgressEventPayload
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return
		}
		rt.HandleProgress(conn.id, member.ID, payload)
	case "leave":
		rt.HandleLeave(conn.id, member, spectator)
	case "check":
		rt.HandleCheck(conn.id)
	case "me":
		rt.HandleMe(conn.id, member.ID)
	case "all":
		rt.HandleAll(conn.id)
	case "data":
		rt.HandleData(conn.id)
	}
}

type authUserContextKey struct{}

// WithAuthUser attaches an authenticated identity to a request context, for
// upstream auth middleware to populate before this handler runs.
func WithAuthUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, authUserContextKey{}, user)
}

func authUserFromContext(ctx context.Context) *model.User {
	u, _ := ctx.Value(authUserContextKey{}).(*model.User)
	return u
}
