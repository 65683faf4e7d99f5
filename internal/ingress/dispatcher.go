// Package ingress implements the Connection Dispatcher (C8): the single
// entry point a new socket passes through before it ever reaches a
// Runtime. It resolves the caller's Member identity, loads the target
// tournament, and either rejects the handshake outright or hands off to
// the tournament's Runtime (creating one on first connect).
package ingress

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/webitel/tournament-runtime/internal/domain/model"
	"github.com/webitel/tournament-runtime/internal/repository"
	"github.com/webitel/tournament-runtime/internal/runtime"
	"github.com/webitel/tournament-runtime/internal/transport"
)

// NoauthHeader carries the opaque token an anonymous client presents to
// resume the same Member identity across reconnects.
const NoauthHeader = "x-noauth-unique"

var (
	// ErrMissingID is returned when the required `id` query parameter is
	// absent.
	ErrMissingID = errors.New("ingress: missing id query parameter")
	// ErrTournamentEnded is returned when the target tournament has
	// already ended and must refuse the handshake entirely.
	ErrTournamentEnded = errors.New("ingress: tournament has already ended")
)

// Request is the transport-agnostic shape of an inbound handshake. A
// concrete transport (e.g. internal/transport/ws) builds one of these from
// the underlying HTTP request before calling Dispatch.
type Request struct {
	TournamentID string
	Spectator    bool
	Anonymous    bool
	NoauthToken  string // value of the x-noauth-unique header, if present
	AuthUser     *model.User
}

// ParseRequest extracts a Request from an http.Request's query string and
// headers, per the handshake contract (spec §6): `id` is required,
// `spectator`/`anonymous` default to false.
func ParseRequest(r *http.Request, authUser *model.User) (Request, error) {
	q := r.URL.Query()
	id := q.Get("id")
	if id == "" {
		return Request{}, ErrMissingID
	}
	return Request{
		TournamentID: id,
		Spectator:    q.Get("spectator") == "true",
		Anonymous:    q.Get("anonymous") == "true",
		NoauthToken:  r.Header.Get(NoauthHeader),
		AuthUser:     authUser,
	}, nil
}

// Dispatcher resolves handshakes into a live Runtime connection.
type Dispatcher struct {
	repo            repository.Repository
	transport       transport.Transport
	runtimeRegistry *runtime.RuntimeRegistry
	deps            func(meta model.TournamentMeta) runtime.Deps
	logger          *slog.Logger
}

// New builds a Dispatcher. depsFor constructs the Deps for a freshly
// created Runtime from the tournament's loaded metadata — it lets the
// caller inject a shared Scheduler/Algorithm/Config while still stamping
// each Runtime with the right TournamentMeta.
func New(repo repository.Repository, tr transport.Transport, runtimeRegistry *runtime.RuntimeRegistry, depsFor func(model.TournamentMeta) runtime.Deps, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		repo:            repo,
		transport:       tr,
		runtimeRegistry: runtimeRegistry,
		deps:            depsFor,
		logger:          logger,
	}
}

// RuntimeFor returns the live Runtime for a tournament id, if one has been
// created. Transports use this after Dispatch to route subsequent inbound
// frames on the same connection without re-resolving the handshake.
func (d *Dispatcher) RuntimeFor(tournamentID string) (*runtime.Runtime, bool) {
	return d.runtimeRegistry.Get(tournamentID)
}

// Dispatch resolves req into a Member, loads the tournament, and connects
// the socket (identified by connID) to its Runtime. If the persisted record
// is already closed it emits `join:failure{1005}` to connID itself and
// returns ErrTournamentEnded; the caller then disconnects the socket.
func (d *Dispatcher) Dispatch(ctx context.Context, connID string, req Request) (model.Member, error) {
	member, noauthEcho := d.resolveMember(req)

	meta, err := d.repo.GetTournament(ctx, req.TournamentID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		d.logger.Error("failed to load tournament", "tournament_id", req.TournamentID, "error", err)
	}
	if err == nil && meta.EndedAt != nil {
		d.transport.EmitTo(connID, "join:failure", model.NewWsFailure(model.CodeJoinRejectedEnded, "Tournament has already ended"))
		return member, ErrTournamentEnded
	}
	if errors.Is(err, repository.ErrNotFound) {
		meta = model.TournamentMeta{ID: req.TournamentID}
	}

	rt := d.runtimeRegistry.GetOrInsert(req.TournamentID, func() *runtime.Runtime {
		return runtime.New(meta, d.deps(meta))
	})

	if err := rt.Connect(connID, member, req.Spectator, noauthEcho); err != nil {
		return member, err
	}
	return member, nil
}

// resolveMember implements the §4.8 identity-resolution order: transport
// auth user, then a resumed anonymous id via the noauth header, then a
// freshly minted anonymous id. It returns the noauth echo token to place
// on join:success — empty for authenticated members.
func (d *Dispatcher) resolveMember(req Request) (model.Member, string) {
	if req.AuthUser != nil {
		return model.Member{ID: req.AuthUser.Username, User: req.AuthUser, Participant: !req.Spectator}, ""
	}

	if req.NoauthToken != "" {
		return model.Member{ID: req.NoauthToken, Participant: !req.Spectator}, req.NoauthToken
	}

	id := uuid.NewString()
	return model.Member{ID: id, Participant: !req.Spectator}, id
}
