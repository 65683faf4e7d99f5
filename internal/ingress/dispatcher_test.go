package ingress

import (
	"context"
	"log/slog"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webitel/tournament-runtime/internal/domain/algorithm"
	"github.com/webitel/tournament-runtime/internal/domain/model"
	"github.com/webitel/tournament-runtime/internal/domain/scheduler"
	"github.com/webitel/tournament-runtime/internal/repository"
	"github.com/webitel/tournament-runtime/internal/runtime"
)

type fakeTransport struct {
	mu      sync.Mutex
	emitted []struct {
		connID, event string
		payload       any
	}
}

func (f *fakeTransport) EmitTo(connID, event string, payload any) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emitted = append(f.emitted, struct {
		connID, event string
		payload       any
	}{connID, event, payload})
	return true
}
func (f *fakeTransport) Broadcast(room, event string, payload any, exclude ...string) {}
func (f *fakeTransport) Join(connID, room string)                                     {}
func (f *fakeTransport) Leave(connID, room string)                                    {}

func (f *fakeTransport) find(connID, event string) (any, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.emitted {
		if e.connID == connID && e.event == event {
			return e.payload, true
		}
	}
	return nil, false
}

func newTestDispatcher(repo repository.Repository, tr *fakeTransport) *Dispatcher {
	runtimeRegistry := runtime.NewRuntimeRegistry()
	sched := scheduler.New(time.Now)
	sessionRegistry := runtime.NewSessionRegistry()
	cfg := runtime.DefaultConfig()
	depsFor := func(meta model.TournamentMeta) runtime.Deps {
		return runtime.Deps{
			Repository:      repo,
			Transport:       tr,
			Scheduler:       sched,
			Algorithm:       algorithm.ZeroProceed{},
			SessionRegistry: sessionRegistry,
			RuntimeRegistry: runtimeRegistry,
			Config:          cfg,
			Logger:          slog.Default(),
		}
	}
	return New(repo, tr, runtimeRegistry, depsFor, slog.Default())
}

func TestParseRequest_RequiresID(t *testing.T) {
	r := httptest.NewRequest("GET", "/ws?spectator=true", nil)

	_, err := ParseRequest(r, nil)

	require.ErrorIs(t, err, ErrMissingID)
}

func TestParseRequest_ParsesBooleans(t *testing.T) {
	r := httptest.NewRequest("GET", "/ws?id=t1&spectator=true&anonymous=true", nil)
	r.Header.Set(NoauthHeader, "tok123")

	req, err := ParseRequest(r, nil)

	require.NoError(t, err)
	assert.Equal(t, "t1", req.TournamentID)
	assert.True(t, req.Spectator)
	assert.True(t, req.Anonymous)
	assert.Equal(t, "tok123", req.NoauthToken)
}

func TestDispatch_RejectsAlreadyEndedTournament(t *testing.T) {
	ended := time.Now().Add(-time.Hour)
	repo := repository.NewInMemory(model.TournamentMeta{ID: "t1", EndedAt: &ended})
	tr := &fakeTransport{}
	d := newTestDispatcher(repo, tr)

	_, err := d.Dispatch(context.Background(), "conn1", Request{TournamentID: "t1"})

	require.ErrorIs(t, err, ErrTournamentEnded)
	payload, ok := tr.find("conn1", "join:failure")
	require.True(t, ok)
	assert.Equal(t, model.CodeJoinRejectedEnded, payload.(model.WsFailure).Code)
}

func TestDispatch_CreatesRuntimeOnFirstConnect(t *testing.T) {
	repo := repository.NewInMemory(model.TournamentMeta{ID: "t1", ScheduledFor: time.Now().Add(time.Hour)})
	tr := &fakeTransport{}
	d := newTestDispatcher(repo, tr)

	member, err := d.Dispatch(context.Background(), "conn1", Request{TournamentID: "t1"})

	require.NoError(t, err)
	assert.NotEmpty(t, member.ID)
	assert.Equal(t, 1, d.runtimeRegistry.Count())
	_, ok := tr.find("conn1", "join:success")
	assert.True(t, ok)
}

func TestDispatch_ResumesAnonymousIdentityViaNoauthHeader(t *testing.T) {
	repo := repository.NewInMemory(model.TournamentMeta{ID: "t1", ScheduledFor: time.Now().Add(time.Hour)})
	tr := &fakeTransport{}
	d := newTestDispatcher(repo, tr)

	member, err := d.Dispatch(context.Background(), "conn1", Request{TournamentID: "t1", NoauthToken: "resumed-id"})

	require.NoError(t, err)
	assert.Equal(t, "resumed-id", member.ID)
}

func TestDispatch_AuthenticatedUserUsesUsernameAsID(t *testing.T) {
	repo := repository.NewInMemory(model.TournamentMeta{ID: "t1", ScheduledFor: time.Now().Add(time.Hour)})
	tr := &fakeTransport{}
	d := newTestDispatcher(repo, tr)

	member, err := d.Dispatch(context.Background(), "conn1", Request{TournamentID: "t1", AuthUser: &model.User{Username: "alice"}})

	require.NoError(t, err)
	assert.Equal(t, "alice", member.ID)
	payload, ok := tr.find("conn1", "join:success")
	require.True(t, ok)
	assert.Empty(t, payload.(model.JoinSuccessPayload).Noauth)
}

func TestDispatch_UnknownTournamentSpectatorStillConnects(t *testing.T) {
	repo := repository.NewInMemory()
	tr := &fakeTransport{}
	d := newTestDispatcher(repo, tr)

	// A zero-value TournamentMeta carries a scheduledFor far in the past, so
	// only a spectator (exempt from the join-grace policy) can connect to a
	// tournament id the repository has never heard of.
	_, err := d.Dispatch(context.Background(), "conn1", Request{TournamentID: "ghost", Spectator: true})

	require.NoError(t, err)
	_, ok := tr.find("conn1", "join:success")
	assert.True(t, ok)
}

func TestDispatch_SecondConnectReusesSameRuntime(t *testing.T) {
	repo := repository.NewInMemory(model.TournamentMeta{ID: "t1", ScheduledFor: time.Now().Add(time.Hour)})
	tr := &fakeTransport{}
	d := newTestDispatcher(repo, tr)

	_, err := d.Dispatch(context.Background(), "conn1", Request{TournamentID: "t1"})
	require.NoError(t, err)
	_, err = d.Dispatch(context.Background(), "conn2", Request{TournamentID: "t1"})
	require.NoError(t, err)

	assert.Equal(t, 1, d.runtimeRegistry.Count())
}
