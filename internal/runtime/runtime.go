// Package runtime implements the Tournament Runtime (C6): one instance per
// live tournament room, holding its participant map, its typing text
// snapshot, and the per-room fan-out debouncer. Instances are owned and
// evicted by a RuntimeRegistry (C7).
package runtime

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/webitel/tournament-runtime/internal/domain/algorithm"
	"github.com/webitel/tournament-runtime/internal/domain/debounce"
	"github.com/webitel/tournament-runtime/internal/domain/model"
	"github.com/webitel/tournament-runtime/internal/domain/registry"
	"github.com/webitel/tournament-runtime/internal/domain/scheduler"
	"github.com/webitel/tournament-runtime/internal/repository"
	"github.com/webitel/tournament-runtime/internal/transport"
)

var tracer = otel.Tracer("github.com/webitel/tournament-runtime/internal/runtime")

// EventBus decouples the hot broadcast path from the Repository call: when
// set, Runtime publishes lifecycle transitions here instead of writing to
// the Repository inline, and a subscriber elsewhere performs the
// (possibly slow) persistence write out of band. Nil is a valid Deps
// value — Runtime falls back to calling the Repository directly.
type EventBus interface {
	PublishRoomStarted(ctx context.Context, tournamentID string, startedAt time.Time) error
	PublishRoomEnded(ctx context.Context, tournamentID string, endedAt time.Time) error
}

// Deps are the collaborators a Runtime needs, shared across every room.
type Deps struct {
	Repository      repository.Repository
	Transport       transport.Transport
	Scheduler       *scheduler.Scheduler
	Algorithm       algorithm.Algorithm
	SessionRegistry *SessionRegistry
	RuntimeRegistry *RuntimeRegistry
	EventBus        EventBus
	Config          Config
	Logger          *slog.Logger
}

type typedChar struct {
	char rune
	rid  int
}

type typeGuard struct {
	mu        sync.Mutex
	connID    string
	debouncer *debounce.Debouncer[typedChar]
	timeout   *TimeoutMonitor
}

func (g *typeGuard) setConn(id string) {
	g.mu.Lock()
	g.connID = id
	g.mu.Unlock()
}

func (g *typeGuard) conn() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.connID
}

// Runtime is one tournament room's live state.
type Runtime struct {
	id   string
	meta model.TournamentMeta
	room *model.RoomState

	participants *registry.Keyed[model.Session]
	typeGuards   *registry.Keyed[*typeGuard]
	text         atomic.Pointer[string]
	fanout       *debounce.Debouncer[struct{}]

	deps   Deps
	logger *slog.Logger
}

// New constructs a Runtime for meta and arms its start timer via the
// Scheduler. Callers are expected to immediately register it with
// deps.RuntimeRegistry.
func New(meta model.TournamentMeta, deps Deps) *Runtime {
	empty := ""
	rt := &Runtime{
		id:           meta.ID,
		meta:         meta,
		room:         model.NewRoomState(meta.ScheduledFor),
		participants: registry.New[model.Session](),
		typeGuards:   registry.New[*typeGuard](),
		deps:         deps,
		logger:       deps.Logger.With("tournament_id", meta.ID),
	}
	rt.text.Store(&empty)
	rt.fanout = debounce.New(deps.Config.Fanout, rt.releaseFanout)

	if _, err := deps.Scheduler.Schedule(meta.ScheduledFor, rt.start); err != nil {
		rt.logger.Error("failed to arm tournament start timer", "error", err)
	}

	return rt
}

// Connect implements §4.6.1: join-policy check, room subscription,
// participant registration, and success/failure replies.
func (rt *Runtime) Connect(connID string, member model.Member, spectator bool, noauthEcho string) error {
	_, span := tracer.Start(context.Background(), "runtime.connect", trace.WithAttributes(
		attribute.String("tournament_id", rt.id),
		attribute.String("member_id", member.ID),
		attribute.Bool("spectator", spectator),
	))
	defer span.End()

	now := time.Now()

	if !spectator && rt.room.JoinRejected(now, rt.deps.Config.JoinGrace) {
		rt.logger.Warn("rejecting join, tournament no longer accepting participants", "member_id", member.ID)
		rt.deps.Transport.EmitTo(connID, "join:failure", model.NewWsFailure(model.CodeJoinRejectedNotAccepting, "Tournament no longer accepting participants."))
		span.SetStatus(codes.Error, "join rejected")
		return errJoinRejected
	}

	rt.deps.Transport.Join(connID, rt.id)

	tournamentData := rt.snapshotTournamentData()

	if !spectator {
		session := rt.participants.GetOrInsert(member.ID, func() model.Session {
			return *model.NewSession(member, rt.id)
		})
		rt.deps.SessionRegistry.Set(member.ID, session)

		rt.deps.Transport.Broadcast(rt.id, "participant:joined", model.ParticipantJoinedPayload{
			Participant: model.ToParticipantData(session),
		}, connID)
	}

	participants := make([]model.ParticipantData, 0)
	for _, s := range rt.participants.Values() {
		participants = append(participants, model.ToParticipantData(s))
	}

	rt.deps.Transport.EmitTo(connID, "join:success", model.JoinSuccessPayload{
		Data:         tournamentData,
		Member:       member,
		Participants: participants,
		Noauth:       noauthEcho,
	})

	rt.logger.Info("member connected", "member_id", member.ID, "spectator", spectator)
	return nil
}

// start runs once at the scheduled start time (§4.6.2).
func (rt *Runtime) start() {
	if rt.participants.Count() == 0 {
		rt.logger.Info("no participants at start time, ending immediately")
		rt.Shutdown()
		return
	}

	text, err := rt.deps.Repository.GenerateText(context.Background(), rt.meta.TextOptions)
	if err != nil {
		rt.logger.Error("failed to generate challenge text", "error", err)
	}
	rt.text.Store(&text)

	now := time.Now()
	rt.room.Start(now, rt.deps.Config.MatchDuration)

	for _, memberID := range rt.participants.Keys() {
		rt.ensureTypeGuard(memberID)
	}

	rt.broadcastUpdateData(true)

	if rt.deps.EventBus != nil {
		if err := rt.deps.EventBus.PublishRoomStarted(context.Background(), rt.id, now); err != nil {
			rt.logger.Error("failed to publish room-started event", "error", err)
		}
	}

	if snap := rt.room.Snapshot(); snap.ScheduledEnd != nil {
		if _, err := rt.deps.Scheduler.Schedule(*snap.ScheduledEnd, rt.Shutdown); err != nil {
			rt.logger.Error("failed to arm tournament end timer", "error", err)
		}
	}
}

// HandleCheck replies with the room's coarse lifecycle status.
func (rt *Runtime) HandleCheck(connID string) {
	rt.deps.Transport.EmitTo(connID, "check:success", model.CheckSuccessPayload{Status: rt.room.Status()})
}

// HandleMe replies with the caller's own participant data.
func (rt *Runtime) HandleMe(connID, memberID string) {
	session, ok := rt.participants.Get(memberID)
	if !ok {
		rt.deps.Transport.EmitTo(connID, "me:failure", model.NewWsFailure(model.CodeSessionNotFound, "Your session was not found."))
		return
	}
	rt.deps.Transport.EmitTo(connID, "me:success", model.ToParticipantData(session))
}

// HandleAll replies with every participant's current data.
func (rt *Runtime) HandleAll(connID string) {
	sessions := rt.participants.Values()
	out := make([]model.ParticipantData, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, model.ToParticipantData(s))
	}
	rt.deps.Transport.EmitTo(connID, "all:success", out)
}

// HandleData replies with the current tournament metadata snapshot.
func (rt *Runtime) HandleData(connID string) {
	rt.deps.Transport.EmitTo(connID, "data:success", rt.snapshotTournamentData())
}

// HandleLeave implements §4.6.5 plus the unconditional leave:success reply.
func (rt *Runtime) HandleLeave(connID string, member model.Member, spectator bool) {
	if !spectator {
		if err := rt.handleParticipantLeave(connID, member.ID); err != nil {
			rt.logger.Warn("leave handling failed", "member_id", member.ID, "error", err)
		}
	}
	rt.deps.Transport.EmitTo(connID, "leave:success", model.LeaveSuccessPayload{Message: "Left tournament successfully"})
}

func (rt *Runtime) handleParticipantLeave(connID, memberID string) error {
	if _, ok := rt.participants.Delete(memberID); !ok {
		return errSessionNotFound
	}
	rt.deps.SessionRegistry.Delete(memberID)
	rt.deps.Transport.Leave(connID, rt.id)
	rt.deps.Transport.Broadcast(rt.id, "participant:left", model.ParticipantLeftPayload{MemberID: memberID}, connID)

	if rt.participants.Count() == 0 && rt.room.Snapshot().StartedAt != nil {
		rt.Shutdown()
	}
	return nil
}

// HandleDisconnect is a no-op beyond logging; the client may reconnect and
// resume its session.
func (rt *Runtime) HandleDisconnect(member model.Member) {
	rt.logger.Info("member disconnected", "member_id", member.ID)
}

// HandleType implements the §4.6.3 `type` pipeline: TimeoutMonitor wraps
// pushing into the per-member ingestion Debouncer (C3).
func (rt *Runtime) HandleType(connID, memberID string, payload model.TypeEventPayload) {
	if rt.room.Status() != model.StatusStarted {
		return
	}
	chars := []rune(payload.Character)
	if len(chars) == 0 {
		return
	}

	guard := rt.ensureTypeGuard(memberID)
	guard.setConn(connID)
	guard.timeout.Call(func() {
		guard.debouncer.Push(typedChar{char: chars[0], rid: payload.Rid})
	})
}

// HandleProgress implements the §4.6.3 `progress` pipeline: same
// TimeoutMonitor wrapping, but apply_progress runs synchronously — no
// ingestion debouncer in the path.
func (rt *Runtime) HandleProgress(connID, memberID string, payload model.ProgressEventPayload) {
	if rt.room.Status() != model.StatusStarted {
		return
	}
	guard := rt.ensureTypeGuard(memberID)
	guard.setConn(connID)
	guard.timeout.Call(func() {
		rt.processProgress(memberID, payload)
	})
}

func (rt *Runtime) ensureTypeGuard(memberID string) *typeGuard {
	return rt.typeGuards.GetOrInsert(memberID, func() *typeGuard {
		g := &typeGuard{}
		g.debouncer = debounce.New(rt.deps.Config.Ingest, func(batch []typedChar) {
			rt.processTypeBatch(memberID, g, batch)
		})
		g.timeout = NewTimeoutMonitor(rt.deps.Config.InactivityTimeout,
			func() { rt.handleInactivityTimeout(memberID) },
			func() { rt.logger.Info("typing received after member timed out", "member_id", memberID) },
		)
		return g
	})
}

func (rt *Runtime) processTypeBatch(memberID string, guard *typeGuard, batch []typedChar) {
	if len(batch) == 0 {
		return
	}
	_, span := tracer.Start(context.Background(), "runtime.apply_type", trace.WithAttributes(
		attribute.String("tournament_id", rt.id),
		attribute.String("member_id", memberID),
		attribute.Int("batch_size", len(batch)),
	))
	defer span.End()

	text := *rt.text.Load()
	runes := make([]rune, len(batch))
	rid := 0
	for i, tc := range batch {
		runes[i] = tc.char
		rid = tc.rid
	}

	var delta model.PartialParticipantData
	found := rt.participants.Update(memberID, func(s *model.Session) {
		delta = rt.deps.Algorithm.HandleType(s, runes, []byte(text), time.Now())
	})

	connID := guard.conn()
	if !found {
		span.SetStatus(codes.Error, "member not found")
		rt.deps.Transport.EmitTo(connID, "type:failure", model.NewWsFailure(model.CodeMemberNotFound, "Member ID not found."))
		return
	}

	rt.deps.Transport.EmitTo(connID, "update:me", model.UpdateMePayload{Updates: delta, Rid: rid})
	rt.fanout.Push(struct{}{})
}

func (rt *Runtime) processProgress(memberID string, payload model.ProgressEventPayload) {
	_, span := tracer.Start(context.Background(), "runtime.apply_progress", trace.WithAttributes(
		attribute.String("tournament_id", rt.id),
		attribute.String("member_id", memberID),
	))
	defer span.End()

	text := *rt.text.Load()
	guard, _ := rt.typeGuards.Get(memberID)
	connID := ""
	if guard != nil {
		connID = guard.conn()
	}

	var delta model.PartialParticipantData
	var failure *model.WsFailure
	found := rt.participants.Update(memberID, func(s *model.Session) {
		delta, failure = rt.deps.Algorithm.HandleProgress(s, payload, []byte(text), time.Now())
	})

	if !found {
		span.SetStatus(codes.Error, "member not found")
		rt.deps.Transport.EmitTo(connID, "progress:failure", model.NewWsFailure(model.CodeMemberNotFound, "Member ID not found."))
		return
	}
	if failure != nil {
		span.SetStatus(codes.Error, "progress rejected")
		rt.deps.Transport.EmitTo(connID, "progress:failure", *failure)
		return
	}

	rt.deps.Transport.EmitTo(connID, "update:me", model.UpdateMePayload{Updates: delta, Rid: payload.Rid})
	rt.fanout.Push(struct{}{})
}

func (rt *Runtime) handleInactivityTimeout(memberID string) {
	rt.participants.Update(memberID, func(s *model.Session) {
		if s.EndedAt == nil {
			ended := time.Now()
			s.EndedAt = &ended
		}
	})
	rt.fanout.Push(struct{}{})
}

// releaseFanout is the per-room fan-out Debouncer's (C4) release action.
func (rt *Runtime) releaseFanout(batch []struct{}) {
	_, span := tracer.Start(context.Background(), "runtime.fanout_release", trace.WithAttributes(
		attribute.String("tournament_id", rt.id),
		attribute.Int("coalesced", len(batch)),
	))
	defer span.End()

	sessions := rt.participants.Values()

	if len(sessions) > 0 {
		allEnded := true
		for _, s := range sessions {
			if s.EndedAt == nil {
				allEnded = false
				break
			}
		}
		if allEnded {
			go rt.Shutdown()
		}
	}

	updates := make([]model.ParticipantUpdate, 0, len(sessions))
	for _, s := range sessions {
		s := s
		updates = append(updates, model.ParticipantUpdate{MemberID: s.Member.ID, Updates: model.DeltaFromSession(&s)})
	}
	if len(updates) == 0 {
		return
	}
	rt.deps.Transport.Broadcast(rt.id, "update:all", model.UpdateAllPayload{Updates: updates})
}

func (rt *Runtime) broadcastUpdateData(start bool) {
	snap := rt.room.Snapshot()
	updates := model.PartialTournamentData{EndedAt: snap.EndedAt}
	if start {
		updates.StartedAt = snap.StartedAt
		text := *rt.text.Load()
		updates.Text = &text
	}
	rt.deps.Transport.Broadcast(rt.id, "update:data", model.UpdateDataPayload{Updates: updates})
}

// Shutdown implements §4.6.6. Idempotent: a second call observes RoomState
// already ended and performs no persistence or broadcast.
func (rt *Runtime) Shutdown() {
	now := time.Now()
	if !rt.room.End(now) {
		return
	}
	rt.logger.Info("shutting down tournament room")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if rt.deps.EventBus != nil {
			return rt.deps.EventBus.PublishRoomEnded(gctx, rt.id, now)
		}
		return rt.deps.Repository.UpdateTournament(gctx, repository.TournamentUpdate{ID: rt.id, EndedAt: &now})
	})
	g.Go(func() error {
		rt.fanout.Shutdown()
		return nil
	})
	if err := g.Wait(); err != nil {
		rt.logger.Error("failed to persist final tournament state", "error", err)
	}

	rt.broadcastUpdateData(false)

	evictAt := now.Add(rt.deps.Config.EvictionDelay)
	if _, err := rt.deps.Scheduler.Schedule(evictAt, rt.evict); err != nil {
		rt.logger.Error("failed to schedule eviction", "error", err)
	}
}

func (rt *Runtime) evict() {
	for _, memberID := range rt.participants.Keys() {
		rt.participants.Delete(memberID)
		rt.deps.SessionRegistry.Delete(memberID)
	}
	rt.deps.RuntimeRegistry.Delete(rt.id)
	rt.logger.Info("evicted tournament runtime")
}

// LiveData answers the §4.7 "which tournament is member X in" style query.
type LiveData struct {
	ParticipantCount int
	Participating    bool
	StartedAt        *time.Time
	EndedAt          *time.Time
}

func (rt *Runtime) LiveData(memberID string) LiveData {
	snap := rt.room.Snapshot()
	return LiveData{
		ParticipantCount: rt.participants.Count(),
		Participating:    rt.participants.Contains(memberID),
		StartedAt:        snap.StartedAt,
		EndedAt:          snap.EndedAt,
	}
}

func (rt *Runtime) snapshotTournamentData() model.TournamentData {
	snap := rt.room.Snapshot()
	data := model.TournamentData{
		ID:           rt.meta.ID,
		Title:        rt.meta.Title,
		Description:  rt.meta.Description,
		CreatedBy:    rt.meta.CreatedBy,
		CreatedAt:    rt.meta.CreatedAt,
		ScheduledFor: rt.meta.ScheduledFor,
		StartedAt:    snap.StartedAt,
		EndedAt:      snap.EndedAt,
		ScheduledEnd: snap.ScheduledEnd,
	}
	if snap.StartedAt != nil {
		text := *rt.text.Load()
		data.Text = &text
	}
	return data
}
