package model

import (
	"sync"
	"time"
)

// RoomState is the mutable lifecycle state of a single tournament room.
// Protected by a single exclusive section; never held across a broadcast
// or a Repository call.
type RoomState struct {
	mu sync.Mutex

	startedAt     *time.Time
	endedAt       *time.Time
	scheduledEnd  *time.Time
	scheduledFor  time.Time
}

// NewRoomState seeds the state with the tournament's scheduled start.
func NewRoomState(scheduledFor time.Time) *RoomState {
	return &RoomState{scheduledFor: scheduledFor}
}

// Snapshot is a point-in-time read of the mutable fields.
type Snapshot struct {
	StartedAt    *time.Time
	EndedAt      *time.Time
	ScheduledEnd *time.Time
}

func (r *RoomState) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Snapshot{StartedAt: r.startedAt, EndedAt: r.endedAt, ScheduledEnd: r.scheduledEnd}
}

func (r *RoomState) ScheduledFor() time.Time {
	return r.scheduledFor
}

// Status reflects the coarse lifecycle used by the "check" event.
func (r *RoomState) Status() RoomStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case r.endedAt != nil:
		return StatusEnded
	case r.startedAt != nil:
		return StatusStarted
	default:
		return StatusUpcoming
	}
}

// Start sets startedAt and scheduledEnd exactly once. Returns false if the
// room was already started (idempotent no-op).
func (r *RoomState) Start(now time.Time, matchDuration time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.startedAt != nil {
		return false
	}
	r.startedAt = &now
	end := now.Add(matchDuration)
	r.scheduledEnd = &end
	return true
}

// End sets endedAt exactly once. Returns false if it was already set.
func (r *RoomState) End(now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.endedAt != nil {
		return false
	}
	r.endedAt = &now
	return true
}

// JoinRejected evaluates the non-spectator join policy (spec.md §4.6.1).
func (r *RoomState) JoinRejected(now time.Time, joinGrace time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.endedAt != nil || r.startedAt != nil {
		return true
	}
	return r.scheduledFor.Sub(now) < joinGrace
}
