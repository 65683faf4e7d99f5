// Package repository defines the persistence contract the Tournament
// Runtime core depends on, plus resilience decorators (LRU cache-aside,
// circuit breaker) that wrap a concrete store implementation.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/webitel/tournament-runtime/internal/domain/model"
)

// ErrNotFound is returned by GetTournament when no tournament exists for
// the given id.
var ErrNotFound = errors.New("repository: tournament not found")

// Repository is the persistence contract used by the core. Implementations
// must be safe for concurrent use.
type Repository interface {
	// GetTournament loads a tournament's immutable metadata plus its
	// persisted EndedAt, if any. Returns ErrNotFound if absent.
	GetTournament(ctx context.Context, id string) (model.TournamentMeta, error)

	// UpdateTournament persists a partial update, keyed by id. Only
	// endedAt is ever written by the core today, but the signature stays
	// a struct so it can grow without breaking callers.
	UpdateTournament(ctx context.Context, update TournamentUpdate) error

	// GenerateText produces the challenge text for a new match. May be
	// slow; callers must not hold any room lock across this call.
	GenerateText(ctx context.Context, opts model.TextOptions) (string, error)
}

// TournamentUpdate is the persistence-layer update envelope.
type TournamentUpdate struct {
	ID      string
	EndedAt *time.Time // nil means "leave unchanged"
}
