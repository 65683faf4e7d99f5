package runtime

import (
	"time"

	"github.com/webitel/tournament-runtime/internal/domain/debounce"
	"github.com/webitel/tournament-runtime/internal/domain/model"
	"github.com/webitel/tournament-runtime/internal/domain/registry"
)

// RuntimeRegistry is the global tournament id -> *Runtime map (C7). It is
// shared across every tournament hosted by this process.
type RuntimeRegistry = registry.Keyed[*Runtime]

// NewRuntimeRegistry builds an empty RuntimeRegistry.
func NewRuntimeRegistry() *RuntimeRegistry {
	return registry.New[*Runtime]()
}

// SessionRegistry is the global member id -> Session map, mirrored from
// every Runtime's participant map so the ingress/admin layer can answer
// "which tournament is member X in" without reaching into a specific room.
type SessionRegistry = registry.Keyed[model.Session]

// NewSessionRegistry builds an empty SessionRegistry.
func NewSessionRegistry() *SessionRegistry {
	return registry.New[model.Session]()
}

// Config bounds the timing behavior of every Runtime built from it.
type Config struct {
	// JoinGrace is the minimum time before scheduled start during which a
	// non-spectator join is still accepted.
	JoinGrace time.Duration
	// MatchDuration is how long a started room stays open before its
	// scheduled, automatic shutdown.
	MatchDuration time.Duration
	// EvictionDelay is how long after shutdown a Runtime's state is kept
	// around (for late queries) before being reclaimed.
	EvictionDelay time.Duration
	// InactivityTimeout arms a participant's TimeoutMonitor.
	InactivityTimeout time.Duration
	// Ingest bounds the per-member keystroke-coalescing debouncer (C3).
	Ingest debounce.Config
	// Fanout bounds the per-room broadcast-coalescing debouncer (C4).
	Fanout debounce.Config
}

// DefaultConfig matches the constants observed in the original
// implementation's core manager.
func DefaultConfig() Config {
	return Config{
		JoinGrace:         15 * time.Second,
		MatchDuration:     10 * time.Minute,
		EvictionDelay:     10 * time.Minute,
		InactivityTimeout: 30 * time.Second,
		Ingest: debounce.Config{
			QuietPeriod:  250 * time.Millisecond,
			MaxStackSize: 5,
			MaxWait:      800 * time.Millisecond,
		},
		Fanout: debounce.Config{
			QuietPeriod:  time.Second,
			MaxStackSize: 20,
			MaxWait:      3 * time.Second,
		},
	}
}
