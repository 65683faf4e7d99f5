package repository

import (
	"context"
	"time"

	"github.com/sony/gobreaker"

	"github.com/webitel/tournament-runtime/internal/domain/model"
)

// BreakerGuarded wraps a Repository's write path with a circuit breaker so
// a persistently failing store cannot stall room shutdown: once the
// failure ratio trips the breaker, UpdateTournament fails fast instead of
// letting every shutdown hang on the same dead dependency.
type BreakerGuarded struct {
	next    Repository
	breaker *gobreaker.CircuitBreaker[struct{}]
}

// NewBreakerGuarded builds a BreakerGuarded decorator named for metrics
// and logging purposes.
func NewBreakerGuarded(next Repository, name string) *BreakerGuarded {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	return &BreakerGuarded{next: next, breaker: gobreaker.NewCircuitBreaker[struct{}](settings)}
}

func (b *BreakerGuarded) GetTournament(ctx context.Context, id string) (model.TournamentMeta, error) {
	return b.next.GetTournament(ctx, id)
}

func (b *BreakerGuarded) UpdateTournament(ctx context.Context, update TournamentUpdate) error {
	_, err := b.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, b.next.UpdateTournament(ctx, update)
	})
	return err
}

func (b *BreakerGuarded) GenerateText(ctx context.Context, opts model.TextOptions) (string, error) {
	return b.next.GenerateText(ctx, opts)
}
