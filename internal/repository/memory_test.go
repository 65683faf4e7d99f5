package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webitel/tournament-runtime/internal/domain/model"
)

func TestInMemory_GetTournament_NotFound(t *testing.T) {
	repo := NewInMemory()

	_, err := repo.GetTournament(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemory_UpdateTournament_SetsEndedAt(t *testing.T) {
	repo := NewInMemory(model.TournamentMeta{ID: "t1"})
	now := time.Now()

	err := repo.UpdateTournament(context.Background(), TournamentUpdate{ID: "t1", EndedAt: &now})
	require.NoError(t, err)

	meta, err := repo.GetTournament(context.Background(), "t1")
	require.NoError(t, err)
	require.NotNil(t, meta.EndedAt)
	assert.Equal(t, now, *meta.EndedAt)
}

func TestInMemory_GenerateText_FallsBackWithAllOptionsDisabled(t *testing.T) {
	repo := NewInMemory()

	text, err := repo.GenerateText(context.Background(), model.TextOptions{})

	require.NoError(t, err)
	assert.Equal(t, fallbackText, text)
}

func TestInMemory_GenerateText_ProducesNonEmptyTextForDefaults(t *testing.T) {
	repo := NewInMemory()

	text, err := repo.GenerateText(context.Background(), model.DefaultTextOptions())

	require.NoError(t, err)
	assert.NotEmpty(t, text)
}

func TestCached_GetTournament_ServesFromCacheOnSecondCall(t *testing.T) {
	base := NewInMemory(model.TournamentMeta{ID: "t1", Title: "original"})
	cached, err := NewCached(base, 10)
	require.NoError(t, err)

	first, err := cached.GetTournament(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "original", first.Title)

	base.Put(model.TournamentMeta{ID: "t1", Title: "mutated underneath"})

	second, err := cached.GetTournament(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "original", second.Title, "cached entry is served until explicitly invalidated")
}

func TestCached_UpdateTournament_InvalidatesCacheEntry(t *testing.T) {
	base := NewInMemory(model.TournamentMeta{ID: "t1"})
	cached, err := NewCached(base, 10)
	require.NoError(t, err)

	_, err = cached.GetTournament(context.Background(), "t1")
	require.NoError(t, err)

	now := time.Now()
	require.NoError(t, cached.UpdateTournament(context.Background(), TournamentUpdate{ID: "t1", EndedAt: &now}))

	refreshed, err := cached.GetTournament(context.Background(), "t1")
	require.NoError(t, err)
	require.NotNil(t, refreshed.EndedAt)
}

func TestBreakerGuarded_PassesThroughSuccessfulCalls(t *testing.T) {
	base := NewInMemory(model.TournamentMeta{ID: "t1"})
	guarded := NewBreakerGuarded(base, "test")

	now := time.Now()
	err := guarded.UpdateTournament(context.Background(), TournamentUpdate{ID: "t1", EndedAt: &now})

	assert.NoError(t, err)
}

func TestBreakerGuarded_TripsAfterConsecutiveFailures(t *testing.T) {
	base := NewInMemory()
	guarded := NewBreakerGuarded(base, "test-trip")

	var lastErr error
	for i := 0; i < 10; i++ {
		lastErr = guarded.UpdateTournament(context.Background(), TournamentUpdate{ID: "missing"})
	}

	assert.Error(t, lastErr)
}
