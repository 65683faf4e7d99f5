package repository

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/webitel/tournament-runtime/internal/domain/model"
)

// Cached wraps a Repository with a cache-aside read path for
// GetTournament. Writes invalidate the cached entry so a later read is
// never stale past the next UpdateTournament.
type Cached struct {
	next  Repository
	cache *lru.Cache[string, model.TournamentMeta]
}

// NewCached builds a Cached decorator holding up to size entries.
func NewCached(next Repository, size int) (*Cached, error) {
	cache, err := lru.New[string, model.TournamentMeta](size)
	if err != nil {
		return nil, err
	}
	return &Cached{next: next, cache: cache}, nil
}

func (c *Cached) GetTournament(ctx context.Context, id string) (model.TournamentMeta, error) {
	if cached, ok := c.cache.Get(id); ok {
		return cached, nil
	}

	meta, err := c.next.GetTournament(ctx, id)
	if err != nil {
		return model.TournamentMeta{}, err
	}

	c.cache.Add(id, meta)
	return meta, nil
}

func (c *Cached) UpdateTournament(ctx context.Context, update TournamentUpdate) error {
	if err := c.next.UpdateTournament(ctx, update); err != nil {
		return err
	}
	c.cache.Remove(update.ID)
	return nil
}

func (c *Cached) GenerateText(ctx context.Context, opts model.TextOptions) (string, error) {
	return c.next.GenerateText(ctx, opts)
}
