package repository

import (
	"context"
	"math/rand"
	"strings"
	"sync"

	"github.com/webitel/tournament-runtime/internal/domain/model"
)

// fallbackText matches the original generator's hardcoded default passage,
// used whenever a tournament carries no custom text configuration.
const fallbackText = "In the land of myth and in the time of magic, the destiny of a great kingdom rests on the shoulders of a young boy. He's named Merlin."

var meaningfulWords = []string{
	"keyboard", "latency", "runtime", "cursor", "accuracy", "falcon",
	"horizon", "galaxy", "whisper", "granite", "velvet", "ember",
	"compass", "lantern", "harbor", "thicket", "glacier", "orchard",
}

const (
	symbolSet = "!@#$%^&*-_=+"
	numberSet = "0123456789"
)

// InMemory is a development/test Repository backed by an in-process map. It
// satisfies the full Repository contract without any external store.
type InMemory struct {
	mu          sync.Mutex
	tournaments map[string]model.TournamentMeta
	rand        *rand.Rand
}

// NewInMemory seeds the store with the given tournaments, keyed by their id.
func NewInMemory(seed ...model.TournamentMeta) *InMemory {
	m := &InMemory{
		tournaments: make(map[string]model.TournamentMeta, len(seed)),
		rand:        rand.New(rand.NewSource(1)),
	}
	for _, t := range seed {
		m.tournaments[t.ID] = t
	}
	return m
}

// Put registers or replaces a tournament's metadata, useful in tests.
func (m *InMemory) Put(meta model.TournamentMeta) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tournaments[meta.ID] = meta
}

func (m *InMemory) GetTournament(_ context.Context, id string) (model.TournamentMeta, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	meta, ok := m.tournaments[id]
	if !ok {
		return model.TournamentMeta{}, ErrNotFound
	}
	return meta, nil
}

func (m *InMemory) UpdateTournament(_ context.Context, update TournamentUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	meta, ok := m.tournaments[update.ID]
	if !ok {
		return ErrNotFound
	}
	if update.EndedAt != nil {
		meta.EndedAt = update.EndedAt
	}
	m.tournaments[update.ID] = meta
	return nil
}

func (m *InMemory) GenerateText(_ context.Context, opts model.TextOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !opts.UpperCase && !opts.LowerCase && !opts.Numbers && !opts.Symbols && !opts.MeaningfulWords {
		return fallbackText, nil
	}

	const wordCount = 40
	var b strings.Builder
	for i := 0; i < wordCount; i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(m.nextWord(opts))
	}
	return b.String(), nil
}

func (m *InMemory) nextWord(opts model.TextOptions) string {
	if opts.MeaningfulWords {
		word := meaningfulWords[m.rand.Intn(len(meaningfulWords))]
		return applyCase(word, opts)
	}

	length := 3 + m.rand.Intn(5)
	var b strings.Builder
	for i := 0; i < length; i++ {
		b.WriteString(m.nextGlyph(opts))
	}
	return b.String()
}

func (m *InMemory) nextGlyph(opts model.TextOptions) string {
	pools := make([]string, 0, 3)
	if opts.LowerCase || (!opts.UpperCase && !opts.Numbers && !opts.Symbols) {
		pools = append(pools, "abcdefghijklmnopqrstuvwxyz")
	}
	if opts.UpperCase {
		pools = append(pools, "ABCDEFGHIJKLMNOPQRSTUVWXYZ")
	}
	if opts.Numbers {
		pools = append(pools, numberSet)
	}
	if opts.Symbols {
		pools = append(pools, symbolSet)
	}

	pool := pools[m.rand.Intn(len(pools))]
	return string(pool[m.rand.Intn(len(pool))])
}

func applyCase(word string, opts model.TextOptions) string {
	switch {
	case opts.UpperCase && !opts.LowerCase:
		return strings.ToUpper(word)
	default:
		return strings.ToLower(word)
	}
}
