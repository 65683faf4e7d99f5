package model

import "time"

// Session is one participant's typing state within a room. It is mutated
// only inside the exclusive closure handed out by the participant registry's
// Update method (see internal/domain/registry.Keyed.Update) — the struct
// itself carries no lock.
type Session struct {
	Member       Member
	TournamentID string

	CurrentPosition int
	CorrectPosition int
	TotalKeystrokes int
	CurrentSpeed    float64
	CurrentAccuracy float64

	StartedAt *time.Time
	EndedAt   *time.Time
}

// NewSession creates a fresh, untyped session for a participant member.
func NewSession(member Member, tournamentID string) *Session {
	return &Session{
		Member:          member,
		TournamentID:    tournamentID,
		CurrentAccuracy: 100,
	}
}

// Clone returns a value copy, safe to hand out after the exclusive section
// that produced it has released.
func (s *Session) Clone() Session {
	return *s
}

// Finished reports whether the session has ended (EndedAt is set), either by
// reaching the end of the text or by an inactivity timeout.
func (s *Session) Finished() bool {
	return s.EndedAt != nil
}
