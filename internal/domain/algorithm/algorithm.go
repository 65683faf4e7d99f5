// Package algorithm implements the pure typing-state transition rules
// applied to a Session on every inbound type or progress event. It holds no
// state of its own and performs no I/O.
package algorithm

import (
	"time"

	"github.com/webitel/tournament-runtime/internal/domain/model"
)

// Algorithm advances a Session in response to inbound keystroke data. A
// single exclusive section (held by the caller, see internal/runtime) must
// surround each call — the functions themselves are not safe for concurrent
// use on the same Session.
type Algorithm interface {
	HandleType(session *model.Session, input []rune, original []byte, now time.Time) model.PartialParticipantData
	HandleProgress(session *model.Session, progress model.ProgressEventPayload, original []byte, now time.Time) (model.PartialParticipantData, *model.WsFailure)
}

// ZeroProceed is the default Algorithm: the cursor advances on every
// printable keystroke, the correct position only on a correct keystroke at
// the current cursor, and a single backspace retreats at most one character
// of a matched run.
type ZeroProceed struct{}

const backspace = '\b'

// HandleType consumes a batch of characters (as coalesced by the ingestion
// debouncer) against the session's running position.
func (ZeroProceed) HandleType(session *model.Session, input []rune, original []byte, now time.Time) model.PartialParticipantData {
	if session.StartedAt == nil {
		started := now
		session.StartedAt = &started
	}

	textLen := len(original)

	for _, ch := range input {
		if session.CorrectPosition >= textLen {
			break
		}

		if ch == backspace {
			if session.CurrentPosition > session.CorrectPosition {
				session.CurrentPosition--
			} else if session.CurrentPosition == session.CorrectPosition && session.CurrentPosition > 0 {
				if original[session.CurrentPosition-1] != ' ' {
					session.CorrectPosition--
					session.CurrentPosition--
				}
			}
		} else {
			session.TotalKeystrokes++

			if session.CurrentPosition < textLen {
				expected := original[session.CurrentPosition]
				if session.CurrentPosition == session.CorrectPosition && rune(expected) == ch {
					session.CorrectPosition++
				}
				session.CurrentPosition++
			}
		}

		if session.CorrectPosition == textLen && session.EndedAt == nil {
			ended := now
			session.EndedAt = &ended
			session.CurrentPosition = session.CorrectPosition
			break
		}
	}

	recomputeStats(session, now)

	return model.DeltaFromSession(session)
}

// HandleProgress accepts a client-reported absolute position rather than a
// keystroke-by-keystroke replay. Used for fast-forward resync.
func (ZeroProceed) HandleProgress(session *model.Session, progress model.ProgressEventPayload, original []byte, now time.Time) (model.PartialParticipantData, *model.WsFailure) {
	textLen := len(original)

	if progress.CurrentPosition > textLen || progress.CorrectPosition > textLen || progress.CorrectPosition > progress.CurrentPosition {
		f := model.NewWsFailure(model.CodeInvalidProgress, "Invalid progress data.")
		return model.PartialParticipantData{}, &f
	}

	if session.EndedAt != nil {
		f := model.NewWsFailure(model.CodeSessionEnded, "Your session has ended.")
		return model.PartialParticipantData{}, &f
	}

	if session.StartedAt == nil {
		started := now
		session.StartedAt = &started
	}

	session.CurrentPosition = progress.CurrentPosition
	session.CorrectPosition = progress.CorrectPosition
	session.TotalKeystrokes = progress.TotalKeystrokes

	recomputeStats(session, now)

	if session.CorrectPosition == textLen && session.EndedAt == nil {
		ended := now
		session.EndedAt = &ended
	}

	return model.DeltaFromSession(session), nil
}

func recomputeStats(session *model.Session, now time.Time) {
	if session.StartedAt == nil {
		session.CurrentSpeed = 0
		session.CurrentAccuracy = 100
		return
	}

	end := now
	if session.EndedAt != nil {
		end = *session.EndedAt
	}

	minutesElapsed := end.Sub(*session.StartedAt).Minutes()
	if minutesElapsed < 0.0001 {
		minutesElapsed = 0.0001
	}

	session.CurrentSpeed = roundTo(float64(session.CorrectPosition) / 5.0 / minutesElapsed)

	if session.TotalKeystrokes > 0 {
		acc := roundTo((float64(session.CorrectPosition) / float64(session.TotalKeystrokes)) * 100.0)
		session.CurrentAccuracy = clamp(acc, 0, 100)
	} else {
		session.CurrentAccuracy = 100
	}
}

func roundTo(f float64) float64 {
	if f < 0 {
		return float64(int(f-0.5))
	}
	return float64(int(f + 0.5))
}

func clamp(f, lo, hi float64) float64 {
	if f < lo {
		return lo
	}
	if f > hi {
		return hi
	}
	return f
}
