package model

import "time"

// ParticipantData is the full wire representation of a Session.
type ParticipantData struct {
	Member          Member     `json:"member"`
	CurrentPosition int        `json:"currentPosition"`
	CorrectPosition int        `json:"correctPosition"`
	TotalKeystrokes int        `json:"totalKeystrokes"`
	CurrentSpeed    float64    `json:"currentSpeed"`
	CurrentAccuracy float64    `json:"currentAccuracy"`
	StartedAt       *time.Time `json:"startedAt,omitempty"`
	EndedAt         *time.Time `json:"endedAt,omitempty"`
}

// ToParticipantData maps a Session to its wire shape.
func ToParticipantData(s Session) ParticipantData {
	return ParticipantData{
		Member:          s.Member,
		CurrentPosition: s.CurrentPosition,
		CorrectPosition: s.CorrectPosition,
		TotalKeystrokes: s.TotalKeystrokes,
		CurrentSpeed:    s.CurrentSpeed,
		CurrentAccuracy: s.CurrentAccuracy,
		StartedAt:       s.StartedAt,
		EndedAt:         s.EndedAt,
	}
}

// PartialParticipantData is the Δ produced by the typing algorithm — only
// the fields the algorithm can change.
type PartialParticipantData struct {
	CurrentPosition *int       `json:"currentPosition,omitempty"`
	CorrectPosition *int       `json:"correctPosition,omitempty"`
	TotalKeystrokes *int       `json:"totalKeystrokes,omitempty"`
	CurrentSpeed    *float64   `json:"currentSpeed,omitempty"`
	CurrentAccuracy *float64   `json:"currentAccuracy,omitempty"`
	StartedAt       *time.Time `json:"startedAt,omitempty"`
	EndedAt         *time.Time `json:"endedAt,omitempty"`
}

// DeltaFromSession builds the Δ payload from the session's current values,
// as produced after an apply_type/apply_progress call.
func DeltaFromSession(s *Session) PartialParticipantData {
	return PartialParticipantData{
		CurrentPosition: &s.CurrentPosition,
		CorrectPosition: &s.CorrectPosition,
		TotalKeystrokes: &s.TotalKeystrokes,
		CurrentSpeed:    &s.CurrentSpeed,
		CurrentAccuracy: &s.CurrentAccuracy,
		StartedAt:       s.StartedAt,
		EndedAt:         s.EndedAt,
	}
}

// TournamentData is the full wire representation of a tournament room.
type TournamentData struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	CreatedBy    string     `json:"createdBy"`
	CreatedAt    time.Time  `json:"createdAt"`
	ScheduledFor time.Time  `json:"scheduledFor"`
	StartedAt    *time.Time `json:"startedAt,omitempty"`
	EndedAt      *time.Time `json:"endedAt,omitempty"`
	ScheduledEnd *time.Time `json:"scheduledEnd,omitempty"`
	Text         *string    `json:"text,omitempty"`
}

// PartialTournamentData is used by update:data broadcasts.
type PartialTournamentData struct {
	Title        *string    `json:"title,omitempty"`
	Description  *string    `json:"description,omitempty"`
	ScheduledFor *time.Time `json:"scheduledFor,omitempty"`
	StartedAt    *time.Time `json:"startedAt,omitempty"`
	EndedAt      *time.Time `json:"endedAt,omitempty"`
	Text         *string    `json:"text,omitempty"`
}

// WsFailure is the shape of every `*:failure` payload.
type WsFailure struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func NewWsFailure(code int, message string) WsFailure {
	return WsFailure{Code: code, Message: message}
}

// Known failure codes (spec.md §6).
const (
	CodeJoinRejectedNotAccepting = 1004
	CodeJoinRejectedEnded        = 1005
	CodeMemberNotFound           = 2210
	CodeSessionEnded             = 2211
	CodeInvalidProgress          = 2212
	CodeSessionNotFound          = 3101
)

// JoinSuccessPayload is the body of `join:success`.
type JoinSuccessPayload struct {
	Data         TournamentData    `json:"data"`
	Member       Member            `json:"member"`
	Participants []ParticipantData `json:"participants"`
	Noauth       string            `json:"noauth"`
}

type ParticipantJoinedPayload struct {
	Participant ParticipantData `json:"participant"`
}

type ParticipantLeftPayload struct {
	MemberID string `json:"memberId"`
}

type UpdateMePayload struct {
	Updates PartialParticipantData `json:"updates"`
	Rid     int                    `json:"rid"`
}

type ParticipantUpdate struct {
	MemberID string                 `json:"memberId"`
	Updates  PartialParticipantData `json:"updates"`
}

type UpdateAllPayload struct {
	Updates []ParticipantUpdate `json:"updates"`
}

type UpdateDataPayload struct {
	Updates PartialTournamentData `json:"updates"`
}

type CheckSuccessPayload struct {
	Status RoomStatus `json:"status"`
}

type LeaveSuccessPayload struct {
	Message string `json:"message"`
}

// Inbound payloads (client -> server).

type TypeEventPayload struct {
	Character string `json:"character"`
	Rid       int    `json:"rid"`
}

type ProgressEventPayload struct {
	CorrectPosition int `json:"correctPosition"`
	CurrentPosition int `json:"currentPosition"`
	TotalKeystrokes int `json:"totalKeystrokes"`
	Rid             int `json:"rid"`
}
