package model

import "time"

// TextOptions controls the shape of the generated challenge text. Carried
// opaquely by the core and handed to Repository.GenerateText.
type TextOptions struct {
	UpperCase       bool `json:"upperCase"`
	LowerCase       bool `json:"lowerCase"`
	Numbers         bool `json:"numbers"`
	Symbols         bool `json:"symbols"`
	MeaningfulWords bool `json:"meaningfulWords"`
}

// DefaultTextOptions matches the original generator's defaults.
func DefaultTextOptions() TextOptions {
	return TextOptions{
		UpperCase:       true,
		LowerCase:       true,
		Numbers:         true,
		Symbols:         true,
		MeaningfulWords: true,
	}
}

// TournamentMeta is immutable for the lifetime of a Runtime.
type TournamentMeta struct {
	ID           string
	Title        string
	Description  string
	CreatedBy    string
	CreatedAt    time.Time
	ScheduledFor time.Time
	TextOptions  TextOptions

	// EndedAt reflects the persisted state at load time; used only by the
	// Dispatcher to refuse reviving an already-ended tournament.
	EndedAt *time.Time
}

// RoomStatus is the coarse lifecycle reported by the "check" event.
type RoomStatus string

const (
	StatusUpcoming RoomStatus = "Upcoming"
	StatusStarted  RoomStatus = "Started"
	StatusEnded    RoomStatus = "Ended"
)
