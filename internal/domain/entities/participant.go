package entities

import "time"

// Participant represents a member of the live session roster
type Participant struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Muted       bool      `json:"muted"`
	LanguageTag string    `json:"language_tag,omitempty"`
	JoinedAt    time.Time `json:"joined_at"`
}

// Name returns the display name, falling back to the identity
func (p Participant) Name() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.ID
}

// SetMuted updates the mute state
func (p *Participant) SetMuted(muted bool) {
	p.Muted = muted
}

// ParticipantSnapshot is the frozen view of a participant stored in a record
type ParticipantSnapshot struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Muted       bool   `json:"muted"`
	LanguageTag string `json:"language_tag,omitempty"`
	IsLocal     bool   `json:"is_local"`
}

// Snapshot returns the point-in-time view of p
func (p Participant) Snapshot(local bool) ParticipantSnapshot {
	return ParticipantSnapshot{
		ID:          p.ID,
		DisplayName: p.Name(),
		Muted:       p.Muted,
		LanguageTag: p.LanguageTag,
		IsLocal:     local,
	}
}
