package models

import (
	"time"

	"github.com/google/uuid"
)

// ScheduledEvent is a playable fixture participants are invited to: either a
// cup bracket match or a standalone friendly. The response counters are
// denormalized from the invitation set for O(1) capacity checks and are only
// ever mutated inside the same transaction that reads them.
type ScheduledEvent struct {
	ID                    int        `json:"id" db:"id"`
	PublicID              uuid.UUID  `json:"public_id" db:"public_id"`
	OrganizerID           int        `json:"organizer_id" db:"organizer_id"`
	CupMatchID            *int       `json:"cup_match_id,omitempty" db:"cup_match_id"`
	Title                 string     `json:"title" db:"title"`
	StartsAt              *time.Time `json:"starts_at,omitempty" db:"starts_at"`
	MaxPlayers            *int       `json:"max_players,omitempty" db:"max_players"`
	TotalInvited          int        `json:"total_invited" db:"total_invited"`
	ConfirmedCount        int        `json:"confirmed_count" db:"confirmed_count"`
	DeclinedCount         int        `json:"declined_count" db:"declined_count"`
	MaybeCount            int        `json:"maybe_count" db:"maybe_count"`
	DateConfirmedByVoting bool       `json:"date_confirmed_by_voting" db:"date_confirmed_by_voting"`
	CreatedAt             time.Time  `json:"created_at" db:"created_at"`

	// Ordered overflow of participants who confirmed after capacity was hit.
	Waitlist []int `json:"waitlist,omitempty" db:"-"`

	Invitations []Invitation   `json:"invitations,omitempty" db:"-"`
	Proposals   []DateProposal `json:"proposals,omitempty" db:"-"`
}

// MajorityThreshold is the vote count that auto-confirms a date proposal:
// ceil(totalInvited / 2).
func (e *ScheduledEvent) MajorityThreshold() int {
	return (e.TotalInvited + 1) / 2
}
