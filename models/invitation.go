package models

import "time"

type InviteResponse string

const (
	ResponsePending   InviteResponse = "pending"
	ResponseConfirmed InviteResponse = "confirmed"
	ResponseDeclined  InviteResponse = "declined"
	ResponseMaybe     InviteResponse = "maybe"
)

// Valid reports whether r is a response a participant may submit. Pending is
// the initial state only and cannot be set explicitly.
func (r InviteResponse) Valid() bool {
	return r == ResponseConfirmed || r == ResponseDeclined || r == ResponseMaybe
}

// Invitation is the per-(event, participant) RSVP record. There is at most
// one invitation per participant per event, enforced by a unique index.
type Invitation struct {
	ID          int            `json:"id" db:"id"`
	EventID     int            `json:"event_id" db:"event_id"`
	UserID      int            `json:"user_id" db:"user_id"`
	Response    InviteResponse `json:"response" db:"response"`
	RespondedAt *time.Time     `json:"responded_at,omitempty" db:"responded_at"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
}
