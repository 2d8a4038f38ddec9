package models

import "time"

// DateProposal is a candidate date/time for a scheduled event. VotesCount is
// kept equal to the size of the voter set at every committed transition.
// Several proposals for the same date/time may coexist.
type DateProposal struct {
	ID         int       `json:"id" db:"id"`
	EventID    int       `json:"event_id" db:"event_id"`
	ProposerID int       `json:"proposer_id" db:"proposer_id"`
	StartsAt   time.Time `json:"starts_at" db:"starts_at"`
	VotesCount int       `json:"votes_count" db:"votes_count"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`

	// Voter user ids, loaded on demand.
	Votes []int `json:"votes,omitempty" db:"-"`
}
