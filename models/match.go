package models

import "time"

type MatchState string

const (
	MatchStateEmpty   MatchState = "empty"
	MatchStatePending MatchState = "pending"
	MatchStateDecided MatchState = "decided"
)

// CupMatch is one slot of a cup bracket. The bracket is stored flat: the
// winner of (round, slot) advances to (round+1, slot/2), filling team1 when
// slot is even and team2 when slot is odd.
type CupMatch struct {
	ID        int       `json:"id" db:"id"`
	CupID     int       `json:"cup_id" db:"cup_id"`
	Round     int       `json:"round" db:"round"`
	Slot      int       `json:"slot" db:"slot"`
	Team1ID   *int      `json:"team1_id,omitempty" db:"team1_id"`
	Team2ID   *int      `json:"team2_id,omitempty" db:"team2_id"`
	WinnerID  *int      `json:"winner_id,omitempty" db:"winner_id"`
	EventID   *int      `json:"event_id,omitempty" db:"event_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// State derives the match lifecycle stage. A bye is decided at generation
// time, so it never reports pending.
func (m *CupMatch) State() MatchState {
	switch {
	case m.WinnerID != nil:
		return MatchStateDecided
	case m.Team1ID != nil || m.Team2ID != nil:
		return MatchStatePending
	default:
		return MatchStateEmpty
	}
}

// HasTeam reports whether teamID occupies one of the match's two sides.
func (m *CupMatch) HasTeam(teamID int) bool {
	if m.Team1ID != nil && *m.Team1ID == teamID {
		return true
	}
	return m.Team2ID != nil && *m.Team2ID == teamID
}
