package models

import "time"

// CupStatus represents cup lifecycle states, matching the ENUM in the database.
// Transitions are monotonic: draft -> in_progress -> completed.
type CupStatus string

const (
	CupStatusDraft      CupStatus = "draft"
	CupStatusInProgress CupStatus = "in_progress"
	CupStatusCompleted  CupStatus = "completed"
)

// Cup is a single-elimination knockout tournament.
type Cup struct {
	ID             int       `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	OrganizerID    int       `json:"organizer_id" db:"organizer_id"`
	Status         CupStatus `json:"status" db:"status"`
	CurrentRound   int       `json:"current_round" db:"current_round"`
	TotalRounds    int       `json:"total_rounds" db:"total_rounds"`
	ChampionTeamID *int      `json:"champion_team_id,omitempty" db:"champion_team_id"`
	RunnerUpTeamID *int      `json:"runner_up_team_id,omitempty" db:"runner_up_team_id"`
	LogoKey        *string   `json:"-" db:"logo_key"`
	LogoURL        *string   `json:"logo_url,omitempty" db:"-"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`

	// Optional related entities, loaded on demand.
	Teams   []Team     `json:"teams,omitempty" db:"-"`
	Matches []CupMatch `json:"matches,omitempty" db:"-"`
}
