package brackets

import (
	"errors"

	"github.com/courtside/league-system/models"
)

type SeedingMode string

const (
	SeedingRandom SeedingMode = "random"
	SeedingRanked SeedingMode = "ranked"
)

var (
	ErrInsufficientParticipants = errors.New("at least 2 teams are required to generate a bracket")
	ErrDuplicateTeams           = errors.New("team ids must be distinct")
	ErrUnknownSeedingMode       = errors.New("unknown seeding mode")
)

// StrengthFunc resolves a team's strength metric for ranked seeding. It is
// supplied by the roster/rating subsystem; this package only orders by it.
type StrengthFunc func(teamID int) float64

type GenerateParams struct {
	TeamIDs []int
	Mode    SeedingMode
	// Strength is required for SeedingRanked and ignored otherwise.
	Strength StrengthFunc
}

// Generator produces a complete flat bracket: one models.CupMatch per (round,
// slot) of the full bracket, byes already decided, later rounds left as
// placeholders to be filled by winner advancement.
type Generator interface {
	Generate(params GenerateParams) ([]*models.CupMatch, error)
	Name() string
}
