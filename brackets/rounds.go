package brackets

import (
	"fmt"

	"github.com/courtside/league-system/models"
)

// RoundName maps a round to its display label by distance from the final.
func RoundName(round, totalRounds int) string {
	switch totalRounds - round {
	case 0:
		return "final"
	case 1:
		return "semifinal"
	case 2:
		return "quarterfinal"
	default:
		return fmt.Sprintf("round of %d", 1<<(totalRounds-round+1))
	}
}

// IsComplete reports whether the final-round match has a winner.
func IsComplete(matches []*models.CupMatch) bool {
	final := FinalMatch(matches)
	return final != nil && final.WinnerID != nil
}

// FinalMatch returns the single match of the highest round, or nil for an
// empty bracket.
func FinalMatch(matches []*models.CupMatch) *models.CupMatch {
	var final *models.CupMatch
	for _, m := range matches {
		if final == nil || m.Round > final.Round {
			final = m
		}
	}
	return final
}
