package brackets

import (
	"testing"

	"github.com/courtside/league-system/models"
	"github.com/stretchr/testify/assert"
)

func TestRoundName(t *testing.T) {
	testCases := []struct {
		round       int
		totalRounds int
		want        string
	}{
		{round: 1, totalRounds: 1, want: "final"},
		{round: 2, totalRounds: 2, want: "final"},
		{round: 1, totalRounds: 2, want: "semifinal"},
		{round: 2, totalRounds: 3, want: "semifinal"},
		{round: 1, totalRounds: 3, want: "quarterfinal"},
		{round: 1, totalRounds: 4, want: "round of 16"},
		{round: 1, totalRounds: 5, want: "round of 32"},
		{round: 2, totalRounds: 5, want: "round of 16"},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, RoundName(tc.round, tc.totalRounds),
			"round=%d total=%d", tc.round, tc.totalRounds)
	}
}

func TestIsComplete(t *testing.T) {
	winner := 7
	assert.False(t, IsComplete(nil))
	assert.False(t, IsComplete([]*models.CupMatch{
		{Round: 1, Slot: 0, WinnerID: &winner},
		{Round: 2, Slot: 0},
	}))
	assert.True(t, IsComplete([]*models.CupMatch{
		{Round: 1, Slot: 0, WinnerID: &winner},
		{Round: 2, Slot: 0, WinnerID: &winner},
	}))
}

func TestFinalMatch(t *testing.T) {
	assert.Nil(t, FinalMatch(nil))

	final := &models.CupMatch{Round: 3, Slot: 0}
	matches := []*models.CupMatch{
		{Round: 1, Slot: 0},
		final,
		{Round: 2, Slot: 1},
	}
	assert.Same(t, final, FinalMatch(matches))
}
