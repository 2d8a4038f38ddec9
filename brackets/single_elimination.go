package brackets

import (
	"math/bits"
	"math/rand"
	"sort"

	"github.com/courtside/league-system/models"
)

type singleElimination struct{}

func NewSingleElimination() Generator {
	return singleElimination{}
}

func (singleElimination) Name() string { return "SingleElimination" }

// Generate builds the full bracket for params.TeamIDs.
//
// The bracket size is the next power of two >= the team count; round k holds
// size>>k matches. Seeds are placed with the standard pattern (seed 1 against
// the weakest seed, seeds 1 and 2 in opposite halves), so positions past the
// team count are byes and always fall against the strongest remaining seeds,
// never against each other. A bye match is decided immediately and its team
// written into the next round.
func (g singleElimination) Generate(params GenerateParams) ([]*models.CupMatch, error) {
	teamIDs := params.TeamIDs
	n := len(teamIDs)
	if n < 2 {
		return nil, ErrInsufficientParticipants
	}
	seen := make(map[int]struct{}, n)
	for _, id := range teamIDs {
		if _, dup := seen[id]; dup {
			return nil, ErrDuplicateTeams
		}
		seen[id] = struct{}{}
	}

	ordered := make([]int, n)
	copy(ordered, teamIDs)

	switch params.Mode {
	case SeedingRandom:
		rand.Shuffle(n, func(i, j int) {
			ordered[i], ordered[j] = ordered[j], ordered[i]
		})
	case SeedingRanked:
		strength := params.Strength
		if strength == nil {
			strength = func(int) float64 { return 0 }
		}
		sort.SliceStable(ordered, func(i, j int) bool {
			si, sj := strength(ordered[i]), strength(ordered[j])
			if si != sj {
				return si > sj
			}
			return ordered[i] < ordered[j]
		})
	default:
		return nil, ErrUnknownSeedingMode
	}

	size := BracketSize(n)
	rounds := TotalRounds(size)

	matches := make([]*models.CupMatch, 0, size-1)
	byRoundSlot := make(map[[2]int]*models.CupMatch, size-1)
	for r := 1; r <= rounds; r++ {
		for s := 0; s < size>>r; s++ {
			m := &models.CupMatch{Round: r, Slot: s}
			matches = append(matches, m)
			byRoundSlot[[2]int{r, s}] = m
		}
	}

	// teamAt maps a 1-based seed number to a team, nil past the field.
	teamAt := func(seed int) *int {
		if seed > n {
			return nil
		}
		id := ordered[seed-1]
		return &id
	}

	positions := seedPositions(size)
	for s := 0; s < size/2; s++ {
		m := byRoundSlot[[2]int{1, s}]
		m.Team1ID = teamAt(positions[2*s])
		m.Team2ID = teamAt(positions[2*s+1])

		// Bye: a single real team wins round 1 unplayed. No event is ever
		// attached to a bye match.
		var winner *int
		switch {
		case m.Team1ID != nil && m.Team2ID == nil:
			winner = m.Team1ID
		case m.Team1ID == nil && m.Team2ID != nil:
			winner = m.Team2ID
		}
		if winner != nil && rounds > 1 {
			m.WinnerID = winner
			next := byRoundSlot[[2]int{2, s / 2}]
			if s%2 == 0 {
				next.Team1ID = winner
			} else {
				next.Team2ID = winner
			}
		}
	}

	return matches, nil
}

// BracketSize is the next power of two >= teamCount.
func BracketSize(teamCount int) int {
	if teamCount <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(teamCount-1))
}

// TotalRounds is the bracket depth for a power-of-two bracket size.
func TotalRounds(bracketSize int) int {
	if bracketSize < 2 {
		return 0
	}
	return bits.Len(uint(bracketSize)) - 1
}

// NextSlot gives the (round, slot) the winner of (round, slot) advances to,
// and which side it fills there (1 or 2).
func NextSlot(round, slot int) (nextRound, nextSlotIdx, side int) {
	side = 1
	if slot%2 == 1 {
		side = 2
	}
	return round + 1, slot / 2, side
}

// seedPositions returns the 1-based seed occupying each bracket position for
// a power-of-two size, built by the classic fold: at every doubling each seed
// is paired with its complement, which keeps seeds 1 and 2 in opposite halves
// and routes byes onto the top seeds.
func seedPositions(size int) []int {
	pos := []int{1}
	for len(pos) < size {
		next := make([]int, 0, len(pos)*2)
		sum := len(pos)*2 + 1
		for _, s := range pos {
			next = append(next, s, sum-s)
		}
		pos = next
	}
	return pos
}
