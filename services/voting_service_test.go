package services

import (
	"context"
	"testing"
	"time"

	"github.com/courtside/league-system/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type votingFixture struct {
	service      VotingService
	eventRepo    *fakeEventRepo
	inviteRepo   *fakeInvitationRepo
	proposalRepo *fakeProposalRepo
	event        *models.ScheduledEvent
}

func newVotingFixture(t *testing.T, invited int) *votingFixture {
	t.Helper()

	f := &votingFixture{
		eventRepo:    newFakeEventRepo(),
		inviteRepo:   newFakeInvitationRepo(),
		proposalRepo: newFakeProposalRepo(),
	}
	f.event = &models.ScheduledEvent{
		PublicID:     uuid.New(),
		OrganizerID:  organizerID,
		Title:        "Friendly",
		TotalInvited: invited,
	}
	require.NoError(t, f.eventRepo.Create(context.Background(), nil, f.event))

	userIDs := make([]int, invited)
	for i := range userIDs {
		userIDs[i] = i + 1
	}
	require.NoError(t, f.inviteRepo.CreateBatch(context.Background(), nil, f.event.ID, userIDs))

	f.service = NewVotingService(&fakeTxRunner{}, f.eventRepo, f.inviteRepo, f.proposalRepo,
		newTestHub(), discardLogger())
	return f
}

func TestProposeStartsWithProposerVote(t *testing.T) {
	f := newVotingFixture(t, 6)
	ctx := context.Background()
	date := time.Date(2026, 9, 12, 18, 30, 0, 0, time.UTC)

	proposal, err := f.service.Propose(ctx, f.event.ID, 1, date)
	require.NoError(t, err)
	assert.Equal(t, 1, proposal.VotesCount)
	assert.Equal(t, []int{1}, proposal.Votes)
	assert.True(t, proposal.StartsAt.Equal(date))

	// Identical dates may be proposed more than once.
	again, err := f.service.Propose(ctx, f.event.ID, 2, date)
	require.NoError(t, err)
	assert.NotEqual(t, proposal.ID, again.ID)

	_, err = f.service.Propose(ctx, f.event.ID, 99, date)
	assert.ErrorIs(t, err, ErrNotInvited)

	_, err = f.service.Propose(ctx, f.event.ID+99, 1, date)
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestVoteToggles(t *testing.T) {
	f := newVotingFixture(t, 6) // majority needs 3 votes, out of reach here
	ctx := context.Background()

	proposal, err := f.service.Propose(ctx, f.event.ID, 1, time.Now().Add(48*time.Hour))
	require.NoError(t, err)

	result, err := f.service.Vote(ctx, f.event.ID, proposal.ID, 2)
	require.NoError(t, err)
	assert.True(t, result.Voted)
	assert.False(t, result.DateConfirmed)
	assert.Equal(t, 2, result.Proposal.VotesCount)
	assert.ElementsMatch(t, []int{1, 2}, result.Proposal.Votes)

	// Voting again withdraws the vote.
	result, err = f.service.Vote(ctx, f.event.ID, proposal.ID, 2)
	require.NoError(t, err)
	assert.False(t, result.Voted)
	assert.Equal(t, 1, result.Proposal.VotesCount)
	assert.ElementsMatch(t, []int{1}, result.Proposal.Votes)
}

func TestVoteChecks(t *testing.T) {
	f := newVotingFixture(t, 6)
	ctx := context.Background()

	proposal, err := f.service.Propose(ctx, f.event.ID, 1, time.Now().Add(48*time.Hour))
	require.NoError(t, err)

	_, err = f.service.Vote(ctx, f.event.ID, proposal.ID, 99)
	assert.ErrorIs(t, err, ErrNotInvited)

	_, err = f.service.Vote(ctx, f.event.ID, proposal.ID+99, 2)
	assert.ErrorIs(t, err, ErrProposalNotFound)

	// A proposal belonging to another event is invisible here.
	other := &models.ScheduledEvent{PublicID: uuid.New(), OrganizerID: organizerID, Title: "Other", TotalInvited: 2}
	require.NoError(t, f.eventRepo.Create(ctx, nil, other))
	require.NoError(t, f.inviteRepo.CreateBatch(ctx, nil, other.ID, []int{1}))
	foreign, err := f.service.Propose(ctx, other.ID, 1, time.Now().Add(24*time.Hour))
	require.NoError(t, err)

	_, err = f.service.Vote(ctx, f.event.ID, foreign.ID, 2)
	assert.ErrorIs(t, err, ErrProposalNotFound)
}

func TestVoteMajorityConfirmsDate(t *testing.T) {
	f := newVotingFixture(t, 4) // majority at ceil(4/2) = 2
	ctx := context.Background()
	date := time.Date(2026, 10, 3, 20, 0, 0, 0, time.UTC)

	proposal, err := f.service.Propose(ctx, f.event.ID, 1, date)
	require.NoError(t, err)

	result, err := f.service.Vote(ctx, f.event.ID, proposal.ID, 2)
	require.NoError(t, err)
	assert.True(t, result.DateConfirmed)

	event, err := f.eventRepo.GetByID(ctx, nil, f.event.ID)
	require.NoError(t, err)
	assert.True(t, event.DateConfirmedByVoting)
	require.NotNil(t, event.StartsAt)
	assert.True(t, event.StartsAt.Equal(date))
}

func TestVoteFirstMajorityWins(t *testing.T) {
	f := newVotingFixture(t, 4) // majority at 2
	ctx := context.Background()
	firstDate := time.Date(2026, 10, 3, 20, 0, 0, 0, time.UTC)
	secondDate := time.Date(2026, 10, 10, 20, 0, 0, 0, time.UTC)

	first, err := f.service.Propose(ctx, f.event.ID, 1, firstDate)
	require.NoError(t, err)
	second, err := f.service.Propose(ctx, f.event.ID, 2, secondDate)
	require.NoError(t, err)

	result, err := f.service.Vote(ctx, f.event.ID, first.ID, 3)
	require.NoError(t, err)
	assert.True(t, result.DateConfirmed)

	// The second ballot also reaches a majority, but the committed date stays.
	result, err = f.service.Vote(ctx, f.event.ID, second.ID, 4)
	require.NoError(t, err)
	assert.True(t, result.DateConfirmed, "the event date is already settled")
	assert.Equal(t, 2, result.Proposal.VotesCount)

	event, err := f.eventRepo.GetByID(ctx, nil, f.event.ID)
	require.NoError(t, err)
	require.NotNil(t, event.StartsAt)
	assert.True(t, event.StartsAt.Equal(firstDate), "a confirmed date is never overwritten")
}

func TestVoteWithdrawalNeverUnconfirms(t *testing.T) {
	f := newVotingFixture(t, 4)
	ctx := context.Background()
	date := time.Date(2026, 11, 1, 19, 0, 0, 0, time.UTC)

	proposal, err := f.service.Propose(ctx, f.event.ID, 1, date)
	require.NoError(t, err)
	_, err = f.service.Vote(ctx, f.event.ID, proposal.ID, 2)
	require.NoError(t, err)

	// Dropping below the threshold afterwards leaves the confirmation alone.
	result, err := f.service.Vote(ctx, f.event.ID, proposal.ID, 2)
	require.NoError(t, err)
	assert.False(t, result.Voted)
	assert.Equal(t, 1, result.Proposal.VotesCount)

	event, err := f.eventRepo.GetByID(ctx, nil, f.event.ID)
	require.NoError(t, err)
	assert.True(t, event.DateConfirmedByVoting)
}
