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

func newEventService() (EventService, *fakeEventRepo, *fakeInvitationRepo, *fakeProposalRepo) {
	eventRepo := newFakeEventRepo()
	inviteRepo := newFakeInvitationRepo()
	proposalRepo := newFakeProposalRepo()
	service := NewEventService(&fakeTxRunner{}, eventRepo, inviteRepo, proposalRepo)
	return service, eventRepo, inviteRepo, proposalRepo
}

func TestCreateEvent(t *testing.T) {
	service, _, inviteRepo, _ := newEventService()
	ctx := context.Background()
	startsAt := time.Date(2026, 9, 20, 17, 0, 0, 0, time.UTC)

	event, err := service.Create(ctx, organizerID, CreateEventInput{
		Title:          "Saturday run",
		StartsAt:       &startsAt,
		MaxPlayers:     intPtr(10),
		InvitedUserIDs: []int{1, 2, 3, 2, 1}, // duplicates collapse
	})
	require.NoError(t, err)

	assert.NotZero(t, event.ID)
	assert.NotEqual(t, uuid.Nil, event.PublicID)
	assert.Equal(t, 3, event.TotalInvited)

	invitations, err := inviteRepo.ListByEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Len(t, invitations, 3)
}

func TestCreateEventValidation(t *testing.T) {
	service, _, _, _ := newEventService()
	ctx := context.Background()

	_, err := service.Create(ctx, organizerID, CreateEventInput{InvitedUserIDs: []int{1}})
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = service.Create(ctx, organizerID, CreateEventInput{Title: "No guests"})
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = service.Create(ctx, organizerID, CreateEventInput{
		Title: "Bad cap", InvitedUserIDs: []int{1}, MaxPlayers: intPtr(0),
	})
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestGetEventLoadsDetails(t *testing.T) {
	service, eventRepo, _, proposalRepo := newEventService()
	ctx := context.Background()

	event, err := service.Create(ctx, organizerID, CreateEventInput{
		Title:          "Friendly",
		InvitedUserIDs: []int{1, 2},
	})
	require.NoError(t, err)

	require.NoError(t, eventRepo.AddToWaitlist(ctx, nil, event.ID, 2))
	require.NoError(t, proposalRepo.Create(ctx, nil, &models.DateProposal{
		EventID:    event.ID,
		ProposerID: 1,
		StartsAt:   time.Now().Add(72 * time.Hour),
		VotesCount: 1,
	}))

	loaded, err := service.Get(ctx, event.ID)
	require.NoError(t, err)
	assert.Len(t, loaded.Invitations, 2)
	assert.Equal(t, []int{2}, loaded.Waitlist)
	assert.Len(t, loaded.Proposals, 1)

	byPublic, err := service.GetByPublicID(ctx, event.PublicID)
	require.NoError(t, err)
	assert.Equal(t, event.ID, byPublic.ID)

	_, err = service.Get(ctx, event.ID+99)
	assert.ErrorIs(t, err, ErrEventNotFound)

	_, err = service.GetByPublicID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrEventNotFound)
}
