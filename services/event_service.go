package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/courtside/league-system/db"
	"github.com/courtside/league-system/models"
	"github.com/courtside/league-system/repositories"
	"github.com/google/uuid"
)

type CreateEventInput struct {
	Title          string     `json:"title"`
	StartsAt       *time.Time `json:"starts_at,omitempty"`
	MaxPlayers     *int       `json:"max_players,omitempty"`
	InvitedUserIDs []int      `json:"invited_user_ids"`
}

// EventService covers standalone scheduled events (friendlies); cup match
// events are created by the cup service.
type EventService interface {
	Create(ctx context.Context, organizerID int, input CreateEventInput) (*models.ScheduledEvent, error)
	Get(ctx context.Context, eventID int) (*models.ScheduledEvent, error)
	GetByPublicID(ctx context.Context, publicID uuid.UUID) (*models.ScheduledEvent, error)
}

type eventService struct {
	tx             db.TxRunner
	eventRepo      repositories.EventRepository
	invitationRepo repositories.InvitationRepository
	proposalRepo   repositories.ProposalRepository
}

func NewEventService(
	tx db.TxRunner,
	eventRepo repositories.EventRepository,
	invitationRepo repositories.InvitationRepository,
	proposalRepo repositories.ProposalRepository,
) EventService {
	return &eventService{
		tx:             tx,
		eventRepo:      eventRepo,
		invitationRepo: invitationRepo,
		proposalRepo:   proposalRepo,
	}
}

func (s *eventService) Create(ctx context.Context, organizerID int, input CreateEventInput) (*models.ScheduledEvent, error) {
	if input.Title == "" {
		return nil, fmt.Errorf("%w: event title is required", ErrValidationFailed)
	}
	if len(input.InvitedUserIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one participant must be invited", ErrValidationFailed)
	}
	if input.MaxPlayers != nil && *input.MaxPlayers <= 0 {
		return nil, fmt.Errorf("%w: max_players must be positive", ErrValidationFailed)
	}

	invited := dedupe(input.InvitedUserIDs)
	event := &models.ScheduledEvent{
		PublicID:     uuid.New(),
		OrganizerID:  organizerID,
		Title:        input.Title,
		StartsAt:     input.StartsAt,
		MaxPlayers:   input.MaxPlayers,
		TotalInvited: len(invited),
	}

	err := s.tx.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.eventRepo.Create(ctx, exec, event); err != nil {
			return err
		}
		return s.invitationRepo.CreateBatch(ctx, exec, event.ID, invited)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	return event, nil
}

func (s *eventService) Get(ctx context.Context, eventID int) (*models.ScheduledEvent, error) {
	event, err := s.eventRepo.GetByID(ctx, nil, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return s.loadDetails(ctx, event)
}

func (s *eventService) GetByPublicID(ctx context.Context, publicID uuid.UUID) (*models.ScheduledEvent, error) {
	event, err := s.eventRepo.GetByPublicID(ctx, publicID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return s.loadDetails(ctx, event)
}

func (s *eventService) loadDetails(ctx context.Context, event *models.ScheduledEvent) (*models.ScheduledEvent, error) {
	invitations, err := s.invitationRepo.ListByEvent(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	event.Invitations = invitations

	waitlist, err := s.eventRepo.ListWaitlist(ctx, nil, event.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load waitlist: %w", err)
	}
	event.Waitlist = waitlist

	proposals, err := s.proposalRepo.ListByEvent(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list proposals: %w", err)
	}
	event.Proposals = proposals
	return event, nil
}

func dedupe(ids []int) []int {
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
