package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/courtside/league-system/brackets"
	"github.com/courtside/league-system/db"
	"github.com/courtside/league-system/models"
	"github.com/courtside/league-system/repositories"
)

// RSVPResult is the state a responder observes after their response commits.
type RSVPResult struct {
	Event      *models.ScheduledEvent `json:"event"`
	Invitation *models.Invitation     `json:"invitation"`
	Waitlisted bool                   `json:"waitlisted"`
}

// RSVPService resolves concurrent invitation responses against a
// capacity-bounded event. Every response runs as one atomic section keyed on
// the event row, so the confirmed count can never exceed max_players and no
// counter update is ever lost, however many participants respond at once.
type RSVPService interface {
	Respond(ctx context.Context, eventID, participantID int, response models.InviteResponse) (*RSVPResult, error)
	PromoteFromWaitlist(ctx context.Context, eventID, organizerID int) ([]int, error)
}

type rsvpService struct {
	tx             db.TxRunner
	eventRepo      repositories.EventRepository
	invitationRepo repositories.InvitationRepository
	hub            *brackets.Hub
	logger         *slog.Logger
}

func NewRSVPService(
	tx db.TxRunner,
	eventRepo repositories.EventRepository,
	invitationRepo repositories.InvitationRepository,
	hub *brackets.Hub,
	logger *slog.Logger,
) RSVPService {
	return &rsvpService{
		tx:             tx,
		eventRepo:      eventRepo,
		invitationRepo: invitationRepo,
		hub:            hub,
		logger:         logger,
	}
}

func eventRoom(event *models.ScheduledEvent) string { return "event-" + event.PublicID.String() }

// Respond applies a participant's response. Inside one transaction it reads
// the event's counters and waitlist under a row lock, undoes the effect of
// the previous response, applies the new one (diverting to the waitlist when
// the freshly-read confirmed count is already at capacity), and persists the
// invitation. All of it commits together or not at all.
func (s *rsvpService) Respond(ctx context.Context, eventID, participantID int, response models.InviteResponse) (*RSVPResult, error) {
	if !response.Valid() {
		return nil, ErrInvalidResponse
	}

	result := &RSVPResult{}

	err := s.tx.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		event, err := s.eventRepo.GetByIDForUpdate(ctx, exec, eventID)
		if err != nil {
			if errors.Is(err, repositories.ErrEventNotFound) {
				return ErrEventNotFound
			}
			return err
		}

		invitation, err := s.invitationRepo.GetByEventAndUser(ctx, exec, eventID, participantID)
		if err != nil {
			if errors.Is(err, repositories.ErrInvitationNotFound) {
				return ErrNotInvited
			}
			return err
		}

		waitlist, err := s.eventRepo.ListWaitlist(ctx, exec, eventID)
		if err != nil {
			return fmt.Errorf("failed to load waitlist: %w", err)
		}
		onWaitlist := slices.Contains(waitlist, participantID)

		if invitation.Response == response {
			// Idempotent replay; nothing to recount.
			result.Event = event
			result.Invitation = invitation
			result.Waitlisted = onWaitlist
			return nil
		}

		// Undo the previous response. A waitlisted confirmation never
		// incremented the counter, so it only leaves the waitlist.
		switch invitation.Response {
		case models.ResponseConfirmed:
			if onWaitlist {
				if err := s.eventRepo.RemoveFromWaitlist(ctx, exec, eventID, participantID); err != nil {
					return err
				}
				onWaitlist = false
			} else {
				event.ConfirmedCount--
			}
		case models.ResponseDeclined:
			event.DeclinedCount--
		case models.ResponseMaybe:
			event.MaybeCount--
		}

		switch response {
		case models.ResponseConfirmed:
			if event.MaxPlayers != nil && event.ConfirmedCount >= *event.MaxPlayers {
				if !onWaitlist {
					if err := s.eventRepo.AddToWaitlist(ctx, exec, eventID, participantID); err != nil {
						return err
					}
				}
				result.Waitlisted = true
			} else {
				event.ConfirmedCount++
			}
		case models.ResponseDeclined, models.ResponseMaybe:
			if onWaitlist {
				if err := s.eventRepo.RemoveFromWaitlist(ctx, exec, eventID, participantID); err != nil {
					return err
				}
			}
			if response == models.ResponseDeclined {
				event.DeclinedCount++
			} else {
				event.MaybeCount++
			}
		}

		if err := s.eventRepo.UpdateCounters(ctx, exec, eventID,
			event.ConfirmedCount, event.DeclinedCount, event.MaybeCount); err != nil {
			return err
		}

		now := time.Now()
		if err := s.invitationRepo.UpdateResponse(ctx, exec, invitation.ID, response, now); err != nil {
			return err
		}
		invitation.Response = response
		invitation.RespondedAt = &now

		result.Event = event
		result.Invitation = invitation
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.hub.BroadcastToRoom(eventRoom(result.Event), brackets.Message{
		Type:    brackets.MessageEventUpdated,
		Payload: result.Event,
	})
	return result, nil
}

// PromoteFromWaitlist moves waitlisted participants into the confirmed set,
// in waitlist order, while capacity allows. Promotion is an explicit
// organizer action; Respond never does it implicitly.
func (s *rsvpService) PromoteFromWaitlist(ctx context.Context, eventID, organizerID int) ([]int, error) {
	promoted := make([]int, 0)
	var event *models.ScheduledEvent

	err := s.tx.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		promoted = promoted[:0]

		loaded, err := s.eventRepo.GetByIDForUpdate(ctx, exec, eventID)
		if err != nil {
			if errors.Is(err, repositories.ErrEventNotFound) {
				return ErrEventNotFound
			}
			return err
		}
		event = loaded
		if event.OrganizerID != organizerID {
			return ErrForbiddenOperation
		}

		waitlist, err := s.eventRepo.ListWaitlist(ctx, exec, eventID)
		if err != nil {
			return fmt.Errorf("failed to load waitlist: %w", err)
		}

		for _, userID := range waitlist {
			if event.MaxPlayers != nil && event.ConfirmedCount >= *event.MaxPlayers {
				break
			}
			if err := s.eventRepo.RemoveFromWaitlist(ctx, exec, eventID, userID); err != nil {
				return err
			}
			event.ConfirmedCount++
			promoted = append(promoted, userID)
		}

		if len(promoted) == 0 {
			return nil
		}
		return s.eventRepo.UpdateCounters(ctx, exec, eventID,
			event.ConfirmedCount, event.DeclinedCount, event.MaybeCount)
	})
	if err != nil {
		return nil, err
	}

	if len(promoted) > 0 {
		s.hub.BroadcastToRoom(eventRoom(event), brackets.Message{
			Type:    brackets.MessageEventUpdated,
			Payload: event,
		})
		s.logger.Info("promoted from waitlist",
			slog.Int("event_id", eventID), slog.Int("count", len(promoted)))
	}
	return promoted, nil
}
