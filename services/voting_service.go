package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/courtside/league-system/brackets"
	"github.com/courtside/league-system/db"
	"github.com/courtside/league-system/models"
	"github.com/courtside/league-system/repositories"
)

// VoteResult is the proposal state after a committed vote toggle.
type VoteResult struct {
	Proposal      *models.DateProposal `json:"proposal"`
	Voted         bool                 `json:"voted"`
	DateConfirmed bool                 `json:"date_confirmed"`
}

// VotingService owns the date ballot of an event: competing proposals with
// togglable votes that auto-confirm the event's date once a majority of the
// invited participants backs one of them.
type VotingService interface {
	Propose(ctx context.Context, eventID, proposerID int, startsAt time.Time) (*models.DateProposal, error)
	Vote(ctx context.Context, eventID, proposalID, participantID int) (*VoteResult, error)
}

type votingService struct {
	tx             db.TxRunner
	eventRepo      repositories.EventRepository
	invitationRepo repositories.InvitationRepository
	proposalRepo   repositories.ProposalRepository
	hub            *brackets.Hub
	logger         *slog.Logger
}

func NewVotingService(
	tx db.TxRunner,
	eventRepo repositories.EventRepository,
	invitationRepo repositories.InvitationRepository,
	proposalRepo repositories.ProposalRepository,
	hub *brackets.Hub,
	logger *slog.Logger,
) VotingService {
	return &votingService{
		tx:             tx,
		eventRepo:      eventRepo,
		invitationRepo: invitationRepo,
		proposalRepo:   proposalRepo,
		hub:            hub,
		logger:         logger,
	}
}

// Propose creates a date proposal with the proposer as its sole initial
// voter. Multiple proposals for the same date/time may coexist.
func (s *votingService) Propose(ctx context.Context, eventID, proposerID int, startsAt time.Time) (*models.DateProposal, error) {
	proposal := &models.DateProposal{
		EventID:    eventID,
		ProposerID: proposerID,
		StartsAt:   startsAt,
		VotesCount: 1,
	}

	err := s.tx.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		if _, err := s.eventRepo.GetByID(ctx, exec, eventID); err != nil {
			if errors.Is(err, repositories.ErrEventNotFound) {
				return ErrEventNotFound
			}
			return err
		}
		if _, err := s.invitationRepo.GetByEventAndUser(ctx, exec, eventID, proposerID); err != nil {
			if errors.Is(err, repositories.ErrInvitationNotFound) {
				return ErrNotInvited
			}
			return err
		}
		if err := s.proposalRepo.Create(ctx, exec, proposal); err != nil {
			return err
		}
		return s.proposalRepo.AddVote(ctx, exec, proposal.ID, proposerID)
	})
	if err != nil {
		return nil, err
	}

	proposal.Votes = []int{proposerID}
	return proposal, nil
}

// Vote toggles a participant's vote on a proposal. The toggle, the majority
// check, and the conditional date commit all run in one atomic section keyed
// on the event row, so two proposals crossing the threshold at once cannot
// both confirm: the first committed majority wins and later crossings leave
// the already-confirmed date untouched.
func (s *votingService) Vote(ctx context.Context, eventID, proposalID, participantID int) (*VoteResult, error) {
	result := &VoteResult{}
	var event *models.ScheduledEvent

	err := s.tx.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		loaded, err := s.eventRepo.GetByIDForUpdate(ctx, exec, eventID)
		if err != nil {
			if errors.Is(err, repositories.ErrEventNotFound) {
				return ErrEventNotFound
			}
			return err
		}
		event = loaded

		proposal, err := s.proposalRepo.GetByID(ctx, exec, proposalID)
		if err != nil {
			if errors.Is(err, repositories.ErrProposalNotFound) {
				return ErrProposalNotFound
			}
			return err
		}
		if proposal.EventID != eventID {
			return ErrProposalNotFound
		}

		if _, err := s.invitationRepo.GetByEventAndUser(ctx, exec, eventID, participantID); err != nil {
			if errors.Is(err, repositories.ErrInvitationNotFound) {
				return ErrNotInvited
			}
			return err
		}

		hasVote, err := s.proposalRepo.HasVote(ctx, exec, proposalID, participantID)
		if err != nil {
			return err
		}

		if hasVote {
			if err := s.proposalRepo.RemoveVote(ctx, exec, proposalID, participantID); err != nil {
				return err
			}
			proposal.VotesCount--
		} else {
			if err := s.proposalRepo.AddVote(ctx, exec, proposalID, participantID); err != nil {
				return err
			}
			proposal.VotesCount++
		}
		if err := s.proposalRepo.SetVotesCount(ctx, exec, proposalID, proposal.VotesCount); err != nil {
			return err
		}

		result.Proposal = proposal
		result.Voted = !hasVote
		result.DateConfirmed = event.DateConfirmedByVoting

		// Only an addition can cross the threshold, and a date confirmed by
		// an earlier ballot is never overwritten.
		if !hasVote && !event.DateConfirmedByVoting && proposal.VotesCount >= event.MajorityThreshold() {
			if err := s.eventRepo.ConfirmDate(ctx, exec, eventID, proposal.StartsAt); err != nil {
				return err
			}
			event.StartsAt = &proposal.StartsAt
			event.DateConfirmedByVoting = true
			result.DateConfirmed = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.DateConfirmed {
		s.hub.BroadcastToRoom(eventRoom(event), brackets.Message{
			Type:    brackets.MessageEventUpdated,
			Payload: event,
		})
		s.logger.Info("event date confirmed by vote",
			slog.Int("event_id", eventID), slog.Int("proposal_id", proposalID))
	}

	voters, err := s.proposalRepo.ListVoters(ctx, nil, proposalID)
	if err != nil {
		return nil, fmt.Errorf("failed to list proposal voters: %w", err)
	}
	result.Proposal.Votes = voters
	return result, nil
}
