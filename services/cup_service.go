package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/courtside/league-system/brackets"
	"github.com/courtside/league-system/db"
	"github.com/courtside/league-system/models"
	"github.com/courtside/league-system/repositories"
	"github.com/courtside/league-system/storage"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type CreateCupInput struct {
	Name    string `json:"name"`
	TeamIDs []int  `json:"team_ids"`
}

type CupService interface {
	Create(ctx context.Context, organizerID int, input CreateCupInput) (*models.Cup, error)
	List(ctx context.Context) ([]*models.Cup, error)
	Get(ctx context.Context, cupID int) (*models.Cup, error)
	Start(ctx context.Context, cupID, organizerID int, mode brackets.SeedingMode) (*models.Cup, error)
	RecordWinner(ctx context.Context, matchID, reporterID, winnerTeamID int) (*models.CupMatch, error)
	UploadLogo(ctx context.Context, cupID, organizerID int, contentType string, reader io.Reader) (*models.Cup, error)
	Delete(ctx context.Context, cupID, organizerID int) error
}

type cupService struct {
	tx             db.TxRunner
	cupRepo        repositories.CupRepository
	matchRepo      repositories.CupMatchRepository
	eventRepo      repositories.EventRepository
	invitationRepo repositories.InvitationRepository
	teamRepo       repositories.TeamRepository
	uploader       storage.FileUploader
	hub            *brackets.Hub
	logger         *slog.Logger
}

func NewCupService(
	tx db.TxRunner,
	cupRepo repositories.CupRepository,
	matchRepo repositories.CupMatchRepository,
	eventRepo repositories.EventRepository,
	invitationRepo repositories.InvitationRepository,
	teamRepo repositories.TeamRepository,
	uploader storage.FileUploader,
	hub *brackets.Hub,
	logger *slog.Logger,
) CupService {
	return &cupService{
		tx:             tx,
		cupRepo:        cupRepo,
		matchRepo:      matchRepo,
		eventRepo:      eventRepo,
		invitationRepo: invitationRepo,
		teamRepo:       teamRepo,
		uploader:       uploader,
		hub:            hub,
		logger:         logger,
	}
}

func cupRoom(cupID int) string { return "cup-" + strconv.Itoa(cupID) }

func (s *cupService) Create(ctx context.Context, organizerID int, input CreateCupInput) (*models.Cup, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("%w: cup name is required", ErrValidationFailed)
	}
	if len(input.TeamIDs) < 2 {
		return nil, ErrInsufficientParticipants
	}

	cup := &models.Cup{
		Name:        input.Name,
		OrganizerID: organizerID,
		Status:      models.CupStatusDraft,
	}

	err := s.tx.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.cupRepo.Create(ctx, exec, cup, input.TeamIDs)
	})
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrCupTeamDuplicate):
			return nil, ErrDuplicateTeams
		case errors.Is(err, repositories.ErrCupTeamInvalid):
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to create cup: %w", err)
	}
	return cup, nil
}

func (s *cupService) List(ctx context.Context) ([]*models.Cup, error) {
	cups, err := s.cupRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list cups: %w", err)
	}
	for _, cup := range cups {
		s.attachLogoURL(cup)
	}
	return cups, nil
}

// Get loads the cup with its teams and full bracket in parallel.
func (s *cupService) Get(ctx context.Context, cupID int) (*models.Cup, error) {
	var cup *models.Cup

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		loaded, err := s.cupRepo.GetByID(gCtx, nil, cupID)
		if err != nil {
			if errors.Is(err, repositories.ErrCupNotFound) {
				return ErrCupNotFound
			}
			return err
		}
		cup = loaded
		return nil
	})

	var teams []models.Team
	g.Go(func() error {
		loaded, err := s.cupRepo.ListTeams(gCtx, cupID)
		if err != nil {
			return fmt.Errorf("failed to list cup teams: %w", err)
		}
		teams = loaded
		return nil
	})

	var matches []*models.CupMatch
	g.Go(func() error {
		loaded, err := s.matchRepo.ListByCup(gCtx, nil, cupID, nil)
		if err != nil {
			return fmt.Errorf("failed to list cup matches: %w", err)
		}
		matches = loaded
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	cup.Teams = teams
	cup.Matches = make([]models.CupMatch, len(matches))
	for i, m := range matches {
		cup.Matches[i] = *m
	}
	s.attachLogoURL(cup)
	return cup, nil
}

// Start generates and persists the bracket, creates a scheduled event for
// every immediately playable match, and moves the cup to in_progress. The
// whole transition commits atomically.
func (s *cupService) Start(ctx context.Context, cupID, organizerID int, mode brackets.SeedingMode) (*models.Cup, error) {
	generator := brackets.NewSingleElimination()

	err := s.tx.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		cup, err := s.cupRepo.GetByIDForUpdate(ctx, exec, cupID)
		if err != nil {
			if errors.Is(err, repositories.ErrCupNotFound) {
				return ErrCupNotFound
			}
			return err
		}
		if cup.OrganizerID != organizerID {
			return ErrOrganizerOnly
		}
		if cup.Status != models.CupStatusDraft {
			return ErrCupNotDraft
		}

		teamIDs, err := s.cupRepo.ListTeamIDs(ctx, exec, cupID)
		if err != nil {
			return fmt.Errorf("failed to list cup teams: %w", err)
		}

		params := brackets.GenerateParams{TeamIDs: teamIDs, Mode: mode}
		if mode == brackets.SeedingRanked {
			strength, strengthErr := s.teamRepo.StrengthByTeam(ctx, teamIDs)
			if strengthErr != nil {
				return fmt.Errorf("failed to load team strength: %w", strengthErr)
			}
			params.Strength = func(teamID int) float64 { return strength[teamID] }
		}

		matches, err := generator.Generate(params)
		if err != nil {
			switch {
			case errors.Is(err, brackets.ErrInsufficientParticipants):
				return ErrInsufficientParticipants
			case errors.Is(err, brackets.ErrDuplicateTeams):
				return ErrDuplicateTeams
			case errors.Is(err, brackets.ErrUnknownSeedingMode):
				return ErrInvalidSeedingMode
			}
			return fmt.Errorf("failed to generate bracket: %w", err)
		}

		totalRounds := 0
		for _, m := range matches {
			m.CupID = cupID
			if m.Round > totalRounds {
				totalRounds = m.Round
			}
		}
		if err := s.matchRepo.CreateBatch(ctx, exec, matches); err != nil {
			return err
		}
		cup.TotalRounds = totalRounds

		// Byes are decided at generation and get no event; everything else
		// with both sides known is playable right away.
		for _, m := range matches {
			if m.WinnerID == nil && m.Team1ID != nil && m.Team2ID != nil {
				if err := s.createMatchEvent(ctx, exec, cup, m); err != nil {
					return err
				}
			}
		}

		return s.cupRepo.UpdateProgress(ctx, exec, cupID, models.CupStatusInProgress, 1, totalRounds)
	})
	if err != nil {
		return nil, err
	}

	cup, err := s.Get(ctx, cupID)
	if err != nil {
		return nil, err
	}
	s.hub.BroadcastToRoom(cupRoom(cupID), brackets.Message{Type: brackets.MessageBracketUpdated, Payload: cup})
	s.logger.Info("cup started", slog.Int("cup_id", cupID), slog.Int("rounds", cup.TotalRounds))
	return cup, nil
}

// RecordWinner decides a match and advances the winner into the next round.
// Replaying the same result is accepted as a no-op; reporting a different
// winner for a decided match is a conflict.
func (s *cupService) RecordWinner(ctx context.Context, matchID, reporterID, winnerTeamID int) (*models.CupMatch, error) {
	var (
		decided   *models.CupMatch
		cupID     int
		completed bool
	)

	err := s.tx.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		m, err := s.matchRepo.GetByIDForUpdate(ctx, exec, matchID)
		if err != nil {
			if errors.Is(err, repositories.ErrCupMatchNotFound) {
				return ErrMatchNotFound
			}
			return err
		}
		cup, err := s.cupRepo.GetByIDForUpdate(ctx, exec, m.CupID)
		if err != nil {
			return err
		}
		cupID = cup.ID

		if cup.OrganizerID != reporterID {
			return ErrOrganizerOnly
		}

		if m.WinnerID != nil {
			if *m.WinnerID == winnerTeamID {
				decided = m
				return nil
			}
			return ErrResultConflict
		}

		if cup.Status != models.CupStatusInProgress {
			return ErrCupNotInProgress
		}
		if m.Team1ID == nil || m.Team2ID == nil {
			return ErrMatchNotPlayable
		}
		if !m.HasTeam(winnerTeamID) {
			return ErrInvalidWinner
		}

		if err := s.matchRepo.SetWinner(ctx, exec, m.ID, winnerTeamID); err != nil {
			return err
		}
		m.WinnerID = &winnerTeamID
		decided = m

		if m.Round == cup.TotalRounds {
			runnerUp := *m.Team1ID
			if runnerUp == winnerTeamID {
				runnerUp = *m.Team2ID
			}
			if err := s.cupRepo.SetResult(ctx, exec, cup.ID, winnerTeamID, runnerUp); err != nil {
				return err
			}
			completed = true
			return nil
		}

		nextRound, nextSlot, side := brackets.NextSlot(m.Round, m.Slot)
		parent, err := s.matchRepo.GetBySlot(ctx, exec, cup.ID, nextRound, nextSlot)
		if err != nil {
			return fmt.Errorf("failed to load next-round match: %w", err)
		}
		if err := s.matchRepo.SetTeamSlot(ctx, exec, parent.ID, side, winnerTeamID); err != nil {
			return err
		}
		if side == 1 {
			parent.Team1ID = &winnerTeamID
		} else {
			parent.Team2ID = &winnerTeamID
		}

		if parent.Team1ID != nil && parent.Team2ID != nil && parent.WinnerID == nil && parent.EventID == nil {
			if err := s.createMatchEvent(ctx, exec, cup, parent); err != nil {
				return err
			}
		}

		undecided, err := s.matchRepo.CountUndecidedPlayable(ctx, exec, cup.ID, cup.CurrentRound)
		if err != nil {
			return err
		}
		if undecided == 0 && cup.CurrentRound < cup.TotalRounds {
			return s.cupRepo.UpdateProgress(ctx, exec, cup.ID, cup.Status, cup.CurrentRound+1, cup.TotalRounds)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.hub.BroadcastToRoom(cupRoom(cupID), brackets.Message{Type: brackets.MessageBracketUpdated, Payload: decided})
	if completed {
		s.hub.BroadcastToRoom(cupRoom(cupID), brackets.Message{
			Type:    brackets.MessageCupCompleted,
			Payload: map[string]int{"cup_id": cupID, "champion_team_id": winnerTeamID},
		})
		s.logger.Info("cup completed", slog.Int("cup_id", cupID), slog.Int("champion_team_id", winnerTeamID))
	}
	return decided, nil
}

// createMatchEvent attaches a scheduled event to a playable match and invites
// both rosters.
func (s *cupService) createMatchEvent(ctx context.Context, exec repositories.SQLExecutor, cup *models.Cup, m *models.CupMatch) error {
	playerIDs, err := s.teamRepo.ListPlayerIDsByTeams(ctx, []int{*m.Team1ID, *m.Team2ID})
	if err != nil {
		return fmt.Errorf("failed to load rosters for match event: %w", err)
	}

	event := &models.ScheduledEvent{
		PublicID:     uuid.New(),
		OrganizerID:  cup.OrganizerID,
		CupMatchID:   &m.ID,
		Title:        fmt.Sprintf("%s: %s", cup.Name, brackets.RoundName(m.Round, cup.TotalRounds)),
		TotalInvited: len(playerIDs),
	}
	if err := s.eventRepo.Create(ctx, exec, event); err != nil {
		return fmt.Errorf("failed to create match event: %w", err)
	}
	if err := s.invitationRepo.CreateBatch(ctx, exec, event.ID, playerIDs); err != nil {
		return err
	}
	if err := s.matchRepo.SetEventID(ctx, exec, m.ID, event.ID); err != nil {
		return err
	}
	m.EventID = &event.ID
	return nil
}

func (s *cupService) UploadLogo(ctx context.Context, cupID, organizerID int, contentType string, reader io.Reader) (*models.Cup, error) {
	if s.uploader == nil {
		return nil, errors.New("file storage is not configured")
	}
	cup, err := s.cupRepo.GetByID(ctx, nil, cupID)
	if err != nil {
		if errors.Is(err, repositories.ErrCupNotFound) {
			return nil, ErrCupNotFound
		}
		return nil, err
	}
	if cup.OrganizerID != organizerID {
		return nil, ErrOrganizerOnly
	}

	key := fmt.Sprintf("cups/%d/logo-%d", cupID, time.Now().UnixNano())
	if _, err := s.uploader.Upload(ctx, key, contentType, reader); err != nil {
		return nil, fmt.Errorf("failed to upload cup logo: %w", err)
	}

	oldKey := cup.LogoKey
	if err := s.cupRepo.UpdateLogoKey(ctx, cupID, &key); err != nil {
		return nil, err
	}
	if oldKey != nil {
		if delErr := s.uploader.Delete(ctx, *oldKey); delErr != nil {
			s.logger.Warn("failed to delete previous cup logo", slog.String("key", *oldKey), slog.Any("error", delErr))
		}
	}

	cup.LogoKey = &key
	s.attachLogoURL(cup)
	return cup, nil
}

func (s *cupService) Delete(ctx context.Context, cupID, organizerID int) error {
	cup, err := s.cupRepo.GetByID(ctx, nil, cupID)
	if err != nil {
		if errors.Is(err, repositories.ErrCupNotFound) {
			return ErrCupNotFound
		}
		return err
	}
	if cup.OrganizerID != organizerID {
		return ErrOrganizerOnly
	}
	if cup.Status != models.CupStatusDraft {
		return ErrCupNotDraft
	}
	return s.cupRepo.Delete(ctx, cupID)
}

func (s *cupService) attachLogoURL(cup *models.Cup) {
	if cup.LogoKey == nil || s.uploader == nil {
		return
	}
	url := s.uploader.GetPublicURL(*cup.LogoKey)
	if url != "" {
		cup.LogoURL = &url
	}
}
