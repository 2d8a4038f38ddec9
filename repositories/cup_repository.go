package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/courtside/league-system/models"
	"github.com/lib/pq"
)

var (
	ErrCupNotFound      = errors.New("cup not found")
	ErrCupNameConflict  = errors.New("cup name is already in use")
	ErrCupTeamInvalid   = errors.New("cup references an unknown team")
	ErrCupUserInvalid   = errors.New("cup references an unknown organizer")
	ErrCupHasNoTeams    = errors.New("cup has no registered teams")
	ErrCupTeamDuplicate = errors.New("team is already registered for this cup")
)

type CupRepository interface {
	Create(ctx context.Context, exec SQLExecutor, cup *models.Cup, teamIDs []int) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Cup, error)
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Cup, error)
	List(ctx context.Context) ([]*models.Cup, error)
	ListTeamIDs(ctx context.Context, exec SQLExecutor, cupID int) ([]int, error)
	ListTeams(ctx context.Context, cupID int) ([]models.Team, error)
	UpdateProgress(ctx context.Context, exec SQLExecutor, id int, status models.CupStatus, currentRound, totalRounds int) error
	SetResult(ctx context.Context, exec SQLExecutor, id int, championTeamID, runnerUpTeamID int) error
	UpdateLogoKey(ctx context.Context, id int, logoKey *string) error
	Delete(ctx context.Context, id int) error
}

type postgresCupRepository struct {
	db *sql.DB
}

func NewPostgresCupRepository(db *sql.DB) CupRepository {
	return &postgresCupRepository{db: db}
}

func (r *postgresCupRepository) executor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const cupColumns = `id, name, organizer_id, status, current_round, total_rounds, champion_team_id, runner_up_team_id, logo_key, created_at`

func scanCup(row interface{ Scan(...interface{}) error }) (*models.Cup, error) {
	cup := &models.Cup{}
	err := row.Scan(
		&cup.ID,
		&cup.Name,
		&cup.OrganizerID,
		&cup.Status,
		&cup.CurrentRound,
		&cup.TotalRounds,
		&cup.ChampionTeamID,
		&cup.RunnerUpTeamID,
		&cup.LogoKey,
		&cup.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return cup, nil
}

func (r *postgresCupRepository) Create(ctx context.Context, exec SQLExecutor, cup *models.Cup, teamIDs []int) error {
	db := r.executor(exec)

	query := `
		INSERT INTO cups (name, organizer_id, status)
		VALUES ($1, $2, $3)
		RETURNING id, current_round, total_rounds, created_at`

	err := db.QueryRowContext(ctx, query, cup.Name, cup.OrganizerID, cup.Status).
		Scan(&cup.ID, &cup.CurrentRound, &cup.TotalRounds, &cup.CreatedAt)
	if err != nil {
		return r.handleCupError(err)
	}

	for position, teamID := range teamIDs {
		_, err = db.ExecContext(ctx,
			`INSERT INTO cup_teams (cup_id, team_id, position) VALUES ($1, $2, $3)`,
			cup.ID, teamID, position)
		if err != nil {
			return r.handleCupError(err)
		}
	}
	return nil
}

func (r *postgresCupRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Cup, error) {
	query := `SELECT ` + cupColumns + ` FROM cups WHERE id = $1`
	cup, err := scanCup(r.executor(exec).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCupNotFound
		}
		return nil, fmt.Errorf("failed to scan cup %d: %w", id, err)
	}
	return cup, nil
}

func (r *postgresCupRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Cup, error) {
	query := `SELECT ` + cupColumns + ` FROM cups WHERE id = $1 FOR UPDATE`
	cup, err := scanCup(r.executor(exec).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCupNotFound
		}
		return nil, fmt.Errorf("failed to lock cup %d: %w", id, err)
	}
	return cup, nil
}

func (r *postgresCupRepository) List(ctx context.Context) ([]*models.Cup, error) {
	query := `SELECT ` + cupColumns + ` FROM cups ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cups := make([]*models.Cup, 0)
	for rows.Next() {
		cup, scanErr := scanCup(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		cups = append(cups, cup)
	}
	return cups, rows.Err()
}

func (r *postgresCupRepository) ListTeamIDs(ctx context.Context, exec SQLExecutor, cupID int) ([]int, error) {
	query := `SELECT team_id FROM cup_teams WHERE cup_id = $1 ORDER BY position ASC`
	rows, err := r.executor(exec).QueryContext(ctx, query, cupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int, 0)
	for rows.Next() {
		var id int
		if scanErr := rows.Scan(&id); scanErr != nil {
			return nil, scanErr
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *postgresCupRepository) ListTeams(ctx context.Context, cupID int) ([]models.Team, error) {
	query := `
		SELECT t.id, t.name, t.created_at
		FROM teams t
		JOIN cup_teams ct ON ct.team_id = t.id
		WHERE ct.cup_id = $1
		ORDER BY ct.position ASC`

	rows, err := r.db.QueryContext(ctx, query, cupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := make([]models.Team, 0)
	for rows.Next() {
		var team models.Team
		if scanErr := rows.Scan(&team.ID, &team.Name, &team.CreatedAt); scanErr != nil {
			return nil, scanErr
		}
		teams = append(teams, team)
	}
	return teams, rows.Err()
}

func (r *postgresCupRepository) UpdateProgress(ctx context.Context, exec SQLExecutor, id int, status models.CupStatus, currentRound, totalRounds int) error {
	query := `
		UPDATE cups
		SET status = $1, current_round = $2, total_rounds = $3
		WHERE id = $4`

	result, err := r.executor(exec).ExecContext(ctx, query, status, currentRound, totalRounds, id)
	if err != nil {
		return r.handleCupError(err)
	}
	return checkAffectedRows(result, ErrCupNotFound)
}

func (r *postgresCupRepository) SetResult(ctx context.Context, exec SQLExecutor, id int, championTeamID, runnerUpTeamID int) error {
	query := `
		UPDATE cups
		SET status = $1, champion_team_id = $2, runner_up_team_id = $3
		WHERE id = $4`

	result, err := r.executor(exec).ExecContext(ctx, query, models.CupStatusCompleted, championTeamID, runnerUpTeamID, id)
	if err != nil {
		return r.handleCupError(err)
	}
	return checkAffectedRows(result, ErrCupNotFound)
}

func (r *postgresCupRepository) UpdateLogoKey(ctx context.Context, id int, logoKey *string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE cups SET logo_key = $1 WHERE id = $2`, logoKey, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrCupNotFound)
}

func (r *postgresCupRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM cups WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrCupNotFound)
}

func (r *postgresCupRepository) handleCupError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Name() {
		case "unique_violation":
			if pqErr.Constraint == "cup_teams_cup_id_team_id_key" {
				return ErrCupTeamDuplicate
			}
			return ErrCupNameConflict
		case "foreign_key_violation":
			switch pqErr.Constraint {
			case "cup_teams_team_id_fkey":
				return ErrCupTeamInvalid
			case "cups_organizer_id_fkey":
				return ErrCupUserInvalid
			}
		}
	}
	return err
}
