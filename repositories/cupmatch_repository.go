package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/courtside/league-system/models"
)

var (
	ErrCupMatchNotFound    = errors.New("cup match not found")
	ErrCupMatchSlotInvalid = errors.New("cup match slot side must be 1 or 2")
)

type CupMatchRepository interface {
	CreateBatch(ctx context.Context, exec SQLExecutor, matches []*models.CupMatch) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.CupMatch, error)
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.CupMatch, error)
	GetBySlot(ctx context.Context, exec SQLExecutor, cupID, round, slot int) (*models.CupMatch, error)
	ListByCup(ctx context.Context, exec SQLExecutor, cupID int, round *int) ([]*models.CupMatch, error)
	SetWinner(ctx context.Context, exec SQLExecutor, id, winnerTeamID int) error
	SetTeamSlot(ctx context.Context, exec SQLExecutor, id, side, teamID int) error
	SetEventID(ctx context.Context, exec SQLExecutor, id, eventID int) error
	CountUndecidedPlayable(ctx context.Context, exec SQLExecutor, cupID, round int) (int, error)
}

type postgresCupMatchRepository struct {
	db *sql.DB
}

func NewPostgresCupMatchRepository(db *sql.DB) CupMatchRepository {
	return &postgresCupMatchRepository{db: db}
}

func (r *postgresCupMatchRepository) executor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const cupMatchColumns = `id, cup_id, round, slot, team1_id, team2_id, winner_id, event_id, created_at`

func scanCupMatch(row interface{ Scan(...interface{}) error }) (*models.CupMatch, error) {
	m := &models.CupMatch{}
	err := row.Scan(
		&m.ID,
		&m.CupID,
		&m.Round,
		&m.Slot,
		&m.Team1ID,
		&m.Team2ID,
		&m.WinnerID,
		&m.EventID,
		&m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *postgresCupMatchRepository) CreateBatch(ctx context.Context, exec SQLExecutor, matches []*models.CupMatch) error {
	db := r.executor(exec)
	query := `
		INSERT INTO cup_matches (cup_id, round, slot, team1_id, team2_id, winner_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	for _, m := range matches {
		err := db.QueryRowContext(ctx, query,
			m.CupID, m.Round, m.Slot, m.Team1ID, m.Team2ID, m.WinnerID,
		).Scan(&m.ID, &m.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert match (round %d, slot %d): %w", m.Round, m.Slot, err)
		}
	}
	return nil
}

func (r *postgresCupMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.CupMatch, error) {
	query := `SELECT ` + cupMatchColumns + ` FROM cup_matches WHERE id = $1`
	m, err := scanCupMatch(r.executor(exec).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCupMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan cup match %d: %w", id, err)
	}
	return m, nil
}

func (r *postgresCupMatchRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.CupMatch, error) {
	query := `SELECT ` + cupMatchColumns + ` FROM cup_matches WHERE id = $1 FOR UPDATE`
	m, err := scanCupMatch(r.executor(exec).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCupMatchNotFound
		}
		return nil, fmt.Errorf("failed to lock cup match %d: %w", id, err)
	}
	return m, nil
}

func (r *postgresCupMatchRepository) GetBySlot(ctx context.Context, exec SQLExecutor, cupID, round, slot int) (*models.CupMatch, error) {
	query := `SELECT ` + cupMatchColumns + ` FROM cup_matches WHERE cup_id = $1 AND round = $2 AND slot = $3 FOR UPDATE`
	m, err := scanCupMatch(r.executor(exec).QueryRowContext(ctx, query, cupID, round, slot))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCupMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan cup match (cup %d, round %d, slot %d): %w", cupID, round, slot, err)
	}
	return m, nil
}

func (r *postgresCupMatchRepository) ListByCup(ctx context.Context, exec SQLExecutor, cupID int, round *int) ([]*models.CupMatch, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + cupMatchColumns + ` FROM cup_matches WHERE cup_id = $1`)

	args := []interface{}{cupID}
	if round != nil {
		queryBuilder.WriteString(" AND round = $" + strconv.Itoa(len(args)+1))
		args = append(args, *round)
	}
	queryBuilder.WriteString(" ORDER BY round ASC, slot ASC")

	rows, err := r.executor(exec).QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]*models.CupMatch, 0)
	for rows.Next() {
		m, scanErr := scanCupMatch(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (r *postgresCupMatchRepository) SetWinner(ctx context.Context, exec SQLExecutor, id, winnerTeamID int) error {
	result, err := r.executor(exec).ExecContext(ctx,
		`UPDATE cup_matches SET winner_id = $1 WHERE id = $2`, winnerTeamID, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrCupMatchNotFound)
}

func (r *postgresCupMatchRepository) SetTeamSlot(ctx context.Context, exec SQLExecutor, id, side, teamID int) error {
	var column string
	switch side {
	case 1:
		column = "team1_id"
	case 2:
		column = "team2_id"
	default:
		return ErrCupMatchSlotInvalid
	}

	result, err := r.executor(exec).ExecContext(ctx,
		`UPDATE cup_matches SET `+column+` = $1 WHERE id = $2`, teamID, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrCupMatchNotFound)
}

func (r *postgresCupMatchRepository) SetEventID(ctx context.Context, exec SQLExecutor, id, eventID int) error {
	result, err := r.executor(exec).ExecContext(ctx,
		`UPDATE cup_matches SET event_id = $1 WHERE id = $2`, eventID, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrCupMatchNotFound)
}

// CountUndecidedPlayable counts matches of a round that still need a result.
// Slots that never fill (double-bye placeholders cannot occur, but a slot fed
// only by byes is decided at generation) are excluded by the winner check.
func (r *postgresCupMatchRepository) CountUndecidedPlayable(ctx context.Context, exec SQLExecutor, cupID, round int) (int, error) {
	var count int
	err := r.executor(exec).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM cup_matches WHERE cup_id = $1 AND round = $2 AND winner_id IS NULL`,
		cupID, round,
	).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}
