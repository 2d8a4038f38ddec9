package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/courtside/league-system/models"
)

var ErrProposalNotFound = errors.New("date proposal not found")

type ProposalRepository interface {
	Create(ctx context.Context, exec SQLExecutor, proposal *models.DateProposal) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.DateProposal, error)
	ListByEvent(ctx context.Context, eventID int) ([]models.DateProposal, error)
	HasVote(ctx context.Context, exec SQLExecutor, proposalID, userID int) (bool, error)
	AddVote(ctx context.Context, exec SQLExecutor, proposalID, userID int) error
	RemoveVote(ctx context.Context, exec SQLExecutor, proposalID, userID int) error
	SetVotesCount(ctx context.Context, exec SQLExecutor, proposalID, votesCount int) error
	ListVoters(ctx context.Context, exec SQLExecutor, proposalID int) ([]int, error)
}

type postgresProposalRepository struct {
	db *sql.DB
}

func NewPostgresProposalRepository(db *sql.DB) ProposalRepository {
	return &postgresProposalRepository{db: db}
}

func (r *postgresProposalRepository) executor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresProposalRepository) Create(ctx context.Context, exec SQLExecutor, proposal *models.DateProposal) error {
	query := `
		INSERT INTO date_proposals (event_id, proposer_id, starts_at, votes_count)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.executor(exec).QueryRowContext(ctx, query,
		proposal.EventID,
		proposal.ProposerID,
		proposal.StartsAt,
		proposal.VotesCount,
	).Scan(&proposal.ID, &proposal.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create date proposal for event %d: %w", proposal.EventID, err)
	}
	return nil
}

func (r *postgresProposalRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.DateProposal, error) {
	query := `
		SELECT id, event_id, proposer_id, starts_at, votes_count, created_at
		FROM date_proposals
		WHERE id = $1`

	p := &models.DateProposal{}
	err := r.executor(exec).QueryRowContext(ctx, query, id).Scan(
		&p.ID,
		&p.EventID,
		&p.ProposerID,
		&p.StartsAt,
		&p.VotesCount,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProposalNotFound
		}
		return nil, fmt.Errorf("failed to scan date proposal %d: %w", id, err)
	}
	return p, nil
}

func (r *postgresProposalRepository) ListByEvent(ctx context.Context, eventID int) ([]models.DateProposal, error) {
	query := `
		SELECT id, event_id, proposer_id, starts_at, votes_count, created_at
		FROM date_proposals
		WHERE event_id = $1
		ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	proposals := make([]models.DateProposal, 0)
	for rows.Next() {
		var p models.DateProposal
		if scanErr := rows.Scan(
			&p.ID,
			&p.EventID,
			&p.ProposerID,
			&p.StartsAt,
			&p.VotesCount,
			&p.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		proposals = append(proposals, p)
	}
	return proposals, rows.Err()
}

func (r *postgresProposalRepository) HasVote(ctx context.Context, exec SQLExecutor, proposalID, userID int) (bool, error) {
	var exists bool
	err := r.executor(exec).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM proposal_votes WHERE proposal_id = $1 AND user_id = $2)`,
		proposalID, userID,
	).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *postgresProposalRepository) AddVote(ctx context.Context, exec SQLExecutor, proposalID, userID int) error {
	query := `
		INSERT INTO proposal_votes (proposal_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (proposal_id, user_id) DO NOTHING`

	_, err := r.executor(exec).ExecContext(ctx, query, proposalID, userID)
	return err
}

func (r *postgresProposalRepository) RemoveVote(ctx context.Context, exec SQLExecutor, proposalID, userID int) error {
	_, err := r.executor(exec).ExecContext(ctx,
		`DELETE FROM proposal_votes WHERE proposal_id = $1 AND user_id = $2`, proposalID, userID)
	return err
}

func (r *postgresProposalRepository) SetVotesCount(ctx context.Context, exec SQLExecutor, proposalID, votesCount int) error {
	result, err := r.executor(exec).ExecContext(ctx,
		`UPDATE date_proposals SET votes_count = $1 WHERE id = $2`, votesCount, proposalID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrProposalNotFound)
}

func (r *postgresProposalRepository) ListVoters(ctx context.Context, exec SQLExecutor, proposalID int) ([]int, error) {
	rows, err := r.executor(exec).QueryContext(ctx,
		`SELECT user_id FROM proposal_votes WHERE proposal_id = $1 ORDER BY created_at ASC, user_id ASC`, proposalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	voters := make([]int, 0)
	for rows.Next() {
		var id int
		if scanErr := rows.Scan(&id); scanErr != nil {
			return nil, scanErr
		}
		voters = append(voters, id)
	}
	return voters, rows.Err()
}
