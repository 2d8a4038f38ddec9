package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/courtside/league-system/models"
)

var ErrInvitationNotFound = errors.New("invitation not found")

type InvitationRepository interface {
	CreateBatch(ctx context.Context, exec SQLExecutor, eventID int, userIDs []int) error
	GetByEventAndUser(ctx context.Context, exec SQLExecutor, eventID, userID int) (*models.Invitation, error)
	UpdateResponse(ctx context.Context, exec SQLExecutor, id int, response models.InviteResponse, respondedAt time.Time) error
	ListByEvent(ctx context.Context, eventID int) ([]models.Invitation, error)
}

type postgresInvitationRepository struct {
	db *sql.DB
}

func NewPostgresInvitationRepository(db *sql.DB) InvitationRepository {
	return &postgresInvitationRepository{db: db}
}

func (r *postgresInvitationRepository) executor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresInvitationRepository) CreateBatch(ctx context.Context, exec SQLExecutor, eventID int, userIDs []int) error {
	db := r.executor(exec)
	// The unique (event_id, user_id) index makes duplicate invitations for
	// the same participant a no-op rather than a double-count.
	query := `
		INSERT INTO invitations (event_id, user_id, response)
		VALUES ($1, $2, $3)
		ON CONFLICT (event_id, user_id) DO NOTHING`

	for _, userID := range userIDs {
		if _, err := db.ExecContext(ctx, query, eventID, userID, models.ResponsePending); err != nil {
			return fmt.Errorf("failed to create invitation (event %d, user %d): %w", eventID, userID, err)
		}
	}
	return nil
}

func (r *postgresInvitationRepository) GetByEventAndUser(ctx context.Context, exec SQLExecutor, eventID, userID int) (*models.Invitation, error) {
	query := `
		SELECT id, event_id, user_id, response, responded_at, created_at
		FROM invitations
		WHERE event_id = $1 AND user_id = $2`

	inv := &models.Invitation{}
	err := r.executor(exec).QueryRowContext(ctx, query, eventID, userID).Scan(
		&inv.ID,
		&inv.EventID,
		&inv.UserID,
		&inv.Response,
		&inv.RespondedAt,
		&inv.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvitationNotFound
		}
		return nil, fmt.Errorf("failed to scan invitation (event %d, user %d): %w", eventID, userID, err)
	}
	return inv, nil
}

func (r *postgresInvitationRepository) UpdateResponse(ctx context.Context, exec SQLExecutor, id int, response models.InviteResponse, respondedAt time.Time) error {
	result, err := r.executor(exec).ExecContext(ctx,
		`UPDATE invitations SET response = $1, responded_at = $2 WHERE id = $3`,
		response, respondedAt, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrInvitationNotFound)
}

func (r *postgresInvitationRepository) ListByEvent(ctx context.Context, eventID int) ([]models.Invitation, error) {
	query := `
		SELECT id, event_id, user_id, response, responded_at, created_at
		FROM invitations
		WHERE event_id = $1
		ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invitations := make([]models.Invitation, 0)
	for rows.Next() {
		var inv models.Invitation
		if scanErr := rows.Scan(
			&inv.ID,
			&inv.EventID,
			&inv.UserID,
			&inv.Response,
			&inv.RespondedAt,
			&inv.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		invitations = append(invitations, inv)
	}
	return invitations, rows.Err()
}
