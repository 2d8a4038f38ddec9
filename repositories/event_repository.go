package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/courtside/league-system/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	ErrEventNotFound         = errors.New("scheduled event not found")
	ErrEventOrganizerInvalid = errors.New("event references an unknown organizer")
)

type EventRepository interface {
	Create(ctx context.Context, exec SQLExecutor, event *models.ScheduledEvent) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.ScheduledEvent, error)
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.ScheduledEvent, error)
	GetByPublicID(ctx context.Context, publicID uuid.UUID) (*models.ScheduledEvent, error)
	UpdateCounters(ctx context.Context, exec SQLExecutor, id, confirmed, declined, maybe int) error
	ConfirmDate(ctx context.Context, exec SQLExecutor, id int, startsAt time.Time) error
	ListWaitlist(ctx context.Context, exec SQLExecutor, eventID int) ([]int, error)
	AddToWaitlist(ctx context.Context, exec SQLExecutor, eventID, userID int) error
	RemoveFromWaitlist(ctx context.Context, exec SQLExecutor, eventID, userID int) error
}

type postgresEventRepository struct {
	db *sql.DB
}

func NewPostgresEventRepository(db *sql.DB) EventRepository {
	return &postgresEventRepository{db: db}
}

func (r *postgresEventRepository) executor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const eventColumns = `id, public_id, organizer_id, cup_match_id, title, starts_at, max_players,
	total_invited, confirmed_count, declined_count, maybe_count, date_confirmed_by_voting, created_at`

func scanEvent(row interface{ Scan(...interface{}) error }) (*models.ScheduledEvent, error) {
	e := &models.ScheduledEvent{}
	err := row.Scan(
		&e.ID,
		&e.PublicID,
		&e.OrganizerID,
		&e.CupMatchID,
		&e.Title,
		&e.StartsAt,
		&e.MaxPlayers,
		&e.TotalInvited,
		&e.ConfirmedCount,
		&e.DeclinedCount,
		&e.MaybeCount,
		&e.DateConfirmedByVoting,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *postgresEventRepository) Create(ctx context.Context, exec SQLExecutor, event *models.ScheduledEvent) error {
	query := `
		INSERT INTO events
			(public_id, organizer_id, cup_match_id, title, starts_at, max_players, total_invited)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := r.executor(exec).QueryRowContext(ctx, query,
		event.PublicID,
		event.OrganizerID,
		event.CupMatchID,
		event.Title,
		event.StartsAt,
		event.MaxPlayers,
		event.TotalInvited,
	).Scan(&event.ID, &event.CreatedAt)

	return r.handleEventError(err)
}

func (r *postgresEventRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.ScheduledEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	e, err := scanEvent(r.executor(exec).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to scan event %d: %w", id, err)
	}
	return e, nil
}

// GetByIDForUpdate locks the event row for the rest of the transaction. Every
// counter, waitlist, and vote mutation goes through this lock, which is what
// serializes concurrent responders and voters on the same event.
func (r *postgresEventRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.ScheduledEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1 FOR UPDATE`
	e, err := scanEvent(r.executor(exec).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to lock event %d: %w", id, err)
	}
	return e, nil
}

func (r *postgresEventRepository) GetByPublicID(ctx context.Context, publicID uuid.UUID) (*models.ScheduledEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE public_id = $1`
	e, err := scanEvent(r.db.QueryRowContext(ctx, query, publicID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to scan event %s: %w", publicID, err)
	}
	return e, nil
}

func (r *postgresEventRepository) UpdateCounters(ctx context.Context, exec SQLExecutor, id, confirmed, declined, maybe int) error {
	query := `
		UPDATE events
		SET confirmed_count = $1, declined_count = $2, maybe_count = $3
		WHERE id = $4`

	result, err := r.executor(exec).ExecContext(ctx, query, confirmed, declined, maybe, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrEventNotFound)
}

func (r *postgresEventRepository) ConfirmDate(ctx context.Context, exec SQLExecutor, id int, startsAt time.Time) error {
	query := `
		UPDATE events
		SET starts_at = $1, date_confirmed_by_voting = TRUE
		WHERE id = $2`

	result, err := r.executor(exec).ExecContext(ctx, query, startsAt, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrEventNotFound)
}

func (r *postgresEventRepository) ListWaitlist(ctx context.Context, exec SQLExecutor, eventID int) ([]int, error) {
	query := `SELECT user_id FROM event_waitlist WHERE event_id = $1 ORDER BY position ASC`
	rows, err := r.executor(exec).QueryContext(ctx, query, eventID)
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

func (r *postgresEventRepository) AddToWaitlist(ctx context.Context, exec SQLExecutor, eventID, userID int) error {
	// ON CONFLICT keeps the original position if the participant is already
	// waitlisted.
	query := `
		INSERT INTO event_waitlist (event_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (event_id, user_id) DO NOTHING`

	_, err := r.executor(exec).ExecContext(ctx, query, eventID, userID)
	return err
}

func (r *postgresEventRepository) RemoveFromWaitlist(ctx context.Context, exec SQLExecutor, eventID, userID int) error {
	_, err := r.executor(exec).ExecContext(ctx,
		`DELETE FROM event_waitlist WHERE event_id = $1 AND user_id = $2`, eventID, userID)
	return err
}

func (r *postgresEventRepository) handleEventError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation" {
		if pqErr.Constraint == "events_organizer_id_fkey" {
			return ErrEventOrganizerInvalid
		}
	}
	return err
}
