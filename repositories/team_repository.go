package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/courtside/league-system/models"
	"github.com/lib/pq"
)

var ErrTeamNotFound = errors.New("team not found")

// TeamRepository is the thin slice of the roster subsystem the cup flows
// need: team lookup, strength for ranked seeding, and player ids for match
// invitations. Roster CRUD itself lives elsewhere.
type TeamRepository interface {
	GetByID(ctx context.Context, id int) (*models.Team, error)
	StrengthByTeam(ctx context.Context, teamIDs []int) (map[int]float64, error)
	ListPlayerIDsByTeams(ctx context.Context, teamIDs []int) ([]int, error)
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, id int) (*models.Team, error) {
	team := &models.Team{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM teams WHERE id = $1`, id,
	).Scan(&team.ID, &team.Name, &team.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to scan team %d: %w", id, err)
	}
	return team, nil
}

// StrengthByTeam returns the average roster rating per team. Teams without
// players rate 0.
func (r *postgresTeamRepository) StrengthByTeam(ctx context.Context, teamIDs []int) (map[int]float64, error) {
	query := `
		SELECT t.id, COALESCE(AVG(u.rating), 0)
		FROM teams t
		LEFT JOIN users u ON u.team_id = t.id
		WHERE t.id = ANY($1)
		GROUP BY t.id`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(teamIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	strength := make(map[int]float64, len(teamIDs))
	for rows.Next() {
		var id int
		var avg float64
		if scanErr := rows.Scan(&id, &avg); scanErr != nil {
			return nil, scanErr
		}
		strength[id] = avg
	}
	return strength, rows.Err()
}

func (r *postgresTeamRepository) ListPlayerIDsByTeams(ctx context.Context, teamIDs []int) ([]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM users WHERE team_id = ANY($1) ORDER BY id ASC`, pq.Array(teamIDs))
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
