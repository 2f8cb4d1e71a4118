package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/bloxevents/event-system/models"
	"github.com/lib/pq"
)

var (
	ErrTeamNotFound     = errors.New("team not found")
	ErrTeamNameConflict = errors.New("team name is already in use")
)

type TeamRepository interface {
	Create(ctx context.Context, team *models.Team) error
	GetByID(ctx context.Context, id int) (*models.Team, error)
	ListByIDs(ctx context.Context, ids []int) ([]models.Team, error)
	UpdateMembers(ctx context.Context, team *models.Team) error
	Delete(ctx context.Context, id int) error
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) Create(ctx context.Context, t *models.Team) error {
	query := `
		INSERT INTO teams (name, captain_id, member_ids)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		t.Name, t.CaptainID, pq.Array(t.MemberIDs),
	).Scan(&t.ID, &t.CreatedAt)

	return r.handleTeamError(err)
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, id int) (*models.Team, error) {
	query := `
		SELECT id, name, captain_id, member_ids, created_at
		FROM teams
		WHERE id = $1`

	t := &models.Team{}
	var members pq.Int64Array
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.Name, &t.CaptainID, &members, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	t.MemberIDs = toIntSlice(members)
	return t, nil
}

func (r *postgresTeamRepository) ListByIDs(ctx context.Context, ids []int) ([]models.Team, error) {
	if len(ids) == 0 {
		return []models.Team{}, nil
	}

	query := `
		SELECT id, name, captain_id, member_ids, created_at
		FROM teams
		WHERE id = ANY($1)`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := make([]models.Team, 0, len(ids))
	for rows.Next() {
		var t models.Team
		var members pq.Int64Array
		if scanErr := rows.Scan(&t.ID, &t.Name, &t.CaptainID, &members, &t.CreatedAt); scanErr != nil {
			return nil, scanErr
		}
		t.MemberIDs = toIntSlice(members)
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

func (r *postgresTeamRepository) UpdateMembers(ctx context.Context, t *models.Team) error {
	query := `UPDATE teams SET member_ids = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, pq.Array(t.MemberIDs), t.ID)
	if err != nil {
		return r.handleTeamError(err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func toIntSlice(arr pq.Int64Array) []int {
	out := make([]int, len(arr))
	for i, v := range arr {
		out[i] = int(v)
	}
	return out
}

func (r *postgresTeamRepository) handleTeamError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" && pqErr.Constraint == "teams_name_key" {
		return ErrTeamNameConflict
	}
	return err
}
