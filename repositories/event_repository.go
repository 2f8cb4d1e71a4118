package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bloxevents/event-system/brackets"
	"github.com/bloxevents/event-system/models"
	"github.com/lib/pq"
)

var (
	ErrEventNotFound    = errors.New("event not found")
	ErrEventInvalidHost = errors.New("invalid event host reference")
	// ErrEventVersionConflict is returned when a conditional update lost the
	// race against another committed write. Callers reload and retry.
	ErrEventVersionConflict = errors.New("event was modified concurrently")
)

type ListEventsFilter struct {
	Type   *models.EventType
	Status *models.EventStatus
	HostID *int
	Limit  int
	Offset int
}

type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id int) (*models.Event, error)
	List(ctx context.Context, filter ListEventsFilter) ([]models.Event, error)
	UpdateParticipants(ctx context.Context, exec SQLExecutor, event *models.Event) error
	// UpdateOutcome commits bracket, winners and status in one conditional
	// write against the version the caller read, bumping it on success. This
	// is the single serialization point for concurrent admin sessions.
	UpdateOutcome(ctx context.Context, exec SQLExecutor, event *models.Event) error
	UpdateBannerKey(ctx context.Context, id int, bannerKey *string) error
	Delete(ctx context.Context, id int) error
}

type postgresEventRepository struct {
	db *sql.DB
}

func NewPostgresEventRepository(db *sql.DB) EventRepository {
	return &postgresEventRepository{db: db}
}

func (r *postgresEventRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const eventColumns = `
	id, title, description, type, status, host_id, team_size,
	participants, bracket, winners, version, starts_at, ends_at, banner_key, created_at`

func (r *postgresEventRepository) Create(ctx context.Context, e *models.Event) error {
	participants, bracket, winners, err := marshalEventDocs(e)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO events (
			title, description, type, status, host_id, team_size,
			participants, bracket, winners, starts_at, ends_at, banner_key
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, version, created_at`

	err = r.getExecutor(nil).QueryRowContext(ctx, query,
		e.Title, e.Description, e.Type, e.Status, e.HostID, e.TeamSize,
		participants, bracket, winners, e.StartsAt, e.EndsAt, e.BannerKey,
	).Scan(&e.ID, &e.Version, &e.CreatedAt)

	return r.handleEventError(err)
}

func (r *postgresEventRepository) GetByID(ctx context.Context, id int) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	e, err := scanEvent(r.getExecutor(nil).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *postgresEventRepository) List(ctx context.Context, filter ListEventsFilter) ([]models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE 1=1`

	args := []interface{}{}
	argID := 1

	if filter.Type != nil {
		query += fmt.Sprintf(" AND type = $%d", argID)
		args = append(args, *filter.Type)
		argID++
	}
	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argID)
		args = append(args, *filter.Status)
		argID++
	}
	if filter.HostID != nil {
		query += fmt.Sprintf(" AND host_id = $%d", argID)
		args = append(args, *filter.HostID)
		argID++
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, filter.Offset)
	}

	rows, err := r.getExecutor(nil).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]models.Event, 0)
	for rows.Next() {
		e, scanErr := scanEvent(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

func (r *postgresEventRepository) UpdateParticipants(ctx context.Context, exec SQLExecutor, e *models.Event) error {
	participants, err := json.Marshal(e.Participants)
	if err != nil {
		return fmt.Errorf("failed to encode participants: %w", err)
	}

	query := `UPDATE events SET participants = $1 WHERE id = $2`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, participants, e.ID)
	if err != nil {
		return r.handleEventError(err)
	}
	return checkAffectedRows(result, ErrEventNotFound)
}

func (r *postgresEventRepository) UpdateOutcome(ctx context.Context, exec SQLExecutor, e *models.Event) error {
	_, bracket, winners, err := marshalEventDocs(e)
	if err != nil {
		return err
	}

	query := `
		UPDATE events
		SET bracket = $1, winners = $2, status = $3, version = version + 1
		WHERE id = $4 AND version = $5
		RETURNING version`

	err = r.getExecutor(exec).QueryRowContext(ctx, query,
		bracket, winners, e.Status, e.ID, e.Version,
	).Scan(&e.Version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrEventVersionConflict
		}
		return r.handleEventError(err)
	}
	return nil
}

func (r *postgresEventRepository) UpdateBannerKey(ctx context.Context, id int, bannerKey *string) error {
	query := `UPDATE events SET banner_key = $1 WHERE id = $2`
	result, err := r.getExecutor(nil).ExecContext(ctx, query, bannerKey, id)
	if err != nil {
		return fmt.Errorf("failed to update event banner key: %w", err)
	}
	return checkAffectedRows(result, ErrEventNotFound)
}

func (r *postgresEventRepository) Delete(ctx context.Context, id int) error {
	result, err := r.getExecutor(nil).ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return r.handleEventError(err)
	}
	return checkAffectedRows(result, ErrEventNotFound)
}

// rowScanner lets scanEvent work for both QueryRowContext and rows iteration.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEvent(row rowScanner) (*models.Event, error) {
	var (
		e            models.Event
		participants []byte
		bracket      []byte
		winners      []byte
	)
	err := row.Scan(
		&e.ID, &e.Title, &e.Description, &e.Type, &e.Status, &e.HostID, &e.TeamSize,
		&participants, &bracket, &winners, &e.Version, &e.StartsAt, &e.EndsAt, &e.BannerKey, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	// JSONB columns: array order is the persisted roster order and must
	// survive the round trip untouched.
	e.Participants = []string{}
	if len(participants) > 0 {
		if err := json.Unmarshal(participants, &e.Participants); err != nil {
			return nil, fmt.Errorf("failed to decode participants for event %d: %w", e.ID, err)
		}
	}
	if len(bracket) > 0 {
		e.Bracket = &brackets.Bracket{}
		if err := json.Unmarshal(bracket, e.Bracket); err != nil {
			return nil, fmt.Errorf("failed to decode bracket for event %d: %w", e.ID, err)
		}
	}
	if len(winners) > 0 {
		if err := json.Unmarshal(winners, &e.Winners); err != nil {
			return nil, fmt.Errorf("failed to decode winners for event %d: %w", e.ID, err)
		}
	}
	return &e, nil
}

func marshalEventDocs(e *models.Event) (participants, bracket, winners []byte, err error) {
	if participants, err = json.Marshal(e.Participants); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode participants: %w", err)
	}
	if e.Bracket != nil {
		if bracket, err = json.Marshal(e.Bracket); err != nil {
			return nil, nil, nil, fmt.Errorf("failed to encode bracket: %w", err)
		}
	}
	if e.Winners != nil {
		if winners, err = json.Marshal(e.Winners); err != nil {
			return nil, nil, nil, fmt.Errorf("failed to encode winners: %w", err)
		}
	}
	return participants, bracket, winners, nil
}

func (r *postgresEventRepository) handleEventError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		if pqErr.Code == "23503" && pqErr.Constraint == "events_host_id_fkey" {
			return ErrEventInvalidHost
		}
	}
	return err
}
