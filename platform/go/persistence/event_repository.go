package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const EventsTable = "events"

const eventColumns = `id, name, slug, description, event_type, location_id, start_date, end_date,
    rsvp_required, rsvp_deadline, status, created_at, updated_at, deleted_at, deleted_by`

// EventRecord mirrors a row of events.
type EventRecord struct {
	ID           uuid.UUID
	Name         string
	Slug         string
	Description  *string
	EventType    string
	LocationID   *uuid.UUID
	StartDate    time.Time
	EndDate      *time.Time
	RSVPRequired bool
	RSVPDeadline *time.Time
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
	DeletedBy    *string
}

// EventFields is the writable part of an event. Update writes every field.
type EventFields struct {
	Name         string
	Slug         string
	Description  *string
	EventType    string
	LocationID   *uuid.UUID
	StartDate    time.Time
	EndDate      *time.Time
	RSVPRequired bool
	RSVPDeadline *time.Time
	Status       string
}

type ListEventsParams struct {
	EventType     *string
	Status        *string
	LocationID    *uuid.UUID
	StartDateFrom *time.Time
	StartDateTo   *time.Time
	Search        *string
	Page          int
	PageSize      int
}

type ListEventsResult struct {
	Events []EventRecord
	Total  int
}

// EventStore provides access to events and their cascades onto activities and RSVPs.
type EventStore struct {
	db *DB
}

func NewEventStore(db *DB) (*EventStore, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	return &EventStore{db: db}, nil
}

func (s *EventStore) Create(ctx context.Context, id uuid.UUID, fields EventFields, at time.Time) (EventRecord, error) {
	if id == uuid.Nil {
		return EventRecord{}, errors.New("event id is required")
	}

	row := s.db.pool.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (id, name, slug, description, event_type, location_id, start_date, end_date,
            rsvp_required, rsvp_deadline, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
        RETURNING %s
    `, EventsTable, eventColumns),
		id, fields.Name, fields.Slug, fields.Description, fields.EventType, fields.LocationID,
		fields.StartDate, fields.EndDate, fields.RSVPRequired, fields.RSVPDeadline, fields.Status, at,
	)

	rec, err := scanEvent(row)
	if err != nil {
		return EventRecord{}, classifyWriteError(err)
	}
	return rec, nil
}

func (s *EventStore) Get(ctx context.Context, id uuid.UUID) (EventRecord, error) {
	return scanEvent(s.db.pool.QueryRow(ctx, fmt.Sprintf(`
        SELECT %s FROM %s WHERE id = $1 AND deleted_at IS NULL
    `, eventColumns, EventsTable), id))
}

func (s *EventStore) GetBySlug(ctx context.Context, slug string) (EventRecord, error) {
	return scanEvent(s.db.pool.QueryRow(ctx, fmt.Sprintf(`
        SELECT %s FROM %s WHERE slug = $1 AND deleted_at IS NULL
    `, eventColumns, EventsTable), slug))
}

func (s *EventStore) Update(ctx context.Context, id uuid.UUID, fields EventFields, at time.Time) (EventRecord, error) {
	row := s.db.pool.QueryRow(ctx, fmt.Sprintf(`
        UPDATE %s SET
            name = $2, slug = $3, description = $4, event_type = $5, location_id = $6,
            start_date = $7, end_date = $8, rsvp_required = $9, rsvp_deadline = $10,
            status = $11, updated_at = $12
        WHERE id = $1 AND deleted_at IS NULL
        RETURNING %s
    `, EventsTable, eventColumns),
		id, fields.Name, fields.Slug, fields.Description, fields.EventType, fields.LocationID,
		fields.StartDate, fields.EndDate, fields.RSVPRequired, fields.RSVPDeadline, fields.Status, at,
	)

	rec, err := scanEvent(row)
	if err != nil {
		return EventRecord{}, classifyWriteError(err)
	}
	return rec, nil
}

// List filters active events, ordered by start date.
func (s *EventStore) List(ctx context.Context, params ListEventsParams) (ListEventsResult, error) {
	whereParts := []string{"deleted_at IS NULL"}
	var args []any

	if params.EventType != nil {
		args = append(args, *params.EventType)
		whereParts = append(whereParts, fmt.Sprintf("event_type = $%d", len(args)))
	}
	if params.Status != nil {
		args = append(args, *params.Status)
		whereParts = append(whereParts, fmt.Sprintf("status = $%d", len(args)))
	}
	if params.LocationID != nil {
		args = append(args, *params.LocationID)
		whereParts = append(whereParts, fmt.Sprintf("location_id = $%d", len(args)))
	}
	if params.StartDateFrom != nil {
		args = append(args, *params.StartDateFrom)
		whereParts = append(whereParts, fmt.Sprintf("start_date >= $%d", len(args)))
	}
	if params.StartDateTo != nil {
		args = append(args, *params.StartDateTo)
		whereParts = append(whereParts, fmt.Sprintf("start_date <= $%d", len(args)))
	}
	if params.Search != nil && strings.TrimSpace(*params.Search) != "" {
		args = append(args, "%"+strings.TrimSpace(*params.Search)+"%")
		whereParts = append(whereParts, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}

	whereSQL := strings.Join(whereParts, " AND ")

	var total int
	if err := s.db.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", EventsTable, whereSQL), args...).Scan(&total); err != nil {
		return ListEventsResult{}, fmt.Errorf("count events: %w", err)
	}

	result := ListEventsResult{Events: []EventRecord{}, Total: total}
	if total == 0 {
		return result, nil
	}

	limit, offset := pageWindow(params.Page, params.PageSize)
	dataArgs := append(append([]any{}, args...), limit, offset)

	rows, err := s.db.pool.Query(ctx, fmt.Sprintf(`
        SELECT %s FROM %s
        WHERE %s
        ORDER BY start_date ASC
        LIMIT $%d OFFSET $%d
    `, eventColumns, EventsTable, whereSQL, len(dataArgs)-1, len(dataArgs)), dataArgs...)
	if err != nil {
		return ListEventsResult{}, fmt.Errorf("list events: %w", err)
	}

	result.Events, err = collectEvents(rows)
	if err != nil {
		return ListEventsResult{}, err
	}
	return result, nil
}

// AtLocation returns active events booked at a location, skipping excludeID when given.
func (s *EventStore) AtLocation(ctx context.Context, locationID uuid.UUID, excludeID *uuid.UUID) ([]EventRecord, error) {
	rows, err := s.db.pool.Query(ctx, fmt.Sprintf(`
        SELECT %s FROM %s
        WHERE location_id = $1 AND deleted_at IS NULL AND ($2::uuid IS NULL OR id <> $2)
        ORDER BY start_date ASC
    `, eventColumns, EventsTable), locationID, excludeID)
	if err != nil {
		return nil, fmt.Errorf("list events at location: %w", err)
	}
	return collectEvents(rows)
}

func (s *EventStore) SlugExists(ctx context.Context, slug string, excludeID *uuid.UUID) (bool, error) {
	return slugExists(ctx, s.db.pool, EventsTable, slug, excludeID)
}

// SoftDelete detaches the event's activities and stamps the event and its active RSVPs with one timestamp.
func (s *EventStore) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time, deletedBy *string) error {
	return s.db.WithTx(ctx, func(tx pgx.Tx) error {
		if err := lockActive(ctx, tx, EventsTable, id); err != nil {
			return err
		}
		if err := detachActivities(ctx, tx, id, at); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, fmt.Sprintf(`
            UPDATE %s SET deleted_at = $2, deleted_by = $3
            WHERE event_id = $1 AND deleted_at IS NULL
        `, RSVPsTable), id, at, deletedBy); err != nil {
			return fmt.Errorf("soft delete event rsvps: %w", err)
		}

		if _, err := tx.Exec(ctx, fmt.Sprintf(`
            UPDATE %s SET deleted_at = $2, deleted_by = $3 WHERE id = $1
        `, EventsTable), id, at, deletedBy); err != nil {
			return fmt.Errorf("soft delete event: %w", err)
		}
		return nil
	})
}

// Delete removes the event and its RSVPs. Activities survive with event_id cleared.
func (s *EventStore) Delete(ctx context.Context, id uuid.UUID, at time.Time) error {
	return s.db.WithTx(ctx, func(tx pgx.Tx) error {
		if err := lockAny(ctx, tx, EventsTable, id); err != nil {
			return err
		}
		if err := detachActivities(ctx, tx, id, at); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE event_id = $1`, RSVPsTable), id); err != nil {
			return fmt.Errorf("delete event rsvps: %w", err)
		}
		if _, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, EventsTable), id); err != nil {
			return fmt.Errorf("delete event: %w", err)
		}
		return nil
	})
}

func detachActivities(ctx context.Context, tx pgx.Tx, eventID uuid.UUID, at time.Time) error {
	if _, err := tx.Exec(ctx, fmt.Sprintf(`
        UPDATE %s SET event_id = NULL, updated_at = $2 WHERE event_id = $1
    `, ActivitiesTable), eventID, at); err != nil {
		return fmt.Errorf("detach event activities: %w", err)
	}
	return nil
}

// Restore un-deletes the event and every deleted RSVP attached to it.
func (s *EventStore) Restore(ctx context.Context, id uuid.UUID) (EventRecord, error) {
	var rec EventRecord
	err := s.db.WithTx(ctx, func(tx pgx.Tx) error {
		var err error
		rec, err = scanEvent(tx.QueryRow(ctx, fmt.Sprintf(`
            UPDATE %s SET deleted_at = NULL, deleted_by = NULL
            WHERE id = $1
            RETURNING %s
        `, EventsTable, eventColumns), id))
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, fmt.Sprintf(`
            UPDATE %s SET deleted_at = NULL, deleted_by = NULL
            WHERE event_id = $1 AND deleted_at IS NOT NULL
        `, RSVPsTable), id); err != nil {
			return fmt.Errorf("restore event rsvps: %w", err)
		}
		return nil
	})
	if err != nil {
		return EventRecord{}, err
	}
	return rec, nil
}

func (s *EventStore) CountActivities(ctx context.Context, id uuid.UUID) (int, error) {
	return countWhere(ctx, s.db.pool, ActivitiesTable, "event_id", id)
}

func (s *EventStore) CountRSVPs(ctx context.Context, id uuid.UUID) (int, error) {
	return countWhere(ctx, s.db.pool, RSVPsTable, "event_id", id)
}

func (s *EventStore) CountReferences(ctx context.Context, id uuid.UUID) (int, error) {
	return countContentReferences(ctx, s.db.pool, id)
}

// countWhere counts active rows of table whose column equals id.
func countWhere(ctx context.Context, q querier, table, column string, id uuid.UUID) (int, error) {
	var count int
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s = $1 AND deleted_at IS NULL`, table, column)
	if err := q.QueryRow(ctx, query, id).Scan(&count); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return count, nil
}

func collectEvents(rows pgx.Rows) ([]EventRecord, error) {
	defer rows.Close()

	out := make([]EventRecord, 0)
	for rows.Next() {
		rec, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return out, nil
}

func scanEvent(row rowScanner) (EventRecord, error) {
	var rec EventRecord
	if err := row.Scan(
		&rec.ID, &rec.Name, &rec.Slug, &rec.Description, &rec.EventType, &rec.LocationID,
		&rec.StartDate, &rec.EndDate, &rec.RSVPRequired, &rec.RSVPDeadline, &rec.Status,
		&rec.CreatedAt, &rec.UpdatedAt, &rec.DeletedAt, &rec.DeletedBy,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return EventRecord{}, ErrNotFound
		}
		return EventRecord{}, err
	}
	return rec, nil
}
