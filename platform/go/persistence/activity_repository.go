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

const ActivitiesTable = "activities"

const activityColumns = `id, event_id, name, slug, description, activity_type, location_id, start_time, end_time,
    capacity, cost_per_person, host_subsidy, adults_only, plus_one_allowed, status, display_order,
    created_at, updated_at, deleted_at, deleted_by`

// ActivityRecord mirrors a row of activities.
type ActivityRecord struct {
	ID             uuid.UUID
	EventID        *uuid.UUID
	Name           string
	Slug           string
	Description    *string
	ActivityType   string
	LocationID     *uuid.UUID
	StartTime      time.Time
	EndTime        *time.Time
	Capacity       *int
	CostPerPerson  *float64
	HostSubsidy    *float64
	AdultsOnly     bool
	PlusOneAllowed bool
	Status         string
	DisplayOrder   int
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time
	DeletedBy      *string
}

// ActivityFields is the writable part of an activity. Update writes every field.
type ActivityFields struct {
	EventID        *uuid.UUID
	Name           string
	Slug           string
	Description    *string
	ActivityType   string
	LocationID     *uuid.UUID
	StartTime      time.Time
	EndTime        *time.Time
	Capacity       *int
	CostPerPerson  *float64
	HostSubsidy    *float64
	AdultsOnly     bool
	PlusOneAllowed bool
	Status         string
	DisplayOrder   int
}

// ListActivitiesParams filters activities. IndependentOnly selects rows without an event and wins over EventID.
type ListActivitiesParams struct {
	EventID         *uuid.UUID
	IndependentOnly bool
	ActivityType    *string
	Status          *string
	LocationID      *uuid.UUID
	AdultsOnly      *bool
	StartTimeFrom   *time.Time
	StartTimeTo     *time.Time
	Search          *string
	Page            int
	PageSize        int
}

type ListActivitiesResult struct {
	Activities []ActivityRecord
	Total      int
}

// ActivityUsage pairs an activity with the guests currently attending it.
type ActivityUsage struct {
	ActivityID uuid.UUID
	Name       string
	Status     string
	Capacity   *int
	Attending  int
}

// UsageFilter narrows ActivityStore.Usage.
type UsageFilter struct {
	PublishedOnly    bool
	WithCapacityOnly bool
	ActivityID       *uuid.UUID
}

type ActivityStore struct {
	db *DB
}

func NewActivityStore(db *DB) (*ActivityStore, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	return &ActivityStore{db: db}, nil
}

func (s *ActivityStore) Create(ctx context.Context, id uuid.UUID, fields ActivityFields, at time.Time) (ActivityRecord, error) {
	if id == uuid.Nil {
		return ActivityRecord{}, errors.New("activity id is required")
	}

	row := s.db.pool.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (id, event_id, name, slug, description, activity_type, location_id, start_time, end_time,
            capacity, cost_per_person, host_subsidy, adults_only, plus_one_allowed, status, display_order,
            created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $17)
        RETURNING %s
    `, ActivitiesTable, activityColumns),
		id, fields.EventID, fields.Name, fields.Slug, fields.Description, fields.ActivityType, fields.LocationID,
		fields.StartTime, fields.EndTime, fields.Capacity, fields.CostPerPerson, fields.HostSubsidy,
		fields.AdultsOnly, fields.PlusOneAllowed, fields.Status, fields.DisplayOrder, at,
	)

	rec, err := scanActivity(row)
	if err != nil {
		return ActivityRecord{}, classifyWriteError(err)
	}
	return rec, nil
}

func (s *ActivityStore) Get(ctx context.Context, id uuid.UUID) (ActivityRecord, error) {
	return scanActivity(s.db.pool.QueryRow(ctx, fmt.Sprintf(`
        SELECT %s FROM %s WHERE id = $1 AND deleted_at IS NULL
    `, activityColumns, ActivitiesTable), id))
}

func (s *ActivityStore) GetBySlug(ctx context.Context, slug string) (ActivityRecord, error) {
	return scanActivity(s.db.pool.QueryRow(ctx, fmt.Sprintf(`
        SELECT %s FROM %s WHERE slug = $1 AND deleted_at IS NULL
    `, activityColumns, ActivitiesTable), slug))
}

func (s *ActivityStore) Update(ctx context.Context, id uuid.UUID, fields ActivityFields, at time.Time) (ActivityRecord, error) {
	row := s.db.pool.QueryRow(ctx, fmt.Sprintf(`
        UPDATE %s SET
            event_id = $2, name = $3, slug = $4, description = $5, activity_type = $6, location_id = $7,
            start_time = $8, end_time = $9, capacity = $10, cost_per_person = $11, host_subsidy = $12,
            adults_only = $13, plus_one_allowed = $14, status = $15, display_order = $16, updated_at = $17
        WHERE id = $1 AND deleted_at IS NULL
        RETURNING %s
    `, ActivitiesTable, activityColumns),
		id, fields.EventID, fields.Name, fields.Slug, fields.Description, fields.ActivityType, fields.LocationID,
		fields.StartTime, fields.EndTime, fields.Capacity, fields.CostPerPerson, fields.HostSubsidy,
		fields.AdultsOnly, fields.PlusOneAllowed, fields.Status, fields.DisplayOrder, at,
	)

	rec, err := scanActivity(row)
	if err != nil {
		return ActivityRecord{}, classifyWriteError(err)
	}
	return rec, nil
}

func (s *ActivityStore) List(ctx context.Context, params ListActivitiesParams) (ListActivitiesResult, error) {
	whereParts := []string{"deleted_at IS NULL"}
	var args []any

	switch {
	case params.IndependentOnly:
		whereParts = append(whereParts, "event_id IS NULL")
	case params.EventID != nil:
		args = append(args, *params.EventID)
		whereParts = append(whereParts, fmt.Sprintf("event_id = $%d", len(args)))
	}
	if params.ActivityType != nil {
		args = append(args, *params.ActivityType)
		whereParts = append(whereParts, fmt.Sprintf("activity_type = $%d", len(args)))
	}
	if params.Status != nil {
		args = append(args, *params.Status)
		whereParts = append(whereParts, fmt.Sprintf("status = $%d", len(args)))
	}
	if params.LocationID != nil {
		args = append(args, *params.LocationID)
		whereParts = append(whereParts, fmt.Sprintf("location_id = $%d", len(args)))
	}
	if params.AdultsOnly != nil {
		args = append(args, *params.AdultsOnly)
		whereParts = append(whereParts, fmt.Sprintf("adults_only = $%d", len(args)))
	}
	if params.StartTimeFrom != nil {
		args = append(args, *params.StartTimeFrom)
		whereParts = append(whereParts, fmt.Sprintf("start_time >= $%d", len(args)))
	}
	if params.StartTimeTo != nil {
		args = append(args, *params.StartTimeTo)
		whereParts = append(whereParts, fmt.Sprintf("start_time <= $%d", len(args)))
	}
	if params.Search != nil && strings.TrimSpace(*params.Search) != "" {
		args = append(args, "%"+strings.TrimSpace(*params.Search)+"%")
		whereParts = append(whereParts, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}

	whereSQL := strings.Join(whereParts, " AND ")

	var total int
	if err := s.db.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", ActivitiesTable, whereSQL), args...).Scan(&total); err != nil {
		return ListActivitiesResult{}, fmt.Errorf("count activities: %w", err)
	}

	result := ListActivitiesResult{Activities: []ActivityRecord{}, Total: total}
	if total == 0 {
		return result, nil
	}

	limit, offset := pageWindow(params.Page, params.PageSize)
	dataArgs := append(append([]any{}, args...), limit, offset)

	rows, err := s.db.pool.Query(ctx, fmt.Sprintf(`
        SELECT %s FROM %s
        WHERE %s
        ORDER BY start_time ASC, display_order ASC
        LIMIT $%d OFFSET $%d
    `, activityColumns, ActivitiesTable, whereSQL, len(dataArgs)-1, len(dataArgs)), dataArgs...)
	if err != nil {
		return ListActivitiesResult{}, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		rec, err := scanActivity(rows)
		if err != nil {
			return ListActivitiesResult{}, fmt.Errorf("scan activity: %w", err)
		}
		result.Activities = append(result.Activities, rec)
	}
	if err := rows.Err(); err != nil {
		return ListActivitiesResult{}, fmt.Errorf("iterate activities: %w", err)
	}
	return result, nil
}

func (s *ActivityStore) SlugExists(ctx context.Context, slug string, excludeID *uuid.UUID) (bool, error) {
	return slugExists(ctx, s.db.pool, ActivitiesTable, slug, excludeID)
}

// SoftDelete stamps the activity and its active RSVPs with one timestamp.
func (s *ActivityStore) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time, deletedBy *string) error {
	return s.db.WithTx(ctx, func(tx pgx.Tx) error {
		if err := lockActive(ctx, tx, ActivitiesTable, id); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, fmt.Sprintf(`
            UPDATE %s SET deleted_at = $2, deleted_by = $3
            WHERE activity_id = $1 AND deleted_at IS NULL
        `, RSVPsTable), id, at, deletedBy); err != nil {
			return fmt.Errorf("soft delete activity rsvps: %w", err)
		}

		if _, err := tx.Exec(ctx, fmt.Sprintf(`
            UPDATE %s SET deleted_at = $2, deleted_by = $3 WHERE id = $1
        `, ActivitiesTable), id, at, deletedBy); err != nil {
			return fmt.Errorf("soft delete activity: %w", err)
		}
		return nil
	})
}

func (s *ActivityStore) Delete(ctx context.Context, id uuid.UUID) error {
	return s.db.WithTx(ctx, func(tx pgx.Tx) error {
		if err := lockAny(ctx, tx, ActivitiesTable, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE activity_id = $1`, RSVPsTable), id); err != nil {
			return fmt.Errorf("delete activity rsvps: %w", err)
		}
		if _, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, ActivitiesTable), id); err != nil {
			return fmt.Errorf("delete activity: %w", err)
		}
		return nil
	})
}

func (s *ActivityStore) Restore(ctx context.Context, id uuid.UUID) (ActivityRecord, error) {
	var rec ActivityRecord
	err := s.db.WithTx(ctx, func(tx pgx.Tx) error {
		var err error
		rec, err = scanActivity(tx.QueryRow(ctx, fmt.Sprintf(`
            UPDATE %s SET deleted_at = NULL, deleted_by = NULL
            WHERE id = $1
            RETURNING %s
        `, ActivitiesTable, activityColumns), id))
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, fmt.Sprintf(`
            UPDATE %s SET deleted_at = NULL, deleted_by = NULL
            WHERE activity_id = $1 AND deleted_at IS NOT NULL
        `, RSVPsTable), id); err != nil {
			return fmt.Errorf("restore activity rsvps: %w", err)
		}
		return nil
	})
	if err != nil {
		return ActivityRecord{}, err
	}
	return rec, nil
}

func (s *ActivityStore) CountRSVPs(ctx context.Context, id uuid.UUID) (int, error) {
	return countWhere(ctx, s.db.pool, RSVPsTable, "activity_id", id)
}

func (s *ActivityStore) CountReferences(ctx context.Context, id uuid.UUID) (int, error) {
	return countContentReferences(ctx, s.db.pool, id)
}

// Usage sums attending guest counts per active activity, ordered by name.
func (s *ActivityStore) Usage(ctx context.Context, filter UsageFilter) ([]ActivityUsage, error) {
	whereParts := []string{"a.deleted_at IS NULL"}
	var args []any

	if filter.PublishedOnly {
		whereParts = append(whereParts, "a.status = 'published'")
	}
	if filter.WithCapacityOnly {
		whereParts = append(whereParts, "a.capacity IS NOT NULL")
	}
	if filter.ActivityID != nil {
		args = append(args, *filter.ActivityID)
		whereParts = append(whereParts, fmt.Sprintf("a.id = $%d", len(args)))
	}

	rows, err := s.db.pool.Query(ctx, fmt.Sprintf(`
        SELECT a.id, a.name, a.status, a.capacity,
            COALESCE(SUM(r.guest_count) FILTER (WHERE r.status = 'attending'), 0)::int AS attending
        FROM %s a
        LEFT JOIN %s r ON r.activity_id = a.id AND r.deleted_at IS NULL
        WHERE %s
        GROUP BY a.id, a.name, a.status, a.capacity
        ORDER BY a.name ASC
    `, ActivitiesTable, RSVPsTable, strings.Join(whereParts, " AND ")), args...)
	if err != nil {
		return nil, fmt.Errorf("activity usage: %w", err)
	}
	defer rows.Close()

	out := make([]ActivityUsage, 0)
	for rows.Next() {
		var u ActivityUsage
		if err := rows.Scan(&u.ActivityID, &u.Name, &u.Status, &u.Capacity, &u.Attending); err != nil {
			return nil, fmt.Errorf("scan activity usage: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity usage: %w", err)
	}
	return out, nil
}

func scanActivity(row rowScanner) (ActivityRecord, error) {
	var rec ActivityRecord
	if err := row.Scan(
		&rec.ID, &rec.EventID, &rec.Name, &rec.Slug, &rec.Description, &rec.ActivityType, &rec.LocationID,
		&rec.StartTime, &rec.EndTime, &rec.Capacity, &rec.CostPerPerson, &rec.HostSubsidy,
		&rec.AdultsOnly, &rec.PlusOneAllowed, &rec.Status, &rec.DisplayOrder,
		&rec.CreatedAt, &rec.UpdatedAt, &rec.DeletedAt, &rec.DeletedBy,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ActivityRecord{}, ErrNotFound
		}
		return ActivityRecord{}, err
	}
	return rec, nil
}
