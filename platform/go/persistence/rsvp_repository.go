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

const RSVPsTable = "rsvps"

const rsvpColumns = `id, guest_id, event_id, activity_id, status, guest_count, dietary_notes, special_requirements,
    notes, responded_at, created_at, updated_at, deleted_at, deleted_by`

// RSVPRecord mirrors a row of rsvps.
type RSVPRecord struct {
	ID                  uuid.UUID
	GuestID             uuid.UUID
	EventID             *uuid.UUID
	ActivityID          *uuid.UUID
	Status              string
	GuestCount          int
	DietaryNotes        *string
	SpecialRequirements *string
	Notes               *string
	RespondedAt         *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
	DeletedAt           *time.Time
	DeletedBy           *string
}

// RSVPFields is the writable part of an RSVP. Update writes every field.
type RSVPFields struct {
	GuestID             uuid.UUID
	EventID             *uuid.UUID
	ActivityID          *uuid.UUID
	Status              string
	GuestCount          int
	DietaryNotes        *string
	SpecialRequirements *string
	Notes               *string
	RespondedAt         *time.Time
}

// RSVPFilter is shared by listing, statistics and export.
type RSVPFilter struct {
	GuestID    *uuid.UUID
	EventID    *uuid.UUID
	ActivityID *uuid.UUID
	Status     *string
}

type ListRSVPsResult struct {
	RSVPs []RSVPRecord
	Total int
}

// RSVPStats aggregates active RSVPs. AttendingGuests sums guest_count over attending rows only.
type RSVPStats struct {
	Total           int
	ByStatus        map[string]int
	AttendingGuests int
}

// RSVPExportRow is an RSVP joined with guest, event and activity names.
type RSVPExportRow struct {
	ID                  uuid.UUID
	GuestFirstName      string
	GuestLastName       string
	GuestEmail          *string
	EventName           *string
	ActivityName        *string
	Status              string
	GuestCount          int
	DietaryNotes        *string
	SpecialRequirements *string
	Notes               *string
	RespondedAt         *time.Time
	CreatedAt           time.Time
}

type RSVPStore struct {
	db *DB
}

func NewRSVPStore(db *DB) (*RSVPStore, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	return &RSVPStore{db: db}, nil
}

func (s *RSVPStore) Create(ctx context.Context, id uuid.UUID, fields RSVPFields, at time.Time) (RSVPRecord, error) {
	if id == uuid.Nil {
		return RSVPRecord{}, errors.New("rsvp id is required")
	}

	row := s.db.pool.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (id, guest_id, event_id, activity_id, status, guest_count, dietary_notes,
            special_requirements, notes, responded_at, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
        RETURNING %s
    `, RSVPsTable, rsvpColumns),
		id, fields.GuestID, fields.EventID, fields.ActivityID, fields.Status, fields.GuestCount,
		fields.DietaryNotes, fields.SpecialRequirements, fields.Notes, fields.RespondedAt, at,
	)

	rec, err := scanRSVP(row)
	if err != nil {
		return RSVPRecord{}, classifyWriteError(err)
	}
	return rec, nil
}

func (s *RSVPStore) Get(ctx context.Context, id uuid.UUID) (RSVPRecord, error) {
	return scanRSVP(s.db.pool.QueryRow(ctx, fmt.Sprintf(`
        SELECT %s FROM %s WHERE id = $1 AND deleted_at IS NULL
    `, rsvpColumns, RSVPsTable), id))
}

func (s *RSVPStore) Update(ctx context.Context, id uuid.UUID, fields RSVPFields, at time.Time) (RSVPRecord, error) {
	row := s.db.pool.QueryRow(ctx, fmt.Sprintf(`
        UPDATE %s SET
            guest_id = $2, event_id = $3, activity_id = $4, status = $5, guest_count = $6,
            dietary_notes = $7, special_requirements = $8, notes = $9, responded_at = $10, updated_at = $11
        WHERE id = $1 AND deleted_at IS NULL
        RETURNING %s
    `, RSVPsTable, rsvpColumns),
		id, fields.GuestID, fields.EventID, fields.ActivityID, fields.Status, fields.GuestCount,
		fields.DietaryNotes, fields.SpecialRequirements, fields.Notes, fields.RespondedAt, at,
	)

	rec, err := scanRSVP(row)
	if err != nil {
		return RSVPRecord{}, classifyWriteError(err)
	}
	return rec, nil
}

// Delete removes the RSVP permanently.
func (s *RSVPStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, RSVPsTable), id)
	if err != nil {
		return fmt.Errorf("delete rsvp: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func buildRSVPWhere(alias string, filter RSVPFilter) (string, []any) {
	col := func(name string) string {
		if alias == "" {
			return name
		}
		return alias + "." + name
	}

	whereParts := []string{col("deleted_at") + " IS NULL"}
	var args []any

	if filter.GuestID != nil {
		args = append(args, *filter.GuestID)
		whereParts = append(whereParts, fmt.Sprintf("%s = $%d", col("guest_id"), len(args)))
	}
	if filter.EventID != nil {
		args = append(args, *filter.EventID)
		whereParts = append(whereParts, fmt.Sprintf("%s = $%d", col("event_id"), len(args)))
	}
	if filter.ActivityID != nil {
		args = append(args, *filter.ActivityID)
		whereParts = append(whereParts, fmt.Sprintf("%s = $%d", col("activity_id"), len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		whereParts = append(whereParts, fmt.Sprintf("%s = $%d", col("status"), len(args)))
	}

	return strings.Join(whereParts, " AND "), args
}

// List returns active RSVPs newest first. pageSize <= 0 returns every match.
func (s *RSVPStore) List(ctx context.Context, filter RSVPFilter, page, pageSize int) (ListRSVPsResult, error) {
	whereSQL, args := buildRSVPWhere("", filter)

	var total int
	if err := s.db.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", RSVPsTable, whereSQL), args...).Scan(&total); err != nil {
		return ListRSVPsResult{}, fmt.Errorf("count rsvps: %w", err)
	}

	result := ListRSVPsResult{RSVPs: []RSVPRecord{}, Total: total}
	if total == 0 {
		return result, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s ORDER BY created_at DESC`, rsvpColumns, RSVPsTable, whereSQL)
	dataArgs := append([]any{}, args...)
	if pageSize > 0 {
		limit, offset := pageWindow(page, pageSize)
		dataArgs = append(dataArgs, limit, offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(dataArgs)-1, len(dataArgs))
	}

	rows, err := s.db.pool.Query(ctx, query, dataArgs...)
	if err != nil {
		return ListRSVPsResult{}, fmt.Errorf("list rsvps: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		rec, err := scanRSVP(rows)
		if err != nil {
			return ListRSVPsResult{}, fmt.Errorf("scan rsvp: %w", err)
		}
		result.RSVPs = append(result.RSVPs, rec)
	}
	if err := rows.Err(); err != nil {
		return ListRSVPsResult{}, fmt.Errorf("iterate rsvps: %w", err)
	}
	return result, nil
}

func (s *RSVPStore) Statistics(ctx context.Context, filter RSVPFilter) (RSVPStats, error) {
	whereSQL, args := buildRSVPWhere("", filter)

	rows, err := s.db.pool.Query(ctx, fmt.Sprintf(`
        SELECT status, COUNT(*)::int, COALESCE(SUM(guest_count), 0)::int
        FROM %s WHERE %s
        GROUP BY status
    `, RSVPsTable, whereSQL), args...)
	if err != nil {
		return RSVPStats{}, fmt.Errorf("rsvp statistics: %w", err)
	}
	defer rows.Close()

	stats := RSVPStats{ByStatus: map[string]int{"attending": 0, "declined": 0, "maybe": 0, "pending": 0}}
	for rows.Next() {
		var (
			status string
			count  int
			guests int
		)
		if err := rows.Scan(&status, &count, &guests); err != nil {
			return RSVPStats{}, fmt.Errorf("scan rsvp statistics: %w", err)
		}
		stats.ByStatus[status] = count
		stats.Total += count
		if status == "attending" {
			stats.AttendingGuests = guests
		}
	}
	if err := rows.Err(); err != nil {
		return RSVPStats{}, fmt.Errorf("iterate rsvp statistics: %w", err)
	}
	return stats, nil
}

// ExportRows joins RSVPs with guest, event and activity names, newest first, capped at limit.
func (s *RSVPStore) ExportRows(ctx context.Context, filter RSVPFilter, limit int) ([]RSVPExportRow, error) {
	whereSQL, args := buildRSVPWhere("r", filter)
	args = append(args, limit)

	rows, err := s.db.pool.Query(ctx, fmt.Sprintf(`
        SELECT r.id, g.first_name, g.last_name, g.email, e.name, a.name, r.status, r.guest_count,
            r.dietary_notes, r.special_requirements, r.notes, r.responded_at, r.created_at
        FROM %s r
        JOIN guests g ON g.id = r.guest_id
        LEFT JOIN %s e ON e.id = r.event_id
        LEFT JOIN %s a ON a.id = r.activity_id
        WHERE %s
        ORDER BY r.created_at DESC
        LIMIT $%d
    `, RSVPsTable, EventsTable, ActivitiesTable, whereSQL, len(args)), args...)
	if err != nil {
		return nil, fmt.Errorf("export rsvps: %w", err)
	}
	defer rows.Close()

	out := make([]RSVPExportRow, 0)
	for rows.Next() {
		var row RSVPExportRow
		if err := rows.Scan(
			&row.ID, &row.GuestFirstName, &row.GuestLastName, &row.GuestEmail, &row.EventName, &row.ActivityName,
			&row.Status, &row.GuestCount, &row.DietaryNotes, &row.SpecialRequirements, &row.Notes,
			&row.RespondedAt, &row.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan export row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate export rows: %w", err)
	}
	return out, nil
}

func scanRSVP(row rowScanner) (RSVPRecord, error) {
	var rec RSVPRecord
	if err := row.Scan(
		&rec.ID, &rec.GuestID, &rec.EventID, &rec.ActivityID, &rec.Status, &rec.GuestCount,
		&rec.DietaryNotes, &rec.SpecialRequirements, &rec.Notes, &rec.RespondedAt,
		&rec.CreatedAt, &rec.UpdatedAt, &rec.DeletedAt, &rec.DeletedBy,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return RSVPRecord{}, ErrNotFound
		}
		return RSVPRecord{}, err
	}
	return rec, nil
}
