package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	SectionsTable        = "sections"
	ColumnsTable         = "columns"
	ContentVersionsTable = "content_versions"
)

const (
	sectionColumns = `id, page_type, page_id, display_order, title, created_at, updated_at, deleted_at, deleted_by`
	columnColumns  = `id, section_id, column_number, content_type, content_data, created_at, updated_at`
	versionColumns = `id, page_type, page_id, created_by, sections_snapshot, created_at`
)

// SectionRecord is a section row together with its active columns.
type SectionRecord struct {
	ID           uuid.UUID
	PageType     string
	PageID       uuid.UUID
	DisplayOrder int
	Title        *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
	DeletedBy    *string
	Columns      []ColumnRecord
}

type ColumnRecord struct {
	ID           uuid.UUID
	SectionID    uuid.UUID
	ColumnNumber int
	ContentType  string
	ContentData  json.RawMessage
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type ContentVersionRecord struct {
	ID               uuid.UUID
	PageType         string
	PageID           uuid.UUID
	CreatedBy        *string
	SectionsSnapshot json.RawMessage
	CreatedAt        time.Time
}

type ColumnParams struct {
	ID           uuid.UUID
	ColumnNumber int
	ContentType  string
	ContentData  json.RawMessage
}

type CreateSectionParams struct {
	ID           uuid.UUID
	PageType     string
	PageID       uuid.UUID
	DisplayOrder int
	Title        *string
	Columns      []ColumnParams
	At           time.Time
}

// UpdateSectionParams changes section fields; a non-nil Columns replaces every column.
type UpdateSectionParams struct {
	Title        *string
	DisplayOrder *int
	Columns      []ColumnParams
	At           time.Time
}

type CreateVersionParams struct {
	ID               uuid.UUID
	PageType         string
	PageID           uuid.UUID
	CreatedBy        *string
	SectionsSnapshot json.RawMessage
	At               time.Time
}

// referenceTargets lists the tables a references column may point at.
var referenceTargets = map[string]struct {
	table      string
	softDelete bool
}{
	"activity":      {table: ActivitiesTable, softDelete: true},
	"event":         {table: EventsTable, softDelete: true},
	"accommodation": {table: "accommodations", softDelete: true},
	"content_page":  {table: ContentPagesTable, softDelete: true},
	"location":      {table: "locations"},
}

// ErrUnknownReferenceType is returned by ReferenceExists for unsupported types.
var ErrUnknownReferenceType = errors.New("unknown reference type")

// SectionStore manages sections, their columns and page version snapshots.
type SectionStore struct {
	db *DB
}

func NewSectionStore(db *DB) (*SectionStore, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	return &SectionStore{db: db}, nil
}

// Create inserts a section and its columns atomically.
func (s *SectionStore) Create(ctx context.Context, params CreateSectionParams) (SectionRecord, error) {
	var rec SectionRecord
	err := s.db.WithTx(ctx, func(tx pgx.Tx) error {
		var err error
		rec, err = insertSection(ctx, tx, params)
		return err
	})
	if err != nil {
		return SectionRecord{}, err
	}
	return rec, nil
}

func insertSection(ctx context.Context, tx pgx.Tx, params CreateSectionParams) (SectionRecord, error) {
	if params.ID == uuid.Nil {
		return SectionRecord{}, errors.New("section id is required")
	}

	row := tx.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (id, page_type, page_id, display_order, title, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $6)
        RETURNING %s
    `, SectionsTable, sectionColumns),
		params.ID, params.PageType, params.PageID, params.DisplayOrder, params.Title, params.At,
	)

	rec, err := scanSection(row)
	if err != nil {
		return SectionRecord{}, classifyWriteError(err)
	}

	rec.Columns, err = insertColumns(ctx, tx, rec.ID, params.Columns, params.At)
	if err != nil {
		return SectionRecord{}, err
	}
	return rec, nil
}

func insertColumns(ctx context.Context, tx pgx.Tx, sectionID uuid.UUID, columns []ColumnParams, at time.Time) ([]ColumnRecord, error) {
	out := make([]ColumnRecord, 0, len(columns))
	for _, col := range columns {
		row := tx.QueryRow(ctx, fmt.Sprintf(`
            INSERT INTO %s (id, section_id, column_number, content_type, content_data, created_at, updated_at)
            VALUES ($1, $2, $3, $4, $5, $6, $6)
            RETURNING %s
        `, ColumnsTable, columnColumns),
			col.ID, sectionID, col.ColumnNumber, col.ContentType, col.ContentData, at,
		)
		rec, err := scanColumn(row)
		if err != nil {
			return nil, fmt.Errorf("insert column %d: %w", col.ColumnNumber, classifyWriteError(err))
		}
		out = append(out, rec)
	}
	sortColumns(out)
	return out, nil
}

// Get returns an active section with its active columns.
func (s *SectionStore) Get(ctx context.Context, id uuid.UUID) (SectionRecord, error) {
	row := s.db.pool.QueryRow(ctx, fmt.Sprintf(`
        SELECT %s FROM %s WHERE id = $1 AND deleted_at IS NULL
    `, sectionColumns, SectionsTable), id)

	rec, err := scanSection(row)
	if err != nil {
		return SectionRecord{}, err
	}

	byID, err := s.columnsFor(ctx, s.db.pool, []uuid.UUID{rec.ID})
	if err != nil {
		return SectionRecord{}, err
	}
	rec.Columns = byID[rec.ID]
	return rec, nil
}

// Update applies section changes and, when supplied, swaps the whole column set.
func (s *SectionStore) Update(ctx context.Context, id uuid.UUID, params UpdateSectionParams) (SectionRecord, error) {
	var rec SectionRecord
	err := s.db.WithTx(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, fmt.Sprintf(`
            UPDATE %s SET
                title = COALESCE($2, title),
                display_order = COALESCE($3, display_order),
                updated_at = $4
            WHERE id = $1 AND deleted_at IS NULL
            RETURNING %s
        `, SectionsTable, sectionColumns), id, params.Title, params.DisplayOrder, params.At)

		var err error
		if rec, err = scanSection(row); err != nil {
			return err
		}

		if params.Columns == nil {
			byID, err := s.columnsFor(ctx, tx, []uuid.UUID{id})
			if err != nil {
				return err
			}
			rec.Columns = byID[id]
			return nil
		}

		if _, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE section_id = $1`, ColumnsTable), id); err != nil {
			return fmt.Errorf("clear columns: %w", err)
		}
		rec.Columns, err = insertColumns(ctx, tx, id, params.Columns, params.At)
		return err
	})
	if err != nil {
		return SectionRecord{}, err
	}
	return rec, nil
}

// Delete removes a section permanently; its columns go with it.
func (s *SectionStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, SectionsTable), id)
	if err != nil {
		return fmt.Errorf("delete section: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns the active sections of a page ordered by display_order, each with its columns.
func (s *SectionStore) List(ctx context.Context, pageType string, pageID uuid.UUID) ([]SectionRecord, error) {
	return s.listOn(ctx, s.db.pool, pageType, pageID)
}

func (s *SectionStore) listOn(ctx context.Context, q querier, pageType string, pageID uuid.UUID) ([]SectionRecord, error) {
	rows, err := q.Query(ctx, fmt.Sprintf(`
        SELECT %s FROM %s
        WHERE page_type = $1 AND page_id = $2 AND deleted_at IS NULL
        ORDER BY display_order ASC, created_at ASC
    `, sectionColumns, SectionsTable), pageType, pageID)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}

	sections := make([]SectionRecord, 0)
	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		rec, err := scanSection(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan section: %w", err)
		}
		sections = append(sections, rec)
		ids = append(ids, rec.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sections: %w", err)
	}

	if len(ids) == 0 {
		return sections, nil
	}

	byID, err := s.columnsFor(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	for i := range sections {
		sections[i].Columns = byID[sections[i].ID]
	}
	return sections, nil
}

func (s *SectionStore) columnsFor(ctx context.Context, q querier, sectionIDs []uuid.UUID) (map[uuid.UUID][]ColumnRecord, error) {
	rows, err := q.Query(ctx, fmt.Sprintf(`
        SELECT %s FROM %s
        WHERE section_id = ANY($1) AND deleted_at IS NULL
        ORDER BY column_number ASC
    `, columnColumns, ColumnsTable), sectionIDs)
	if err != nil {
		return nil, fmt.Errorf("list columns: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]ColumnRecord, len(sectionIDs))
	for _, id := range sectionIDs {
		out[id] = []ColumnRecord{}
	}
	for rows.Next() {
		col, err := scanColumn(rows)
		if err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		out[col.SectionID] = append(out[col.SectionID], col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}
	return out, nil
}

// Reorder sets display_order to the position of each id. Every id must belong to the page.
func (s *SectionStore) Reorder(ctx context.Context, pageType string, pageID uuid.UUID, sectionIDs []uuid.UUID, at time.Time) error {
	return s.db.WithTx(ctx, func(tx pgx.Tx) error {
		for i, id := range sectionIDs {
			tag, err := tx.Exec(ctx, fmt.Sprintf(`
                UPDATE %s SET display_order = $4, updated_at = $5
                WHERE id = $1 AND page_type = $2 AND page_id = $3 AND deleted_at IS NULL
            `, SectionsTable), id, pageType, pageID, i, at)
			if err != nil {
				return fmt.Errorf("reorder section %s: %w", id, err)
			}
			if tag.RowsAffected() == 0 {
				return fmt.Errorf("section %s: %w", id, ErrNotFound)
			}
		}
		return nil
	})
}

// ReferenceData returns the content_data of every active references column hosted by the page.
func (s *SectionStore) ReferenceData(ctx context.Context, pageType string, pageID uuid.UUID) ([]json.RawMessage, error) {
	rows, err := s.db.pool.Query(ctx, `
        SELECT c.content_data
        FROM columns c
        JOIN sections s ON s.id = c.section_id
        WHERE s.page_type = $1 AND s.page_id = $2
          AND s.deleted_at IS NULL AND c.deleted_at IS NULL
          AND c.content_type = 'references'
    `, pageType, pageID)
	if err != nil {
		return nil, fmt.Errorf("load reference columns: %w", err)
	}
	defer rows.Close()

	out := make([]json.RawMessage, 0)
	for rows.Next() {
		var data json.RawMessage
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan reference column: %w", err)
		}
		out = append(out, data)
	}
	return out, rows.Err()
}

// ReferenceExists reports whether a referenced record exists and is not soft-deleted.
func (s *SectionStore) ReferenceExists(ctx context.Context, refType string, id uuid.UUID) (bool, error) {
	target, ok := referenceTargets[refType]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownReferenceType, refType)
	}

	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)`, target.table)
	if target.softDelete {
		query = fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1 AND deleted_at IS NULL)`, target.table)
	}

	var exists bool
	if err := s.db.pool.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check %s reference: %w", refType, err)
	}
	return exists, nil
}

func (s *SectionStore) CreateVersion(ctx context.Context, params CreateVersionParams) (ContentVersionRecord, error) {
	row := s.db.pool.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (id, page_type, page_id, created_by, sections_snapshot, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING %s
    `, ContentVersionsTable, versionColumns),
		params.ID, params.PageType, params.PageID, params.CreatedBy, params.SectionsSnapshot, params.At,
	)

	rec, err := scanVersion(row)
	if err != nil {
		return ContentVersionRecord{}, classifyWriteError(err)
	}
	return rec, nil
}

// ListVersions returns a page's snapshots newest first.
func (s *SectionStore) ListVersions(ctx context.Context, pageID uuid.UUID) ([]ContentVersionRecord, error) {
	rows, err := s.db.pool.Query(ctx, fmt.Sprintf(`
        SELECT %s FROM %s WHERE page_id = $1 ORDER BY created_at DESC
    `, versionColumns, ContentVersionsTable), pageID)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	out := make([]ContentVersionRecord, 0)
	for rows.Next() {
		rec, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SectionStore) GetVersion(ctx context.Context, id uuid.UUID) (ContentVersionRecord, error) {
	return scanVersion(s.db.pool.QueryRow(ctx, fmt.Sprintf(`
        SELECT %s FROM %s WHERE id = $1
    `, versionColumns, ContentVersionsTable), id))
}

// ReplaceSections deletes every section of the page and inserts the given ones in a single transaction.
func (s *SectionStore) ReplaceSections(ctx context.Context, pageType string, pageID uuid.UUID, sections []CreateSectionParams) ([]SectionRecord, error) {
	out := make([]SectionRecord, 0, len(sections))
	err := s.db.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, fmt.Sprintf(`
            DELETE FROM %s WHERE page_type = $1 AND page_id = $2
        `, SectionsTable), pageType, pageID); err != nil {
			return fmt.Errorf("clear page sections: %w", err)
		}

		for _, params := range sections {
			rec, err := insertSection(ctx, tx, params)
			if err != nil {
				return err
			}
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func scanSection(row rowScanner) (SectionRecord, error) {
	var rec SectionRecord
	if err := row.Scan(&rec.ID, &rec.PageType, &rec.PageID, &rec.DisplayOrder, &rec.Title, &rec.CreatedAt, &rec.UpdatedAt, &rec.DeletedAt, &rec.DeletedBy); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SectionRecord{}, ErrNotFound
		}
		return SectionRecord{}, err
	}
	rec.Columns = []ColumnRecord{}
	return rec, nil
}

func scanColumn(row rowScanner) (ColumnRecord, error) {
	var rec ColumnRecord
	if err := row.Scan(&rec.ID, &rec.SectionID, &rec.ColumnNumber, &rec.ContentType, &rec.ContentData, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ColumnRecord{}, ErrNotFound
		}
		return ColumnRecord{}, err
	}
	return rec, nil
}

func scanVersion(row rowScanner) (ContentVersionRecord, error) {
	var rec ContentVersionRecord
	if err := row.Scan(&rec.ID, &rec.PageType, &rec.PageID, &rec.CreatedBy, &rec.SectionsSnapshot, &rec.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ContentVersionRecord{}, ErrNotFound
		}
		return ContentVersionRecord{}, err
	}
	return rec, nil
}

func sortColumns(cols []ColumnRecord) {
	sort.Slice(cols, func(i, j int) bool { return cols[i].ColumnNumber < cols[j].ColumnNumber })
}
