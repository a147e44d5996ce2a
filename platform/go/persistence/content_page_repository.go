package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ContentPagesTable stores free-standing CMS pages.
const ContentPagesTable = "content_pages"

const contentPageColumns = `id, title, slug, status, created_at, updated_at, deleted_at, deleted_by`

// ContentPageRecord mirrors a row of content_pages.
type ContentPageRecord struct {
	ID        uuid.UUID
	Title     string
	Slug      string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
	DeletedBy *string
}

// CreateContentPageParams carries a fully validated page.
type CreateContentPageParams struct {
	ID     uuid.UUID
	Title  string
	Slug   string
	Status string
	At     time.Time
}

// UpdateContentPageParams holds optional changes; nil fields are left untouched.
type UpdateContentPageParams struct {
	Title  *string
	Slug   *string
	Status *string
	At     time.Time
}

// ContentPageStore provides access to content_pages and the page-owned custom sections.
type ContentPageStore struct {
	db *DB
}

func NewContentPageStore(db *DB) (*ContentPageStore, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	return &ContentPageStore{db: db}, nil
}

func (s *ContentPageStore) Create(ctx context.Context, params CreateContentPageParams) (ContentPageRecord, error) {
	if params.ID == uuid.Nil {
		return ContentPageRecord{}, errors.New("content page id is required")
	}

	row := s.db.pool.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (id, title, slug, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $5)
        RETURNING %s
    `, ContentPagesTable, contentPageColumns),
		params.ID, params.Title, params.Slug, params.Status, params.At,
	)

	rec, err := scanContentPage(row)
	if err != nil {
		return ContentPageRecord{}, classifyWriteError(err)
	}
	return rec, nil
}

// Get returns an active page.
func (s *ContentPageStore) Get(ctx context.Context, id uuid.UUID) (ContentPageRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1 AND deleted_at IS NULL`, contentPageColumns, ContentPagesTable)
	return scanContentPage(s.db.pool.QueryRow(ctx, query, id))
}

// GetBySlug returns an active page by slug.
func (s *ContentPageStore) GetBySlug(ctx context.Context, slug string) (ContentPageRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE slug = $1 AND deleted_at IS NULL`, contentPageColumns, ContentPagesTable)
	return scanContentPage(s.db.pool.QueryRow(ctx, query, slug))
}

// List returns active pages newest first, optionally filtered by status.
func (s *ContentPageStore) List(ctx context.Context, status *string) ([]ContentPageRecord, error) {
	where := "deleted_at IS NULL"
	var args []any
	if status != nil {
		args = append(args, *status)
		where += " AND status = $1"
	}

	rows, err := s.db.pool.Query(ctx, fmt.Sprintf(`
        SELECT %s FROM %s WHERE %s ORDER BY created_at DESC
    `, contentPageColumns, ContentPagesTable, where), args...)
	if err != nil {
		return nil, fmt.Errorf("list content pages: %w", err)
	}
	defer rows.Close()

	pages := make([]ContentPageRecord, 0)
	for rows.Next() {
		rec, err := scanContentPage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan content page: %w", err)
		}
		pages = append(pages, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate content pages: %w", err)
	}
	return pages, nil
}

func (s *ContentPageStore) Update(ctx context.Context, id uuid.UUID, params UpdateContentPageParams) (ContentPageRecord, error) {
	row := s.db.pool.QueryRow(ctx, fmt.Sprintf(`
        UPDATE %s SET
            title = COALESCE($2, title),
            slug = COALESCE($3, slug),
            status = COALESCE($4, status),
            updated_at = $5
        WHERE id = $1 AND deleted_at IS NULL
        RETURNING %s
    `, ContentPagesTable, contentPageColumns),
		id, params.Title, params.Slug, params.Status, params.At,
	)

	rec, err := scanContentPage(row)
	if err != nil {
		return ContentPageRecord{}, classifyWriteError(err)
	}
	return rec, nil
}

// SlugExists checks every row, deleted ones included, so a restore can never collide.
func (s *ContentPageStore) SlugExists(ctx context.Context, slug string, excludeID *uuid.UUID) (bool, error) {
	return slugExists(ctx, s.db.pool, ContentPagesTable, slug, excludeID)
}

// SoftDelete stamps the page, its custom sections and their columns with the same timestamp.
func (s *ContentPageStore) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time, deletedBy *string) error {
	return s.db.WithTx(ctx, func(tx pgx.Tx) error {
		if err := lockActive(ctx, tx, ContentPagesTable, id); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `
            UPDATE columns SET deleted_at = $2, deleted_by = $3
            WHERE deleted_at IS NULL AND section_id IN (
                SELECT id FROM sections WHERE page_type = 'custom' AND page_id = $1 AND deleted_at IS NULL
            )`, id, at, deletedBy); err != nil {
			return fmt.Errorf("soft delete page columns: %w", err)
		}

		if _, err := tx.Exec(ctx, `
            UPDATE sections SET deleted_at = $2, deleted_by = $3
            WHERE page_type = 'custom' AND page_id = $1 AND deleted_at IS NULL`, id, at, deletedBy); err != nil {
			return fmt.Errorf("soft delete page sections: %w", err)
		}

		if _, err := tx.Exec(ctx, fmt.Sprintf(`
            UPDATE %s SET deleted_at = $2, deleted_by = $3 WHERE id = $1`, ContentPagesTable), id, at, deletedBy); err != nil {
			return fmt.Errorf("soft delete content page: %w", err)
		}
		return nil
	})
}

// Delete removes the page for good. Columns follow their sections through ON DELETE CASCADE.
func (s *ContentPageStore) Delete(ctx context.Context, id uuid.UUID) error {
	return s.db.WithTx(ctx, func(tx pgx.Tx) error {
		if err := lockAny(ctx, tx, ContentPagesTable, id); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `DELETE FROM sections WHERE page_type = 'custom' AND page_id = $1`, id); err != nil {
			return fmt.Errorf("delete page sections: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM content_versions WHERE page_type = 'custom' AND page_id = $1`, id); err != nil {
			return fmt.Errorf("delete page versions: %w", err)
		}
		if _, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, ContentPagesTable), id); err != nil {
			return fmt.Errorf("delete content page: %w", err)
		}
		return nil
	})
}

// Restore clears the deletion markers on the page and on every deleted custom section and column.
func (s *ContentPageStore) Restore(ctx context.Context, id uuid.UUID) (ContentPageRecord, error) {
	var rec ContentPageRecord
	err := s.db.WithTx(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, fmt.Sprintf(`
            UPDATE %s SET deleted_at = NULL, deleted_by = NULL
            WHERE id = $1
            RETURNING %s`, ContentPagesTable, contentPageColumns), id)

		var err error
		if rec, err = scanContentPage(row); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `
            UPDATE sections SET deleted_at = NULL, deleted_by = NULL
            WHERE page_type = 'custom' AND page_id = $1 AND deleted_at IS NOT NULL`, id); err != nil {
			return fmt.Errorf("restore page sections: %w", err)
		}

		if _, err := tx.Exec(ctx, `
            UPDATE columns SET deleted_at = NULL, deleted_by = NULL
            WHERE deleted_at IS NOT NULL AND section_id IN (
                SELECT id FROM sections WHERE page_type = 'custom' AND page_id = $1
            )`, id); err != nil {
			return fmt.Errorf("restore page columns: %w", err)
		}
		return nil
	})
	if err != nil {
		return ContentPageRecord{}, err
	}
	return rec, nil
}

// CountSections counts the active custom sections owned by the page.
func (s *ContentPageStore) CountSections(ctx context.Context, id uuid.UUID) (int, error) {
	var count int
	err := s.db.pool.QueryRow(ctx, `
        SELECT COUNT(*) FROM sections
        WHERE page_type = 'custom' AND page_id = $1 AND deleted_at IS NULL`, id).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count page sections: %w", err)
	}
	return count, nil
}

// CountReferences counts reference columns on other pages that point at the page.
func (s *ContentPageStore) CountReferences(ctx context.Context, id uuid.UUID) (int, error) {
	return countContentReferences(ctx, s.db.pool, id)
}

func scanContentPage(row rowScanner) (ContentPageRecord, error) {
	var rec ContentPageRecord
	if err := row.Scan(&rec.ID, &rec.Title, &rec.Slug, &rec.Status, &rec.CreatedAt, &rec.UpdatedAt, &rec.DeletedAt, &rec.DeletedBy); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ContentPageRecord{}, ErrNotFound
		}
		return ContentPageRecord{}, err
	}
	return rec, nil
}
