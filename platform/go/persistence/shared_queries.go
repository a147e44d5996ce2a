package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Table names passed to these helpers are package constants, never user input.

func slugExists(ctx context.Context, q querier, table, slug string, excludeID *uuid.UUID) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE slug = $1 AND ($2::uuid IS NULL OR id <> $2))`, table)

	var exists bool
	if err := q.QueryRow(ctx, query, slug, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("probe %s slug: %w", table, err)
	}
	return exists, nil
}

// lockActive row-locks a non-deleted row and reports ErrNotFound when there is none.
func lockActive(ctx context.Context, tx pgx.Tx, table string, id uuid.UUID) error {
	return lockRow(ctx, tx, fmt.Sprintf(`SELECT id FROM %s WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`, table), id)
}

// lockAny row-locks a row regardless of its deletion state.
func lockAny(ctx context.Context, tx pgx.Tx, table string, id uuid.UUID) error {
	return lockRow(ctx, tx, fmt.Sprintf(`SELECT id FROM %s WHERE id = $1 FOR UPDATE`, table), id)
}

func lockRow(ctx context.Context, tx pgx.Tx, query string, id uuid.UUID) error {
	var found uuid.UUID
	if err := tx.QueryRow(ctx, query, id).Scan(&found); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("lock row: %w", err)
	}
	return nil
}

// countContentReferences counts active reference columns whose references array
// contains {"id": target}. Sections hosted on the target itself are not counted.
func countContentReferences(ctx context.Context, q querier, target uuid.UUID) (int, error) {
	var count int
	err := q.QueryRow(ctx, `
        SELECT COUNT(*)
        FROM columns c
        JOIN sections s ON s.id = c.section_id
        WHERE c.content_type = 'references'
          AND c.deleted_at IS NULL
          AND s.deleted_at IS NULL
          AND s.page_id <> $1
          AND c.content_data @> jsonb_build_object('references', jsonb_build_array(jsonb_build_object('id', $1::text)))
    `, target).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count content references: %w", err)
	}
	return count, nil
}
