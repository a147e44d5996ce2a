// Package lifecycle holds the delete, restore and dependency-reporting types shared by the
// content pages, events and activities services.
package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"github.com/zenGate-Global/wedding-admin/platform/go/persistence"
	"github.com/zenGate-Global/wedding-admin/platform/go/result"
)

// DeleteOptions selects between a soft delete (default) and a permanent one.
type DeleteOptions struct {
	Permanent bool
	DeletedBy *string
}

// DependentRecord counts one category of records that depend on an entity.
type DependentRecord struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// References is advisory: it never blocks a delete.
type References struct {
	HasReferences    bool              `json:"hasReferences"`
	DependentRecords []DependentRecord `json:"dependentRecords"`
	TotalCount       int               `json:"totalCount"`
}

// NewReferences drops zero-count categories and totals the rest.
func NewReferences(categories ...DependentRecord) References {
	refs := References{DependentRecords: make([]DependentRecord, 0, len(categories))}
	for _, c := range categories {
		if c.Count <= 0 {
			continue
		}
		refs.DependentRecords = append(refs.DependentRecords, c)
		refs.TotalCount += c.Count
	}
	refs.HasReferences = refs.TotalCount > 0
	return refs
}

// Counter loads one dependency count.
type Counter struct {
	Type  string
	Count func(ctx context.Context) (int, error)
}

// CountReferences runs every counter in order and stops at the first failure.
func CountReferences(ctx context.Context, counters ...Counter) (References, error) {
	categories := make([]DependentRecord, 0, len(counters))
	for _, c := range counters {
		n, err := c.Count(ctx)
		if err != nil {
			return References{}, result.Database(fmt.Errorf("count %s: %w", c.Type, err))
		}
		categories = append(categories, DependentRecord{Type: c.Type, Count: n})
	}
	return NewReferences(categories...), nil
}

// StoreError translates persistence sentinels into result errors for the named entity.
func StoreError(err error, entity string) error {
	if err == nil {
		return nil
	}
	if _, ok := result.As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		return result.NotFound(entity + " not found")
	case errors.Is(err, persistence.ErrDuplicateSlug):
		return result.Duplicate(entity+" slug already exists", err)
	case errors.Is(err, persistence.ErrDuplicateEntry):
		return result.Duplicate(entity+" already exists", err)
	case errors.Is(err, persistence.ErrInvalidReference):
		return result.Validation(result.FieldErrors{"reference": {"referenced record does not exist"}})
	case persistence.IsCheckViolation(err):
		return result.Validation(result.FieldErrors{entity: {"value rejected by a database constraint"}})
	default:
		return result.Wrap(err)
	}
}

// SlugError reports a slug that could not be resolved as a validation error on "slug".
func SlugError(err error) error {
	if errors.Is(err, persistence.ErrEmptySlug) {
		return result.InvalidField("slug", "slug must contain at least one letter or digit")
	}
	return result.InvalidField("slug", err.Error())
}
