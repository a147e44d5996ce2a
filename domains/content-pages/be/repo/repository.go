package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/zenGate-Global/wedding-admin/platform/go/persistence"
)

// Repository exposes persistence operations required by the content pages service.
type Repository interface {
	Create(ctx context.Context, params persistence.CreateContentPageParams) (persistence.ContentPageRecord, error)
	Get(ctx context.Context, id uuid.UUID) (persistence.ContentPageRecord, error)
	GetBySlug(ctx context.Context, slug string) (persistence.ContentPageRecord, error)
	List(ctx context.Context, status *string) ([]persistence.ContentPageRecord, error)
	Update(ctx context.Context, id uuid.UUID, params persistence.UpdateContentPageParams) (persistence.ContentPageRecord, error)
	SlugExists(ctx context.Context, slug string, excludeID *uuid.UUID) (bool, error)
	SoftDelete(ctx context.Context, id uuid.UUID, at time.Time, deletedBy *string) error
	Delete(ctx context.Context, id uuid.UUID) error
	Restore(ctx context.Context, id uuid.UUID) (persistence.ContentPageRecord, error)
	CountSections(ctx context.Context, id uuid.UUID) (int, error)
	CountReferences(ctx context.Context, id uuid.UUID) (int, error)
}

type postgresRepository struct {
	store *persistence.ContentPageStore
}

// NewPostgresRepository builds a Repository backed by the shared persistence layer.
func NewPostgresRepository(store *persistence.ContentPageStore) Repository {
	if store == nil {
		panic("content page store is required")
	}
	return &postgresRepository{store: store}
}

func (r *postgresRepository) Create(ctx context.Context, params persistence.CreateContentPageParams) (persistence.ContentPageRecord, error) {
	return r.store.Create(ctx, params)
}

func (r *postgresRepository) Get(ctx context.Context, id uuid.UUID) (persistence.ContentPageRecord, error) {
	return r.store.Get(ctx, id)
}

func (r *postgresRepository) GetBySlug(ctx context.Context, slug string) (persistence.ContentPageRecord, error) {
	return r.store.GetBySlug(ctx, slug)
}

func (r *postgresRepository) List(ctx context.Context, status *string) ([]persistence.ContentPageRecord, error) {
	return r.store.List(ctx, status)
}

func (r *postgresRepository) Update(ctx context.Context, id uuid.UUID, params persistence.UpdateContentPageParams) (persistence.ContentPageRecord, error) {
	return r.store.Update(ctx, id, params)
}

func (r *postgresRepository) SlugExists(ctx context.Context, slug string, excludeID *uuid.UUID) (bool, error) {
	return r.store.SlugExists(ctx, slug, excludeID)
}

func (r *postgresRepository) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time, deletedBy *string) error {
	return r.store.SoftDelete(ctx, id, at, deletedBy)
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.store.Delete(ctx, id)
}

func (r *postgresRepository) Restore(ctx context.Context, id uuid.UUID) (persistence.ContentPageRecord, error) {
	return r.store.Restore(ctx, id)
}

func (r *postgresRepository) CountSections(ctx context.Context, id uuid.UUID) (int, error) {
	return r.store.CountSections(ctx, id)
}

func (r *postgresRepository) CountReferences(ctx context.Context, id uuid.UUID) (int, error) {
	return r.store.CountReferences(ctx, id)
}
