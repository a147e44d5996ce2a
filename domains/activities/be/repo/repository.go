package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/zenGate-Global/wedding-admin/platform/go/persistence"
)

// Repository exposes persistence operations required by the activities service.
type Repository interface {
	Create(ctx context.Context, id uuid.UUID, fields persistence.ActivityFields, at time.Time) (persistence.ActivityRecord, error)
	Get(ctx context.Context, id uuid.UUID) (persistence.ActivityRecord, error)
	GetBySlug(ctx context.Context, slug string) (persistence.ActivityRecord, error)
	Update(ctx context.Context, id uuid.UUID, fields persistence.ActivityFields, at time.Time) (persistence.ActivityRecord, error)
	List(ctx context.Context, params persistence.ListActivitiesParams) (persistence.ListActivitiesResult, error)
	SlugExists(ctx context.Context, slug string, excludeID *uuid.UUID) (bool, error)
	SoftDelete(ctx context.Context, id uuid.UUID, at time.Time, deletedBy *string) error
	Delete(ctx context.Context, id uuid.UUID) error
	Restore(ctx context.Context, id uuid.UUID) (persistence.ActivityRecord, error)
	CountRSVPs(ctx context.Context, id uuid.UUID) (int, error)
	CountReferences(ctx context.Context, id uuid.UUID) (int, error)
	Usage(ctx context.Context, filter persistence.UsageFilter) ([]persistence.ActivityUsage, error)
}

type postgresRepository struct {
	store *persistence.ActivityStore
}

func NewPostgresRepository(store *persistence.ActivityStore) Repository {
	if store == nil {
		panic("activity store is required")
	}
	return &postgresRepository{store: store}
}

func (r *postgresRepository) Create(ctx context.Context, id uuid.UUID, fields persistence.ActivityFields, at time.Time) (persistence.ActivityRecord, error) {
	return r.store.Create(ctx, id, fields, at)
}

func (r *postgresRepository) Get(ctx context.Context, id uuid.UUID) (persistence.ActivityRecord, error) {
	return r.store.Get(ctx, id)
}

func (r *postgresRepository) GetBySlug(ctx context.Context, slug string) (persistence.ActivityRecord, error) {
	return r.store.GetBySlug(ctx, slug)
}

func (r *postgresRepository) Update(ctx context.Context, id uuid.UUID, fields persistence.ActivityFields, at time.Time) (persistence.ActivityRecord, error) {
	return r.store.Update(ctx, id, fields, at)
}

func (r *postgresRepository) List(ctx context.Context, params persistence.ListActivitiesParams) (persistence.ListActivitiesResult, error) {
	return r.store.List(ctx, params)
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

func (r *postgresRepository) Restore(ctx context.Context, id uuid.UUID) (persistence.ActivityRecord, error) {
	return r.store.Restore(ctx, id)
}

func (r *postgresRepository) CountRSVPs(ctx context.Context, id uuid.UUID) (int, error) {
	return r.store.CountRSVPs(ctx, id)
}

func (r *postgresRepository) CountReferences(ctx context.Context, id uuid.UUID) (int, error) {
	return r.store.CountReferences(ctx, id)
}

func (r *postgresRepository) Usage(ctx context.Context, filter persistence.UsageFilter) ([]persistence.ActivityUsage, error) {
	return r.store.Usage(ctx, filter)
}
