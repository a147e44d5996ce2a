package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/zenGate-Global/wedding-admin/platform/go/persistence"
)

// Repository exposes persistence operations required by the events service.
type Repository interface {
	Create(ctx context.Context, id uuid.UUID, fields persistence.EventFields, at time.Time) (persistence.EventRecord, error)
	Get(ctx context.Context, id uuid.UUID) (persistence.EventRecord, error)
	GetBySlug(ctx context.Context, slug string) (persistence.EventRecord, error)
	Update(ctx context.Context, id uuid.UUID, fields persistence.EventFields, at time.Time) (persistence.EventRecord, error)
	List(ctx context.Context, params persistence.ListEventsParams) (persistence.ListEventsResult, error)
	AtLocation(ctx context.Context, locationID uuid.UUID, excludeID *uuid.UUID) ([]persistence.EventRecord, error)
	SlugExists(ctx context.Context, slug string, excludeID *uuid.UUID) (bool, error)
	SoftDelete(ctx context.Context, id uuid.UUID, at time.Time, deletedBy *string) error
	Delete(ctx context.Context, id uuid.UUID, at time.Time) error
	Restore(ctx context.Context, id uuid.UUID) (persistence.EventRecord, error)
	CountActivities(ctx context.Context, id uuid.UUID) (int, error)
	CountRSVPs(ctx context.Context, id uuid.UUID) (int, error)
	CountReferences(ctx context.Context, id uuid.UUID) (int, error)
}

type postgresRepository struct {
	store *persistence.EventStore
}

// NewPostgresRepository builds a Repository backed by the shared persistence layer.
func NewPostgresRepository(store *persistence.EventStore) Repository {
	if store == nil {
		panic("event store is required")
	}
	return &postgresRepository{store: store}
}

func (r *postgresRepository) Create(ctx context.Context, id uuid.UUID, fields persistence.EventFields, at time.Time) (persistence.EventRecord, error) {
	return r.store.Create(ctx, id, fields, at)
}

func (r *postgresRepository) Get(ctx context.Context, id uuid.UUID) (persistence.EventRecord, error) {
	return r.store.Get(ctx, id)
}

func (r *postgresRepository) GetBySlug(ctx context.Context, slug string) (persistence.EventRecord, error) {
	return r.store.GetBySlug(ctx, slug)
}

func (r *postgresRepository) Update(ctx context.Context, id uuid.UUID, fields persistence.EventFields, at time.Time) (persistence.EventRecord, error) {
	return r.store.Update(ctx, id, fields, at)
}

func (r *postgresRepository) List(ctx context.Context, params persistence.ListEventsParams) (persistence.ListEventsResult, error) {
	return r.store.List(ctx, params)
}

func (r *postgresRepository) AtLocation(ctx context.Context, locationID uuid.UUID, excludeID *uuid.UUID) ([]persistence.EventRecord, error) {
	return r.store.AtLocation(ctx, locationID, excludeID)
}

func (r *postgresRepository) SlugExists(ctx context.Context, slug string, excludeID *uuid.UUID) (bool, error) {
	return r.store.SlugExists(ctx, slug, excludeID)
}

func (r *postgresRepository) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time, deletedBy *string) error {
	return r.store.SoftDelete(ctx, id, at, deletedBy)
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.store.Delete(ctx, id, at)
}

func (r *postgresRepository) Restore(ctx context.Context, id uuid.UUID) (persistence.EventRecord, error) {
	return r.store.Restore(ctx, id)
}

func (r *postgresRepository) CountActivities(ctx context.Context, id uuid.UUID) (int, error) {
	return r.store.CountActivities(ctx, id)
}

func (r *postgresRepository) CountRSVPs(ctx context.Context, id uuid.UUID) (int, error) {
	return r.store.CountRSVPs(ctx, id)
}

func (r *postgresRepository) CountReferences(ctx context.Context, id uuid.UUID) (int, error) {
	return r.store.CountReferences(ctx, id)
}
