package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/zenGate-Global/wedding-admin/platform/go/persistence"
)

// Repository exposes persistence operations required by the RSVP service.
// Capacity lookups read activity usage so the RSVP service never touches the activities table directly.
type Repository interface {
	Create(ctx context.Context, id uuid.UUID, fields persistence.RSVPFields, at time.Time) (persistence.RSVPRecord, error)
	Get(ctx context.Context, id uuid.UUID) (persistence.RSVPRecord, error)
	Update(ctx context.Context, id uuid.UUID, fields persistence.RSVPFields, at time.Time) (persistence.RSVPRecord, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter persistence.RSVPFilter, page, pageSize int) (persistence.ListRSVPsResult, error)
	Statistics(ctx context.Context, filter persistence.RSVPFilter) (persistence.RSVPStats, error)
	ActivityUsage(ctx context.Context, filter persistence.UsageFilter) ([]persistence.ActivityUsage, error)
}

type postgresRepository struct {
	rsvps      *persistence.RSVPStore
	activities *persistence.ActivityStore
}

func NewPostgresRepository(rsvps *persistence.RSVPStore, activities *persistence.ActivityStore) Repository {
	if rsvps == nil {
		panic("rsvp store is required")
	}
	if activities == nil {
		panic("activity store is required")
	}
	return &postgresRepository{rsvps: rsvps, activities: activities}
}

func (r *postgresRepository) Create(ctx context.Context, id uuid.UUID, fields persistence.RSVPFields, at time.Time) (persistence.RSVPRecord, error) {
	return r.rsvps.Create(ctx, id, fields, at)
}

func (r *postgresRepository) Get(ctx context.Context, id uuid.UUID) (persistence.RSVPRecord, error) {
	return r.rsvps.Get(ctx, id)
}

func (r *postgresRepository) Update(ctx context.Context, id uuid.UUID, fields persistence.RSVPFields, at time.Time) (persistence.RSVPRecord, error) {
	return r.rsvps.Update(ctx, id, fields, at)
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.rsvps.Delete(ctx, id)
}

func (r *postgresRepository) List(ctx context.Context, filter persistence.RSVPFilter, page, pageSize int) (persistence.ListRSVPsResult, error) {
	return r.rsvps.List(ctx, filter, page, pageSize)
}

func (r *postgresRepository) Statistics(ctx context.Context, filter persistence.RSVPFilter) (persistence.RSVPStats, error) {
	return r.rsvps.Statistics(ctx, filter)
}

func (r *postgresRepository) ActivityUsage(ctx context.Context, filter persistence.UsageFilter) ([]persistence.ActivityUsage, error) {
	return r.activities.Usage(ctx, filter)
}
