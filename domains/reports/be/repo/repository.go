package repo

import (
	"context"

	"github.com/zenGate-Global/wedding-admin/platform/go/persistence"
)

// Repository exposes the read models behind reports and exports.
type Repository interface {
	ActivityUsage(ctx context.Context, filter persistence.UsageFilter) ([]persistence.ActivityUsage, error)
	ExportRows(ctx context.Context, filter persistence.RSVPFilter, limit int) ([]persistence.RSVPExportRow, error)
}

type postgresRepository struct {
	activities *persistence.ActivityStore
	rsvps      *persistence.RSVPStore
}

func NewPostgresRepository(activities *persistence.ActivityStore, rsvps *persistence.RSVPStore) Repository {
	if activities == nil {
		panic("activity store is required")
	}
	if rsvps == nil {
		panic("rsvp store is required")
	}
	return &postgresRepository{activities: activities, rsvps: rsvps}
}

func (r *postgresRepository) ActivityUsage(ctx context.Context, filter persistence.UsageFilter) ([]persistence.ActivityUsage, error) {
	return r.activities.Usage(ctx, filter)
}

func (r *postgresRepository) ExportRows(ctx context.Context, filter persistence.RSVPFilter, limit int) ([]persistence.RSVPExportRow, error) {
	return r.rsvps.ExportRows(ctx, filter, limit)
}
