package repo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/zenGate-Global/wedding-admin/platform/go/persistence"
)

// Repository exposes persistence operations required by the sections service.
type Repository interface {
	Create(ctx context.Context, params persistence.CreateSectionParams) (persistence.SectionRecord, error)
	Get(ctx context.Context, id uuid.UUID) (persistence.SectionRecord, error)
	Update(ctx context.Context, id uuid.UUID, params persistence.UpdateSectionParams) (persistence.SectionRecord, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, pageType string, pageID uuid.UUID) ([]persistence.SectionRecord, error)
	Reorder(ctx context.Context, pageType string, pageID uuid.UUID, sectionIDs []uuid.UUID, at time.Time) error
	ReferenceData(ctx context.Context, pageType string, pageID uuid.UUID) ([]json.RawMessage, error)
	ReferenceExists(ctx context.Context, refType string, id uuid.UUID) (bool, error)
	CreateVersion(ctx context.Context, params persistence.CreateVersionParams) (persistence.ContentVersionRecord, error)
	ListVersions(ctx context.Context, pageID uuid.UUID) ([]persistence.ContentVersionRecord, error)
	GetVersion(ctx context.Context, id uuid.UUID) (persistence.ContentVersionRecord, error)
	ReplaceSections(ctx context.Context, pageType string, pageID uuid.UUID, sections []persistence.CreateSectionParams) ([]persistence.SectionRecord, error)
}

type postgresRepository struct {
	store *persistence.SectionStore
}

// NewPostgresRepository builds a Repository backed by the shared persistence layer.
func NewPostgresRepository(store *persistence.SectionStore) Repository {
	if store == nil {
		panic("section store is required")
	}
	return &postgresRepository{store: store}
}

func (r *postgresRepository) Create(ctx context.Context, params persistence.CreateSectionParams) (persistence.SectionRecord, error) {
	return r.store.Create(ctx, params)
}

func (r *postgresRepository) Get(ctx context.Context, id uuid.UUID) (persistence.SectionRecord, error) {
	return r.store.Get(ctx, id)
}

func (r *postgresRepository) Update(ctx context.Context, id uuid.UUID, params persistence.UpdateSectionParams) (persistence.SectionRecord, error) {
	return r.store.Update(ctx, id, params)
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.store.Delete(ctx, id)
}

func (r *postgresRepository) List(ctx context.Context, pageType string, pageID uuid.UUID) ([]persistence.SectionRecord, error) {
	return r.store.List(ctx, pageType, pageID)
}

func (r *postgresRepository) Reorder(ctx context.Context, pageType string, pageID uuid.UUID, sectionIDs []uuid.UUID, at time.Time) error {
	return r.store.Reorder(ctx, pageType, pageID, sectionIDs, at)
}

func (r *postgresRepository) ReferenceData(ctx context.Context, pageType string, pageID uuid.UUID) ([]json.RawMessage, error) {
	return r.store.ReferenceData(ctx, pageType, pageID)
}

func (r *postgresRepository) ReferenceExists(ctx context.Context, refType string, id uuid.UUID) (bool, error) {
	return r.store.ReferenceExists(ctx, refType, id)
}

func (r *postgresRepository) CreateVersion(ctx context.Context, params persistence.CreateVersionParams) (persistence.ContentVersionRecord, error) {
	return r.store.CreateVersion(ctx, params)
}

func (r *postgresRepository) ListVersions(ctx context.Context, pageID uuid.UUID) ([]persistence.ContentVersionRecord, error) {
	return r.store.ListVersions(ctx, pageID)
}

func (r *postgresRepository) GetVersion(ctx context.Context, id uuid.UUID) (persistence.ContentVersionRecord, error) {
	return r.store.GetVersion(ctx, id)
}

func (r *postgresRepository) ReplaceSections(ctx context.Context, pageType string, pageID uuid.UUID, sections []persistence.CreateSectionParams) ([]persistence.SectionRecord, error) {
	return r.store.ReplaceSections(ctx, pageType, pageID, sections)
}
