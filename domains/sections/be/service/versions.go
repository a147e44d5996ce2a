package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zenGate-Global/wedding-admin/platform/go/lifecycle"
	"github.com/zenGate-Global/wedding-admin/platform/go/persistence"
	"github.com/zenGate-Global/wedding-admin/platform/go/result"
)

// Version is a stored snapshot of every section on a page.
type Version struct {
	ID        uuid.UUID `json:"id"`
	PageType  string    `json:"pageType"`
	PageID    uuid.UUID `json:"pageId"`
	CreatedBy *string   `json:"createdBy,omitempty"`
	Sections  []Section `json:"sections"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s *service) CreateVersionSnapshot(ctx context.Context, pageType string, pageID uuid.UUID, createdBy *string) (Version, error) {
	if err := checkPageType(pageType); err != nil {
		return Version{}, err
	}

	records, err := s.repo.List(ctx, pageType, pageID)
	if err != nil {
		return Version{}, lifecycle.StoreError(err, entityName)
	}

	snapshot, err := json.Marshal(mapSections(records))
	if err != nil {
		return Version{}, result.Unknown(fmt.Errorf("encode snapshot: %w", err))
	}

	record, err := s.repo.CreateVersion(ctx, persistence.CreateVersionParams{
		ID:               uuid.New(),
		PageType:         pageType,
		PageID:           pageID,
		CreatedBy:        createdBy,
		SectionsSnapshot: snapshot,
		At:               s.now().UTC(),
	})
	if err != nil {
		return Version{}, lifecycle.StoreError(err, "version")
	}
	return mapVersion(record)
}

func (s *service) VersionHistory(ctx context.Context, pageID uuid.UUID) ([]Version, error) {
	records, err := s.repo.ListVersions(ctx, pageID)
	if err != nil {
		return nil, lifecycle.StoreError(err, "version")
	}

	out := make([]Version, 0, len(records))
	for _, record := range records {
		version, err := mapVersion(record)
		if err != nil {
			return nil, err
		}
		out = append(out, version)
	}
	return out, nil
}

// RevertToVersion replaces the page's sections with the snapshot in one transaction.
func (s *service) RevertToVersion(ctx context.Context, pageID, versionID uuid.UUID) ([]Section, error) {
	record, err := s.repo.GetVersion(ctx, versionID)
	if err != nil {
		return nil, lifecycle.StoreError(err, "version")
	}
	if record.PageID != pageID {
		return nil, result.NotFound("version not found for this page")
	}

	version, err := mapVersion(record)
	if err != nil {
		return nil, err
	}

	at := s.now().UTC()
	params := make([]persistence.CreateSectionParams, 0, len(version.Sections))
	for _, section := range version.Sections {
		columns := make([]persistence.ColumnParams, 0, len(section.Columns))
		for _, col := range section.Columns {
			columns = append(columns, persistence.ColumnParams{
				ID:           col.ID,
				ColumnNumber: col.ColumnNumber,
				ContentType:  col.ContentType,
				ContentData:  col.ContentData,
			})
		}
		params = append(params, persistence.CreateSectionParams{
			ID:           section.ID,
			PageType:     version.PageType,
			PageID:       pageID,
			DisplayOrder: section.DisplayOrder,
			Title:        section.Title,
			Columns:      columns,
			At:           at,
		})
	}

	records, err := s.repo.ReplaceSections(ctx, version.PageType, pageID, params)
	if err != nil {
		return nil, lifecycle.StoreError(err, entityName)
	}
	return mapSections(records), nil
}

func mapVersion(record persistence.ContentVersionRecord) (Version, error) {
	sections := make([]Section, 0)
	if len(record.SectionsSnapshot) > 0 {
		if err := json.Unmarshal(record.SectionsSnapshot, &sections); err != nil {
			return Version{}, result.Unknown(fmt.Errorf("decode snapshot %s: %w", record.ID, err))
		}
	}
	return Version{
		ID:        record.ID,
		PageType:  record.PageType,
		PageID:    record.PageID,
		CreatedBy: record.CreatedBy,
		Sections:  sections,
		CreatedAt: record.CreatedAt,
	}, nil
}
