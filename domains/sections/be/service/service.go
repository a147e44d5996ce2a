package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	domainrepo "github.com/zenGate-Global/wedding-admin/domains/sections/be/repo"
	"github.com/zenGate-Global/wedding-admin/platform/go/lifecycle"
	"github.com/zenGate-Global/wedding-admin/platform/go/persistence"
	"github.com/zenGate-Global/wedding-admin/platform/go/result"
	"github.com/zenGate-Global/wedding-admin/platform/go/sanitize"
	"github.com/zenGate-Global/wedding-admin/platform/go/validation"
)

const entityName = "section"

// Page types that can host sections.
const (
	PageTypeActivity      = "activity"
	PageTypeEvent         = "event"
	PageTypeAccommodation = "accommodation"
	PageTypeRoomType      = "room_type"
	PageTypeCustom        = "custom"
	PageTypeHome          = "home"
)

var pageTypes = map[string]struct{}{
	PageTypeActivity:      {},
	PageTypeEvent:         {},
	PageTypeAccommodation: {},
	PageTypeRoomType:      {},
	PageTypeCustom:        {},
	PageTypeHome:          {},
}

// Section is a row of one or two columns on a page.
type Section struct {
	ID           uuid.UUID  `json:"id"`
	PageType     string     `json:"pageType"`
	PageID       uuid.UUID  `json:"pageId"`
	DisplayOrder int        `json:"displayOrder"`
	Title        *string    `json:"title,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	Columns      []Column   `json:"columns"`
	DeletedAt    *time.Time `json:"deletedAt,omitempty"`
}

type Column struct {
	ID           uuid.UUID       `json:"id"`
	ColumnNumber int             `json:"columnNumber"`
	ContentType  string          `json:"contentType"`
	ContentData  json.RawMessage `json:"contentData"`
}

type ColumnInput struct {
	ColumnNumber int             `json:"columnNumber" validate:"oneof=1 2"`
	ContentType  string          `json:"contentType" validate:"required,oneof=rich_text photo_gallery references"`
	ContentData  json.RawMessage `json:"contentData" validate:"required"`
}

// CreateInput places a new section on a page. DisplayOrder defaults to the end of the page.
type CreateInput struct {
	PageType     string        `json:"pageType" validate:"required,oneof=activity event accommodation room_type custom home"`
	PageID       uuid.UUID     `json:"pageId"`
	DisplayOrder *int          `json:"displayOrder" validate:"omitempty,gte=0"`
	Title        *string       `json:"title" validate:"omitempty,max=200"`
	Columns      []ColumnInput `json:"columns" validate:"required,min=1,max=2,dive"`
}

// UpdateInput changes section fields. Non-nil Columns replace every existing column.
type UpdateInput struct {
	DisplayOrder *int          `json:"displayOrder" validate:"omitempty,gte=0"`
	Title        *string       `json:"title" validate:"omitempty,max=200"`
	Columns      []ColumnInput `json:"columns" validate:"omitempty,min=1,max=2,dive"`
}

// Service exposes the sections domain operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (Section, error)
	Get(ctx context.Context, id uuid.UUID) (Section, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (Section, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListByPage(ctx context.Context, pageType string, pageID uuid.UUID) ([]Section, error)
	Reorder(ctx context.Context, pageType string, pageID uuid.UUID, sectionIDs []uuid.UUID) error
	ValidateReferences(ctx context.Context, refs []Reference) (ReferenceValidation, error)
	DetectCircularReferences(ctx context.Context, pageID uuid.UUID, refs []Reference) (bool, error)
	CreateVersionSnapshot(ctx context.Context, pageType string, pageID uuid.UUID, createdBy *string) (Version, error)
	VersionHistory(ctx context.Context, pageID uuid.UUID) ([]Version, error)
	RevertToVersion(ctx context.Context, pageID, versionID uuid.UUID) ([]Section, error)
}

type service struct {
	repo      domainrepo.Repository
	validator *persistence.ContentValidator
	now       func() time.Time
}

// New builds a sections Service backed by the provided repository.
func New(repo domainrepo.Repository) Service {
	if repo == nil {
		panic("sections repository is required")
	}
	return &service{
		repo:      repo,
		validator: persistence.NewContentValidator(),
		now:       time.Now,
	}
}

func (s *service) Create(ctx context.Context, input CreateInput) (Section, error) {
	fields := result.FieldErrors{}
	validation.Struct(input, fields)
	if input.PageID == uuid.Nil {
		fields.Add("pageId", "pageId is required")
	}
	if len(fields) > 0 {
		return Section{}, result.Validation(fields)
	}

	columns, err := s.prepareColumns(ctx, input.PageID, input.Columns)
	if err != nil {
		return Section{}, err
	}

	displayOrder := 0
	if input.DisplayOrder != nil {
		displayOrder = *input.DisplayOrder
	} else {
		existing, err := s.repo.List(ctx, input.PageType, input.PageID)
		if err != nil {
			return Section{}, lifecycle.StoreError(err, entityName)
		}
		displayOrder = len(existing)
	}

	record, err := s.repo.Create(ctx, persistence.CreateSectionParams{
		ID:           uuid.New(),
		PageType:     input.PageType,
		PageID:       input.PageID,
		DisplayOrder: displayOrder,
		Title:        sanitize.TextPtr(input.Title),
		Columns:      columns,
		At:           s.now().UTC(),
	})
	if err != nil {
		return Section{}, lifecycle.StoreError(err, entityName)
	}
	return mapSection(record), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (Section, error) {
	record, err := s.repo.Get(ctx, id)
	if err != nil {
		return Section{}, lifecycle.StoreError(err, entityName)
	}
	return mapSection(record), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (Section, error) {
	fields := result.FieldErrors{}
	validation.Struct(input, fields)
	if input.Columns != nil && len(input.Columns) == 0 {
		fields.Add("columns", "columns must have at least 1 items")
	}
	if len(fields) > 0 {
		return Section{}, result.Validation(fields)
	}

	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return Section{}, lifecycle.StoreError(err, entityName)
	}

	params := persistence.UpdateSectionParams{
		Title:        sanitize.TextPtr(input.Title),
		DisplayOrder: input.DisplayOrder,
		At:           s.now().UTC(),
	}
	if input.Columns != nil {
		columns, err := s.prepareColumns(ctx, current.PageID, input.Columns)
		if err != nil {
			return Section{}, err
		}
		params.Columns = columns
	}

	record, err := s.repo.Update(ctx, id, params)
	if err != nil {
		return Section{}, lifecycle.StoreError(err, entityName)
	}
	return mapSection(record), nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return lifecycle.StoreError(err, entityName)
	}
	return nil
}

func (s *service) ListByPage(ctx context.Context, pageType string, pageID uuid.UUID) ([]Section, error) {
	if err := checkPageType(pageType); err != nil {
		return nil, err
	}

	records, err := s.repo.List(ctx, pageType, pageID)
	if err != nil {
		return nil, lifecycle.StoreError(err, entityName)
	}
	return mapSections(records), nil
}

func (s *service) Reorder(ctx context.Context, pageType string, pageID uuid.UUID, sectionIDs []uuid.UUID) error {
	if err := checkPageType(pageType); err != nil {
		return err
	}
	if len(sectionIDs) == 0 {
		return result.InvalidField("sectionIds", "sectionIds must not be empty")
	}
	seen := make(map[uuid.UUID]struct{}, len(sectionIDs))
	for _, id := range sectionIDs {
		if _, dup := seen[id]; dup {
			return result.InvalidField("sectionIds", fmt.Sprintf("section %s is listed twice", id))
		}
		seen[id] = struct{}{}
	}

	if err := s.repo.Reorder(ctx, pageType, pageID, sectionIDs, s.now().UTC()); err != nil {
		return lifecycle.StoreError(err, entityName)
	}
	return nil
}

// prepareColumns validates column content, sanitizes rich text and checks references.
func (s *service) prepareColumns(ctx context.Context, pageID uuid.UUID, inputs []ColumnInput) ([]persistence.ColumnParams, error) {
	fields := result.FieldErrors{}
	seen := map[int]bool{}
	for i, col := range inputs {
		if seen[col.ColumnNumber] {
			fields.Add("columns", fmt.Sprintf("column number %d is used more than once", col.ColumnNumber))
		}
		seen[col.ColumnNumber] = true

		if err := s.validator.Validate(col.ContentType, col.ContentData); err != nil {
			fields.Add(fmt.Sprintf("columns[%d].contentData", i), err.Error())
		}
	}
	if len(fields) > 0 {
		return nil, result.Validation(fields)
	}

	out := make([]persistence.ColumnParams, 0, len(inputs))
	for i, col := range inputs {
		data := col.ContentData

		switch col.ContentType {
		case persistence.ContentTypeRichText:
			cleaned, err := sanitizeRichText(data)
			if err != nil {
				return nil, result.InvalidField(fmt.Sprintf("columns[%d].contentData", i), err.Error())
			}
			data = cleaned
		case persistence.ContentTypeReferences:
			refs, err := decodeReferences(data)
			if err != nil {
				return nil, result.InvalidField(fmt.Sprintf("columns[%d].contentData", i), err.Error())
			}
			if err := s.checkReferences(ctx, pageID, refs); err != nil {
				return nil, err
			}
		}

		out = append(out, persistence.ColumnParams{
			ID:           uuid.New(),
			ColumnNumber: col.ColumnNumber,
			ContentType:  col.ContentType,
			ContentData:  data,
		})
	}
	return out, nil
}

func (s *service) checkReferences(ctx context.Context, pageID uuid.UUID, refs []Reference) error {
	validated, err := s.ValidateReferences(ctx, refs)
	if err != nil {
		return err
	}
	if !validated.Valid {
		return result.InvalidField("references", "one or more referenced records do not exist").
			WithDetails(map[string]any{"brokenReferences": validated.BrokenReferences})
	}

	circular, err := s.DetectCircularReferences(ctx, pageID, refs)
	if err != nil {
		return err
	}
	if circular {
		return result.CircularReference("references would create a circular page reference")
	}
	return nil
}

func sanitizeRichText(data json.RawMessage) (json.RawMessage, error) {
	var content map[string]any
	if err := json.Unmarshal(data, &content); err != nil {
		return nil, fmt.Errorf("decode rich text: %w", err)
	}
	if html, ok := content["html"].(string); ok {
		content["html"] = sanitize.RichText(html)
	}
	return json.Marshal(content)
}

func checkPageType(pageType string) error {
	if _, ok := pageTypes[pageType]; !ok {
		return result.InvalidField("pageType", "pageType must be one of [activity event accommodation room_type custom home]")
	}
	return nil
}

func mapSection(record persistence.SectionRecord) Section {
	columns := make([]Column, 0, len(record.Columns))
	for _, col := range record.Columns {
		columns = append(columns, Column{
			ID:           col.ID,
			ColumnNumber: col.ColumnNumber,
			ContentType:  col.ContentType,
			ContentData:  col.ContentData,
		})
	}
	return Section{
		ID:           record.ID,
		PageType:     record.PageType,
		PageID:       record.PageID,
		DisplayOrder: record.DisplayOrder,
		Title:        record.Title,
		CreatedAt:    record.CreatedAt,
		UpdatedAt:    record.UpdatedAt,
		Columns:      columns,
		DeletedAt:    record.DeletedAt,
	}
}

func mapSections(records []persistence.SectionRecord) []Section {
	out := make([]Section, 0, len(records))
	for _, record := range records {
		out = append(out, mapSection(record))
	}
	return out
}
