package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	domainrepo "github.com/zenGate-Global/wedding-admin/domains/content-pages/be/repo"
	"github.com/zenGate-Global/wedding-admin/platform/go/events"
	"github.com/zenGate-Global/wedding-admin/platform/go/lifecycle"
	"github.com/zenGate-Global/wedding-admin/platform/go/persistence"
	"github.com/zenGate-Global/wedding-admin/platform/go/result"
	"github.com/zenGate-Global/wedding-admin/platform/go/sanitize"
	"github.com/zenGate-Global/wedding-admin/platform/go/validation"
)

const (
	StatusDraft     = "draft"
	StatusPublished = "published"

	entityName = "content page"
	entityType = "content_page"
)

// Page is a free-standing content page whose body is made of custom sections.
type Page struct {
	ID        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	Slug      string     `json:"slug"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
	DeletedBy *string    `json:"deletedBy,omitempty"`
}

// CreateInput defines the payload required to create a page. Slug defaults to one derived from Title.
type CreateInput struct {
	Title  string  `json:"title" validate:"required,max=200"`
	Slug   *string `json:"slug"`
	Status *string `json:"status" validate:"omitempty,oneof=draft published"`
}

// UpdateInput holds optional changes. Changing the title never regenerates the slug.
type UpdateInput struct {
	Title  *string `json:"title" validate:"omitempty,min=1,max=200"`
	Slug   *string `json:"slug"`
	Status *string `json:"status" validate:"omitempty,oneof=draft published"`
}

// Service exposes the content pages domain operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (Page, error)
	Get(ctx context.Context, id uuid.UUID) (Page, error)
	GetBySlug(ctx context.Context, slug string) (Page, error)
	List(ctx context.Context, status *string) ([]Page, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (Page, error)
	Delete(ctx context.Context, id uuid.UUID, opts lifecycle.DeleteOptions) error
	Restore(ctx context.Context, id uuid.UUID) (Page, error)
	CheckReferences(ctx context.Context, id uuid.UUID) (lifecycle.References, error)
}

type service struct {
	repo      domainrepo.Repository
	publisher events.Publisher
	now       func() time.Time
}

// New builds a content pages Service. A nil publisher drops domain events.
func New(repo domainrepo.Repository, publisher events.Publisher) Service {
	if repo == nil {
		panic("content pages repository is required")
	}
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &service{repo: repo, publisher: publisher, now: time.Now}
}

func (s *service) Create(ctx context.Context, input CreateInput) (Page, error) {
	input.Title = sanitize.Text(input.Title)
	if err := validation.Check(input); err != nil {
		return Page{}, err
	}

	slug, err := persistence.ResolveSlug(ctx, s.repo, input.Slug, input.Title, nil)
	if err != nil {
		return Page{}, lifecycle.SlugError(err)
	}

	status := StatusDraft
	if input.Status != nil {
		status = *input.Status
	}

	record, err := s.repo.Create(ctx, persistence.CreateContentPageParams{
		ID:     uuid.New(),
		Title:  input.Title,
		Slug:   slug,
		Status: status,
		At:     s.now().UTC(),
	})
	if err != nil {
		return Page{}, lifecycle.StoreError(err, entityName)
	}
	return mapPage(record), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (Page, error) {
	record, err := s.repo.Get(ctx, id)
	if err != nil {
		return Page{}, lifecycle.StoreError(err, entityName)
	}
	return mapPage(record), nil
}

func (s *service) GetBySlug(ctx context.Context, slug string) (Page, error) {
	record, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return Page{}, lifecycle.StoreError(err, entityName)
	}
	return mapPage(record), nil
}

func (s *service) List(ctx context.Context, status *string) ([]Page, error) {
	if status != nil && *status != StatusDraft && *status != StatusPublished {
		return nil, result.InvalidField("status", "status must be one of [draft published]")
	}

	records, err := s.repo.List(ctx, status)
	if err != nil {
		return nil, lifecycle.StoreError(err, entityName)
	}

	pages := make([]Page, 0, len(records))
	for _, record := range records {
		pages = append(pages, mapPage(record))
	}
	return pages, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (Page, error) {
	input.Title = sanitize.TextPtr(input.Title)
	if err := validation.Check(input); err != nil {
		return Page{}, err
	}

	params := persistence.UpdateContentPageParams{
		Title:  input.Title,
		Status: input.Status,
		At:     s.now().UTC(),
	}

	if input.Slug != nil {
		if _, err := s.repo.Get(ctx, id); err != nil {
			return Page{}, lifecycle.StoreError(err, entityName)
		}
		slug, err := persistence.ResolveSlug(ctx, s.repo, input.Slug, "", &id)
		if err != nil {
			return Page{}, lifecycle.SlugError(err)
		}
		params.Slug = &slug
	}

	record, err := s.repo.Update(ctx, id, params)
	if err != nil {
		return Page{}, lifecycle.StoreError(err, entityName)
	}
	return mapPage(record), nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID, opts lifecycle.DeleteOptions) error {
	now := s.now().UTC()

	var err error
	if opts.Permanent {
		err = s.repo.Delete(ctx, id)
	} else {
		err = s.repo.SoftDelete(ctx, id, now, opts.DeletedBy)
	}
	if err != nil {
		return lifecycle.StoreError(err, entityName)
	}

	_ = s.publisher.Publish(ctx, events.New(events.TypeContentPageDeleted, entityType, id, now, opts.DeletedBy,
		map[string]bool{"permanent": opts.Permanent}))
	return nil
}

func (s *service) Restore(ctx context.Context, id uuid.UUID) (Page, error) {
	record, err := s.repo.Restore(ctx, id)
	if err != nil {
		return Page{}, lifecycle.StoreError(err, entityName)
	}

	_ = s.publisher.Publish(ctx, events.New(events.TypeContentPageRestored, entityType, id, s.now(), nil, nil))
	return mapPage(record), nil
}

func (s *service) CheckReferences(ctx context.Context, id uuid.UUID) (lifecycle.References, error) {
	return lifecycle.CountReferences(ctx,
		lifecycle.Counter{Type: "sections", Count: func(ctx context.Context) (int, error) { return s.repo.CountSections(ctx, id) }},
		lifecycle.Counter{Type: "references", Count: func(ctx context.Context) (int, error) { return s.repo.CountReferences(ctx, id) }},
	)
}

func mapPage(record persistence.ContentPageRecord) Page {
	return Page{
		ID:        record.ID,
		Title:     record.Title,
		Slug:      record.Slug,
		Status:    record.Status,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
		DeletedAt: record.DeletedAt,
		DeletedBy: record.DeletedBy,
	}
}
