package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	domainrepo "github.com/zenGate-Global/wedding-admin/domains/events/be/repo"
	"github.com/zenGate-Global/wedding-admin/platform/go/events"
	"github.com/zenGate-Global/wedding-admin/platform/go/lifecycle"
	"github.com/zenGate-Global/wedding-admin/platform/go/pagination"
	"github.com/zenGate-Global/wedding-admin/platform/go/persistence"
	"github.com/zenGate-Global/wedding-admin/platform/go/result"
	"github.com/zenGate-Global/wedding-admin/platform/go/sanitize"
	"github.com/zenGate-Global/wedding-admin/platform/go/scheduling"
	"github.com/zenGate-Global/wedding-admin/platform/go/validation"
)

const (
	StatusDraft     = "draft"
	StatusPublished = "published"

	entityName = "event"
	entityType = "event"
)

// Event is a scheduled wedding event such as the ceremony or the welcome dinner.
type Event struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Slug         string     `json:"slug"`
	Description  *string    `json:"description,omitempty"`
	EventType    string     `json:"eventType"`
	LocationID   *uuid.UUID `json:"locationId,omitempty"`
	StartDate    time.Time  `json:"startDate"`
	EndDate      *time.Time `json:"endDate,omitempty"`
	RSVPRequired bool       `json:"rsvpRequired"`
	RSVPDeadline *time.Time `json:"rsvpDeadline,omitempty"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	DeletedAt    *time.Time `json:"deletedAt,omitempty"`
	DeletedBy    *string    `json:"deletedBy,omitempty"`
}

type CreateInput struct {
	Name         string     `json:"name" validate:"required,max=200"`
	Slug         *string    `json:"slug"`
	Description  *string    `json:"description"`
	EventType    string     `json:"eventType" validate:"required,max=50"`
	LocationID   *uuid.UUID `json:"locationId"`
	StartDate    time.Time  `json:"startDate" validate:"required"`
	EndDate      *time.Time `json:"endDate"`
	RSVPRequired bool       `json:"rsvpRequired"`
	RSVPDeadline *time.Time `json:"rsvpDeadline"`
	Status       *string    `json:"status" validate:"omitempty,oneof=draft published"`
}

// UpdateInput holds optional changes; absent fields keep their current value.
type UpdateInput struct {
	Name         *string    `json:"name" validate:"omitempty,min=1,max=200"`
	Slug         *string    `json:"slug"`
	Description  *string    `json:"description"`
	EventType    *string    `json:"eventType" validate:"omitempty,min=1,max=50"`
	LocationID   *uuid.UUID `json:"locationId"`
	StartDate    *time.Time `json:"startDate"`
	EndDate      *time.Time `json:"endDate"`
	RSVPRequired *bool      `json:"rsvpRequired"`
	RSVPDeadline *time.Time `json:"rsvpDeadline"`
	Status       *string    `json:"status" validate:"omitempty,oneof=draft published"`
}

type ListParams struct {
	EventType     *string
	Status        *string
	LocationID    *uuid.UUID
	StartDateFrom *time.Time
	StartDateTo   *time.Time
	pagination.Params
}

// ConflictQuery asks whether a booking at a location overlaps existing events.
type ConflictQuery struct {
	LocationID     *uuid.UUID
	StartDate      time.Time
	EndDate        *time.Time
	ExcludeEventID *uuid.UUID
}

type ConflictingEvent struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	StartDate time.Time  `json:"startDate"`
	EndDate   *time.Time `json:"endDate,omitempty"`
}

type ConflictResult struct {
	HasConflict       bool               `json:"hasConflict"`
	ConflictingEvents []ConflictingEvent `json:"conflictingEvents"`
}

// Service exposes the events domain operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (Event, error)
	Get(ctx context.Context, id uuid.UUID) (Event, error)
	GetBySlug(ctx context.Context, slug string) (Event, error)
	List(ctx context.Context, params ListParams) (pagination.Page[Event], error)
	Search(ctx context.Context, query string, params pagination.Params) (pagination.Page[Event], error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (Event, error)
	Delete(ctx context.Context, id uuid.UUID, opts lifecycle.DeleteOptions) error
	Restore(ctx context.Context, id uuid.UUID) (Event, error)
	CheckReferences(ctx context.Context, id uuid.UUID) (lifecycle.References, error)
	CheckSchedulingConflicts(ctx context.Context, query ConflictQuery) (ConflictResult, error)
}

type service struct {
	repo      domainrepo.Repository
	publisher events.Publisher
	now       func() time.Time
}

// New builds an events Service. A nil publisher drops domain events.
func New(repo domainrepo.Repository, publisher events.Publisher) Service {
	if repo == nil {
		panic("events repository is required")
	}
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &service{repo: repo, publisher: publisher, now: time.Now}
}

func (s *service) Create(ctx context.Context, input CreateInput) (Event, error) {
	input.Name = sanitize.Text(input.Name)
	input.EventType = sanitize.Text(input.EventType)

	fields := result.FieldErrors{}
	validation.Struct(input, fields)
	checkDates(input.StartDate, input.EndDate, fields)
	if len(fields) > 0 {
		return Event{}, result.Validation(fields)
	}

	if err := s.ensureNoConflict(ctx, ConflictQuery{
		LocationID: input.LocationID,
		StartDate:  input.StartDate,
		EndDate:    input.EndDate,
	}); err != nil {
		return Event{}, err
	}

	slug, err := persistence.ResolveSlug(ctx, s.repo, input.Slug, input.Name, nil)
	if err != nil {
		return Event{}, lifecycle.SlugError(err)
	}

	status := StatusDraft
	if input.Status != nil {
		status = *input.Status
	}

	record, err := s.repo.Create(ctx, uuid.New(), persistence.EventFields{
		Name:         input.Name,
		Slug:         slug,
		Description:  sanitize.RichTextPtr(input.Description),
		EventType:    input.EventType,
		LocationID:   input.LocationID,
		StartDate:    input.StartDate.UTC(),
		EndDate:      utcPtr(input.EndDate),
		RSVPRequired: input.RSVPRequired,
		RSVPDeadline: utcPtr(input.RSVPDeadline),
		Status:       status,
	}, s.now().UTC())
	if err != nil {
		return Event{}, lifecycle.StoreError(err, entityName)
	}
	return mapEvent(record), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (Event, error) {
	record, err := s.repo.Get(ctx, id)
	if err != nil {
		return Event{}, lifecycle.StoreError(err, entityName)
	}
	return mapEvent(record), nil
}

func (s *service) GetBySlug(ctx context.Context, slug string) (Event, error) {
	record, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return Event{}, lifecycle.StoreError(err, entityName)
	}
	return mapEvent(record), nil
}

func (s *service) List(ctx context.Context, params ListParams) (pagination.Page[Event], error) {
	if params.Status != nil && *params.Status != StatusDraft && *params.Status != StatusPublished {
		return pagination.Page[Event]{}, result.InvalidField("status", "status must be one of [draft published]")
	}
	return s.list(ctx, persistence.ListEventsParams{
		EventType:     params.EventType,
		Status:        params.Status,
		LocationID:    params.LocationID,
		StartDateFrom: params.StartDateFrom,
		StartDateTo:   params.StartDateTo,
	}, params.Params)
}

// Search matches query case-insensitively against name and description.
func (s *service) Search(ctx context.Context, query string, params pagination.Params) (pagination.Page[Event], error) {
	return s.list(ctx, persistence.ListEventsParams{Search: &query}, params)
}

func (s *service) list(ctx context.Context, filter persistence.ListEventsParams, page pagination.Params) (pagination.Page[Event], error) {
	page = page.Normalize()
	filter.Page = page.Page
	filter.PageSize = page.PageSize

	res, err := s.repo.List(ctx, filter)
	if err != nil {
		return pagination.Page[Event]{}, lifecycle.StoreError(err, entityName)
	}

	items := make([]Event, 0, len(res.Events))
	for _, record := range res.Events {
		items = append(items, mapEvent(record))
	}
	return pagination.NewPage(items, res.Total, page), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (Event, error) {
	input.Name = sanitize.TextPtr(input.Name)
	input.EventType = sanitize.TextPtr(input.EventType)
	if err := validation.Check(input); err != nil {
		return Event{}, err
	}

	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return Event{}, lifecycle.StoreError(err, entityName)
	}

	next := fieldsFrom(current)
	if input.Name != nil {
		next.Name = *input.Name
	}
	if input.Description != nil {
		next.Description = sanitize.RichTextPtr(input.Description)
	}
	if input.EventType != nil {
		next.EventType = *input.EventType
	}
	if input.LocationID != nil {
		next.LocationID = input.LocationID
	}
	if input.StartDate != nil {
		next.StartDate = input.StartDate.UTC()
	}
	if input.EndDate != nil {
		next.EndDate = utcPtr(input.EndDate)
	}
	if input.RSVPRequired != nil {
		next.RSVPRequired = *input.RSVPRequired
	}
	if input.RSVPDeadline != nil {
		next.RSVPDeadline = utcPtr(input.RSVPDeadline)
	}
	if input.Status != nil {
		next.Status = *input.Status
	}

	fields := result.FieldErrors{}
	checkDates(next.StartDate, next.EndDate, fields)
	if len(fields) > 0 {
		return Event{}, result.Validation(fields)
	}

	if input.LocationID != nil || input.StartDate != nil || input.EndDate != nil {
		if err := s.ensureNoConflict(ctx, ConflictQuery{
			LocationID:     next.LocationID,
			StartDate:      next.StartDate,
			EndDate:        next.EndDate,
			ExcludeEventID: &id,
		}); err != nil {
			return Event{}, err
		}
	}

	if input.Slug != nil {
		slug, err := persistence.ResolveSlug(ctx, s.repo, input.Slug, "", &id)
		if err != nil {
			return Event{}, lifecycle.SlugError(err)
		}
		next.Slug = slug
	}

	record, err := s.repo.Update(ctx, id, next, s.now().UTC())
	if err != nil {
		return Event{}, lifecycle.StoreError(err, entityName)
	}
	return mapEvent(record), nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID, opts lifecycle.DeleteOptions) error {
	now := s.now().UTC()

	var err error
	if opts.Permanent {
		err = s.repo.Delete(ctx, id, now)
	} else {
		err = s.repo.SoftDelete(ctx, id, now, opts.DeletedBy)
	}
	if err != nil {
		return lifecycle.StoreError(err, entityName)
	}

	_ = s.publisher.Publish(ctx, events.New(events.TypeEventDeleted, entityType, id, now, opts.DeletedBy,
		map[string]bool{"permanent": opts.Permanent}))
	return nil
}

func (s *service) Restore(ctx context.Context, id uuid.UUID) (Event, error) {
	record, err := s.repo.Restore(ctx, id)
	if err != nil {
		return Event{}, lifecycle.StoreError(err, entityName)
	}

	_ = s.publisher.Publish(ctx, events.New(events.TypeEventRestored, entityType, id, s.now(), nil, nil))
	return mapEvent(record), nil
}

func (s *service) CheckReferences(ctx context.Context, id uuid.UUID) (lifecycle.References, error) {
	return lifecycle.CountReferences(ctx,
		lifecycle.Counter{Type: "activities", Count: func(ctx context.Context) (int, error) { return s.repo.CountActivities(ctx, id) }},
		lifecycle.Counter{Type: "rsvps", Count: func(ctx context.Context) (int, error) { return s.repo.CountRSVPs(ctx, id) }},
		lifecycle.Counter{Type: "references", Count: func(ctx context.Context) (int, error) { return s.repo.CountReferences(ctx, id) }},
	)
}

// CheckSchedulingConflicts lists active events at the query's location whose dates overlap it.
func (s *service) CheckSchedulingConflicts(ctx context.Context, query ConflictQuery) (ConflictResult, error) {
	if query.LocationID == nil {
		return ConflictResult{ConflictingEvents: []ConflictingEvent{}}, nil
	}

	records, err := s.repo.AtLocation(ctx, *query.LocationID, query.ExcludeEventID)
	if err != nil {
		return ConflictResult{}, lifecycle.StoreError(err, entityName)
	}

	bookings := make([]scheduling.Booking, 0, len(records))
	for _, record := range records {
		bookings = append(bookings, scheduling.Booking{
			ID:         record.ID,
			Name:       record.Name,
			LocationID: record.LocationID,
			Interval:   scheduling.Interval{Start: record.StartDate, End: record.EndDate},
		})
	}

	detected := scheduling.DetectConflicts(scheduling.Query{
		LocationID: query.LocationID,
		Interval:   scheduling.Interval{Start: query.StartDate, End: query.EndDate},
		ExcludeID:  query.ExcludeEventID,
	}, bookings)

	out := ConflictResult{HasConflict: detected.HasConflict, ConflictingEvents: make([]ConflictingEvent, 0, len(detected.ConflictingEvents))}
	for _, b := range detected.ConflictingEvents {
		out.ConflictingEvents = append(out.ConflictingEvents, ConflictingEvent{ID: b.ID, Name: b.Name, StartDate: b.Start, EndDate: b.End})
	}
	return out, nil
}

func (s *service) ensureNoConflict(ctx context.Context, query ConflictQuery) error {
	conflicts, err := s.CheckSchedulingConflicts(ctx, query)
	if err != nil {
		return err
	}
	if conflicts.HasConflict {
		return result.SchedulingConflict("event overlaps another event at the same location", conflicts.ConflictingEvents)
	}
	return nil
}

func checkDates(start time.Time, end *time.Time, fields result.FieldErrors) {
	if end != nil && end.Before(start) {
		fields.Add("endDate", "endDate must not be before startDate")
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

func fieldsFrom(record persistence.EventRecord) persistence.EventFields {
	return persistence.EventFields{
		Name:         record.Name,
		Slug:         record.Slug,
		Description:  record.Description,
		EventType:    record.EventType,
		LocationID:   record.LocationID,
		StartDate:    record.StartDate,
		EndDate:      record.EndDate,
		RSVPRequired: record.RSVPRequired,
		RSVPDeadline: record.RSVPDeadline,
		Status:       record.Status,
	}
}

func mapEvent(record persistence.EventRecord) Event {
	return Event{
		ID:           record.ID,
		Name:         record.Name,
		Slug:         record.Slug,
		Description:  record.Description,
		EventType:    record.EventType,
		LocationID:   record.LocationID,
		StartDate:    record.StartDate,
		EndDate:      record.EndDate,
		RSVPRequired: record.RSVPRequired,
		RSVPDeadline: record.RSVPDeadline,
		Status:       record.Status,
		CreatedAt:    record.CreatedAt,
		UpdatedAt:    record.UpdatedAt,
		DeletedAt:    record.DeletedAt,
		DeletedBy:    record.DeletedBy,
	}
}
