package service

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	domainrepo "github.com/zenGate-Global/wedding-admin/domains/activities/be/repo"
	"github.com/zenGate-Global/wedding-admin/platform/go/cache"
	"github.com/zenGate-Global/wedding-admin/platform/go/events"
	"github.com/zenGate-Global/wedding-admin/platform/go/lifecycle"
	"github.com/zenGate-Global/wedding-admin/platform/go/pagination"
	"github.com/zenGate-Global/wedding-admin/platform/go/persistence"
	"github.com/zenGate-Global/wedding-admin/platform/go/result"
	"github.com/zenGate-Global/wedding-admin/platform/go/sanitize"
	"github.com/zenGate-Global/wedding-admin/platform/go/validation"
)

const (
	StatusDraft     = "draft"
	StatusPublished = "published"

	// EventFilterNone selects activities that are not attached to any event.
	EventFilterNone = "none"

	nearCapacityPercent = 90.0
	atCapacityPercent   = 100.0

	entityName = "activity"
	entityType = "activity"
)

// Activity is a bookable item, either part of an event or independent.
type Activity struct {
	ID             uuid.UUID  `json:"id"`
	EventID        *uuid.UUID `json:"eventId,omitempty"`
	Name           string     `json:"name"`
	Slug           string     `json:"slug"`
	Description    *string    `json:"description,omitempty"`
	ActivityType   string     `json:"activityType"`
	LocationID     *uuid.UUID `json:"locationId,omitempty"`
	StartTime      time.Time  `json:"startTime"`
	EndTime        *time.Time `json:"endTime,omitempty"`
	Capacity       *int       `json:"capacity,omitempty"`
	CostPerPerson  *float64   `json:"costPerPerson,omitempty"`
	HostSubsidy    *float64   `json:"hostSubsidy,omitempty"`
	AdultsOnly     bool       `json:"adultsOnly"`
	PlusOneAllowed bool       `json:"plusOneAllowed"`
	Status         string     `json:"status"`
	DisplayOrder   int        `json:"displayOrder"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	DeletedAt      *time.Time `json:"deletedAt,omitempty"`
	DeletedBy      *string    `json:"deletedBy,omitempty"`
}

type CreateInput struct {
	EventID        *uuid.UUID `json:"eventId"`
	Name           string     `json:"name" validate:"required,max=200"`
	Slug           *string    `json:"slug"`
	Description    *string    `json:"description"`
	ActivityType   string     `json:"activityType" validate:"required,max=50"`
	LocationID     *uuid.UUID `json:"locationId"`
	StartTime      time.Time  `json:"startTime" validate:"required"`
	EndTime        *time.Time `json:"endTime"`
	Capacity       *int       `json:"capacity" validate:"omitempty,gt=0"`
	CostPerPerson  *float64   `json:"costPerPerson" validate:"omitempty,gte=0"`
	HostSubsidy    *float64   `json:"hostSubsidy" validate:"omitempty,gte=0"`
	AdultsOnly     bool       `json:"adultsOnly"`
	PlusOneAllowed bool       `json:"plusOneAllowed"`
	Status         *string    `json:"status" validate:"omitempty,oneof=draft published"`
	DisplayOrder   *int       `json:"displayOrder" validate:"omitempty,gte=0"`
}

// UpdateInput holds optional changes; absent fields keep their current value.
type UpdateInput struct {
	EventID        *uuid.UUID `json:"eventId"`
	Name           *string    `json:"name" validate:"omitempty,min=1,max=200"`
	Slug           *string    `json:"slug"`
	Description    *string    `json:"description"`
	ActivityType   *string    `json:"activityType" validate:"omitempty,min=1,max=50"`
	LocationID     *uuid.UUID `json:"locationId"`
	StartTime      *time.Time `json:"startTime"`
	EndTime        *time.Time `json:"endTime"`
	Capacity       *int       `json:"capacity" validate:"omitempty,gt=0"`
	CostPerPerson  *float64   `json:"costPerPerson" validate:"omitempty,gte=0"`
	HostSubsidy    *float64   `json:"hostSubsidy" validate:"omitempty,gte=0"`
	AdultsOnly     *bool      `json:"adultsOnly"`
	PlusOneAllowed *bool      `json:"plusOneAllowed"`
	Status         *string    `json:"status" validate:"omitempty,oneof=draft published"`
	DisplayOrder   *int       `json:"displayOrder" validate:"omitempty,gte=0"`
}

// ListParams filters the activity list. EventID is a UUID or EventFilterNone.
type ListParams struct {
	EventID       *string
	ActivityType  *string
	Status        *string
	LocationID    *uuid.UUID
	AdultsOnly    *bool
	StartTimeFrom *time.Time
	StartTimeTo   *time.Time
	pagination.Params
}

// CapacityInfo describes how full an activity is. Unlimited activities have no available spots and 0% use.
type CapacityInfo struct {
	ActivityID            uuid.UUID `json:"activityId"`
	ActivityName          string    `json:"activityName"`
	Capacity              *int      `json:"capacity"`
	CurrentAttendees      int       `json:"currentAttendees"`
	AvailableSpots        *int      `json:"availableSpots"`
	UtilizationPercentage float64   `json:"utilizationPercentage"`
	IsNearCapacity        bool      `json:"isNearCapacity"`
	IsAtCapacity          bool      `json:"isAtCapacity"`
}

// Service exposes the activities domain operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (Activity, error)
	Get(ctx context.Context, id uuid.UUID) (Activity, error)
	GetBySlug(ctx context.Context, slug string) (Activity, error)
	List(ctx context.Context, params ListParams) (pagination.Page[Activity], error)
	Search(ctx context.Context, query string, params pagination.Params) (pagination.Page[Activity], error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (Activity, error)
	Delete(ctx context.Context, id uuid.UUID, opts lifecycle.DeleteOptions) error
	Restore(ctx context.Context, id uuid.UUID) (Activity, error)
	CheckReferences(ctx context.Context, id uuid.UUID) (lifecycle.References, error)
	CapacityInfo(ctx context.Context, id uuid.UUID) (CapacityInfo, error)
	NetCost(ctx context.Context, id uuid.UUID) (float64, error)
}

type service struct {
	repo      domainrepo.Repository
	publisher events.Publisher
	reports   cache.Cache
	now       func() time.Time
}

// New builds an activities Service. Writes drop the cached capacity report from reports.
func New(repo domainrepo.Repository, publisher events.Publisher, reports cache.Cache) Service {
	if repo == nil {
		panic("activities repository is required")
	}
	if publisher == nil {
		publisher = events.Noop{}
	}
	if reports == nil {
		reports = cache.Noop{}
	}
	return &service{repo: repo, publisher: publisher, reports: reports, now: time.Now}
}

func (s *service) Create(ctx context.Context, input CreateInput) (Activity, error) {
	input.Name = sanitize.Text(input.Name)
	input.ActivityType = sanitize.Text(input.ActivityType)

	fields := result.FieldErrors{}
	validation.Struct(input, fields)
	checkTimes(input.StartTime, input.EndTime, fields)
	if len(fields) > 0 {
		return Activity{}, result.Validation(fields)
	}

	slug, err := persistence.ResolveSlug(ctx, s.repo, input.Slug, input.Name, nil)
	if err != nil {
		return Activity{}, lifecycle.SlugError(err)
	}

	status := StatusDraft
	if input.Status != nil {
		status = *input.Status
	}
	displayOrder := 0
	if input.DisplayOrder != nil {
		displayOrder = *input.DisplayOrder
	}

	record, err := s.repo.Create(ctx, uuid.New(), persistence.ActivityFields{
		EventID:        input.EventID,
		Name:           input.Name,
		Slug:           slug,
		Description:    sanitize.RichTextPtr(input.Description),
		ActivityType:   input.ActivityType,
		LocationID:     input.LocationID,
		StartTime:      input.StartTime.UTC(),
		EndTime:        utcPtr(input.EndTime),
		Capacity:       input.Capacity,
		CostPerPerson:  input.CostPerPerson,
		HostSubsidy:    input.HostSubsidy,
		AdultsOnly:     input.AdultsOnly,
		PlusOneAllowed: input.PlusOneAllowed,
		Status:         status,
		DisplayOrder:   displayOrder,
	}, s.now().UTC())
	if err != nil {
		return Activity{}, lifecycle.StoreError(err, entityName)
	}

	s.invalidateReports(ctx)
	return mapActivity(record), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (Activity, error) {
	record, err := s.repo.Get(ctx, id)
	if err != nil {
		return Activity{}, lifecycle.StoreError(err, entityName)
	}
	return mapActivity(record), nil
}

func (s *service) GetBySlug(ctx context.Context, slug string) (Activity, error) {
	record, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return Activity{}, lifecycle.StoreError(err, entityName)
	}
	return mapActivity(record), nil
}

func (s *service) List(ctx context.Context, params ListParams) (pagination.Page[Activity], error) {
	filter := persistence.ListActivitiesParams{
		ActivityType:  params.ActivityType,
		Status:        params.Status,
		LocationID:    params.LocationID,
		AdultsOnly:    params.AdultsOnly,
		StartTimeFrom: params.StartTimeFrom,
		StartTimeTo:   params.StartTimeTo,
	}

	fields := result.FieldErrors{}
	if params.EventID != nil {
		raw := strings.TrimSpace(*params.EventID)
		if raw == EventFilterNone {
			filter.IndependentOnly = true
		} else if id, err := uuid.Parse(raw); err == nil {
			filter.EventID = &id
		} else {
			fields.Add("eventId", `eventId must be a valid UUID or "none"`)
		}
	}
	if params.Status != nil && *params.Status != StatusDraft && *params.Status != StatusPublished {
		fields.Add("status", "status must be one of [draft published]")
	}
	if len(fields) > 0 {
		return pagination.Page[Activity]{}, result.Validation(fields)
	}

	return s.list(ctx, filter, params.Params)
}

// Search matches query case-insensitively against name and description.
func (s *service) Search(ctx context.Context, query string, params pagination.Params) (pagination.Page[Activity], error) {
	return s.list(ctx, persistence.ListActivitiesParams{Search: &query}, params)
}

func (s *service) list(ctx context.Context, filter persistence.ListActivitiesParams, page pagination.Params) (pagination.Page[Activity], error) {
	page = page.Normalize()
	filter.Page = page.Page
	filter.PageSize = page.PageSize

	res, err := s.repo.List(ctx, filter)
	if err != nil {
		return pagination.Page[Activity]{}, lifecycle.StoreError(err, entityName)
	}

	items := make([]Activity, 0, len(res.Activities))
	for _, record := range res.Activities {
		items = append(items, mapActivity(record))
	}
	return pagination.NewPage(items, res.Total, page), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (Activity, error) {
	input.Name = sanitize.TextPtr(input.Name)
	input.ActivityType = sanitize.TextPtr(input.ActivityType)
	if err := validation.Check(input); err != nil {
		return Activity{}, err
	}

	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return Activity{}, lifecycle.StoreError(err, entityName)
	}

	next := fieldsFrom(current)
	if input.EventID != nil {
		next.EventID = input.EventID
	}
	if input.Name != nil {
		next.Name = *input.Name
	}
	if input.Description != nil {
		next.Description = sanitize.RichTextPtr(input.Description)
	}
	if input.ActivityType != nil {
		next.ActivityType = *input.ActivityType
	}
	if input.LocationID != nil {
		next.LocationID = input.LocationID
	}
	if input.StartTime != nil {
		next.StartTime = input.StartTime.UTC()
	}
	if input.EndTime != nil {
		next.EndTime = utcPtr(input.EndTime)
	}
	if input.Capacity != nil {
		next.Capacity = input.Capacity
	}
	if input.CostPerPerson != nil {
		next.CostPerPerson = input.CostPerPerson
	}
	if input.HostSubsidy != nil {
		next.HostSubsidy = input.HostSubsidy
	}
	if input.AdultsOnly != nil {
		next.AdultsOnly = *input.AdultsOnly
	}
	if input.PlusOneAllowed != nil {
		next.PlusOneAllowed = *input.PlusOneAllowed
	}
	if input.Status != nil {
		next.Status = *input.Status
	}
	if input.DisplayOrder != nil {
		next.DisplayOrder = *input.DisplayOrder
	}

	fields := result.FieldErrors{}
	checkTimes(next.StartTime, next.EndTime, fields)
	if len(fields) > 0 {
		return Activity{}, result.Validation(fields)
	}

	if input.Slug != nil {
		slug, err := persistence.ResolveSlug(ctx, s.repo, input.Slug, "", &id)
		if err != nil {
			return Activity{}, lifecycle.SlugError(err)
		}
		next.Slug = slug
	}

	record, err := s.repo.Update(ctx, id, next, s.now().UTC())
	if err != nil {
		return Activity{}, lifecycle.StoreError(err, entityName)
	}

	s.invalidateReports(ctx)
	return mapActivity(record), nil
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

	s.invalidateReports(ctx)
	_ = s.publisher.Publish(ctx, events.New(events.TypeActivityDeleted, entityType, id, now, opts.DeletedBy,
		map[string]bool{"permanent": opts.Permanent}))
	return nil
}

func (s *service) Restore(ctx context.Context, id uuid.UUID) (Activity, error) {
	record, err := s.repo.Restore(ctx, id)
	if err != nil {
		return Activity{}, lifecycle.StoreError(err, entityName)
	}

	s.invalidateReports(ctx)
	_ = s.publisher.Publish(ctx, events.New(events.TypeActivityRestored, entityType, id, s.now(), nil, nil))
	return mapActivity(record), nil
}

func (s *service) CheckReferences(ctx context.Context, id uuid.UUID) (lifecycle.References, error) {
	return lifecycle.CountReferences(ctx,
		lifecycle.Counter{Type: "rsvps", Count: func(ctx context.Context) (int, error) { return s.repo.CountRSVPs(ctx, id) }},
		lifecycle.Counter{Type: "references", Count: func(ctx context.Context) (int, error) { return s.repo.CountReferences(ctx, id) }},
	)
}

func (s *service) CapacityInfo(ctx context.Context, id uuid.UUID) (CapacityInfo, error) {
	usage, err := s.repo.Usage(ctx, persistence.UsageFilter{ActivityID: &id})
	if err != nil {
		return CapacityInfo{}, lifecycle.StoreError(err, entityName)
	}
	if len(usage) == 0 {
		return CapacityInfo{}, result.NotFound("activity not found")
	}

	u := usage[0]
	info := CapacityInfo{
		ActivityID:       u.ActivityID,
		ActivityName:     u.Name,
		Capacity:         u.Capacity,
		CurrentAttendees: u.Attending,
	}
	if u.Capacity == nil || *u.Capacity <= 0 {
		return info, nil
	}

	available := *u.Capacity - u.Attending
	if available < 0 {
		available = 0
	}
	info.AvailableSpots = &available
	info.UtilizationPercentage = float64(u.Attending) / float64(*u.Capacity) * 100
	info.IsNearCapacity = info.UtilizationPercentage >= nearCapacityPercent
	info.IsAtCapacity = info.UtilizationPercentage >= atCapacityPercent
	return info, nil
}

// NetCost is the per-person price after the host subsidy, never below zero.
func (s *service) NetCost(ctx context.Context, id uuid.UUID) (float64, error) {
	record, err := s.repo.Get(ctx, id)
	if err != nil {
		return 0, lifecycle.StoreError(err, entityName)
	}
	return math.Max(0, deref(record.CostPerPerson)-deref(record.HostSubsidy)), nil
}

func (s *service) invalidateReports(ctx context.Context) {
	_ = s.reports.Delete(ctx, cache.CapacityReportKey)
}

func checkTimes(start time.Time, end *time.Time, fields result.FieldErrors) {
	if end != nil && end.Before(start) {
		fields.Add("endTime", "endTime must not be before startTime")
	}
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

func fieldsFrom(record persistence.ActivityRecord) persistence.ActivityFields {
	return persistence.ActivityFields{
		EventID:        record.EventID,
		Name:           record.Name,
		Slug:           record.Slug,
		Description:    record.Description,
		ActivityType:   record.ActivityType,
		LocationID:     record.LocationID,
		StartTime:      record.StartTime,
		EndTime:        record.EndTime,
		Capacity:       record.Capacity,
		CostPerPerson:  record.CostPerPerson,
		HostSubsidy:    record.HostSubsidy,
		AdultsOnly:     record.AdultsOnly,
		PlusOneAllowed: record.PlusOneAllowed,
		Status:         record.Status,
		DisplayOrder:   record.DisplayOrder,
	}
}

func mapActivity(record persistence.ActivityRecord) Activity {
	return Activity{
		ID:             record.ID,
		EventID:        record.EventID,
		Name:           record.Name,
		Slug:           record.Slug,
		Description:    record.Description,
		ActivityType:   record.ActivityType,
		LocationID:     record.LocationID,
		StartTime:      record.StartTime,
		EndTime:        record.EndTime,
		Capacity:       record.Capacity,
		CostPerPerson:  record.CostPerPerson,
		HostSubsidy:    record.HostSubsidy,
		AdultsOnly:     record.AdultsOnly,
		PlusOneAllowed: record.PlusOneAllowed,
		Status:         record.Status,
		DisplayOrder:   record.DisplayOrder,
		CreatedAt:      record.CreatedAt,
		UpdatedAt:      record.UpdatedAt,
		DeletedAt:      record.DeletedAt,
		DeletedBy:      record.DeletedBy,
	}
}
