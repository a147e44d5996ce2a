package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	domainrepo "github.com/zenGate-Global/wedding-admin/domains/rsvps/be/repo"
	"github.com/zenGate-Global/wedding-admin/platform/go/cache"
	"github.com/zenGate-Global/wedding-admin/platform/go/events"
	"github.com/zenGate-Global/wedding-admin/platform/go/lifecycle"
	"github.com/zenGate-Global/wedding-admin/platform/go/pagination"
	"github.com/zenGate-Global/wedding-admin/platform/go/persistence"
	"github.com/zenGate-Global/wedding-admin/platform/go/requesttrace"
	"github.com/zenGate-Global/wedding-admin/platform/go/result"
	"github.com/zenGate-Global/wedding-admin/platform/go/sanitize"
	"github.com/zenGate-Global/wedding-admin/platform/go/validation"
)

const (
	StatusPending   = "pending"
	StatusAttending = "attending"
	StatusDeclined  = "declined"
	StatusMaybe     = "maybe"

	entityName = "RSVP"
	entityType = "rsvp"
)

// RSVP is a guest's response to exactly one event or activity.
type RSVP struct {
	ID                  uuid.UUID  `json:"id"`
	GuestID             uuid.UUID  `json:"guestId"`
	EventID             *uuid.UUID `json:"eventId,omitempty"`
	ActivityID          *uuid.UUID `json:"activityId,omitempty"`
	Status              string     `json:"status"`
	GuestCount          int        `json:"guestCount"`
	DietaryNotes        *string    `json:"dietaryNotes,omitempty"`
	SpecialRequirements *string    `json:"specialRequirements,omitempty"`
	Notes               *string    `json:"notes,omitempty"`
	RespondedAt         *time.Time `json:"respondedAt,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

// CreateInput records a response. Status defaults to pending and GuestCount to 1.
type CreateInput struct {
	GuestID             uuid.UUID  `json:"guestId"`
	EventID             *uuid.UUID `json:"eventId"`
	ActivityID          *uuid.UUID `json:"activityId"`
	Status              *string    `json:"status" validate:"omitempty,oneof=pending attending declined maybe"`
	GuestCount          *int       `json:"guestCount" validate:"omitempty,gte=1"`
	DietaryNotes        *string    `json:"dietaryNotes" validate:"omitempty,max=1000"`
	SpecialRequirements *string    `json:"specialRequirements" validate:"omitempty,max=1000"`
	Notes               *string    `json:"notes" validate:"omitempty,max=2000"`
}

type UpdateInput struct {
	Status              *string `json:"status" validate:"omitempty,oneof=pending attending declined maybe"`
	GuestCount          *int    `json:"guestCount" validate:"omitempty,gte=1"`
	DietaryNotes        *string `json:"dietaryNotes" validate:"omitempty,max=1000"`
	SpecialRequirements *string `json:"specialRequirements" validate:"omitempty,max=1000"`
	Notes               *string `json:"notes" validate:"omitempty,max=2000"`
}

type ListParams struct {
	GuestID    *uuid.UUID
	EventID    *uuid.UUID
	ActivityID *uuid.UUID
	Status     *string
	pagination.Params
}

// StatisticsFilter narrows Statistics to one event or activity. Both nil covers every active RSVP.
type StatisticsFilter struct {
	EventID    *uuid.UUID
	ActivityID *uuid.UUID
}

type StatusCounts struct {
	Attending int `json:"attending"`
	Declined  int `json:"declined"`
	Maybe     int `json:"maybe"`
	Pending   int `json:"pending"`
}

// Statistics counts RSVPs per status. TotalGuestCount only includes attending responses.
type Statistics struct {
	TotalRSVPs      int          `json:"totalRsvps"`
	ByStatus        StatusCounts `json:"byStatus"`
	TotalGuestCount int          `json:"totalGuestCount"`
}

// Service exposes the RSVP domain operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (RSVP, error)
	Get(ctx context.Context, id uuid.UUID) (RSVP, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (RSVP, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, params ListParams) (pagination.Page[RSVP], error)
	ByGuest(ctx context.Context, guestID uuid.UUID) ([]RSVP, error)
	ByEvent(ctx context.Context, eventID uuid.UUID) ([]RSVP, error)
	ByActivity(ctx context.Context, activityID uuid.UUID) ([]RSVP, error)
	Statistics(ctx context.Context, filter StatisticsFilter) (Statistics, error)
	ActivityCapacity(ctx context.Context, activityID uuid.UUID) (ActivityCapacity, error)
	CheckCapacityAvailable(ctx context.Context, activityID uuid.UUID, additionalGuests int) (CapacityAvailability, error)
	EnforceCapacityLimit(ctx context.Context, activityID uuid.UUID, guestCount int, existingRSVPID *uuid.UUID) error
	CapacityAlerts(ctx context.Context, threshold float64) ([]CapacityAlert, error)
}

type service struct {
	repo      domainrepo.Repository
	publisher events.Publisher
	reports   cache.Cache
	now       func() time.Time
}

// New builds an RSVP Service. Writes drop the cached capacity report from reports.
func New(repo domainrepo.Repository, publisher events.Publisher, reports cache.Cache) Service {
	if repo == nil {
		panic("rsvps repository is required")
	}
	if publisher == nil {
		publisher = events.Noop{}
	}
	if reports == nil {
		reports = cache.Noop{}
	}
	return &service{repo: repo, publisher: publisher, reports: reports, now: time.Now}
}

func (s *service) Create(ctx context.Context, input CreateInput) (RSVP, error) {
	fields := result.FieldErrors{}
	validation.Struct(input, fields)
	if input.GuestID == uuid.Nil {
		fields.Add("guestId", "guestId is required")
	}
	if (input.EventID == nil) == (input.ActivityID == nil) {
		fields.Add("eventId", "exactly one of eventId or activityId is required")
	}
	if len(fields) > 0 {
		return RSVP{}, result.Validation(fields)
	}

	next := persistence.RSVPFields{
		GuestID:             input.GuestID,
		EventID:             input.EventID,
		ActivityID:          input.ActivityID,
		Status:              StatusPending,
		GuestCount:          1,
		DietaryNotes:        sanitize.TextPtr(input.DietaryNotes),
		SpecialRequirements: sanitize.TextPtr(input.SpecialRequirements),
		Notes:               sanitize.TextPtr(input.Notes),
	}
	if input.Status != nil {
		next.Status = *input.Status
	}
	if input.GuestCount != nil {
		next.GuestCount = *input.GuestCount
	}

	if next.Status == StatusAttending && next.ActivityID != nil {
		if err := s.enforce(ctx, *next.ActivityID, next.GuestCount, 0); err != nil {
			return RSVP{}, err
		}
	}

	now := s.now().UTC()
	if next.Status != StatusPending {
		next.RespondedAt = &now
	}

	record, err := s.repo.Create(ctx, uuid.New(), next, now)
	if err != nil {
		return RSVP{}, writeError(err)
	}

	s.afterWrite(ctx, events.TypeRSVPCreated, record, now)
	return mapRSVP(record), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (RSVP, error) {
	record, err := s.repo.Get(ctx, id)
	if err != nil {
		return RSVP{}, lifecycle.StoreError(err, entityName)
	}
	return mapRSVP(record), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (RSVP, error) {
	if err := validation.Check(input); err != nil {
		return RSVP{}, err
	}

	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return RSVP{}, lifecycle.StoreError(err, entityName)
	}

	now := s.now().UTC()
	next := fieldsFrom(current)
	if input.Status != nil {
		next.Status = *input.Status
		if next.Status != StatusPending && next.Status != current.Status {
			next.RespondedAt = &now
		}
	}
	if input.GuestCount != nil {
		next.GuestCount = *input.GuestCount
	}
	if input.DietaryNotes != nil {
		next.DietaryNotes = sanitize.TextPtr(input.DietaryNotes)
	}
	if input.SpecialRequirements != nil {
		next.SpecialRequirements = sanitize.TextPtr(input.SpecialRequirements)
	}
	if input.Notes != nil {
		next.Notes = sanitize.TextPtr(input.Notes)
	}

	if next.Status == StatusAttending && next.ActivityID != nil {
		if err := s.enforce(ctx, *next.ActivityID, next.GuestCount, attendingGuests(current)); err != nil {
			return RSVP{}, err
		}
	}

	record, err := s.repo.Update(ctx, id, next, now)
	if err != nil {
		return RSVP{}, writeError(err)
	}

	s.afterWrite(ctx, events.TypeRSVPUpdated, record, now)
	return mapRSVP(record), nil
}

// Delete removes the RSVP permanently.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return lifecycle.StoreError(err, entityName)
	}

	s.invalidateReports(ctx)
	_ = s.publisher.Publish(ctx, events.New(events.TypeRSVPDeleted, entityType, id, s.now(), requesttrace.ActorFrom(ctx), nil))
	return nil
}

func (s *service) List(ctx context.Context, params ListParams) (pagination.Page[RSVP], error) {
	if params.Status != nil {
		if err := checkStatus(*params.Status); err != nil {
			return pagination.Page[RSVP]{}, err
		}
	}

	page := params.Params.Normalize()
	res, err := s.repo.List(ctx, persistence.RSVPFilter{
		GuestID:    params.GuestID,
		EventID:    params.EventID,
		ActivityID: params.ActivityID,
		Status:     params.Status,
	}, page.Page, page.PageSize)
	if err != nil {
		return pagination.Page[RSVP]{}, lifecycle.StoreError(err, entityName)
	}
	return pagination.NewPage(mapRSVPs(res.RSVPs), res.Total, page), nil
}

func (s *service) ByGuest(ctx context.Context, guestID uuid.UUID) ([]RSVP, error) {
	return s.all(ctx, persistence.RSVPFilter{GuestID: &guestID})
}

func (s *service) ByEvent(ctx context.Context, eventID uuid.UUID) ([]RSVP, error) {
	return s.all(ctx, persistence.RSVPFilter{EventID: &eventID})
}

func (s *service) ByActivity(ctx context.Context, activityID uuid.UUID) ([]RSVP, error) {
	return s.all(ctx, persistence.RSVPFilter{ActivityID: &activityID})
}

func (s *service) all(ctx context.Context, filter persistence.RSVPFilter) ([]RSVP, error) {
	res, err := s.repo.List(ctx, filter, 1, 0)
	if err != nil {
		return nil, lifecycle.StoreError(err, entityName)
	}
	return mapRSVPs(res.RSVPs), nil
}

func (s *service) Statistics(ctx context.Context, filter StatisticsFilter) (Statistics, error) {
	stats, err := s.repo.Statistics(ctx, persistence.RSVPFilter{EventID: filter.EventID, ActivityID: filter.ActivityID})
	if err != nil {
		return Statistics{}, lifecycle.StoreError(err, entityName)
	}
	return Statistics{
		TotalRSVPs: stats.Total,
		ByStatus: StatusCounts{
			Attending: stats.ByStatus[StatusAttending],
			Declined:  stats.ByStatus[StatusDeclined],
			Maybe:     stats.ByStatus[StatusMaybe],
			Pending:   stats.ByStatus[StatusPending],
		},
		TotalGuestCount: stats.AttendingGuests,
	}, nil
}

func (s *service) afterWrite(ctx context.Context, eventType string, record persistence.RSVPRecord, at time.Time) {
	s.invalidateReports(ctx)
	_ = s.publisher.Publish(ctx, events.New(eventType, entityType, record.ID, at, requesttrace.ActorFrom(ctx), map[string]any{
		"guestId":    record.GuestID,
		"eventId":    record.EventID,
		"activityId": record.ActivityID,
		"status":     record.Status,
		"guestCount": record.GuestCount,
	}))
}

func (s *service) invalidateReports(ctx context.Context) {
	_ = s.reports.Delete(ctx, cache.CapacityReportKey)
}

func writeError(err error) error {
	if errors.Is(err, persistence.ErrDuplicateEntry) {
		return result.Duplicate("RSVP already exists for this guest and event/activity", err)
	}
	return lifecycle.StoreError(err, entityName)
}

func checkStatus(status string) error {
	switch status {
	case StatusPending, StatusAttending, StatusDeclined, StatusMaybe:
		return nil
	}
	return result.InvalidField("status", "status must be one of [pending attending declined maybe]")
}

func attendingGuests(record persistence.RSVPRecord) int {
	if record.Status != StatusAttending {
		return 0
	}
	if record.GuestCount < 1 {
		return 1
	}
	return record.GuestCount
}

func fieldsFrom(record persistence.RSVPRecord) persistence.RSVPFields {
	return persistence.RSVPFields{
		GuestID:             record.GuestID,
		EventID:             record.EventID,
		ActivityID:          record.ActivityID,
		Status:              record.Status,
		GuestCount:          record.GuestCount,
		DietaryNotes:        record.DietaryNotes,
		SpecialRequirements: record.SpecialRequirements,
		Notes:               record.Notes,
		RespondedAt:         record.RespondedAt,
	}
}

func mapRSVP(record persistence.RSVPRecord) RSVP {
	return RSVP{
		ID:                  record.ID,
		GuestID:             record.GuestID,
		EventID:             record.EventID,
		ActivityID:          record.ActivityID,
		Status:              record.Status,
		GuestCount:          record.GuestCount,
		DietaryNotes:        record.DietaryNotes,
		SpecialRequirements: record.SpecialRequirements,
		Notes:               record.Notes,
		RespondedAt:         record.RespondedAt,
		CreatedAt:           record.CreatedAt,
		UpdatedAt:           record.UpdatedAt,
	}
}

func mapRSVPs(records []persistence.RSVPRecord) []RSVP {
	out := make([]RSVP, 0, len(records))
	for _, record := range records {
		out = append(out, mapRSVP(record))
	}
	return out
}
