package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/zenGate-Global/wedding-admin/platform/go/lifecycle"
	"github.com/zenGate-Global/wedding-admin/platform/go/persistence"
	"github.com/zenGate-Global/wedding-admin/platform/go/result"
)

const (
	DefaultAlertThreshold = 0.9
	criticalUtilization   = 0.95

	AlertWarning  = "warning"
	AlertCritical = "critical"
	AlertFull     = "full"
)

// ActivityCapacity is the raw headcount of an activity. AvailableSpots goes negative when the activity is overbooked.
type ActivityCapacity struct {
	ActivityID     uuid.UUID `json:"activityId"`
	Capacity       *int      `json:"capacity"`
	AttendingCount int       `json:"attendingCount"`
	AvailableSpots *int      `json:"availableSpots"`
}

type CapacityAvailability struct {
	Available bool   `json:"available"`
	Message   string `json:"message"`
}

// CapacityExceededDetails is attached to CAPACITY_EXCEEDED errors.
type CapacityExceededDetails struct {
	Capacity         int `json:"capacity"`
	CurrentAttendees int `json:"currentAttendees"`
	RequestedGuests  int `json:"requestedGuests"`
	AvailableSpots   int `json:"availableSpots"`
}

type CapacityAlert struct {
	ActivityID            uuid.UUID `json:"activityId"`
	ActivityName          string    `json:"activityName"`
	Capacity              int       `json:"capacity"`
	AttendingCount        int       `json:"attendingCount"`
	UtilizationPercentage int       `json:"utilizationPercentage"`
	AlertLevel            string    `json:"alertLevel"`
	Message               string    `json:"message"`
}

func (s *service) ActivityCapacity(ctx context.Context, activityID uuid.UUID) (ActivityCapacity, error) {
	usage, err := s.usage(ctx, activityID)
	if err != nil {
		return ActivityCapacity{}, err
	}

	out := ActivityCapacity{ActivityID: usage.ActivityID, Capacity: usage.Capacity, AttendingCount: usage.Attending}
	if usage.Capacity != nil {
		available := *usage.Capacity - usage.Attending
		out.AvailableSpots = &available
	}
	return out, nil
}

func (s *service) CheckCapacityAvailable(ctx context.Context, activityID uuid.UUID, additionalGuests int) (CapacityAvailability, error) {
	if additionalGuests < 1 {
		return CapacityAvailability{}, result.InvalidField("additionalGuests", "additionalGuests must be at least 1")
	}

	capacity, err := s.ActivityCapacity(ctx, activityID)
	if err != nil {
		return CapacityAvailability{}, err
	}
	if capacity.Capacity == nil {
		return CapacityAvailability{Available: true, Message: "No capacity limit set for this activity"}, nil
	}

	available := *capacity.AvailableSpots
	if available >= additionalGuests {
		return CapacityAvailability{
			Available: true,
			Message:   fmt.Sprintf("Capacity available: %d spots remaining", available),
		}, nil
	}
	return CapacityAvailability{}, result.CapacityExceeded(
		fmt.Sprintf("Capacity exceeded: %d/%d attending, cannot add %d more guest(s)",
			capacity.AttendingCount, *capacity.Capacity, additionalGuests),
		CapacityExceededDetails{
			Capacity:         *capacity.Capacity,
			CurrentAttendees: capacity.AttendingCount,
			RequestedGuests:  additionalGuests,
			AvailableSpots:   available,
		},
	)
}

// EnforceCapacityLimit fails when guestCount more attendees would overflow the activity.
// An attending existingRSVPID has its own guests subtracted first.
func (s *service) EnforceCapacityLimit(ctx context.Context, activityID uuid.UUID, guestCount int, existingRSVPID *uuid.UUID) error {
	current := 0
	if existingRSVPID != nil {
		existing, err := s.repo.Get(ctx, *existingRSVPID)
		switch {
		case err == nil:
			current = attendingGuests(existing)
		case !errors.Is(err, persistence.ErrNotFound):
			return lifecycle.StoreError(err, entityName)
		}
	}
	return s.enforce(ctx, activityID, guestCount, current)
}

func (s *service) enforce(ctx context.Context, activityID uuid.UUID, guestCount, current int) error {
	usage, err := s.usage(ctx, activityID)
	if err != nil {
		return err
	}
	if usage.Capacity == nil {
		return nil
	}

	capacity := *usage.Capacity
	newTotal := usage.Attending - current + guestCount
	if newTotal <= capacity {
		return nil
	}
	return result.CapacityExceeded(
		fmt.Sprintf("Activity capacity exceeded: %d/%d", newTotal, capacity),
		CapacityExceededDetails{
			Capacity:         capacity,
			CurrentAttendees: usage.Attending,
			RequestedGuests:  guestCount,
			AvailableSpots:   capacity - usage.Attending + current,
		},
	)
}

// CapacityAlerts lists published activities whose utilization reaches threshold (0.9 when threshold <= 0).
func (s *service) CapacityAlerts(ctx context.Context, threshold float64) ([]CapacityAlert, error) {
	if threshold <= 0 {
		threshold = DefaultAlertThreshold
	}

	usage, err := s.repo.ActivityUsage(ctx, persistence.UsageFilter{PublishedOnly: true, WithCapacityOnly: true})
	if err != nil {
		return nil, lifecycle.StoreError(err, "activity")
	}

	alerts := make([]CapacityAlert, 0)
	for _, u := range usage {
		if u.Capacity == nil || *u.Capacity <= 0 {
			continue
		}
		alert, ok := evaluateAlert(u, threshold)
		if ok {
			alerts = append(alerts, alert)
		}
	}
	return alerts, nil
}

func evaluateAlert(u persistence.ActivityUsage, threshold float64) (CapacityAlert, bool) {
	capacity := *u.Capacity
	utilization := float64(u.Attending) / float64(capacity)
	if utilization < threshold {
		return CapacityAlert{}, false
	}

	percent := int(math.Round(utilization * 100))
	alert := CapacityAlert{
		ActivityID:            u.ActivityID,
		ActivityName:          u.Name,
		Capacity:              capacity,
		AttendingCount:        u.Attending,
		UtilizationPercentage: percent,
	}

	switch {
	case u.Attending >= capacity:
		alert.AlertLevel = AlertFull
		alert.Message = fmt.Sprintf("Activity \"%s\" is at full capacity (%d/%d)", u.Name, u.Attending, capacity)
	case utilization >= criticalUtilization:
		alert.AlertLevel = AlertCritical
		alert.Message = fmt.Sprintf("Activity \"%s\" is critically full (%d/%d, %d%%)", u.Name, u.Attending, capacity, percent)
	default:
		alert.AlertLevel = AlertWarning
		alert.Message = fmt.Sprintf("Activity \"%s\" is approaching capacity (%d/%d, %d%%)", u.Name, u.Attending, capacity, percent)
	}
	return alert, true
}

func (s *service) usage(ctx context.Context, activityID uuid.UUID) (persistence.ActivityUsage, error) {
	usage, err := s.repo.ActivityUsage(ctx, persistence.UsageFilter{ActivityID: &activityID})
	if err != nil {
		return persistence.ActivityUsage{}, lifecycle.StoreError(err, "activity")
	}
	if len(usage) == 0 {
		return persistence.ActivityUsage{}, result.NotFound("activity not found")
	}
	return usage[0], nil
}
