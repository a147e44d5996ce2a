package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"

	domainrepo "github.com/zenGate-Global/wedding-admin/domains/reports/be/repo"
	"github.com/zenGate-Global/wedding-admin/platform/go/cache"
	"github.com/zenGate-Global/wedding-admin/platform/go/lifecycle"
	"github.com/zenGate-Global/wedding-admin/platform/go/persistence"
	"github.com/zenGate-Global/wedding-admin/platform/go/storage"
)

const (
	StatusAvailable    = "available"
	StatusNearCapacity = "near_capacity"
	StatusAtCapacity   = "at_capacity"
	StatusUnlimited    = "unlimited"

	nearCapacityRate = 90.0
	atCapacityRate   = 100.0

	DefaultReportTTL = 5 * time.Minute
)

// ActivityCapacityRow is one line of the capacity report. UtilizationRate is a percentage rounded to 2 decimals.
type ActivityCapacityRow struct {
	ActivityID       uuid.UUID `json:"activityId"`
	ActivityName     string    `json:"activityName"`
	Capacity         *int      `json:"capacity"`
	CurrentAttendees int       `json:"currentAttendees"`
	AvailableSpots   *int      `json:"availableSpots"`
	UtilizationRate  float64   `json:"utilizationRate"`
	Status           string    `json:"status"`
}

type CapacitySummary struct {
	TotalActivities        int `json:"totalActivities"`
	ActivitiesNearCapacity int `json:"activitiesNearCapacity"`
	ActivitiesAtCapacity   int `json:"activitiesAtCapacity"`
}

type CapacityReport struct {
	Activities  []ActivityCapacityRow `json:"activities"`
	Summary     CapacitySummary       `json:"summary"`
	GeneratedAt time.Time             `json:"generatedAt"`
}

// Service builds reports and exports.
type Service interface {
	CapacityReport(ctx context.Context) (CapacityReport, error)
	ExportRSVPs(ctx context.Context, filter ExportFilter) (Export, error)
}

type service struct {
	repo    domainrepo.Repository
	reports cache.Cache
	archive storage.Archive
	ttl     time.Duration
	now     func() time.Time
}

// New builds a reports Service. A nil archive disables export archiving; ttl <= 0 uses DefaultReportTTL.
func New(repo domainrepo.Repository, reports cache.Cache, archive storage.Archive, ttl time.Duration) Service {
	if repo == nil {
		panic("reports repository is required")
	}
	if reports == nil {
		reports = cache.Noop{}
	}
	if ttl <= 0 {
		ttl = DefaultReportTTL
	}
	return &service{repo: repo, reports: reports, archive: archive, ttl: ttl, now: time.Now}
}

// CapacityReport serves the cached report when present. Cache failures fall back to a fresh computation.
func (s *service) CapacityReport(ctx context.Context) (CapacityReport, error) {
	var cached CapacityReport
	if err := s.reports.GetJSON(ctx, cache.CapacityReportKey, &cached); err == nil {
		return cached, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		_ = s.reports.Delete(ctx, cache.CapacityReportKey)
	}

	usage, err := s.repo.ActivityUsage(ctx, persistence.UsageFilter{})
	if err != nil {
		return CapacityReport{}, lifecycle.StoreError(err, "activity")
	}

	report := CapacityReport{
		Activities:  make([]ActivityCapacityRow, 0, len(usage)),
		GeneratedAt: s.now().UTC(),
	}
	for _, u := range usage {
		row := capacityRow(u)
		switch row.Status {
		case StatusNearCapacity:
			report.Summary.ActivitiesNearCapacity++
		case StatusAtCapacity:
			report.Summary.ActivitiesAtCapacity++
		}
		report.Activities = append(report.Activities, row)
	}
	report.Summary.TotalActivities = len(report.Activities)

	_ = s.reports.SetJSON(ctx, cache.CapacityReportKey, report, s.ttl)
	return report, nil
}

func capacityRow(u persistence.ActivityUsage) ActivityCapacityRow {
	row := ActivityCapacityRow{
		ActivityID:       u.ActivityID,
		ActivityName:     u.Name,
		Capacity:         u.Capacity,
		CurrentAttendees: u.Attending,
		Status:           StatusUnlimited,
	}
	if u.Capacity == nil || *u.Capacity <= 0 {
		return row
	}

	available := *u.Capacity - u.Attending
	row.AvailableSpots = &available

	rate := float64(u.Attending) / float64(*u.Capacity) * 100
	row.UtilizationRate = math.Round(rate*100) / 100
	switch {
	case rate >= atCapacityRate:
		row.Status = StatusAtCapacity
	case rate >= nearCapacityRate:
		row.Status = StatusNearCapacity
	default:
		row.Status = StatusAvailable
	}
	return row
}
