// Package scheduling detects overlapping bookings at a shared location.
//
// Intervals are closed: an event ending at 18:00 conflicts with one starting at 18:00.
// A booking without an end is a point in time equal to its start.
package scheduling

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Interval is a time range with an optional end.
type Interval struct {
	Start time.Time
	End   *time.Time
}

func (i Interval) end() time.Time {
	if i.End == nil {
		return i.Start
	}
	return *i.End
}

// Overlaps reports whether two closed intervals share at least one instant.
func Overlaps(a, b Interval) bool {
	return !a.Start.After(b.end()) && !a.end().Before(b.Start)
}

// Booking is an interval held by one entity at an optional location.
type Booking struct {
	ID         uuid.UUID
	Name       string
	LocationID *uuid.UUID
	Interval
}

// Query describes a prospective booking. ExcludeID skips the booking being updated.
type Query struct {
	LocationID *uuid.UUID
	Interval
	ExcludeID *uuid.UUID
}

// Result lists every existing booking that overlaps the query, ordered by start.
type Result struct {
	HasConflict       bool
	ConflictingEvents []Booking
}

// DetectConflicts checks the query against existing bookings.
// A query without a location never conflicts, and bookings at other locations are ignored.
func DetectConflicts(q Query, existing []Booking) Result {
	if q.LocationID == nil {
		return Result{ConflictingEvents: []Booking{}}
	}

	conflicts := make([]Booking, 0)
	for _, b := range existing {
		if b.LocationID == nil || *b.LocationID != *q.LocationID {
			continue
		}
		if q.ExcludeID != nil && b.ID == *q.ExcludeID {
			continue
		}
		if Overlaps(b.Interval, q.Interval) {
			conflicts = append(conflicts, b)
		}
	}

	sort.SliceStable(conflicts, func(i, j int) bool {
		return conflicts[i].Start.Before(conflicts[j].Start)
	})

	return Result{HasConflict: len(conflicts) > 0, ConflictingEvents: conflicts}
}
