package scheduling

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func at(hour int) time.Time {
	return time.Date(2026, time.June, 12, hour, 0, 0, 0, time.UTC)
}

func ptr(t time.Time) *time.Time {
	return &t
}

func TestOverlaps(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a    Interval
		b    Interval
		want bool
	}{
		{name: "identical points", a: Interval{Start: at(10)}, b: Interval{Start: at(10)}, want: true},
		{name: "distinct points", a: Interval{Start: at(10)}, b: Interval{Start: at(11)}, want: false},
		{name: "containment", a: Interval{Start: at(8), End: ptr(at(20))}, b: Interval{Start: at(10), End: ptr(at(12))}, want: true},
		{name: "partial overlap", a: Interval{Start: at(8), End: ptr(at(11))}, b: Interval{Start: at(10), End: ptr(at(12))}, want: true},
		{name: "touching endpoints", a: Interval{Start: at(8), End: ptr(at(10))}, b: Interval{Start: at(10), End: ptr(at(12))}, want: true},
		{name: "point on boundary", a: Interval{Start: at(12)}, b: Interval{Start: at(10), End: ptr(at(12))}, want: true},
		{name: "disjoint", a: Interval{Start: at(8), End: ptr(at(9))}, b: Interval{Start: at(10), End: ptr(at(12))}, want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, Overlaps(tt.a, tt.b))
			require.Equal(t, tt.want, Overlaps(tt.b, tt.a), "overlap must be symmetric")
		})
	}
}

func TestDetectConflicts(t *testing.T) {
	t.Parallel()

	beach := uuid.New()
	garden := uuid.New()

	dinner := Booking{ID: uuid.New(), Name: "Dinner", LocationID: &beach, Interval: Interval{Start: at(18), End: ptr(at(21))}}
	ceremony := Booking{ID: uuid.New(), Name: "Ceremony", LocationID: &beach, Interval: Interval{Start: at(15), End: ptr(at(16))}}
	gardenParty := Booking{ID: uuid.New(), Name: "Garden party", LocationID: &garden, Interval: Interval{Start: at(15), End: ptr(at(22))}}
	nowhere := Booking{ID: uuid.New(), Name: "Unplaced", Interval: Interval{Start: at(15)}}

	existing := []Booking{dinner, ceremony, gardenParty, nowhere}

	t.Run("lists every overlap sorted by start", func(t *testing.T) {
		t.Parallel()

		res := DetectConflicts(Query{LocationID: &beach, Interval: Interval{Start: at(12), End: ptr(at(23))}}, existing)
		require.True(t, res.HasConflict)
		require.Len(t, res.ConflictingEvents, 2)
		require.Equal(t, ceremony.ID, res.ConflictingEvents[0].ID)
		require.Equal(t, dinner.ID, res.ConflictingEvents[1].ID)
	})

	t.Run("other locations never conflict", func(t *testing.T) {
		t.Parallel()

		other := uuid.New()
		res := DetectConflicts(Query{LocationID: &other, Interval: Interval{Start: at(18), End: ptr(at(21))}}, existing)
		require.False(t, res.HasConflict)
		require.Empty(t, res.ConflictingEvents)
	})

	t.Run("query without location never conflicts", func(t *testing.T) {
		t.Parallel()

		res := DetectConflicts(Query{Interval: Interval{Start: at(15)}}, existing)
		require.False(t, res.HasConflict)
	})

	t.Run("excluding the only overlap clears the conflict", func(t *testing.T) {
		t.Parallel()

		res := DetectConflicts(Query{
			LocationID: &beach,
			Interval:   Interval{Start: at(19), End: ptr(at(20))},
			ExcludeID:  &dinner.ID,
		}, existing)
		require.False(t, res.HasConflict)
	})

	t.Run("point query touching an end conflicts", func(t *testing.T) {
		t.Parallel()

		res := DetectConflicts(Query{LocationID: &beach, Interval: Interval{Start: at(16)}}, existing)
		require.True(t, res.HasConflict)
		require.Equal(t, ceremony.ID, res.ConflictingEvents[0].ID)
	})
}
