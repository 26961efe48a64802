package model

import (
	"testing"
	"time"
)

func TestTripOverlaps(t *testing.T) {
	base := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	trip := Trip{StartAt: base, EndAt: base.Add(2 * time.Hour)} // 08:00-10:00

	cases := []struct {
		name  string
		start time.Time
		end   time.Time
		want  bool
	}{
		{"identical window", base, base.Add(2 * time.Hour), true},
		{"contained", base.Add(30 * time.Minute), base.Add(time.Hour), true},
		{"overlaps tail", base.Add(time.Hour), base.Add(3 * time.Hour), true},
		{"overlaps head", base.Add(-time.Hour), base.Add(time.Hour), true},
		{"covers", base.Add(-time.Hour), base.Add(3 * time.Hour), true},
		{"touches end", base.Add(2 * time.Hour), base.Add(3 * time.Hour), false},
		{"touches start", base.Add(-time.Hour), base, false},
		{"disjoint after", base.Add(3 * time.Hour), base.Add(4 * time.Hour), false},
		{"disjoint before", base.Add(-2 * time.Hour), base.Add(-time.Hour), false},
	}
	for _, c := range cases {
		if got := trip.Overlaps(c.start, c.end); got != c.want {
			t.Fatalf("%s: Overlaps = %v, want %v", c.name, got, c.want)
		}
		// The predicate is symmetric: if the candidate conflicts with the
		// trip, the trip conflicts with the candidate.
		other := Trip{StartAt: c.start, EndAt: c.end}
		if got := other.Overlaps(trip.StartAt, trip.EndAt); got != c.want {
			t.Fatalf("%s: reversed Overlaps = %v, want %v", c.name, got, c.want)
		}
	}
}
