package model

import "time"

// Trip is a scheduled run of a bus between StartAt and EndAt, departing
// from StartFrom (one of the two towns of the bus's route). The bus is
// committed for the whole window [StartAt, EndAt); two trips on the same
// bus must never overlap. All timestamps are UTC.
type Trip struct {
	ID        uint64    `json:"id"`
	Bus       uint64    `json:"bus"`
	StartAt   time.Time `json:"start_at"`
	EndAt     time.Time `json:"end_at"`
	StartFrom string    `json:"start_from"`
}

// Overlaps reports whether the trip's window intersects [start, end).
// Both windows are half-open, so back-to-back trips do not conflict.
func (t Trip) Overlaps(start, end time.Time) bool {
	return t.StartAt.Before(end) && t.EndAt.After(start)
}

// TripDeparture is the commuter-facing view of a trip returned by the
// town-to-town search: the trip window plus the bus plate number.
type TripDeparture struct {
	ID      uint64    `json:"id"`
	BusNo   string    `json:"busno"`
	StartAt time.Time `json:"start_at"`
	EndAt   time.Time `json:"end_at"`
}
