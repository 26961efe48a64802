package model

import "time"

// Booking claims one seat on one trip for one user. The row's existence
// is the sole source of truth for seat occupancy: cancelling a booking
// deletes the row and the seat immediately becomes bookable again. The
// database enforces UNIQUE (trip, seat), which is the authoritative
// guard against double booking.
//
// GroupRef ties together the bookings created by a single booking
// request (one seat batch); it is also the handle used for idempotent
// replays.
type Booking struct {
	ID        uint64    `json:"id"`
	Trip      uint64    `json:"trip"`
	Seat      uint32    `json:"seat"`
	User      uint64    `json:"user"`
	GroupRef  string    `json:"group_ref"`
	CreatedAt time.Time `json:"created_at"`
}
