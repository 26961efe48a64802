// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingPlacedEvent is published when a batch of seats is successfully
// booked. It carries enough information for downstream consumers to log
// or notify without querying the primary database.
type BookingPlacedEvent struct {
	GroupRef string   `json:"group_ref"`
	UserID   uint64   `json:"user_id"`
	TripID   uint64   `json:"trip_id"`
	Seats    []uint32 `json:"seats"`
	PlacedAt string   `json:"placed_at"`
}

// BookingCancelledEvent is published when a commuter cancels a booking.
type BookingCancelledEvent struct {
	BookingID   uint64 `json:"booking_id"`
	UserID      uint64 `json:"user_id"`
	TripID      uint64 `json:"trip_id"`
	Seat        uint32 `json:"seat"`
	CancelledAt string `json:"cancelled_at"`
}
