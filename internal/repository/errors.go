// Package repository contains the data access layer. This file defines
// sentinel errors shared across repositories so that handlers can map
// failure modes onto HTTP statuses without inspecting SQL errors
// themselves: not-found sentinels become 404, ErrForbidden becomes 403
// and ErrSeatTaken / SeatConflictError become 409.
package repository

import (
	"errors"
	"fmt"
)

// ErrForbidden is returned when the caller attempts an operation on a
// resource owned by somebody else. Handlers translate this into 403.
var ErrForbidden = errors.New("forbidden")

// ErrBusNotFound indicates the referenced bus does not exist.
var ErrBusNotFound = errors.New("bus not found")

// ErrRouteNotFound indicates no route matches the given towns or id.
var ErrRouteNotFound = errors.New("route not found")

// ErrTripNotFound indicates the referenced trip does not exist.
var ErrTripNotFound = errors.New("trip not found")

// ErrBookingNotFound indicates the referenced booking does not exist.
var ErrBookingNotFound = errors.New("booking not found")

// ErrUserNotFound indicates no user matches the given email or id.
var ErrUserNotFound = errors.New("user not found")

// ErrEmailTaken is returned when registering a user whose email already
// exists (unique key on users.email).
var ErrEmailTaken = errors.New("email already registered")

// ErrIdempotencyKeyReplayed is returned when the UNIQUE
// (user, idempotency_key) index rejects a booking group insert: a
// concurrent request with the same key committed first. Handlers answer
// such requests with the bookings of the winning group.
var ErrIdempotencyKeyReplayed = errors.New("idempotency key already used")

// ErrSeatTaken is returned when the UNIQUE (trip, seat) key rejects a
// booking insert. This is the authoritative conflict signal: it fires
// even when a concurrent request won the seat after our availability
// pre-check passed. Handlers translate it into 409.
var ErrSeatTaken = errors.New("seat already booked")

// SeatConflictError names the first requested seat found to collide with
// an active booking during the in-transaction availability check.
type SeatConflictError struct {
	Seat uint32
}

func (e *SeatConflictError) Error() string {
	return fmt.Sprintf("seat %d already booked", e.Seat)
}
