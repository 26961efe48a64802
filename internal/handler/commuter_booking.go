package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/udaraamarasekara/busbook/internal/queue"
	"github.com/udaraamarasekara/busbook/internal/repository"
	queue_publisher "github.com/udaraamarasekara/busbook/internal/service"
)

// BookingHandler implements seat booking and cancellation for commuters.
// A booking request is all-or-nothing: either every requested seat is
// booked in one transaction or none is. The in-transaction availability
// read gives friendly conflict messages, but the UNIQUE (trip, seat) key
// is what actually prevents double booking under concurrency.
type BookingHandler struct {
	TripRepo    *repository.TripRepo
	BookingRepo *repository.BookingRepo
}

// NewBookingHandler constructs a BookingHandler and panics on nil
// dependencies.
func NewBookingHandler(tripRepo *repository.TripRepo, bookingRepo *repository.BookingRepo) *BookingHandler {
	if tripRepo == nil || bookingRepo == nil {
		panic("nil repository passed to NewBookingHandler")
	}
	return &BookingHandler{TripRepo: tripRepo, BookingRepo: bookingRepo}
}

// BookSeats handles POST /v1/bookings. The optional Idempotency-Key
// header makes retries safe: a request replaying a key the caller has
// already used gets the bookings created by the original request instead
// of a duplicate-seat conflict.
func (h *BookingHandler) BookSeats(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		Trip  uint64   `json:"trip"`
		Seats []uint32 `json:"seats"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Trip == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "trip is required"})
	}
	seats := dedupeSeats(body.Seats)
	if len(seats) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "at least one seat is required"})
	}
	ctx := c.Request().Context()

	idemKey := strings.TrimSpace(c.Request().Header.Get("Idempotency-Key"))
	if idemKey != "" {
		ref, err := h.BookingRepo.FindGroupRef(ctx, userID, idemKey)
		switch {
		case err == nil:
			return h.replayGroup(c, ref)
		case errors.Is(err, sql.ErrNoRows):
			// first time we see this key, proceed
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
	}

	tx, err := h.BookingRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Locks the trip row, serializing concurrent bookings on this trip.
	seatCount, err := h.TripRepo.SeatCountForBookingTx(ctx, tx, body.Trip)
	if err != nil {
		if errors.Is(err, repository.ErrTripNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "trip not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load trip"})
	}
	for _, s := range seats {
		if s == 0 || s > seatCount {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": fmt.Sprintf("invalid seat: %d", s)})
		}
	}
	booked, err := h.BookingRepo.BookedSeatsTx(ctx, tx, body.Trip)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check seat availability"})
	}
	taken := make(map[uint32]bool, len(booked))
	for _, s := range booked {
		taken[s] = true
	}
	for _, s := range seats {
		if taken[s] {
			conflict := &repository.SeatConflictError{Seat: s}
			return c.JSON(http.StatusConflict, echo.Map{"error": conflict.Error()})
		}
	}

	groupRef := uuid.NewString()
	if err := h.BookingRepo.CreateGroupTx(ctx, tx, groupRef, userID, body.Trip, idemKey); err != nil {
		if errors.Is(err, repository.ErrIdempotencyKeyReplayed) {
			// Lost the race to a concurrent request with the same key;
			// answer with its bookings.
			_ = tx.Rollback()
			ref, ferr := h.BookingRepo.FindGroupRef(ctx, userID, idemKey)
			if ferr != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
			}
			return h.replayGroup(c, ref)
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create booking"})
	}
	bookings, err := h.BookingRepo.CreateBatchTx(ctx, tx, groupRef, body.Trip, userID, seats)
	if err != nil {
		if errors.Is(err, repository.ErrSeatTaken) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "seat already booked"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create booking"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true

	ev := queue.BookingPlacedEvent{
		GroupRef: groupRef,
		UserID:   userID,
		TripID:   body.Trip,
		Seats:    seats,
		PlacedAt: time.Now().UTC().Format(time.RFC3339),
	}
	// Event delivery is best effort; the booking is already committed.
	_ = queue_publisher.PublishBookingPlaced(ctx, ev)

	return c.JSON(http.StatusOK, echo.Map{
		"group_ref": groupRef,
		"bookings":  bookings,
	})
}

// CancelBooking handles DELETE /v1/bookings/:id. Only the commuter who
// placed the booking may cancel it; deleting the row is what frees the
// seat for other commuters.
func (h *BookingHandler) CancelBooking(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	ctx := c.Request().Context()
	b, err := h.BookingRepo.CancelByIDAndUser(ctx, bookingID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		if errors.Is(err, repository.ErrForbidden) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not cancel booking"})
	}

	ev := queue.BookingCancelledEvent{
		BookingID:   b.ID,
		UserID:      userID,
		TripID:      b.Trip,
		Seat:        b.Seat,
		CancelledAt: time.Now().UTC().Format(time.RFC3339),
	}
	_ = queue_publisher.PublishBookingCancelled(ctx, ev)

	return c.JSON(http.StatusOK, echo.Map{"cancelled": b.ID})
}

// replayGroup answers an idempotent retry with the bookings created by
// the original request.
func (h *BookingHandler) replayGroup(c echo.Context, groupRef string) error {
	bookings, err := h.BookingRepo.ListByGroup(c.Request().Context(), groupRef)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"group_ref": groupRef,
		"bookings":  bookings,
		"replayed":  true,
	})
}

// dedupeSeats removes repeated seat numbers while preserving request
// order. Booking seat 5 twice in one request is one booking for seat 5.
func dedupeSeats(in []uint32) []uint32 {
	seen := make(map[uint32]bool, len(in))
	out := make([]uint32, 0, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
