package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/udaraamarasekara/busbook/internal/model"
	"github.com/udaraamarasekara/busbook/internal/repository"
)

// OwnerHandler implements trip scheduling for bus owners. Scheduling is
// a resource-allocation problem: a bus is committed for the whole trip
// window, so the overlap check and the insert must run in one
// transaction holding the bus row lock, otherwise two concurrent
// requests could both pass the check against the same snapshot and
// commit conflicting trips.
type OwnerHandler struct {
	BusRepo     *repository.BusRepo
	RouteRepo   *repository.RouteRepo
	TripRepo    *repository.TripRepo
	BookingRepo *repository.BookingRepo
}

// NewOwnerHandler constructs an OwnerHandler and panics on nil dependencies.
func NewOwnerHandler(busRepo *repository.BusRepo, routeRepo *repository.RouteRepo, tripRepo *repository.TripRepo, bookingRepo *repository.BookingRepo) *OwnerHandler {
	if busRepo == nil || routeRepo == nil || tripRepo == nil || bookingRepo == nil {
		panic("nil repository passed to NewOwnerHandler")
	}
	return &OwnerHandler{BusRepo: busRepo, RouteRepo: routeRepo, TripRepo: tripRepo, BookingRepo: bookingRepo}
}

type tripBody struct {
	Bus       uint64 `json:"bus"`
	StartAt   string `json:"start_at"`
	EndAt     string `json:"end_at"`
	StartFrom string `json:"start_from"`
}

// parseWindow validates the candidate window: both timestamps must be
// RFC3339, the start must be strictly in the future and the end must be
// after the start. Returns a client-facing message on failure.
func parseWindow(startAt, endAt string) (start, end time.Time, msg string) {
	startAt = strings.TrimSpace(startAt)
	endAt = strings.TrimSpace(endAt)
	if startAt == "" || endAt == "" {
		return start, end, "start_at and end_at are required"
	}
	start, err := time.Parse(time.RFC3339, startAt)
	if err != nil {
		return start, end, "invalid start_at format"
	}
	end, err = time.Parse(time.RFC3339, endAt)
	if err != nil {
		return start, end, "invalid end_at format"
	}
	start = start.UTC()
	end = end.UTC()
	if !start.After(time.Now().UTC()) {
		return start, end, "start_at must be in the future"
	}
	if !end.After(start) {
		return start, end, "end_at must be after start_at"
	}
	return start, end, ""
}

// CreateTrip handles POST /v1/trips and schedules a new trip for a bus
// owned by the caller. Preconditions are checked in order, failing fast:
// ownership, window validity, departure town, schedule conflict.
func (h *OwnerHandler) CreateTrip(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body tripBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Bus == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "bus is required"})
	}
	ctx := c.Request().Context()

	// Ownership first: a caller probing buses they do not own learns
	// nothing about window validity.
	bus, err := h.BusRepo.GetByIDAndOwner(ctx, body.Bus, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrBusNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "bus not found"})
		}
		if errors.Is(err, repository.ErrForbidden) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to verify bus"})
	}

	start, end, msg := parseWindow(body.StartAt, body.EndAt)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	startFrom := strings.TrimSpace(body.StartFrom)
	route, err := h.RouteRepo.GetByID(ctx, bus.Route)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load route"})
	}
	if !route.HasTown(startFrom) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "check route again"})
	}

	tx, err := h.TripRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	// Serialize scheduling per bus for the overlap check + insert.
	if err := h.BusRepo.LockTx(ctx, tx, bus.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to lock bus"})
	}
	overlaps, err := h.TripRepo.FindOverlappingTx(ctx, tx, bus.ID, start, end)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check existing trips"})
	}
	if len(overlaps) > 0 {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":    "check time again",
			"overlaps": overlaps,
		})
	}
	trip := &model.Trip{Bus: bus.ID, StartAt: start, EndAt: end, StartFrom: startFrom}
	if err := h.TripRepo.CreateTx(ctx, tx, trip); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create trip"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusCreated, trip)
}

// UpdateTrip handles PUT /v1/trips/:id. The proposed window goes through
// the same checks as creation, with the updated trip excluded from its
// own overlap test so an unchanged or shifted window never conflicts
// with itself.
func (h *OwnerHandler) UpdateTrip(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	tripID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid trip id"})
	}
	var body tripBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	ctx := c.Request().Context()

	cur, err := h.TripRepo.GetByID(ctx, tripID)
	if err != nil {
		if errors.Is(err, repository.ErrTripNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "trip not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load trip"})
	}
	// Ownership is enforced through the trip's bus; the bus reference
	// itself cannot be changed by an update.
	bus, err := h.BusRepo.GetByIDAndOwner(ctx, cur.Bus, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrForbidden) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to verify ownership"})
	}

	start, end, msg := parseWindow(body.StartAt, body.EndAt)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	startFrom := strings.TrimSpace(body.StartFrom)
	route, err := h.RouteRepo.GetByID(ctx, bus.Route)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load route"})
	}
	if !route.HasTown(startFrom) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "check route again"})
	}

	tx, err := h.TripRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := h.BusRepo.LockTx(ctx, tx, bus.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to lock bus"})
	}
	overlaps, err := h.TripRepo.FindOverlappingExcludingTx(ctx, tx, bus.ID, cur.ID, start, end)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check existing trips"})
	}
	if len(overlaps) > 0 {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":    "check time again",
			"overlaps": overlaps,
		})
	}
	upd := &model.Trip{ID: cur.ID, Bus: bus.ID, StartAt: start, EndAt: end, StartFrom: startFrom}
	if err := h.TripRepo.UpdateTx(ctx, tx, upd); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusOK, upd)
}

// ListBusTrips handles GET /v1/buses/:id/trips and returns the schedule
// of a bus owned by the caller.
func (h *OwnerHandler) ListBusTrips(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	busID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid bus id"})
	}
	ctx := c.Request().Context()
	if _, err := h.BusRepo.GetByIDAndOwner(ctx, busID, ownerID); err != nil {
		if errors.Is(err, repository.ErrBusNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "bus not found"})
		}
		if errors.Is(err, repository.ErrForbidden) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to verify bus"})
	}
	trips, err := h.TripRepo.ListByBus(ctx, busID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load trips"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": trips})
}

// ListTripBookings handles GET /v1/trips/:id/bookings and returns the
// bookings of a trip on a bus owned by the caller.
func (h *OwnerHandler) ListTripBookings(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	tripID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid trip id"})
	}
	bookings, err := h.BookingRepo.ListByTripForOwner(c.Request().Context(), tripID, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrTripNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "trip not found"})
		}
		if errors.Is(err, repository.ErrForbidden) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load bookings"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": bookings})
}
