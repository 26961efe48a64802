package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/udaraamarasekara/busbook/internal/repository"
)

// CommuterTripHandler serves the read side for commuters: searching
// upcoming departures and inspecting seat occupancy of a trip.
type CommuterTripHandler struct {
	RouteRepo   *repository.RouteRepo
	TripRepo    *repository.TripRepo
	BookingRepo *repository.BookingRepo
}

// NewCommuterTripHandler constructs a CommuterTripHandler and panics on
// nil dependencies.
func NewCommuterTripHandler(routeRepo *repository.RouteRepo, tripRepo *repository.TripRepo, bookingRepo *repository.BookingRepo) *CommuterTripHandler {
	if routeRepo == nil || tripRepo == nil || bookingRepo == nil {
		panic("nil repository passed to NewCommuterTripHandler")
	}
	return &CommuterTripHandler{RouteRepo: routeRepo, TripRepo: tripRepo, BookingRepo: bookingRepo}
}

// SearchTrips handles GET /v1/trips?from=&to=. The route is matched in
// either town order, then departures are restricted to trips actually
// leaving from the requested town and not yet departed.
func (h *CommuterTripHandler) SearchTrips(c echo.Context) error {
	from := strings.TrimSpace(c.QueryParam("from"))
	to := strings.TrimSpace(c.QueryParam("to"))
	if from == "" || to == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "from and to are required"})
	}
	ctx := c.Request().Context()
	route, err := h.RouteRepo.FindByTowns(ctx, from, to)
	if err != nil {
		if errors.Is(err, repository.ErrRouteNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "route not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to find route"})
	}
	trips, err := h.TripRepo.SearchDepartures(ctx, route.ID, from, time.Now().UTC())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load trips"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": trips})
}

// ListTripSeats handles GET /v1/trips/:id/seats and returns the booked
// seats of a trip so a commuter can pick free ones. Occupancy is derived
// from the booking rows alone.
func (h *CommuterTripHandler) ListTripSeats(c echo.Context) error {
	tripID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid trip id"})
	}
	ctx := c.Request().Context()
	if _, err := h.TripRepo.GetByID(ctx, tripID); err != nil {
		if errors.Is(err, repository.ErrTripNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "trip not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load trip"})
	}
	bookings, err := h.BookingRepo.ListByTrip(ctx, tripID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load bookings"})
	}
	seats := make([]uint32, 0, len(bookings))
	for _, b := range bookings {
		seats = append(seats, b.Seat)
	}
	return c.JSON(http.StatusOK, echo.Map{"booked_seats": seats})
}
