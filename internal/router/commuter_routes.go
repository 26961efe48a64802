package router

import (
	"github.com/labstack/echo/v4"

	"github.com/udaraamarasekara/busbook/internal/handler"
	"github.com/udaraamarasekara/busbook/internal/middleware"
	"github.com/udaraamarasekara/busbook/internal/model"
)

// RegisterCommuter registers commuter endpoints under /v1. All routes
// require a valid JWT and the commuter role. The cache middleware is
// applied only to the read-only browse endpoints: their responses depend
// on path and query alone, never on the caller.
func RegisterCommuter(e *echo.Echo, t *handler.CommuterTripHandler, b *handler.BookingHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleCommuter),
	)

	g.GET("/trips", t.SearchTrips, cache)
	g.GET("/trips/:id/seats", t.ListTripSeats, cache)

	g.POST("/bookings", b.BookSeats)
	g.DELETE("/bookings/:id", b.CancelBooking)
}
