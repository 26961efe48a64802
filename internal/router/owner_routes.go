package router

import (
	"github.com/labstack/echo/v4"

	"github.com/udaraamarasekara/busbook/internal/handler"
	"github.com/udaraamarasekara/busbook/internal/middleware"
	"github.com/udaraamarasekara/busbook/internal/model"
)

// RegisterOwner registers bus-owner endpoints under /v1. All routes
// require a valid JWT and the bus-owner role; per-resource ownership is
// enforced in the handlers.
func RegisterOwner(e *echo.Echo, o *handler.OwnerHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleBusOwner),
	)

	g.POST("/trips", o.CreateTrip)
	g.PUT("/trips/:id", o.UpdateTrip)
	g.GET("/buses/:id/trips", o.ListBusTrips)
	g.GET("/trips/:id/bookings", o.ListTripBookings)
}
