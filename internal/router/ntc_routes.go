package router

import (
	"github.com/labstack/echo/v4"

	"github.com/udaraamarasekara/busbook/internal/handler"
	"github.com/udaraamarasekara/busbook/internal/middleware"
	"github.com/udaraamarasekara/busbook/internal/model"
)

// RegisterNTC registers the transport-commission endpoints under /v1.
// All routes require a valid JWT and the ntc role.
func RegisterNTC(e *echo.Echo, n *handler.NTCHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleNTC),
	)

	g.POST("/routes", n.CreateRoute)
	g.GET("/routes", n.ListRoutes)
	g.POST("/buses", n.CreateBus)
	g.GET("/buses", n.ListBuses)
}
