package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/udaraamarasekara/busbook/internal/model"
	"github.com/udaraamarasekara/busbook/internal/repository"
)

// NTCHandler manages the reference data owned by the transport
// commission: routes and the buses licensed to serve them.
type NTCHandler struct {
	RouteRepo *repository.RouteRepo
	BusRepo   *repository.BusRepo
	UserRepo  *repository.UserRepo
}

// NewNTCHandler constructs an NTCHandler and panics on nil dependencies.
func NewNTCHandler(routeRepo *repository.RouteRepo, busRepo *repository.BusRepo, userRepo *repository.UserRepo) *NTCHandler {
	if routeRepo == nil || busRepo == nil || userRepo == nil {
		panic("nil repository passed to NewNTCHandler")
	}
	return &NTCHandler{RouteRepo: routeRepo, BusRepo: busRepo, UserRepo: userRepo}
}

// CreateRoute handles POST /v1/routes. Routes are immutable once created.
func (h *NTCHandler) CreateRoute(c echo.Context) error {
	var body struct {
		TownOne string `json:"town_one"`
		TownTwo string `json:"town_two"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	townOne := strings.TrimSpace(body.TownOne)
	townTwo := strings.TrimSpace(body.TownTwo)
	if townOne == "" || townTwo == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "town_one and town_two are required"})
	}
	if townOne == townTwo {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "towns must differ"})
	}
	rt := &model.Route{TownOne: townOne, TownTwo: townTwo}
	if err := h.RouteRepo.Create(c.Request().Context(), rt); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create route"})
	}
	return c.JSON(http.StatusCreated, rt)
}

// ListRoutes handles GET /v1/routes.
func (h *NTCHandler) ListRoutes(c echo.Context) error {
	routes, err := h.RouteRepo.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load routes"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": routes})
}

// CreateBus handles POST /v1/buses. The designated owner and the route
// must both exist; owners schedule trips for the bus later, so a
// dangling owner id would make the bus unusable.
func (h *NTCHandler) CreateBus(c echo.Context) error {
	var body struct {
		Owner     uint64 `json:"owner"`
		Route     uint64 `json:"route"`
		BusNo     string `json:"busno"`
		PermitNo  string `json:"permit_no"`
		SeatCount uint32 `json:"seat_count"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	busNo := strings.TrimSpace(body.BusNo)
	permitNo := strings.TrimSpace(body.PermitNo)
	if body.Owner == 0 || body.Route == 0 || busNo == "" || permitNo == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "owner, route, busno and permit_no are required"})
	}
	if body.SeatCount == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_count must be positive"})
	}
	ctx := c.Request().Context()
	owner, err := h.UserRepo.GetByID(ctx, body.Owner)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "owner not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to verify owner"})
	}
	if owner.Role != model.RoleBusOwner {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "owner must have the bus-owner role"})
	}
	if _, err := h.RouteRepo.GetByID(ctx, body.Route); err != nil {
		if errors.Is(err, repository.ErrRouteNotFound) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "route not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to verify route"})
	}
	b := &model.Bus{
		Owner:     body.Owner,
		Route:     body.Route,
		BusNo:     busNo,
		PermitNo:  permitNo,
		SeatCount: body.SeatCount,
	}
	if err := h.BusRepo.Create(ctx, b); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create bus"})
	}
	return c.JSON(http.StatusCreated, b)
}

// ListBuses handles GET /v1/buses.
func (h *NTCHandler) ListBuses(c echo.Context) error {
	buses, err := h.BusRepo.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load buses"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": buses})
}
