package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/udaraamarasekara/busbook/internal/model"
)

// RequireRole returns a middleware that enforces that the authenticated
// user holds one of the given roles. The "role" claim stored by JWTAuth
// is parsed through model.ParseRole, so a token carrying an unknown or
// misspelled role is rejected rather than compared as a raw string. It
// assumes JWTAuth ran earlier in the chain.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			v, _ := c.Get("role").(string)
			role, err := model.ParseRole(v)
			if err != nil || !allowed[role] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
