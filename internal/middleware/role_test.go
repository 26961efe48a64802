package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/udaraamarasekara/busbook/internal/model"
)

func invokeWithRole(t *testing.T, mw echo.MiddlewareFunc, role interface{}) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if role != nil {
		c.Set("role", role)
	}
	called := false
	h := mw(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		t.Fatalf("middleware returned error: %v", err)
	}
	return rec, called
}

func TestRequireRoleAllowsListedRole(t *testing.T) {
	mw := RequireRole(model.RoleBusOwner)
	rec, called := invokeWithRole(t, mw, "bus-owner")
	if !called || rec.Code != http.StatusOK {
		t.Fatalf("called=%v status=%d, want handler invoked with 200", called, rec.Code)
	}
}

func TestRequireRoleRejectsOtherRole(t *testing.T) {
	mw := RequireRole(model.RoleNTC)
	rec, called := invokeWithRole(t, mw, "commuter")
	if called || rec.Code != http.StatusForbidden {
		t.Fatalf("called=%v status=%d, want 403 without invoking handler", called, rec.Code)
	}
}

func TestRequireRoleRejectsUnknownRole(t *testing.T) {
	mw := RequireRole(model.RoleCommuter)
	for _, role := range []interface{}{nil, "", "superuser", 42} {
		rec, called := invokeWithRole(t, mw, role)
		if called || rec.Code != http.StatusForbidden {
			t.Fatalf("role %v: called=%v status=%d, want 403", role, called, rec.Code)
		}
	}
}
