package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func requestWithRole(role Role) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if role != 0 {
		ctx := context.WithValue(req.Context(), UserRoleKey, role)
		req = req.WithContext(ctx)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec)
}

func TestRequireRoleAllows(t *testing.T) {
	handler := RequireRole(RoleCounselor)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := handler(requestWithRole(RoleCounselor)); err != nil {
		t.Fatalf("expected counselor through, got %v", err)
	}
}

func TestRequireRoleAdminBypass(t *testing.T) {
	handler := RequireRole(RoleManager)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := handler(requestWithRole(RoleAdmin)); err != nil {
		t.Fatalf("expected admin through every gate, got %v", err)
	}
}

func TestRequireRoleForbidden(t *testing.T) {
	handler := RequireRole(RoleManager)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	err := handler(requestWithRole(RoleClient))
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", err)
	}
}

func TestRequireRoleUnauthenticated(t *testing.T) {
	handler := RequireRole(RoleClient)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	err := handler(requestWithRole(0))
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestRequireStaff(t *testing.T) {
	handler := RequireStaff()(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	for _, role := range []Role{RoleCounselor, RoleManager, RoleAdmin} {
		if err := handler(requestWithRole(role)); err != nil {
			t.Errorf("expected %v through staff gate, got %v", role, err)
		}
	}
	err := handler(requestWithRole(RoleClient))
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusForbidden {
		t.Fatalf("expected client forbidden, got %v", err)
	}
}

func TestCanResetSessionStatus(t *testing.T) {
	cases := map[Role]bool{
		RoleClient:    false,
		RoleCounselor: false,
		RoleManager:   true,
		RoleAdmin:     true,
	}
	for role, want := range cases {
		if got := CanResetSessionStatus(role); got != want {
			t.Errorf("CanResetSessionStatus(%v) = %v, want %v", role, got, want)
		}
	}
}
