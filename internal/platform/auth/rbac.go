package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireRole allows the request through when the caller holds one of the
// listed roles. Admins pass every gate.
func RequireRole(roles ...Role) echo.MiddlewareFunc {
	allowed := make(map[Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role := RoleFromContext(c.Request().Context())
			if role == 0 {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			if role == RoleAdmin || allowed[role] {
				return next(c)
			}
			return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
		}
	}
}

// RequireStaff admits counselors, managers and admins.
func RequireStaff() echo.MiddlewareFunc {
	return RequireRole(RoleCounselor, RoleManager)
}

// CanResetSessionStatus reports whether the role may move a session back to
// scheduled after it was marked attended or missed.
func CanResetSessionStatus(r Role) bool {
	return r == RoleManager || r == RoleAdmin
}
