package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	UserProfileIDKey contextKey = "user_profile_id"
	UserRoleKey      contextKey = "user_role"
	UserEmailKey     contextKey = "user_email"
)

// Role identifies the caller's position in a practice. The numeric values
// match the role ids used across the API and database.
type Role int

const (
	RoleClient    Role = 1
	RoleCounselor Role = 2
	RoleManager   Role = 3
	RoleAdmin     Role = 4
)

func (r Role) String() string {
	switch r {
	case RoleClient:
		return "client"
	case RoleCounselor:
		return "counselor"
	case RoleManager:
		return "manager"
	case RoleAdmin:
		return "admin"
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r >= RoleClient && r <= RoleAdmin
}

type Claims struct {
	jwt.RegisteredClaims
	TenantID      string `json:"tenant_id"`
	UserProfileID string `json:"user_profile_id"`
	RoleID        int    `json:"role_id"`
	Email         string `json:"email"`
}

type JWTConfig struct {
	Issuer   string
	Audience string
	// SigningKey is the shared HMAC key used to verify tokens.
	SigningKey []byte
}

// JWTMiddleware authenticates bearer tokens and stores the caller's
// identity (profile id, role, email) on the request context.
func JWTMiddleware(cfg JWTConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			claims := &Claims{}
			opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"})}
			if cfg.Issuer != "" {
				opts = append(opts, jwt.WithIssuer(cfg.Issuer))
			}
			if cfg.Audience != "" {
				opts = append(opts, jwt.WithAudience(cfg.Audience))
			}

			token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
				return cfg.SigningKey, nil
			}, opts...)
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			if !Role(claims.RoleID).Valid() {
				return echo.NewHTTPError(http.StatusUnauthorized, "unknown role")
			}

			ctx := c.Request().Context()
			ctx = context.WithValue(ctx, UserProfileIDKey, claims.UserProfileID)
			ctx = context.WithValue(ctx, UserRoleKey, Role(claims.RoleID))
			ctx = context.WithValue(ctx, UserEmailKey, claims.Email)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Set("jwt_tenant_id", claims.TenantID)

			return next(c)
		}
	}
}

// DevAuthMiddleware injects an admin identity on every request. Development
// only; never wire this in production.
func DevAuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			ctx = context.WithValue(ctx, UserProfileIDKey, "dev-admin")
			ctx = context.WithValue(ctx, UserRoleKey, RoleAdmin)
			ctx = context.WithValue(ctx, UserEmailKey, "dev@localhost")
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// ProfileIDFromContext returns the authenticated caller's user profile id.
func ProfileIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(UserProfileIDKey).(string)
	return id
}

// RoleFromContext returns the authenticated caller's role, or 0 when the
// request is unauthenticated.
func RoleFromContext(ctx context.Context) Role {
	role, _ := ctx.Value(UserRoleKey).(Role)
	return role
}

// EmailFromContext returns the authenticated caller's email.
func EmailFromContext(ctx context.Context) string {
	email, _ := ctx.Value(UserEmailKey).(string)
	return email
}
