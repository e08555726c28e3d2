package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/coscyrix/mindbridge-sub003/internal/platform/auth"
)

// AuditEntry captures who touched which client record, when, and how.
// Session notes, homework and invoices are all sensitive clinical data,
// so every API access gets a trail entry.
type AuditEntry struct {
	UserProfileID string
	Role          string
	Resource      string
	ClientID      string
	Action        string // read, create, update, delete
	IPAddress     string
	UserAgent     string
	Path          string
	Method        string
	Timestamp     time.Time
	RequestID     string
	StatusCode    int
}

// AuditRecorder persists audit entries. Tests provide a mock; production
// can sink entries into the database or leave it nil for log-only trails.
type AuditRecorder interface {
	RecordAccess(entry AuditEntry) error
}

// AuditRecorderFunc is a function adapter for AuditRecorder.
type AuditRecorderFunc func(entry AuditEntry) error

func (f AuditRecorderFunc) RecordAccess(entry AuditEntry) error {
	return f(entry)
}

// Audit logs every access to the practice API with the authenticated
// caller, the resource touched and the client involved when one can be
// determined from the request.
func Audit(logger zerolog.Logger, recorders ...AuditRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			path := req.URL.Path

			if !strings.HasPrefix(path, "/api/v1/") {
				return next(c)
			}

			// Run the handler first so the response status is known.
			err := next(c)

			ctx := req.Context()
			entry := AuditEntry{
				UserProfileID: auth.ProfileIDFromContext(ctx),
				Role:          auth.RoleFromContext(ctx).String(),
				Resource:      auditResource(path),
				ClientID:      auditClientID(c),
				Action:        methodToAction(req.Method),
				IPAddress:     c.RealIP(),
				UserAgent:     req.UserAgent(),
				Path:          path,
				Method:        req.Method,
				Timestamp:     time.Now().UTC(),
				StatusCode:    c.Response().Status,
			}
			if rid, ok := c.Get("request_id").(string); ok {
				entry.RequestID = rid
			}

			if len(recorders) > 0 && recorders[0] != nil {
				if recErr := recorders[0].RecordAccess(entry); recErr != nil {
					logger.Error().Err(recErr).
						Str("request_id", entry.RequestID).
						Msg("failed to record audit entry")
				}
			}

			logger.Info().
				Str("type", "access_audit").
				Str("request_id", entry.RequestID).
				Str("user_profile_id", entry.UserProfileID).
				Str("role", entry.Role).
				Str("resource", entry.Resource).
				Str("client_id", entry.ClientID).
				Str("action", entry.Action).
				Str("method", entry.Method).
				Str("path", entry.Path).
				Str("remote_ip", entry.IPAddress).
				Int("status", entry.StatusCode).
				Msg("record_access")

			return err
		}
	}
}

func methodToAction(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead:
		return "read"
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}

// auditResource returns the first path segment after /api/v1/, e.g.
// "thrpy-req" for /api/v1/thrpy-req/42.
func auditResource(path string) string {
	segments := strings.Split(strings.TrimPrefix(path, "/api/v1/"), "/")
	if len(segments) > 0 && segments[0] != "" {
		return segments[0]
	}
	return "unknown"
}

// auditClientID finds the client involved in the request, checking the
// client_id query parameter and the /api/v1/clients/<id> path form.
func auditClientID(c echo.Context) string {
	if id := c.QueryParam("client_id"); id != "" {
		return id
	}
	path := c.Request().URL.Path
	if strings.HasPrefix(path, "/api/v1/clients/") {
		segments := strings.Split(strings.TrimPrefix(path, "/api/v1/clients/"), "/")
		if len(segments) > 0 {
			return segments[0]
		}
	}
	return ""
}
