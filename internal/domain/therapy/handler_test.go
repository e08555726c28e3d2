package therapy

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/coscyrix/mindbridge-sub003/internal/platform/auth"
)

func handlerFixture() (*Handler, *fixture) {
	f := newFixture()
	return NewHandler(f.svc), f
}

func doJSON(h echo.HandlerFunc, method, target, body string, role auth.Role, params ...string) *httptest.ResponseRecorder {
	e := echo.New()
	var rd *strings.Reader
	if body == "" {
		rd = strings.NewReader("")
	} else {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	ctx := context.WithValue(req.Context(), auth.UserRoleKey, role)
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	for i := 0; i+1 < len(params); i += 2 {
		c.SetParamNames(params[i])
		c.SetParamValues(params[i+1])
	}
	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestHandlerCreateRequest(t *testing.T) {
	h, f := handlerFixture()
	body := fmt.Sprintf(`{"counselor_id":%q,"client_id":%q,"service_id":%q,"session_format_id":"ONLINE","intake_dte":%q}`,
		uuid.New(), uuid.New(), f.serviceID, day(0).Format(time.RFC3339))

	rec := doJSON(h.CreateRequest, http.MethodPost, "/api/v1/thrpy-req", body, auth.RoleCounselor)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var got TherapyRequest
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(got.Sessions) != 4 {
		t.Errorf("expected 4 sessions in response, got %d", len(got.Sessions))
	}
}

func TestHandlerCreateRequestValidation(t *testing.T) {
	h, f := handlerFixture()
	body := fmt.Sprintf(`{"counselor_id":%q,"service_id":%q,"session_format_id":"ONLINE","intake_dte":%q}`,
		uuid.New(), f.serviceID, day(0).Format(time.RFC3339))

	rec := doJSON(h.CreateRequest, http.MethodPost, "/api/v1/thrpy-req", body, auth.RoleCounselor)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing client, got %d", rec.Code)
	}
}

func TestHandlerCreateRequestConflict(t *testing.T) {
	h, f := handlerFixture()
	counselorID := uuid.New()
	f.sessions.markBusy(counselorID, day(0), uuid.New())

	body := fmt.Sprintf(`{"counselor_id":%q,"client_id":%q,"service_id":%q,"session_format_id":"ONLINE","intake_dte":%q}`,
		counselorID, uuid.New(), f.serviceID, day(0).Format(time.RFC3339))

	rec := doJSON(h.CreateRequest, http.MethodPost, "/api/v1/thrpy-req", body, auth.RoleCounselor)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Time slot taken") {
		t.Errorf("expected the normalized collision message, got %s", rec.Body.String())
	}
}

func TestHandlerGetRequest(t *testing.T) {
	h, f := handlerFixture()
	req, _ := f.svc.CreateRequest(context.Background(), validInput(f))

	rec := doJSON(h.GetRequest, http.MethodGet, "/api/v1/thrpy-req/"+req.ID.String(), "", auth.RoleCounselor, "id", req.ID.String())
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var detail RequestDetail
	if err := json.Unmarshal(rec.Body.Bytes(), &detail); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if detail.DischargeAction != ActionDelete {
		t.Errorf("expected Delete action, got %s", detail.DischargeAction)
	}

	rec = doJSON(h.GetRequest, http.MethodGet, "/api/v1/thrpy-req/"+uuid.NewString(), "", auth.RoleCounselor, "id", uuid.NewString())
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown request, got %d", rec.Code)
	}
}

func TestHandlerDischargeOrDelete(t *testing.T) {
	h, f := handlerFixture()
	req, _ := f.svc.CreateRequest(context.Background(), validInput(f))
	f.sessions.sessions[req.Sessions[0].ID].Status = StatusShow

	rec := doJSON(h.DischargeOrDelete, http.MethodPut, "/api/v1/thrpy-req/"+req.ID.String()+"/action", "", auth.RoleCounselor, "id", req.ID.String())
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var out map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if out["action"] != ActionDischarge {
		t.Errorf("expected Discharge, got %s", out["action"])
	}
}

func TestHandlerSetSessionStatus(t *testing.T) {
	h, f := handlerFixture()
	req, _ := f.svc.CreateRequest(context.Background(), validInput(f))
	sess := req.Sessions[0]

	rec := doJSON(h.SetSessionStatus, http.MethodPut, "/api/v1/session/x/status",
		`{"session_status":"SHOW"}`, auth.RoleCounselor, "id", sess.ID.String())
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}

	// Unknown status strings are rejected before touching the service.
	rec = doJSON(h.SetSessionStatus, http.MethodPut, "/api/v1/session/x/status",
		`{"session_status":"MAYBE"}`, auth.RoleCounselor, "id", sess.ID.String())
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown status, got %d", rec.Code)
	}
}

func TestHandlerResetStatusForbidden(t *testing.T) {
	h, f := handlerFixture()
	req, _ := f.svc.CreateRequest(context.Background(), validInput(f))
	sess := req.Sessions[0]
	f.sessions.sessions[sess.ID].Status = StatusShow

	rec := doJSON(h.SetSessionStatus, http.MethodPut, "/api/v1/session/x/status",
		`{"session_status":"SCHEDULED"}`, auth.RoleCounselor, "id", sess.ID.String())
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for counselor reset, got %d", rec.Code)
	}

	f.clock.now = sess.ScheduledTime.Add(time.Hour)
	rec = doJSON(h.SetSessionStatus, http.MethodPut, "/api/v1/session/x/status",
		`{"session_status":"SCHEDULED"}`, auth.RoleManager, "id", sess.ID.String())
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204 for manager reset inside window, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandlerEditSession(t *testing.T) {
	h, f := handlerFixture()
	req, _ := f.svc.CreateRequest(context.Background(), validInput(f))
	second := req.Sessions[1]

	body := fmt.Sprintf(`{"scheduled_time":%q}`, day(10).Format(time.RFC3339))
	rec := doJSON(h.EditSession, http.MethodPut, "/api/v1/session/x", body, auth.RoleCounselor, "id", second.ID.String())
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}

	body = fmt.Sprintf(`{"scheduled_time":%q}`, day(40).Format(time.RFC3339))
	rec = doJSON(h.EditSession, http.MethodPut, "/api/v1/session/x", body, auth.RoleCounselor, "id", second.ID.String())
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 outside window, got %d", rec.Code)
	}
}

func TestHandlerRescheduleWindow(t *testing.T) {
	h, f := handlerFixture()
	req, _ := f.svc.CreateRequest(context.Background(), validInput(f))
	second := req.Sessions[1]

	rec := doJSON(h.RescheduleWindowFor, http.MethodGet, "/api/v1/session/x/window", "", auth.RoleCounselor, "id", second.ID.String())
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var window RescheduleWindow
	if err := json.Unmarshal(rec.Body.Bytes(), &window); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !window.Min.Equal(day(0)) {
		t.Errorf("expected min day 0, got %v", window.Min)
	}
	if window.Max == nil || !window.Max.Equal(day(14)) {
		t.Errorf("expected max day 14, got %v", window.Max)
	}
}

func TestHandlerCreateAdditionalSession(t *testing.T) {
	h, f := handlerFixture()
	req, _ := f.svc.CreateRequest(context.Background(), validInput(f))

	body := fmt.Sprintf(`{"req_id":%q,"service_id":%q,"scheduled_time":%q}`,
		req.ID, f.serviceID, day(3).Format(time.RFC3339))
	rec := doJSON(h.CreateAdditionalSession, http.MethodPost, "/api/v1/session", body, auth.RoleCounselor)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var sess Session
	if err := json.Unmarshal(rec.Body.Bytes(), &sess); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !sess.IsAdditional {
		t.Error("expected is_additional set")
	}
}

func TestHandlerCancelAndInvoice(t *testing.T) {
	h, f := handlerFixture()
	req, _ := f.svc.CreateRequest(context.Background(), validInput(f))
	sess := req.Sessions[0]

	rec := doJSON(h.SetInvoiceNumber, http.MethodPut, "/api/v1/session/x/invoice",
		`{"invoice_nbr":"INV-7"}`, auth.RoleCounselor, "id", sess.ID.String())
	if rec.Code != http.StatusNoContent {
		t.Fatalf("invoice: expected 204, got %d", rec.Code)
	}

	rec = doJSON(h.CancelSession, http.MethodPut, "/api/v1/session/x/cancel", "", auth.RoleCounselor, "id", sess.ID.String())
	if rec.Code != http.StatusNoContent {
		t.Fatalf("cancel: expected 204, got %d", rec.Code)
	}

	rec = doJSON(h.CancelSession, http.MethodPut, "/api/v1/session/x/cancel", "", auth.RoleCounselor, "id", sess.ID.String())
	if rec.Code != http.StatusBadRequest {
		t.Errorf("double cancel: expected 400, got %d", rec.Code)
	}
}
