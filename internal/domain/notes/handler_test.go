package notes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/coscyrix/mindbridge-sub003/internal/platform/auth"
)

func doNotes(h echo.HandlerFunc, method, target, body string, profileID uuid.UUID, params ...string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	ctx := context.WithValue(req.Context(), auth.UserProfileIDKey, profileID.String())
	ctx = context.WithValue(ctx, auth.UserRoleKey, auth.RoleCounselor)
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

func TestHandlerVerifyThenList(t *testing.T) {
	svc, _, _, _ := newTestService()
	h := NewHandler(svc)
	profileID := uuid.New()
	sessionID := uuid.New()

	rec := doNotes(h.ListNotes, http.MethodGet, "/api/v1/notes?session_id="+sessionID.String(), "", profileID)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 before verification, got %d", rec.Code)
	}

	rec = doNotes(h.Verify, http.MethodPost, "/api/v1/notes/verify", "", profileID)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("verify: expected 204, got %d", rec.Code)
	}

	rec = doNotes(h.ListNotes, http.MethodGet, "/api/v1/notes?session_id="+sessionID.String(), "", profileID)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 after verification, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandlerAddNoteReturnsCount(t *testing.T) {
	svc, _, _, _ := newTestService()
	h := NewHandler(svc)
	profileID := uuid.New()
	sessionID := uuid.New()

	body := `{"session_id":"` + sessionID.String() + `","message":"homework assigned"}`
	rec := doNotes(h.AddNote, http.MethodPost, "/api/v1/notes", body, profileID)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var out struct {
		Note      *Note `json:"note"`
		NoteCount int   `json:"note_count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if out.NoteCount != 1 || out.Note == nil || out.Note.Message != "homework assigned" {
		t.Errorf("unexpected response: %+v", out)
	}

	rec = doNotes(h.AddNote, http.MethodPost, "/api/v1/notes", `{"session_id":"`+sessionID.String()+`"}`, profileID)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty message, got %d", rec.Code)
	}
}

func TestHandlerNoteCount(t *testing.T) {
	svc, _, _, _ := newTestService()
	h := NewHandler(svc)

	rec := doNotes(h.NoteCount, http.MethodGet, "/api/v1/notes/count?session_id="+uuid.NewString(), "", uuid.New())
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"note_count":0`) {
		t.Errorf("expected zero count for unknown session, got %s", rec.Body.String())
	}

	rec = doNotes(h.NoteCount, http.MethodGet, "/api/v1/notes/count", "", uuid.New())
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without session_id, got %d", rec.Code)
	}
}

func TestHandlerUpdateNote(t *testing.T) {
	svc, _, _, clock := newTestService()
	h := NewHandler(svc)
	author := uuid.New()
	sessionID := uuid.New()
	clock.advance(time.Minute)

	note, _, err := svc.AddNote(context.Background(), author, sessionID, "draft")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec := doNotes(h.UpdateNote, http.MethodPut, "/api/v1/notes/x", `{"message":"final"}`, author, "id", note.ID.String())
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doNotes(h.UpdateNote, http.MethodPut, "/api/v1/notes/x", `{"message":"hijack"}`, uuid.New(), "id", note.ID.String())
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for non-author, got %d", rec.Code)
	}

	rec = doNotes(h.UpdateNote, http.MethodPut, "/api/v1/notes/x", `{"message":"ghost"}`, author, "id", uuid.NewString())
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown note, got %d", rec.Code)
	}
}
