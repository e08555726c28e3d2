package invoice

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/coscyrix/mindbridge-sub003/internal/domain/therapy"
)

func doInvoice(h echo.HandlerFunc, method, target string, params ...string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
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

func TestHandlerPreviewAndGenerate(t *testing.T) {
	svc, _, source := newInvoiceService()
	h := NewHandler(svc)
	detail := detailWith(sessionWith(therapy.StatusShow, false))
	source.details[detail.Request.ID] = detail
	reqID := detail.Request.ID.String()

	rec := doInvoice(h.Preview, http.MethodGet, "/api/v1/invoice/x/preview", "reqId", reqID)
	if rec.Code != http.StatusOK {
		t.Fatalf("preview: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doInvoice(h.Generate, http.MethodPost, "/api/v1/invoice/x", "reqId", reqID)
	if rec.Code != http.StatusCreated {
		t.Fatalf("generate: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var inv Invoice
	if err := json.Unmarshal(rec.Body.Bytes(), &inv); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(inv.LineItems) != 1 {
		t.Errorf("expected 1 line item, got %d", len(inv.LineItems))
	}

	rec = doInvoice(h.GetByRequest, http.MethodGet, "/api/v1/invoice/x", "reqId", reqID)
	if rec.Code != http.StatusOK {
		t.Errorf("get: expected 200, got %d", rec.Code)
	}
}

func TestHandlerNothingToBill(t *testing.T) {
	svc, _, source := newInvoiceService()
	h := NewHandler(svc)
	detail := detailWith(sessionWith(therapy.StatusScheduled, false))
	source.details[detail.Request.ID] = detail

	rec := doInvoice(h.Generate, http.MethodPost, "/api/v1/invoice/x", "reqId", detail.Request.ID.String())
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", rec.Code)
	}
}

func TestHandlerInvoiceNotFound(t *testing.T) {
	svc, _, _ := newInvoiceService()
	h := NewHandler(svc)

	rec := doInvoice(h.GetByRequest, http.MethodGet, "/api/v1/invoice/x", "reqId", uuid.NewString())
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}

	rec = doInvoice(h.GetByRequest, http.MethodGet, "/api/v1/invoice/x", "reqId", "not-a-uuid")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad id, got %d", rec.Code)
	}
}
