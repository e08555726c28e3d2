package invoice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/coscyrix/mindbridge-sub003/internal/domain/therapy"
)

type mockInvoiceRepo struct {
	byRequest map[uuid.UUID]*Invoice
}

func newMockInvoiceRepo() *mockInvoiceRepo {
	return &mockInvoiceRepo{byRequest: make(map[uuid.UUID]*Invoice)}
}

func (m *mockInvoiceRepo) Create(_ context.Context, inv *Invoice) error {
	m.byRequest[inv.ReqID] = inv
	return nil
}

func (m *mockInvoiceRepo) GetByRequest(_ context.Context, reqID uuid.UUID) (*Invoice, error) {
	inv, ok := m.byRequest[reqID]
	if !ok {
		return nil, ErrInvoiceNotFound
	}
	return inv, nil
}

func (m *mockInvoiceRepo) List(_ context.Context, limit, offset int) ([]*Invoice, int, error) {
	var items []*Invoice
	for _, inv := range m.byRequest {
		items = append(items, inv)
	}
	return items, len(items), nil
}

type mockSessionSource struct {
	details  map[uuid.UUID]*therapy.RequestDetail
	stamped  map[uuid.UUID]string
	stampErr error
}

func newMockSessionSource() *mockSessionSource {
	return &mockSessionSource{
		details: make(map[uuid.UUID]*therapy.RequestDetail),
		stamped: make(map[uuid.UUID]string),
	}
}

func (m *mockSessionSource) GetRequest(_ context.Context, id uuid.UUID) (*therapy.RequestDetail, error) {
	d, ok := m.details[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return d, nil
}

func (m *mockSessionSource) SetInvoiceNumber(_ context.Context, sessionID uuid.UUID, nbr string) error {
	if m.stampErr != nil {
		return m.stampErr
	}
	m.stamped[sessionID] = nbr
	return nil
}

type fakeClock struct{ now time.Time }

func (f *fakeClock) Now() time.Time { return f.now }

func sessionWith(status therapy.SessionStatus, additional bool) *therapy.Session {
	return &therapy.Session{
		ID:            uuid.New(),
		ScheduledTime: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		Status:        status,
		IsAdditional:  additional,
		Price:         150,
		Taxes:         7.5,
		CounselorAmt:  105,
		PracticeAmt:   45,
	}
}

func detailWith(sessions ...*therapy.Session) *therapy.RequestDetail {
	d := &therapy.RequestDetail{
		Request: &therapy.TherapyRequest{ID: uuid.New()},
	}
	for _, s := range sessions {
		if s.IsAdditional {
			d.AdditionalSessions = append(d.AdditionalSessions, s)
		} else {
			d.ScheduledSessions = append(d.ScheduledSessions, s)
		}
	}
	return d
}

func newInvoiceService() (*Service, *mockInvoiceRepo, *mockSessionSource) {
	repo := newMockInvoiceRepo()
	source := newMockSessionSource()
	clock := &fakeClock{now: time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)}
	return NewService(repo, source, clock), repo, source
}

func TestPreviewBillsOnlyAttendedSessions(t *testing.T) {
	svc, _, source := newInvoiceService()
	detail := detailWith(
		sessionWith(therapy.StatusShow, false),
		sessionWith(therapy.StatusShow, false),
		sessionWith(therapy.StatusNoShow, false),
		sessionWith(therapy.StatusScheduled, false),
		sessionWith(therapy.StatusShow, true),
	)
	source.details[detail.Request.ID] = detail

	inv, err := svc.Preview(context.Background(), detail.Request.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(inv.LineItems) != 3 {
		t.Fatalf("expected 3 billed sessions, got %d", len(inv.LineItems))
	}
	if inv.Subtotal != 450 || inv.Taxes != 22.5 || inv.Total != 472.5 {
		t.Errorf("unexpected totals: %+v", inv)
	}
	if inv.CounselorDue != 315 || inv.PracticeDue != 135 {
		t.Errorf("unexpected split totals: counselor=%v practice=%v", inv.CounselorDue, inv.PracticeDue)
	}
	if !strings.HasPrefix(inv.InvoiceNbr, "INV-202603-") {
		t.Errorf("unexpected invoice number %q", inv.InvoiceNbr)
	}
}

func TestPreviewNothingToBill(t *testing.T) {
	svc, _, source := newInvoiceService()
	detail := detailWith(
		sessionWith(therapy.StatusScheduled, false),
		sessionWith(therapy.StatusNoShow, false),
	)
	source.details[detail.Request.ID] = detail

	_, err := svc.Preview(context.Background(), detail.Request.ID)
	if !errors.Is(err, ErrNothingToBill) {
		t.Fatalf("expected ErrNothingToBill, got %v", err)
	}
}

func TestGenerateStampsSessions(t *testing.T) {
	svc, repo, source := newInvoiceService()
	attended := sessionWith(therapy.StatusShow, false)
	skipped := sessionWith(therapy.StatusNoShow, false)
	detail := detailWith(attended, skipped)
	source.details[detail.Request.ID] = detail

	inv, err := svc.Generate(context.Background(), detail.Request.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := repo.byRequest[detail.Request.ID]; !ok {
		t.Error("expected invoice persisted")
	}
	if source.stamped[attended.ID] != inv.InvoiceNbr {
		t.Errorf("expected attended session stamped with %s, got %q", inv.InvoiceNbr, source.stamped[attended.ID])
	}
	if _, ok := source.stamped[skipped.ID]; ok {
		t.Error("no-show session must not be stamped")
	}

	got, err := svc.GetByRequest(context.Background(), detail.Request.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.InvoiceNbr != inv.InvoiceNbr {
		t.Errorf("expected stored invoice %s, got %s", inv.InvoiceNbr, got.InvoiceNbr)
	}
}

func TestGenerateUnknownRequest(t *testing.T) {
	svc, _, _ := newInvoiceService()
	if _, err := svc.Generate(context.Background(), uuid.New()); err == nil {
		t.Error("expected error for unknown request")
	}
}
