package invoice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/coscyrix/mindbridge-sub003/internal/domain/therapy"
)

// ErrNothingToBill is returned when a request has no attended sessions.
var ErrNothingToBill = errors.New("no billable sessions on this request")

// SessionSource is the slice of the therapy domain invoicing needs.
// Implemented by therapy.Service.
type SessionSource interface {
	GetRequest(ctx context.Context, id uuid.UUID) (*therapy.RequestDetail, error)
	SetInvoiceNumber(ctx context.Context, sessionID uuid.UUID, invoiceNbr string) error
}

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

type Service struct {
	repo     Repository
	sessions SessionSource
	clock    Clock
}

func NewService(repo Repository, sessions SessionSource, clock Clock) *Service {
	if clock == nil {
		clock = systemClock{}
	}
	return &Service{repo: repo, sessions: sessions, clock: clock}
}

// Preview computes the invoice summary for a request without persisting
// anything. Attended sessions only; no-shows and cancellations are not
// billed.
func (s *Service) Preview(ctx context.Context, reqID uuid.UUID) (*Invoice, error) {
	detail, err := s.sessions.GetRequest(ctx, reqID)
	if err != nil {
		return nil, err
	}
	return s.build(detail)
}

// Generate persists the invoice and stamps its number onto every billed
// session.
func (s *Service) Generate(ctx context.Context, reqID uuid.UUID) (*Invoice, error) {
	detail, err := s.sessions.GetRequest(ctx, reqID)
	if err != nil {
		return nil, err
	}
	inv, err := s.build(detail)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("storing invoice: %w", err)
	}
	for _, item := range inv.LineItems {
		if err := s.sessions.SetInvoiceNumber(ctx, item.SessionID, inv.InvoiceNbr); err != nil {
			return nil, fmt.Errorf("stamping session %s: %w", item.SessionID, err)
		}
	}
	return inv, nil
}

// GetByRequest returns a previously generated invoice.
func (s *Service) GetByRequest(ctx context.Context, reqID uuid.UUID) (*Invoice, error) {
	return s.repo.GetByRequest(ctx, reqID)
}

// List pages through generated invoices, newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*Invoice, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) build(detail *therapy.RequestDetail) (*Invoice, error) {
	now := s.clock.Now()
	inv := &Invoice{
		ID:          uuid.New(),
		ReqID:       detail.Request.ID,
		GeneratedAt: now,
	}
	inv.InvoiceNbr = invoiceNumber(now, inv.ID)

	all := append([]*therapy.Session{}, detail.ScheduledSessions...)
	all = append(all, detail.AdditionalSessions...)
	for _, sess := range all {
		if !strings.EqualFold(string(sess.Status), string(therapy.StatusShow)) {
			continue
		}
		inv.LineItems = append(inv.LineItems, LineItem{
			SessionID:    sess.ID,
			ServiceDate:  sess.ScheduledTime,
			IsAdditional: sess.IsAdditional,
			Price:        sess.Price,
			Taxes:        sess.Taxes,
			CounselorAmt: sess.CounselorAmt,
			PracticeAmt:  sess.PracticeAmt,
		})
		inv.Subtotal += sess.Price
		inv.Taxes += sess.Taxes
		inv.CounselorDue += sess.CounselorAmt
		inv.PracticeDue += sess.PracticeAmt
	}
	if len(inv.LineItems) == 0 {
		return nil, ErrNothingToBill
	}
	inv.Total = inv.Subtotal + inv.Taxes
	return inv, nil
}

// invoiceNumber derives a stable human-facing number from the month and
// the invoice id prefix, e.g. INV-202603-1a2b3c4d.
func invoiceNumber(now time.Time, id uuid.UUID) string {
	return fmt.Sprintf("INV-%s-%s", now.Format("200601"), strings.Split(id.String(), "-")[0])
}
