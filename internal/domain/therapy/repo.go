package therapy

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type RequestRepository interface {
	// Create stores the request and its generated sessions atomically.
	Create(ctx context.Context, req *TherapyRequest, sessions []*Session) error
	GetByID(ctx context.Context, id uuid.UUID) (*TherapyRequest, error)
	// GetWithSessions loads the request with its full session list.
	GetWithSessions(ctx context.Context, id uuid.UUID) (*TherapyRequest, error)
	SetThrpyStatus(ctx context.Context, id uuid.UUID, status string) error
	SetStatusYN(ctx context.Context, id uuid.UUID, yn string) error
	ListByCounselor(ctx context.Context, counselorID uuid.UUID, limit, offset int) ([]*TherapyRequest, int, error)
}

type SessionRepository interface {
	Create(ctx context.Context, s *Session) error
	GetByID(ctx context.Context, id uuid.UUID) (*Session, error)
	ListByRequest(ctx context.Context, reqID uuid.UUID) ([]*Session, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status SessionStatus, noShowReason *string) error
	// UpdateSchedule moves a session to a new date/time.
	UpdateSchedule(ctx context.Context, id uuid.UUID, intakeDate, scheduledTime time.Time) error
	SetInvoiceNbr(ctx context.Context, id uuid.UUID, invoiceNbr string) error
	// HasConflict reports whether the counselor already has a live session
	// at the given time. exclude, when non-nil, skips that session (edits).
	HasConflict(ctx context.Context, counselorID uuid.UUID, scheduledTime time.Time, exclude *uuid.UUID) (bool, error)
}
