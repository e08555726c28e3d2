package therapy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/coscyrix/mindbridge-sub003/internal/domain/feesplit"
	"github.com/coscyrix/mindbridge-sub003/internal/domain/reference"
	"github.com/coscyrix/mindbridge-sub003/internal/platform/auth"
)

var (
	// ErrSessionInactive rejects every action against an INACTIVE session.
	ErrSessionInactive = errors.New("inactive sessions accept no actions")
	// ErrOutsideWindow rejects reschedules outside the allowed date range.
	ErrOutsideWindow = errors.New("date is outside the allowed reschedule window")
	// ErrResetNotAllowed rejects status resets that miss the role or the
	// 24-hour window.
	ErrResetNotAllowed = errors.New("status reset not allowed")
)

// Clock abstracts time for the window and reset checks.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// ServiceCatalog is the slice of the reference domain the orchestrator
// needs. Implemented by reference.Service.
type ServiceCatalog interface {
	GetService(ctx context.Context, id uuid.UUID) (*reference.TherapyService, error)
	ListFormsByService(ctx context.Context, serviceID uuid.UUID) ([]*reference.Form, error)
	HasOpenSchedule(ctx context.Context, clientID uuid.UUID) (bool, error)
}

// SplitResolver yields the fee split for a counselor. Implemented by
// feesplit.Service.
type SplitResolver interface {
	Resolve(ctx context.Context, counselorID uuid.UUID) (*feesplit.SplitConfig, error)
}

// NoteCounter supplies per-session note counts for the aggregate view.
// Implemented by notes.Service.
type NoteCounter interface {
	CountBySessions(ctx context.Context, sessionIDs []uuid.UUID) (map[uuid.UUID]int, error)
}

type Service struct {
	requests RequestRepository
	sessions SessionRepository
	catalog  ServiceCatalog
	splits   SplitResolver
	notes    NoteCounter

	clock       Clock
	resetWindow time.Duration
}

func NewService(requests RequestRepository, sessions SessionRepository, catalog ServiceCatalog, splits SplitResolver, notes NoteCounter, clock Clock, resetWindow time.Duration) *Service {
	if clock == nil {
		clock = systemClock{}
	}
	if resetWindow <= 0 {
		resetWindow = 24 * time.Hour
	}
	return &Service{
		requests:    requests,
		sessions:    sessions,
		catalog:     catalog,
		splits:      splits,
		notes:       notes,
		clock:       clock,
		resetWindow: resetWindow,
	}
}

// CreateRequestInput carries everything schedule generation needs.
type CreateRequestInput struct {
	CounselorID      uuid.UUID `json:"counselor_id"`
	ClientID         uuid.UUID `json:"client_id"`
	ServiceID        uuid.UUID `json:"service_id"`
	SessionFormat    string    `json:"session_format_id"`
	IntakeDate       time.Time `json:"intake_dte"`
	NumberOfSessions *int      `json:"number_of_sessions,omitempty"`

	// Group fields, used by the group variant only.
	GroupName    *string     `json:"group_name,omitempty"`
	Participants []uuid.UUID `json:"participants,omitempty"`
}

func (in *CreateRequestInput) validate() error {
	if in.ClientID == uuid.Nil {
		return fmt.Errorf("client_id is required")
	}
	if in.ServiceID == uuid.Nil {
		return fmt.Errorf("service_id is required")
	}
	if in.CounselorID == uuid.Nil {
		return fmt.Errorf("counselor_id is required")
	}
	if in.SessionFormat != FormatOnline && in.SessionFormat != FormatInPerson {
		return fmt.Errorf("session_format_id must be %s or %s", FormatOnline, FormatInPerson)
	}
	if in.IntakeDate.IsZero() {
		return fmt.Errorf("intake_dte is required")
	}
	if in.NumberOfSessions != nil && *in.NumberOfSessions < 1 {
		return fmt.Errorf("number_of_sessions must be at least 1")
	}
	return nil
}

// CreateRequest validates the input, generates the session series from the
// service plan, prices each session through the fee split, and stores the
// aggregate. A collision with the counselor's existing live sessions
// surfaces as ErrTimeSlotTaken before anything is written.
func (s *Service) CreateRequest(ctx context.Context, in *CreateRequestInput) (*TherapyRequest, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	open, err := s.catalog.HasOpenSchedule(ctx, in.ClientID)
	if err != nil {
		return nil, fmt.Errorf("checking client schedule: %w", err)
	}
	if open {
		return nil, fmt.Errorf("client already has an ongoing schedule")
	}

	return s.createRequest(ctx, in)
}

// CreateGroupRequest is the group-session variant: same generation, plus
// group metadata and at least one participant.
func (s *Service) CreateGroupRequest(ctx context.Context, in *CreateRequestInput) (*TherapyRequest, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if len(in.Participants) < 1 {
		return nil, fmt.Errorf("group requests require at least one participant")
	}
	if in.GroupName == nil || *in.GroupName == "" {
		return nil, fmt.Errorf("group_name is required")
	}
	return s.createRequest(ctx, in)
}

func (s *Service) createRequest(ctx context.Context, in *CreateRequestInput) (*TherapyRequest, error) {
	svc, err := s.catalog.GetService(ctx, in.ServiceID)
	if err != nil {
		return nil, fmt.Errorf("loading service: %w", err)
	}

	split, err := s.splits.Resolve(ctx, in.CounselorID)
	if err != nil {
		return nil, fmt.Errorf("resolving fee split: %w", err)
	}

	forms, err := s.catalog.ListFormsByService(ctx, in.ServiceID)
	if err != nil {
		return nil, fmt.Errorf("loading forms: %w", err)
	}

	count := svc.TotalSessions
	if in.NumberOfSessions != nil && *in.NumberOfSessions < count {
		count = *in.NumberOfSessions
	}

	req := &TherapyRequest{
		CounselorID:   in.CounselorID,
		ClientID:      in.ClientID,
		ServiceID:     in.ServiceID,
		SessionFormat: in.SessionFormat,
		IntakeDate:    in.IntakeDate.UTC(),
		ThrpyStatus:   ThrpyOngoing,
		StatusYN:      "y",
		IsGroup:       len(in.Participants) > 0,
		GroupName:     in.GroupName,
		Participants:  in.Participants,
	}

	counselorAmt, practiceAmt := split.Shares(svc.Price)
	taxes := roundCents(svc.Price * svc.GSTPercent / 100)

	sessions := make([]*Session, 0, count)
	for i := 1; i <= count; i++ {
		when := req.IntakeDate.AddDate(0, 0, (i-1)*svc.CadenceDays)
		sessions = append(sessions, &Session{
			Position:      i,
			IntakeDate:    when,
			ScheduledTime: when,
			Status:        StatusScheduled,
			IsAdditional:  false,
			Price:         svc.Price,
			Taxes:         taxes,
			CounselorAmt:  counselorAmt,
			PracticeAmt:   practiceAmt,
			FormsArray:    formsAt(forms, i),
		})
	}

	for _, sess := range sessions {
		taken, err := s.sessions.HasConflict(ctx, in.CounselorID, sess.ScheduledTime, nil)
		if err != nil {
			return nil, fmt.Errorf("checking conflicts: %w", err)
		}
		if taken {
			return nil, ErrTimeSlotTaken
		}
	}

	if err := s.requests.Create(ctx, req, sessions); err != nil {
		return nil, NormalizeConflict(err)
	}
	req.Sessions = sessions
	return req, nil
}

func formsAt(forms []*reference.Form, ordinal int) []string {
	ids := []string{}
	for _, f := range forms {
		if f.AppliesTo(ordinal) {
			ids = append(ids, f.ID.String())
		}
	}
	return ids
}

func roundCents(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}

// GetRequest returns the aggregate view: sessions partitioned into the
// generated schedule and additional services, the inferred discharge
// action, and note counts per session.
func (s *Service) GetRequest(ctx context.Context, id uuid.UUID) (*RequestDetail, error) {
	req, err := s.requests.GetWithSessions(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &RequestDetail{
		Request:            req,
		ScheduledSessions:  []*Session{},
		AdditionalSessions: []*Session{},
		NoteCounts:         map[string]int{},
	}

	ids := make([]uuid.UUID, 0, len(req.Sessions))
	for _, sess := range req.Sessions {
		ids = append(ids, sess.ID)
		if sess.IsAdditional {
			detail.AdditionalSessions = append(detail.AdditionalSessions, sess)
		} else {
			detail.ScheduledSessions = append(detail.ScheduledSessions, sess)
		}
	}
	detail.DischargeAction = DischargeActionFor(req.Sessions)

	if s.notes != nil && len(ids) > 0 {
		counts, err := s.notes.CountBySessions(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("counting notes: %w", err)
		}
		for id, n := range counts {
			detail.NoteCounts[id.String()] = n
		}
	}
	return detail, nil
}

// DischargeOrDelete applies the inferred aggregate action: discharge the
// request when any core session was attended, void it otherwise.
func (s *Service) DischargeOrDelete(ctx context.Context, id uuid.UUID) (string, error) {
	req, err := s.requests.GetWithSessions(ctx, id)
	if err != nil {
		return "", err
	}

	action := DischargeActionFor(req.Sessions)
	if action == ActionDischarge {
		if err := s.requests.SetThrpyStatus(ctx, id, ThrpyDischarged); err != nil {
			return "", err
		}
		return action, nil
	}
	if err := s.requests.SetStatusYN(ctx, id, "n"); err != nil {
		return "", err
	}
	return action, nil
}

// DiscardRequest voids a generated-but-unwanted schedule.
func (s *Service) DiscardRequest(ctx context.Context, id uuid.UUID) error {
	if _, err := s.requests.GetByID(ctx, id); err != nil {
		return err
	}
	return s.requests.SetStatusYN(ctx, id, "n")
}

// SetSessionStatus moves a session between SCHEDULED, SHOW and NO-SHOW.
// NO-SHOW requires a reason. Resetting back to SCHEDULED is restricted to
// managers and admins, within the reset window after the session, and only
// from SHOW or NO-SHOW.
func (s *Service) SetSessionStatus(ctx context.Context, sessionID uuid.UUID, status SessionStatus, noShowReason *string) error {
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if !sess.Status.AcceptsActions() {
		return ErrSessionInactive
	}

	switch status {
	case StatusShow:
		if sess.Status != StatusScheduled {
			return fmt.Errorf("cannot mark %s session as attended", sess.Status)
		}
		return s.sessions.UpdateStatus(ctx, sessionID, StatusShow, nil)

	case StatusNoShow:
		if sess.Status != StatusScheduled {
			return fmt.Errorf("cannot mark %s session as missed", sess.Status)
		}
		if noShowReason == nil || *noShowReason == "" {
			return fmt.Errorf("no-show reason is required")
		}
		return s.sessions.UpdateStatus(ctx, sessionID, StatusNoShow, noShowReason)

	case StatusScheduled:
		if !auth.CanResetSessionStatus(auth.RoleFromContext(ctx)) {
			return ErrResetNotAllowed
		}
		if sess.Status != StatusShow && sess.Status != StatusNoShow {
			return fmt.Errorf("only attended or missed sessions can be reset")
		}
		now := s.clock.Now()
		if now.Before(sess.ScheduledTime) || now.Sub(sess.ScheduledTime) > s.resetWindow {
			return ErrResetNotAllowed
		}
		return s.sessions.UpdateStatus(ctx, sessionID, StatusScheduled, nil)

	default:
		return fmt.Errorf("unsupported status transition to %s", status)
	}
}

// RescheduleWindowFor exposes the allowed date range for moving a session.
func (s *Service) RescheduleWindowFor(ctx context.Context, sessionID uuid.UUID) (RescheduleWindow, error) {
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return RescheduleWindow{}, err
	}
	siblings, err := s.sessions.ListByRequest(ctx, sess.ReqID)
	if err != nil {
		return RescheduleWindow{}, err
	}
	return WindowFor(siblings, sessionID, s.clock.Now())
}

// EditSession moves a session to a new date/time after validating the
// reschedule window and checking the counselor's calendar for collisions.
func (s *Service) EditSession(ctx context.Context, sessionID uuid.UUID, newTime time.Time) error {
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if !sess.Status.AcceptsActions() {
		return ErrSessionInactive
	}
	if sess.Status != StatusScheduled {
		return fmt.Errorf("only scheduled sessions can be moved")
	}

	newTime = newTime.UTC()
	siblings, err := s.sessions.ListByRequest(ctx, sess.ReqID)
	if err != nil {
		return err
	}
	window, err := WindowFor(siblings, sessionID, s.clock.Now())
	if err != nil {
		return err
	}
	if !window.Contains(newTime) {
		return ErrOutsideWindow
	}

	req, err := s.requests.GetByID(ctx, sess.ReqID)
	if err != nil {
		return err
	}
	taken, err := s.sessions.HasConflict(ctx, req.CounselorID, newTime, &sessionID)
	if err != nil {
		return fmt.Errorf("checking conflicts: %w", err)
	}
	if taken {
		return ErrTimeSlotTaken
	}

	return s.sessions.UpdateSchedule(ctx, sessionID, dateOf(newTime), newTime)
}

// CreateAdditionalSession attaches an ad-hoc billing/scheduling item to an
// existing request, priced through the same fee split and checked against
// the same collision classifier.
func (s *Service) CreateAdditionalSession(ctx context.Context, reqID, serviceID uuid.UUID, when time.Time) (*Session, error) {
	if when.IsZero() {
		return nil, fmt.Errorf("scheduled_time is required")
	}
	req, err := s.requests.GetByID(ctx, reqID)
	if err != nil {
		return nil, err
	}
	if !req.Live() {
		return nil, fmt.Errorf("request is not open")
	}

	svc, err := s.catalog.GetService(ctx, serviceID)
	if err != nil {
		return nil, fmt.Errorf("loading service: %w", err)
	}
	split, err := s.splits.Resolve(ctx, req.CounselorID)
	if err != nil {
		return nil, fmt.Errorf("resolving fee split: %w", err)
	}

	when = when.UTC()
	taken, err := s.sessions.HasConflict(ctx, req.CounselorID, when, nil)
	if err != nil {
		return nil, fmt.Errorf("checking conflicts: %w", err)
	}
	if taken {
		return nil, ErrTimeSlotTaken
	}

	counselorAmt, practiceAmt := split.Shares(svc.Price)
	sess := &Session{
		ReqID:         reqID,
		IntakeDate:    dateOf(when),
		ScheduledTime: when,
		Status:        StatusScheduled,
		IsAdditional:  true,
		Price:         svc.Price,
		Taxes:         roundCents(svc.Price * svc.GSTPercent / 100),
		CounselorAmt:  counselorAmt,
		PracticeAmt:   practiceAmt,
		FormsArray:    []string{},
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, NormalizeConflict(err)
	}
	return sess, nil
}

// GetSession returns a single session by id.
func (s *Service) GetSession(ctx context.Context, sessionID uuid.UUID) (*Session, error) {
	return s.sessions.GetByID(ctx, sessionID)
}

// CancelSession marks a scheduled session cancelled. The row stays.
func (s *Service) CancelSession(ctx context.Context, sessionID uuid.UUID) error {
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if !sess.Status.AcceptsActions() {
		return ErrSessionInactive
	}
	if sess.Status != StatusScheduled {
		return fmt.Errorf("cannot cancel a %s session", sess.Status)
	}
	return s.sessions.UpdateStatus(ctx, sessionID, StatusCancelled, nil)
}

// SetInvoiceNumber stamps an invoice number onto a session.
func (s *Service) SetInvoiceNumber(ctx context.Context, sessionID uuid.UUID, invoiceNbr string) error {
	if invoiceNbr == "" {
		return fmt.Errorf("invoice_nbr is required")
	}
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if !sess.Status.AcceptsActions() {
		return ErrSessionInactive
	}
	return s.sessions.SetInvoiceNbr(ctx, sessionID, invoiceNbr)
}

// ListRequestsByCounselor pages through a counselor's live requests.
func (s *Service) ListRequestsByCounselor(ctx context.Context, counselorID uuid.UUID, limit, offset int) ([]*TherapyRequest, int, error) {
	return s.requests.ListByCounselor(ctx, counselorID, limit, offset)
}
