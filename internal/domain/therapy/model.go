package therapy

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SessionStatus is the closed set of states a session can be in.
type SessionStatus string

const (
	StatusScheduled  SessionStatus = "SCHEDULED"
	StatusShow       SessionStatus = "SHOW"
	StatusNoShow     SessionStatus = "NO-SHOW"
	StatusDischarged SessionStatus = "DISCHARGED"
	StatusInactive   SessionStatus = "INACTIVE"
	StatusCancelled  SessionStatus = "CANCELLED"
)

// ParseSessionStatus normalizes a status string (any case) into the enum.
func ParseSessionStatus(s string) (SessionStatus, error) {
	switch SessionStatus(strings.ToUpper(strings.TrimSpace(s))) {
	case StatusScheduled:
		return StatusScheduled, nil
	case StatusShow:
		return StatusShow, nil
	case StatusNoShow:
		return StatusNoShow, nil
	case StatusDischarged:
		return StatusDischarged, nil
	case StatusInactive:
		return StatusInactive, nil
	case StatusCancelled:
		return StatusCancelled, nil
	}
	return "", fmt.Errorf("unknown session status: %s", s)
}

// AcceptsActions reports whether any state-changing action may touch a
// session in this status. Inactive sessions accept none.
func (s SessionStatus) AcceptsActions() bool {
	return s != StatusInactive
}

// Session formats, fixed at request creation.
const (
	FormatOnline   = "ONLINE"
	FormatInPerson = "IN_PERSON"
)

// Therapy request lifecycle status.
const (
	ThrpyOngoing    = "ONGOING"
	ThrpyDischarged = "DISCHARGED"
)

// TherapyRequest maps to the therapy_request table: the scheduling
// aggregate tying a counselor, client and service to an ordered series of
// sessions.
type TherapyRequest struct {
	ID            uuid.UUID `db:"id" json:"req_id"`
	CounselorID   uuid.UUID `db:"counselor_id" json:"counselor_id"`
	ClientID      uuid.UUID `db:"client_id" json:"client_id"`
	ServiceID     uuid.UUID `db:"service_id" json:"service_id"`
	SessionFormat string    `db:"session_format" json:"session_format_id"`
	IntakeDate    time.Time `db:"intake_date" json:"intake_dte"`
	ThrpyStatus   string    `db:"thrpy_status" json:"thrpy_status"`
	// StatusYN is the soft-delete flag: 'y' live, 'n' voided.
	StatusYN  string    `db:"status_yn" json:"status_yn"`
	IsGroup   bool      `db:"is_group" json:"is_group"`
	GroupName *string   `db:"group_name" json:"group_name,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	// Participants holds group member profile ids. Empty for individual
	// requests.
	Participants []uuid.UUID `db:"-" json:"participants,omitempty"`
	Sessions     []*Session  `db:"-" json:"session_obj,omitempty"`
}

// Live reports whether the request is neither voided nor discharged.
func (r *TherapyRequest) Live() bool {
	return r.StatusYN == "y" && r.ThrpyStatus != ThrpyDischarged
}

// Session maps to the session table: one scheduled occurrence within a
// therapy request. Sessions are never hard-deleted, only status-flagged.
type Session struct {
	ID    uuid.UUID `db:"id" json:"session_id"`
	ReqID uuid.UUID `db:"req_id" json:"req_id"`
	// Position is the 1-based ordinal within the generated series. Zero for
	// additional sessions.
	Position      int           `db:"position" json:"position"`
	IntakeDate    time.Time     `db:"intake_date" json:"intake_date"`
	ScheduledTime time.Time     `db:"scheduled_time" json:"scheduled_time"`
	Status        SessionStatus `db:"session_status" json:"session_status"`
	IsAdditional  bool          `db:"is_additional" json:"is_additional"`
	Price         float64       `db:"price" json:"session_price"`
	Taxes         float64       `db:"taxes" json:"session_taxes"`
	CounselorAmt  float64       `db:"counselor_amt" json:"session_counselor_amt"`
	PracticeAmt   float64       `db:"practice_amt" json:"session_system_amt"`
	FormsArray    []string      `db:"forms_array" json:"forms_array"`
	InvoiceNbr    *string       `db:"invoice_nbr" json:"invoice_nbr,omitempty"`
	NoShowReason  *string       `db:"no_show_reason" json:"no_show_reason,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

// Discharge actions inferred from session attendance.
const (
	ActionDischarge = "Discharge"
	ActionDelete    = "Delete"
)

// DischargeActionFor returns "Discharge" when at least one non-additional
// session was attended, otherwise "Delete". Status comparison is
// case-insensitive because historical rows carry mixed casing.
func DischargeActionFor(sessions []*Session) string {
	for _, s := range sessions {
		if s.IsAdditional {
			continue
		}
		if strings.EqualFold(string(s.Status), string(StatusShow)) {
			return ActionDischarge
		}
	}
	return ActionDelete
}

// RequestDetail is the full aggregate view: sessions partitioned by
// is_additional, the inferred discharge action, and note counts keyed by
// session id.
type RequestDetail struct {
	Request            *TherapyRequest `json:"request"`
	ScheduledSessions  []*Session      `json:"scheduled_sessions"`
	AdditionalSessions []*Session      `json:"additional_sessions"`
	DischargeAction    string          `json:"discharge_action"`
	NoteCounts         map[string]int  `json:"note_counts"`
}

// RescheduleWindow bounds the dates a session may move to. Max is nil when
// the session has no successor in its partition.
type RescheduleWindow struct {
	Min time.Time  `json:"min"`
	Max *time.Time `json:"max,omitempty"`
}

// Contains reports whether t falls inside the window. The bounds are
// whole days, inclusive.
func (w RescheduleWindow) Contains(t time.Time) bool {
	day := dateOf(t)
	if day.Before(dateOf(w.Min)) {
		return false
	}
	if w.Max != nil && day.After(dateOf(*w.Max)) {
		return false
	}
	return true
}

// WindowFor computes the reschedule window for the session with the given
// id among its siblings. Only sessions in the same is_additional partition
// bound the window; the lower bound never precedes today.
func WindowFor(sessions []*Session, sessionID uuid.UUID, now time.Time) (RescheduleWindow, error) {
	var target *Session
	for _, s := range sessions {
		if s.ID == sessionID {
			target = s
			break
		}
	}
	if target == nil {
		return RescheduleWindow{}, fmt.Errorf("session %s not in request", sessionID)
	}

	var partition []*Session
	for _, s := range sessions {
		if s.IsAdditional == target.IsAdditional {
			partition = append(partition, s)
		}
	}
	sortByIntakeDate(partition)

	idx := -1
	for i, s := range partition {
		if s.ID == sessionID {
			idx = i
			break
		}
	}

	w := RescheduleWindow{Min: dateOf(now)}
	if idx > 0 {
		prev := dateOf(partition[idx-1].IntakeDate)
		if prev.After(w.Min) {
			w.Min = prev
		}
	}
	if idx >= 0 && idx < len(partition)-1 {
		next := dateOf(partition[idx+1].IntakeDate)
		w.Max = &next
	}
	return w, nil
}

func sortByIntakeDate(sessions []*Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].IntakeDate.Before(sessions[j].IntakeDate)
	})
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
