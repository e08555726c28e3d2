package reference

import (
	"time"

	"github.com/google/uuid"
)

// TherapyService maps to the therapy_service table: one entry in the
// practice's catalog of offered services (CBT program, intake assessment,
// and so on).
type TherapyService struct {
	ID            uuid.UUID `db:"id" json:"service_id"`
	Code          string    `db:"code" json:"service_code"`
	Name          string    `db:"name" json:"service_name"`
	TotalSessions int       `db:"total_sessions" json:"total_sessions"`
	CadenceDays   int       `db:"cadence_days" json:"cadence_days"`
	Price         float64   `db:"price" json:"price"`
	GSTPercent    float64   `db:"gst_percent" json:"gst_percent"`
	IsAdditional  bool      `db:"is_additional" json:"is_additional"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Form maps to the assessment_form table. Ordinals lists the 1-based
// session positions the form attaches to when a schedule is generated.
type Form struct {
	ID        uuid.UUID `db:"id" json:"form_id"`
	ServiceID uuid.UUID `db:"service_id" json:"service_id"`
	Name      string    `db:"name" json:"form_name"`
	Ordinals  []int32   `db:"ordinals" json:"session_ordinals"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// AppliesTo reports whether the form attaches at the given 1-based
// session position.
func (f *Form) AppliesTo(ordinal int) bool {
	for _, o := range f.Ordinals {
		if int(o) == ordinal {
			return true
		}
	}
	return false
}

// UserProfile maps to the user_profile table: clients and staff alike,
// distinguished by role id.
type UserProfile struct {
	ID        uuid.UUID  `db:"id" json:"user_profile_id"`
	RoleID    int        `db:"role_id" json:"role_id"`
	FirstName string     `db:"first_name" json:"first_name"`
	LastName  string     `db:"last_name" json:"last_name"`
	Email     string     `db:"email" json:"email"`
	// CounselorID links a client to their assigned counselor. Nil for staff.
	CounselorID *uuid.UUID `db:"counselor_id" json:"counselor_id,omitempty"`
	// HasSchedule is derived: true when the client has an open therapy
	// request. Never stored.
	HasSchedule bool      `db:"-" json:"has_schedule"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

func (u *UserProfile) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
