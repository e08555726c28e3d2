package feesplit

import (
	"time"

	"github.com/google/uuid"
)

// SplitConfig maps to the fee_split_config table. A row with a nil
// CounselorID is the practice default; rows with a counselor id override
// the default for that counselor.
type SplitConfig struct {
	ID             uuid.UUID  `db:"id" json:"split_id"`
	CounselorID    *uuid.UUID `db:"counselor_id" json:"counselor_id,omitempty"`
	CounselorEmail string     `db:"counselor_email" json:"counselor_email,omitempty"`
	CounselorPct   float64    `db:"counselor_pct" json:"counselor_share_pct"`
	PracticePct    float64    `db:"practice_pct" json:"practice_share_pct"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// IsDefault reports whether this row is the practice-wide default split.
func (s *SplitConfig) IsDefault() bool { return s.CounselorID == nil }

// Shares computes the counselor and practice amounts for a session price,
// rounded to cents.
func (s *SplitConfig) Shares(price float64) (counselor, practice float64) {
	counselor = roundCents(price * s.CounselorPct / 100)
	practice = roundCents(price - counselor)
	return counselor, practice
}

func roundCents(v float64) float64 {
	if v < 0 {
		return float64(int64(v*100-0.5)) / 100
	}
	return float64(int64(v*100+0.5)) / 100
}

// SplitListing partitions the practice's configs the way callers consume
// them: counselor overrides on one side, the default on the other.
type SplitListing struct {
	Counselors []*SplitConfig `json:"counselor_splits"`
	Default    *SplitConfig   `json:"default_split,omitempty"`
}
