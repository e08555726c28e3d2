package invoice

import (
	"time"

	"github.com/google/uuid"
)

// LineItem is one billed session on an invoice, carrying the fee split
// breakdown computed at scheduling time.
type LineItem struct {
	SessionID    uuid.UUID `db:"session_id" json:"session_id"`
	ServiceDate  time.Time `db:"service_date" json:"service_date"`
	IsAdditional bool      `db:"is_additional" json:"is_additional"`
	Price        float64   `db:"price" json:"price"`
	Taxes        float64   `db:"taxes" json:"taxes"`
	CounselorAmt float64   `db:"counselor_amt" json:"counselor_amt"`
	PracticeAmt  float64   `db:"practice_amt" json:"practice_amt"`
}

// Invoice is the per-request billing summary over attended sessions.
type Invoice struct {
	ID           uuid.UUID  `db:"id" json:"invoice_id"`
	ReqID        uuid.UUID  `db:"req_id" json:"req_id"`
	InvoiceNbr   string     `db:"invoice_nbr" json:"invoice_nbr"`
	LineItems    []LineItem `db:"-" json:"line_items"`
	Subtotal     float64    `db:"subtotal" json:"subtotal"`
	Taxes        float64    `db:"taxes" json:"taxes"`
	Total        float64    `db:"total" json:"total"`
	CounselorDue float64    `db:"counselor_due" json:"counselor_due"`
	PracticeDue  float64    `db:"practice_due" json:"practice_due"`
	GeneratedAt  time.Time  `db:"generated_at" json:"generated_at"`
}
