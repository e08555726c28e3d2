package invoice

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coscyrix/mindbridge-sub003/internal/platform/db"
)

// ErrInvoiceNotFound is returned when no invoice exists for a request.
var ErrInvoiceNotFound = errors.New("invoice not found")

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const invoiceCols = `id, req_id, invoice_nbr, subtotal, taxes, total, counselor_due, practice_due, generated_at`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.ReqID, &inv.InvoiceNbr, &inv.Subtotal, &inv.Taxes,
		&inv.Total, &inv.CounselorDue, &inv.PracticeDue, &inv.GeneratedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInvoiceNotFound
	}
	return &inv, err
}

func (r *repoPG) Create(ctx context.Context, inv *Invoice) error {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO invoice (id, req_id, invoice_nbr, subtotal, taxes, total, counselor_due, practice_due, generated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		inv.ID, inv.ReqID, inv.InvoiceNbr, inv.Subtotal, inv.Taxes,
		inv.Total, inv.CounselorDue, inv.PracticeDue, inv.GeneratedAt)
	if err != nil {
		return err
	}
	for _, item := range inv.LineItems {
		_, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO invoice_line (invoice_id, session_id, service_date, is_additional, price, taxes, counselor_amt, practice_amt)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			inv.ID, item.SessionID, item.ServiceDate, item.IsAdditional,
			item.Price, item.Taxes, item.CounselorAmt, item.PracticeAmt)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repoPG) GetByRequest(ctx context.Context, reqID uuid.UUID) (*Invoice, error) {
	inv, err := scanInvoice(r.conn(ctx).QueryRow(ctx,
		`SELECT `+invoiceCols+` FROM invoice WHERE req_id = $1`, reqID))
	if err != nil {
		return nil, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT session_id, service_date, is_additional, price, taxes, counselor_amt, practice_amt
		FROM invoice_line WHERE invoice_id = $1 ORDER BY service_date`, inv.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var item LineItem
		if err := rows.Scan(&item.SessionID, &item.ServiceDate, &item.IsAdditional,
			&item.Price, &item.Taxes, &item.CounselorAmt, &item.PracticeAmt); err != nil {
			return nil, err
		}
		inv.LineItems = append(inv.LineItems, item)
	}
	return inv, rows.Err()
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Invoice, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM invoice`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+invoiceCols+` FROM invoice ORDER BY generated_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, inv)
	}
	return items, total, rows.Err()
}
