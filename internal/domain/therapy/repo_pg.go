package therapy

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coscyrix/mindbridge-sub003/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// =========== Request Repository ===========

type requestRepoPG struct{ pool *pgxpool.Pool }

func NewRequestRepoPG(pool *pgxpool.Pool) RequestRepository { return &requestRepoPG{pool: pool} }

func (r *requestRepoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

func (r *requestRepoPG) begin(ctx context.Context) (pgx.Tx, error) {
	if c := db.ConnFromContext(ctx); c != nil {
		return c.Begin(ctx)
	}
	return r.pool.Begin(ctx)
}

const reqCols = `id, counselor_id, client_id, service_id, session_format, intake_date,
	thrpy_status, status_yn, is_group, group_name, created_at, updated_at`

func scanRequest(row pgx.Row) (*TherapyRequest, error) {
	var tr TherapyRequest
	err := row.Scan(&tr.ID, &tr.CounselorID, &tr.ClientID, &tr.ServiceID, &tr.SessionFormat,
		&tr.IntakeDate, &tr.ThrpyStatus, &tr.StatusYN, &tr.IsGroup, &tr.GroupName,
		&tr.CreatedAt, &tr.UpdatedAt)
	return &tr, err
}

func (r *requestRepoPG) Create(ctx context.Context, req *TherapyRequest, sessions []*Session) error {
	tx, err := r.begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	req.ID = uuid.New()
	_, err = tx.Exec(ctx, `
		INSERT INTO therapy_request (id, counselor_id, client_id, service_id, session_format,
			intake_date, thrpy_status, status_yn, is_group, group_name)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		req.ID, req.CounselorID, req.ClientID, req.ServiceID, req.SessionFormat,
		req.IntakeDate, req.ThrpyStatus, req.StatusYN, req.IsGroup, req.GroupName)
	if err != nil {
		return err
	}

	for _, p := range req.Participants {
		if _, err := tx.Exec(ctx, `
			INSERT INTO therapy_request_participant (req_id, user_profile_id)
			VALUES ($1,$2)`, req.ID, p); err != nil {
			return err
		}
	}

	for _, s := range sessions {
		s.ID = uuid.New()
		s.ReqID = req.ID
		if _, err := tx.Exec(ctx, `
			INSERT INTO session (id, req_id, position, intake_date, scheduled_time,
				session_status, is_additional, price, taxes, counselor_amt, practice_amt, forms_array)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
			s.ID, s.ReqID, s.Position, s.IntakeDate, s.ScheduledTime,
			s.Status, s.IsAdditional, s.Price, s.Taxes, s.CounselorAmt, s.PracticeAmt, s.FormsArray); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *requestRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*TherapyRequest, error) {
	return scanRequest(r.conn(ctx).QueryRow(ctx, `SELECT `+reqCols+` FROM therapy_request WHERE id = $1`, id))
}

func (r *requestRepoPG) GetWithSessions(ctx context.Context, id uuid.UUID) (*TherapyRequest, error) {
	req, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT user_profile_id FROM therapy_request_participant WHERE req_id = $1`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var p uuid.UUID
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		req.Participants = append(req.Participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sessions := &sessionRepoPG{pool: r.pool}
	req.Sessions, err = sessions.ListByRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	return req, nil
}

func (r *requestRepoPG) SetThrpyStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE therapy_request SET thrpy_status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *requestRepoPG) SetStatusYN(ctx context.Context, id uuid.UUID, yn string) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE therapy_request SET status_yn = $2, updated_at = NOW() WHERE id = $1`, id, yn)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *requestRepoPG) ListByCounselor(ctx context.Context, counselorID uuid.UUID, limit, offset int) ([]*TherapyRequest, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM therapy_request WHERE counselor_id = $1 AND status_yn = 'y'`, counselorID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+reqCols+` FROM therapy_request
		WHERE counselor_id = $1 AND status_yn = 'y'
		ORDER BY intake_date DESC LIMIT $2 OFFSET $3`, counselorID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*TherapyRequest
	for rows.Next() {
		tr, err := scanRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, tr)
	}
	return items, total, rows.Err()
}

// =========== Session Repository ===========

type sessionRepoPG struct{ pool *pgxpool.Pool }

func NewSessionRepoPG(pool *pgxpool.Pool) SessionRepository { return &sessionRepoPG{pool: pool} }

func (r *sessionRepoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const sessionCols = `id, req_id, position, intake_date, scheduled_time, session_status,
	is_additional, price, taxes, counselor_amt, practice_amt, forms_array,
	invoice_nbr, no_show_reason, created_at, updated_at`

func scanSession(row pgx.Row) (*Session, error) {
	var s Session
	err := row.Scan(&s.ID, &s.ReqID, &s.Position, &s.IntakeDate, &s.ScheduledTime, &s.Status,
		&s.IsAdditional, &s.Price, &s.Taxes, &s.CounselorAmt, &s.PracticeAmt, &s.FormsArray,
		&s.InvoiceNbr, &s.NoShowReason, &s.CreatedAt, &s.UpdatedAt)
	return &s, err
}

func (r *sessionRepoPG) Create(ctx context.Context, s *Session) error {
	s.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO session (id, req_id, position, intake_date, scheduled_time,
			session_status, is_additional, price, taxes, counselor_amt, practice_amt, forms_array)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		s.ID, s.ReqID, s.Position, s.IntakeDate, s.ScheduledTime,
		s.Status, s.IsAdditional, s.Price, s.Taxes, s.CounselorAmt, s.PracticeAmt, s.FormsArray)
	return err
}

func (r *sessionRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Session, error) {
	return scanSession(r.conn(ctx).QueryRow(ctx, `SELECT `+sessionCols+` FROM session WHERE id = $1`, id))
}

func (r *sessionRepoPG) ListByRequest(ctx context.Context, reqID uuid.UUID) ([]*Session, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+sessionCols+` FROM session WHERE req_id = $1 ORDER BY intake_date, position`, reqID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

func (r *sessionRepoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status SessionStatus, noShowReason *string) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE session SET session_status = $2, no_show_reason = $3, updated_at = NOW()
		WHERE id = $1`, id, status, noShowReason)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *sessionRepoPG) UpdateSchedule(ctx context.Context, id uuid.UUID, intakeDate, scheduledTime time.Time) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE session SET intake_date = $2, scheduled_time = $3, updated_at = NOW()
		WHERE id = $1`, id, intakeDate, scheduledTime)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *sessionRepoPG) SetInvoiceNbr(ctx context.Context, id uuid.UUID, invoiceNbr string) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE session SET invoice_nbr = $2, updated_at = NOW() WHERE id = $1`, id, invoiceNbr)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *sessionRepoPG) HasConflict(ctx context.Context, counselorID uuid.UUID, scheduledTime time.Time, exclude *uuid.UUID) (bool, error) {
	var taken bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM session s
			JOIN therapy_request tr ON tr.id = s.req_id
			WHERE tr.counselor_id = $1
			  AND tr.status_yn = 'y'
			  AND s.scheduled_time = $2
			  AND s.session_status NOT IN ('CANCELLED', 'INACTIVE')
			  AND ($3::uuid IS NULL OR s.id <> $3)
		)`, counselorID, scheduledTime, exclude).Scan(&taken)
	return taken, err
}
