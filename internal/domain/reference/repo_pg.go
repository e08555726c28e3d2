package reference

import (
	"context"

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

// =========== Service Repository ===========

type serviceRepoPG struct{ pool *pgxpool.Pool }

func NewServiceRepoPG(pool *pgxpool.Pool) ServiceRepository { return &serviceRepoPG{pool: pool} }

func (r *serviceRepoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const serviceCols = `id, code, name, total_sessions, cadence_days, price, gst_percent,
	is_additional, created_at, updated_at`

func scanService(row pgx.Row) (*TherapyService, error) {
	var s TherapyService
	err := row.Scan(&s.ID, &s.Code, &s.Name, &s.TotalSessions, &s.CadenceDays,
		&s.Price, &s.GSTPercent, &s.IsAdditional, &s.CreatedAt, &s.UpdatedAt)
	return &s, err
}

func (r *serviceRepoPG) Create(ctx context.Context, s *TherapyService) error {
	s.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO therapy_service (id, code, name, total_sessions, cadence_days,
			price, gst_percent, is_additional)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		s.ID, s.Code, s.Name, s.TotalSessions, s.CadenceDays,
		s.Price, s.GSTPercent, s.IsAdditional)
	return err
}

func (r *serviceRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*TherapyService, error) {
	return scanService(r.conn(ctx).QueryRow(ctx, `SELECT `+serviceCols+` FROM therapy_service WHERE id = $1`, id))
}

func (r *serviceRepoPG) List(ctx context.Context, limit, offset int) ([]*TherapyService, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM therapy_service`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+serviceCols+` FROM therapy_service ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*TherapyService
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, s)
	}
	return items, total, rows.Err()
}

// =========== Form Repository ===========

type formRepoPG struct{ pool *pgxpool.Pool }

func NewFormRepoPG(pool *pgxpool.Pool) FormRepository { return &formRepoPG{pool: pool} }

func (r *formRepoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const formCols = `id, service_id, name, ordinals, created_at`

func scanForm(row pgx.Row) (*Form, error) {
	var f Form
	err := row.Scan(&f.ID, &f.ServiceID, &f.Name, &f.Ordinals, &f.CreatedAt)
	return &f, err
}

func (r *formRepoPG) Create(ctx context.Context, f *Form) error {
	f.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO assessment_form (id, service_id, name, ordinals)
		VALUES ($1,$2,$3,$4)`,
		f.ID, f.ServiceID, f.Name, f.Ordinals)
	return err
}

func (r *formRepoPG) ListByService(ctx context.Context, serviceID uuid.UUID) ([]*Form, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+formCols+` FROM assessment_form WHERE service_id = $1 ORDER BY name`, serviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Form
	for rows.Next() {
		f, err := scanForm(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, f)
	}
	return items, rows.Err()
}

func (r *formRepoPG) List(ctx context.Context, limit, offset int) ([]*Form, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM assessment_form`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+formCols+` FROM assessment_form ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Form
	for rows.Next() {
		f, err := scanForm(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, f)
	}
	return items, total, rows.Err()
}

// =========== UserProfile Repository ===========

type userProfileRepoPG struct{ pool *pgxpool.Pool }

func NewUserProfileRepoPG(pool *pgxpool.Pool) UserProfileRepository { return &userProfileRepoPG{pool: pool} }

func (r *userProfileRepoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const profileCols = `id, role_id, first_name, last_name, email, counselor_id, created_at, updated_at`

func scanProfile(row pgx.Row) (*UserProfile, error) {
	var u UserProfile
	err := row.Scan(&u.ID, &u.RoleID, &u.FirstName, &u.LastName, &u.Email,
		&u.CounselorID, &u.CreatedAt, &u.UpdatedAt)
	return &u, err
}

func (r *userProfileRepoPG) Create(ctx context.Context, u *UserProfile) error {
	u.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO user_profile (id, role_id, first_name, last_name, email, counselor_id)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		u.ID, u.RoleID, u.FirstName, u.LastName, u.Email, u.CounselorID)
	return err
}

func (r *userProfileRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*UserProfile, error) {
	return scanProfile(r.conn(ctx).QueryRow(ctx, `SELECT `+profileCols+` FROM user_profile WHERE id = $1`, id))
}

func (r *userProfileRepoPG) ListClients(ctx context.Context, counselorID *uuid.UUID, limit, offset int) ([]*UserProfile, int, error) {
	where := `WHERE role_id = 1`
	args := []interface{}{}
	if counselorID != nil {
		where += ` AND counselor_id = $1`
		args = append(args, *counselorID)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM user_profile `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	// has_schedule is derived from open therapy requests in the same pass.
	query := `SELECT ` + profileCols + `,
		EXISTS (
			SELECT 1 FROM therapy_request tr
			WHERE tr.client_id = user_profile.id
			  AND tr.status_yn = 'y'
			  AND tr.thrpy_status <> 'DISCHARGED'
		) AS has_schedule
		FROM user_profile ` + where + ` ORDER BY last_name, first_name`
	if counselorID != nil {
		query += ` LIMIT $2 OFFSET $3`
	} else {
		query += ` LIMIT $1 OFFSET $2`
	}
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*UserProfile
	for rows.Next() {
		var u UserProfile
		if err := rows.Scan(&u.ID, &u.RoleID, &u.FirstName, &u.LastName, &u.Email,
			&u.CounselorID, &u.CreatedAt, &u.UpdatedAt, &u.HasSchedule); err != nil {
			return nil, 0, err
		}
		items = append(items, &u)
	}
	return items, total, rows.Err()
}

func (r *userProfileRepoPG) HasOpenSchedule(ctx context.Context, clientID uuid.UUID) (bool, error) {
	var open bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM therapy_request
			WHERE client_id = $1 AND status_yn = 'y' AND thrpy_status <> 'DISCHARGED'
		)`, clientID).Scan(&open)
	return open, err
}
