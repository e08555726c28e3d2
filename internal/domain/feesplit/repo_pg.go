package feesplit

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coscyrix/mindbridge-sub003/internal/platform/db"
)

// ErrNoConfig is returned when neither an override nor a default exists.
var ErrNoConfig = errors.New("no fee split configured")

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

const splitCols = `id, counselor_id, counselor_email, counselor_pct, practice_pct, created_at, updated_at`

func scanSplit(row pgx.Row) (*SplitConfig, error) {
	var s SplitConfig
	err := row.Scan(&s.ID, &s.CounselorID, &s.CounselorEmail, &s.CounselorPct,
		&s.PracticePct, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoConfig
	}
	return &s, err
}

func (r *repoPG) Upsert(ctx context.Context, cfg *SplitConfig) error {
	if cfg.ID == uuid.Nil {
		cfg.ID = uuid.New()
	}
	// One default row per practice schema, one override row per counselor.
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO fee_split_config (id, counselor_id, counselor_email, counselor_pct, practice_pct)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (counselor_id) DO UPDATE SET
			counselor_email = EXCLUDED.counselor_email,
			counselor_pct = EXCLUDED.counselor_pct,
			practice_pct = EXCLUDED.practice_pct,
			updated_at = NOW()`,
		cfg.ID, cfg.CounselorID, cfg.CounselorEmail, cfg.CounselorPct, cfg.PracticePct)
	return err
}

func (r *repoPG) GetDefault(ctx context.Context) (*SplitConfig, error) {
	return scanSplit(r.conn(ctx).QueryRow(ctx,
		`SELECT `+splitCols+` FROM fee_split_config WHERE counselor_id IS NULL`))
}

func (r *repoPG) GetByCounselor(ctx context.Context, counselorID uuid.UUID) (*SplitConfig, error) {
	return scanSplit(r.conn(ctx).QueryRow(ctx,
		`SELECT `+splitCols+` FROM fee_split_config WHERE counselor_id = $1`, counselorID))
}

func (r *repoPG) ListAll(ctx context.Context) ([]*SplitConfig, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+splitCols+` FROM fee_split_config ORDER BY counselor_id NULLS FIRST`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*SplitConfig
	for rows.Next() {
		s, err := scanSplit(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}
