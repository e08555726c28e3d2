package notes

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coscyrix/mindbridge-sub003/internal/platform/db"
)

// ErrNoteNotFound is returned for lookups and edits of unknown notes.
var ErrNoteNotFound = errors.New("note not found")

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

const noteCols = `id, session_id, author_id, message, created_at, updated_at`

func scanNote(row pgx.Row) (*Note, error) {
	var n Note
	err := row.Scan(&n.ID, &n.SessionID, &n.AuthorID, &n.Message, &n.CreatedAt, &n.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoteNotFound
	}
	return &n, err
}

func (r *repoPG) Create(ctx context.Context, note *Note) error {
	if note.ID == uuid.Nil {
		note.ID = uuid.New()
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO session_note (id, session_id, author_id, message)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at, updated_at`,
		note.ID, note.SessionID, note.AuthorID, note.Message).
		Scan(&note.CreatedAt, &note.UpdatedAt)
}

func (r *repoPG) Update(ctx context.Context, note *Note) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE session_note SET message = $2, updated_at = NOW() WHERE id = $1`,
		note.ID, note.Message)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNoteNotFound
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Note, error) {
	return scanNote(r.conn(ctx).QueryRow(ctx,
		`SELECT `+noteCols+` FROM session_note WHERE id = $1`, id))
}

func (r *repoPG) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*Note, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+noteCols+` FROM session_note WHERE session_id = $1 ORDER BY created_at`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []*Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, n)
	}
	return items, rows.Err()
}

func (r *repoPG) CountBySession(ctx context.Context, sessionID uuid.UUID) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM session_note WHERE session_id = $1`, sessionID).Scan(&n)
	return n, err
}

func (r *repoPG) CountBySessions(ctx context.Context, sessionIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	counts := make(map[uuid.UUID]int, len(sessionIDs))
	if len(sessionIDs) == 0 {
		return counts, nil
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT session_id, COUNT(*) FROM session_note
		WHERE session_id = ANY($1) GROUP BY session_id`, sessionIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id uuid.UUID
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}
