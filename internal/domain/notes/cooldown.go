package notes

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coscyrix/mindbridge-sub003/internal/platform/db"
)

// CooldownStore records when a user last verified their identity for
// note viewing. Entries are keyed by user profile id.
type CooldownStore interface {
	Get(ctx context.Context, profileID uuid.UUID) (time.Time, bool, error)
	Set(ctx context.Context, profileID uuid.UUID, verifiedAt time.Time) error
	Clear(ctx context.Context, profileID uuid.UUID) error
}

// InMemoryCooldownStore backs the verification gate with a map. Used in
// tests and single-node dev setups.
type InMemoryCooldownStore struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]time.Time
}

func NewInMemoryCooldownStore() *InMemoryCooldownStore {
	return &InMemoryCooldownStore{entries: make(map[uuid.UUID]time.Time)}
}

func (s *InMemoryCooldownStore) Get(_ context.Context, profileID uuid.UUID) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	at, ok := s.entries[profileID]
	return at, ok, nil
}

func (s *InMemoryCooldownStore) Set(_ context.Context, profileID uuid.UUID, verifiedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[profileID] = verifiedAt
	return nil
}

func (s *InMemoryCooldownStore) Clear(_ context.Context, profileID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, profileID)
	return nil
}

// PGCooldownStore persists verifications so the gate survives restarts
// and works across instances.
type PGCooldownStore struct{ pool *pgxpool.Pool }

func NewPGCooldownStore(pool *pgxpool.Pool) *PGCooldownStore {
	return &PGCooldownStore{pool: pool}
}

func (s *PGCooldownStore) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return s.pool
}

func (s *PGCooldownStore) Get(ctx context.Context, profileID uuid.UUID) (time.Time, bool, error) {
	var at time.Time
	err := s.conn(ctx).QueryRow(ctx,
		`SELECT verified_at FROM note_verification WHERE user_profile_id = $1`, profileID).Scan(&at)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return at, true, nil
}

func (s *PGCooldownStore) Set(ctx context.Context, profileID uuid.UUID, verifiedAt time.Time) error {
	_, err := s.conn(ctx).Exec(ctx, `
		INSERT INTO note_verification (user_profile_id, verified_at)
		VALUES ($1,$2)
		ON CONFLICT (user_profile_id) DO UPDATE SET verified_at = EXCLUDED.verified_at`,
		profileID, verifiedAt)
	return err
}

func (s *PGCooldownStore) Clear(ctx context.Context, profileID uuid.UUID) error {
	_, err := s.conn(ctx).Exec(ctx,
		`DELETE FROM note_verification WHERE user_profile_id = $1`, profileID)
	return err
}
