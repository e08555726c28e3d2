package notes

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, note *Note) error
	Update(ctx context.Context, note *Note) error
	GetByID(ctx context.Context, id uuid.UUID) (*Note, error)
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*Note, error)
	CountBySession(ctx context.Context, sessionID uuid.UUID) (int, error)
	CountBySessions(ctx context.Context, sessionIDs []uuid.UUID) (map[uuid.UUID]int, error)
}
