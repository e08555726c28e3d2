package invoice

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, inv *Invoice) error
	GetByRequest(ctx context.Context, reqID uuid.UUID) (*Invoice, error)
	List(ctx context.Context, limit, offset int) ([]*Invoice, int, error)
}
