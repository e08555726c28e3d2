package feesplit

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Upsert(ctx context.Context, cfg *SplitConfig) error
	GetDefault(ctx context.Context) (*SplitConfig, error)
	GetByCounselor(ctx context.Context, counselorID uuid.UUID) (*SplitConfig, error)
	ListAll(ctx context.Context) ([]*SplitConfig, error)
}
