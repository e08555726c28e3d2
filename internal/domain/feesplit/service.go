package feesplit

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// splitTolerance absorbs float noise when checking the 100% sum.
const splitTolerance = 0.001

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) SaveConfig(ctx context.Context, cfg *SplitConfig) error {
	if cfg.CounselorPct < 0 || cfg.PracticePct < 0 {
		return fmt.Errorf("split percentages must not be negative")
	}
	sum := cfg.CounselorPct + cfg.PracticePct
	if sum < 100-splitTolerance || sum > 100+splitTolerance {
		return fmt.Errorf("counselor and practice shares must sum to 100, got %.2f", sum)
	}
	if cfg.CounselorID != nil && *cfg.CounselorID == uuid.Nil {
		return fmt.Errorf("counselor_id must be a valid id or absent")
	}
	return s.repo.Upsert(ctx, cfg)
}

// Resolve returns the split for a counselor: their override when one
// exists, otherwise the practice default.
func (s *Service) Resolve(ctx context.Context, counselorID uuid.UUID) (*SplitConfig, error) {
	if counselorID != uuid.Nil {
		cfg, err := s.repo.GetByCounselor(ctx, counselorID)
		if err == nil {
			return cfg, nil
		}
		if !errors.Is(err, ErrNoConfig) {
			return nil, err
		}
	}
	return s.repo.GetDefault(ctx)
}

// ListAll returns every configured split partitioned into counselor
// overrides and the practice default.
func (s *Service) ListAll(ctx context.Context) (*SplitListing, error) {
	all, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	listing := &SplitListing{Counselors: []*SplitConfig{}}
	for _, cfg := range all {
		if cfg.IsDefault() {
			listing.Default = cfg
			continue
		}
		listing.Counselors = append(listing.Counselors, cfg)
	}
	return listing, nil
}
