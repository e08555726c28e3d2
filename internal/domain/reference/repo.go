package reference

import (
	"context"

	"github.com/google/uuid"
)

type ServiceRepository interface {
	Create(ctx context.Context, s *TherapyService) error
	GetByID(ctx context.Context, id uuid.UUID) (*TherapyService, error)
	List(ctx context.Context, limit, offset int) ([]*TherapyService, int, error)
}

type FormRepository interface {
	Create(ctx context.Context, f *Form) error
	ListByService(ctx context.Context, serviceID uuid.UUID) ([]*Form, error)
	List(ctx context.Context, limit, offset int) ([]*Form, int, error)
}

type UserProfileRepository interface {
	Create(ctx context.Context, u *UserProfile) error
	GetByID(ctx context.Context, id uuid.UUID) (*UserProfile, error)
	// ListClients returns role-1 profiles. When counselorID is non-nil only
	// that counselor's clients are returned. HasSchedule is populated.
	ListClients(ctx context.Context, counselorID *uuid.UUID, limit, offset int) ([]*UserProfile, int, error)
	// HasOpenSchedule reports whether the client has a therapy request that
	// is neither voided nor discharged.
	HasOpenSchedule(ctx context.Context, clientID uuid.UUID) (bool, error)
}
