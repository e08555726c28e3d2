package reference

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/coscyrix/mindbridge-sub003/internal/platform/auth"
)

type Service struct {
	services ServiceRepository
	forms    FormRepository
	profiles UserProfileRepository
}

func NewService(services ServiceRepository, forms FormRepository, profiles UserProfileRepository) *Service {
	return &Service{services: services, forms: forms, profiles: profiles}
}

// -- Therapy service catalog --

func (s *Service) CreateService(ctx context.Context, svc *TherapyService) error {
	if svc.Code == "" {
		return fmt.Errorf("service code is required")
	}
	if svc.Name == "" {
		return fmt.Errorf("service name is required")
	}
	if svc.TotalSessions <= 0 {
		return fmt.Errorf("total_sessions must be positive")
	}
	if svc.CadenceDays <= 0 {
		return fmt.Errorf("cadence_days must be positive")
	}
	if svc.Price < 0 {
		return fmt.Errorf("price must not be negative")
	}
	if svc.GSTPercent < 0 || svc.GSTPercent > 100 {
		return fmt.Errorf("gst_percent must be between 0 and 100")
	}
	return s.services.Create(ctx, svc)
}

func (s *Service) GetService(ctx context.Context, id uuid.UUID) (*TherapyService, error) {
	return s.services.GetByID(ctx, id)
}

func (s *Service) ListServices(ctx context.Context, limit, offset int) ([]*TherapyService, int, error) {
	return s.services.List(ctx, limit, offset)
}

// -- Forms --

func (s *Service) CreateForm(ctx context.Context, f *Form) error {
	if f.Name == "" {
		return fmt.Errorf("form name is required")
	}
	if f.ServiceID == uuid.Nil {
		return fmt.Errorf("service_id is required")
	}
	for _, o := range f.Ordinals {
		if o < 1 {
			return fmt.Errorf("session ordinals must be 1-based")
		}
	}
	return s.forms.Create(ctx, f)
}

func (s *Service) ListForms(ctx context.Context, limit, offset int) ([]*Form, int, error) {
	return s.forms.List(ctx, limit, offset)
}

func (s *Service) ListFormsByService(ctx context.Context, serviceID uuid.UUID) ([]*Form, error) {
	return s.forms.ListByService(ctx, serviceID)
}

// -- User profiles --

func (s *Service) GetUserProfile(ctx context.Context, id uuid.UUID) (*UserProfile, error) {
	return s.profiles.GetByID(ctx, id)
}

// ListClients is role-aware: a counselor sees only their own assigned
// clients, managers and admins see the whole practice.
func (s *Service) ListClients(ctx context.Context, limit, offset int) ([]*UserProfile, int, error) {
	role := auth.RoleFromContext(ctx)
	if role == auth.RoleCounselor {
		callerID, err := uuid.Parse(auth.ProfileIDFromContext(ctx))
		if err != nil {
			return nil, 0, fmt.Errorf("caller profile id is not a uuid: %w", err)
		}
		return s.profiles.ListClients(ctx, &callerID, limit, offset)
	}
	return s.profiles.ListClients(ctx, nil, limit, offset)
}

// HasOpenSchedule reports whether the client already has an ongoing
// therapy request. Schedule generation refuses clients with one.
func (s *Service) HasOpenSchedule(ctx context.Context, clientID uuid.UUID) (bool, error) {
	if clientID == uuid.Nil {
		return false, fmt.Errorf("client_id is required")
	}
	return s.profiles.HasOpenSchedule(ctx, clientID)
}
