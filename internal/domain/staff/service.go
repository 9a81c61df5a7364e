package staff

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mediflow/clinic/pkg/errs"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Add(ctx context.Context, m *Member) (*Member, error) {
	if m.Name == "" {
		return nil, errs.Validation("name is required")
	}
	if m.Role == "" {
		return nil, errs.Validation("role is required")
	}
	if m.Department == "" {
		return nil, errs.Validation("department is required")
	}
	if !validShifts[m.Shift] {
		return nil, errs.Validation("shift must be morning, evening or night")
	}
	if m.DutyStatus == "" {
		m.DutyStatus = DutyOff
	}
	if m.DutyStatus != DutyOn && m.DutyStatus != DutyOff {
		return nil, errs.Validation("duty_status must be on-duty or off-duty")
	}

	if err := s.repo.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("create staff member: %w", err)
	}
	return m, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Member, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, errs.NotFound("staff member %s not found", id)
	}
	return m, nil
}

func (s *Service) Apply(ctx context.Context, id uuid.UUID, p Patch) (*Member, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, errs.NotFound("staff member %s not found", id)
	}

	if p.Role != nil {
		if *p.Role == "" {
			return nil, errs.Validation("role must not be empty")
		}
		m.Role = *p.Role
	}
	if p.Department != nil {
		if *p.Department == "" {
			return nil, errs.Validation("department must not be empty")
		}
		m.Department = *p.Department
	}
	if p.Shift != nil {
		if !validShifts[*p.Shift] {
			return nil, errs.Validation("shift must be morning, evening or night")
		}
		m.Shift = *p.Shift
	}
	if p.Phone != nil {
		m.Phone = *p.Phone
	}
	if p.Email != nil {
		m.Email = *p.Email
	}
	if p.DutyStatus != nil {
		if *p.DutyStatus != DutyOn && *p.DutyStatus != DutyOff {
			return nil, errs.Validation("duty_status must be on-duty or off-duty")
		}
		m.DutyStatus = *p.DutyStatus
	}

	if err := s.repo.Update(ctx, m); err != nil {
		return nil, fmt.Errorf("update staff member: %w", err)
	}
	return m, nil
}

// Delete is physical. The directory references nothing else, so removal
// needs no integrity checks.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return errs.NotFound("staff member %s not found", id)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete staff member: %w", err)
	}
	return nil
}

func (s *Service) List(ctx context.Context, f Filter, limit, offset int) ([]*Member, int, error) {
	return s.repo.List(ctx, f, limit, offset)
}
