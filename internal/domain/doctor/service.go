package doctor

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mediflow/clinic/pkg/errs"
)

type Service struct {
	repo     Repository
	checkers []ReferenceChecker
}

func NewService(repo Repository, checkers ...ReferenceChecker) *Service {
	return &Service{repo: repo, checkers: checkers}
}

func (s *Service) Create(ctx context.Context, d *Doctor) (*Doctor, error) {
	if d.Name == "" {
		return nil, errs.Validation("name is required")
	}
	if d.Email == "" {
		return nil, errs.Validation("email is required")
	}
	if d.Specialization == "" {
		return nil, errs.Validation("specialization is required")
	}
	if d.ConsultationFee < 0 {
		return nil, errs.InvalidAmount("consultation_fee must not be negative")
	}

	d.Available = true
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("create doctor: %w", err)
	}
	return d, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, errs.NotFound("doctor %s not found", id)
	}
	return d, nil
}

// Apply merges a partial update onto the stored record. Availability toggles
// and fee changes go through here; identity fields never change.
func (s *Service) Apply(ctx context.Context, id uuid.UUID, p Patch) (*Doctor, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, errs.NotFound("doctor %s not found", id)
	}

	if p.Specialization != nil {
		if *p.Specialization == "" {
			return nil, errs.Validation("specialization must not be empty")
		}
		d.Specialization = *p.Specialization
	}
	if p.Qualification != nil {
		d.Qualification = *p.Qualification
	}
	if p.ConsultationFee != nil {
		if *p.ConsultationFee < 0 {
			return nil, errs.InvalidAmount("consultation_fee must not be negative")
		}
		d.ConsultationFee = *p.ConsultationFee
	}
	if p.Bio != nil {
		d.Bio = p.Bio
	}
	if p.Available != nil {
		d.Available = *p.Available
	}

	if err := s.repo.Update(ctx, d); err != nil {
		return nil, fmt.Errorf("update doctor: %w", err)
	}
	return d, nil
}

// Delete removes a doctor from the directory. Physical removal is only
// permitted while nothing references the record.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return errs.NotFound("doctor %s not found", id)
	}

	for _, ch := range s.checkers {
		referenced, reason, err := ch.DoctorReferenced(ctx, id)
		if err != nil {
			return fmt.Errorf("check doctor references: %w", err)
		}
		if referenced {
			return errs.ReferentialIntegrity("doctor %s is still referenced by %s", id, reason)
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete doctor: %w", err)
	}
	return nil
}

func (s *Service) List(ctx context.Context, onlyAvailable bool, limit, offset int) ([]*Doctor, int, error) {
	return s.repo.List(ctx, onlyAvailable, limit, offset)
}
