package patient

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mediflow/clinic/pkg/errs"
)

type Service struct {
	repo    Repository
	doctors DoctorDirectory
}

func NewService(repo Repository, doctors DoctorDirectory) *Service {
	return &Service{repo: repo, doctors: doctors}
}

// Register validates and stores a new patient record.
func (s *Service) Register(ctx context.Context, p *Patient) (*Patient, error) {
	if p.FirstName == "" {
		return nil, errs.Validation("first_name is required")
	}
	if p.LastName == "" {
		return nil, errs.Validation("last_name is required")
	}
	if p.DOB.IsZero() {
		return nil, errs.Validation("dob is required")
	}
	if !validGenders[p.Gender] {
		return nil, errs.Validation("gender must be male, female, or other")
	}
	if p.Phone == "" {
		return nil, errs.Validation("phone is required")
	}
	if p.AssignedDoctorID != nil {
		if err := s.checkDoctor(ctx, *p.AssignedDoctorID); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, errs.NotFound("patient %s not found", id)
	}
	return p, nil
}

// Apply merges contact and assignment changes onto the stored record.
// Identity fields are not part of Patch and therefore cannot change.
func (s *Service) Apply(ctx context.Context, id uuid.UUID, patch Patch) (*Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, errs.NotFound("patient %s not found", id)
	}

	if patch.Phone != nil {
		if *patch.Phone == "" {
			return nil, errs.Validation("phone must not be empty")
		}
		p.Phone = *patch.Phone
	}
	if patch.Email != nil {
		p.Email = patch.Email
	}
	if patch.Address != nil {
		p.Address = patch.Address
	}
	if patch.EmergencyContactName != nil {
		p.EmergencyContactName = patch.EmergencyContactName
	}
	if patch.EmergencyContactPhone != nil {
		p.EmergencyContactPhone = patch.EmergencyContactPhone
	}
	if patch.AssignedDoctorID != nil {
		if *patch.AssignedDoctorID == uuid.Nil {
			p.AssignedDoctorID = nil
		} else {
			if err := s.checkDoctor(ctx, *patch.AssignedDoctorID); err != nil {
				return nil, err
			}
			p.AssignedDoctorID = patch.AssignedDoctorID
		}
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update patient: %w", err)
	}
	return p, nil
}

func (s *Service) Search(ctx context.Context, query string, limit, offset int) ([]*Patient, int, error) {
	return s.repo.Search(ctx, query, limit, offset)
}

func (s *Service) checkDoctor(ctx context.Context, doctorID uuid.UUID) error {
	ok, err := s.doctors.Exists(ctx, doctorID)
	if err != nil {
		return fmt.Errorf("check doctor: %w", err)
	}
	if !ok {
		return errs.Validation("assigned doctor %s does not exist", doctorID)
	}
	return nil
}

// DoctorReferenced implements the doctor domain's reference check: a doctor
// with assigned patients cannot be removed from the directory.
func (s *Service) DoctorReferenced(ctx context.Context, doctorID uuid.UUID) (bool, string, error) {
	n, err := s.repo.CountAssignedTo(ctx, doctorID)
	if err != nil {
		return false, "", err
	}
	if n > 0 {
		return true, fmt.Sprintf("%d assigned patients", n), nil
	}
	return false, "", nil
}
