package appointment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mediflow/clinic/internal/platform/ws"
	"github.com/mediflow/clinic/pkg/errs"
)

type Service struct {
	repo     Repository
	patients PatientDirectory
	doctors  DoctorDirectory
	events   ws.Publisher
}

func NewService(repo Repository, patients PatientDirectory, doctors DoctorDirectory, events ws.Publisher) *Service {
	return &Service{repo: repo, patients: patients, doctors: doctors, events: events}
}

// Schedule validates references and the doctor's calendar, then books the
// slot as pending. Two active slots for the same doctor must never overlap.
func (s *Service) Schedule(ctx context.Context, a *Appointment) (*Appointment, error) {
	if a.PatientID == uuid.Nil {
		return nil, errs.Validation("patient_id is required")
	}
	if a.DoctorID == uuid.Nil {
		return nil, errs.Validation("doctor_id is required")
	}
	if a.StartAt.IsZero() {
		return nil, errs.Validation("start_at is required")
	}
	if a.DurationMinutes <= 0 {
		return nil, errs.Validation("duration_minutes must be positive")
	}

	ok, err := s.patients.Exists(ctx, a.PatientID)
	if err != nil {
		return nil, fmt.Errorf("check patient: %w", err)
	}
	if !ok {
		return nil, errs.ReferentialIntegrity("patient %s does not exist", a.PatientID)
	}
	ok, err = s.doctors.Exists(ctx, a.DoctorID)
	if err != nil {
		return nil, fmt.Errorf("check doctor: %w", err)
	}
	if !ok {
		return nil, errs.ReferentialIntegrity("doctor %s does not exist", a.DoctorID)
	}

	a.Status = StatusPending
	if err := s.repo.Create(ctx, a); err != nil {
		var conflict *SlotConflictError
		if errors.As(err, &conflict) {
			return nil, errs.SchedulingConflict(
				"doctor %s already has an appointment from %s to %s",
				a.DoctorID, conflict.Start.Format("15:04"), conflict.End.Format("15:04"))
		}
		return nil, fmt.Errorf("create appointment: %w", err)
	}

	s.publish(ctx, "created", a)
	return a, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, errs.NotFound("appointment %s not found", id)
	}
	return a, nil
}

func (s *Service) List(ctx context.Context, f Filter, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.List(ctx, f, limit, offset)
}

// Transition moves an appointment through the status machine. Terminal
// states reject every further change.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, to Status) (*Appointment, error) {
	if !ValidStatus(to) {
		return nil, errs.Validation("unknown status %q", to)
	}

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, errs.NotFound("appointment %s not found", id)
	}
	if !CanTransition(a.Status, to) {
		return nil, errs.InvalidStateTransition("cannot move appointment from %s to %s", a.Status, to)
	}

	a.Status = to
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("update appointment: %w", err)
	}

	s.publish(ctx, string(to), a)
	return a, nil
}

// Cancel is the removal operation. Records are never deleted, they move to
// cancelled and stop holding their slot.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.Transition(ctx, id, StatusCancelled)
}

// DoctorReferenced blocks doctor removal while the calendar still holds
// active slots for them.
func (s *Service) DoctorReferenced(ctx context.Context, doctorID uuid.UUID) (bool, string, error) {
	n, err := s.repo.CountActiveByDoctor(ctx, doctorID)
	if err != nil {
		return false, "", err
	}
	if n > 0 {
		return true, fmt.Sprintf("%d active appointments", n), nil
	}
	return false, "", nil
}

func (s *Service) publish(ctx context.Context, action string, a *Appointment) {
	_ = s.events.Publish(ctx, ws.NewEvent(ws.TopicAppointments, action, "appointment", a.ID.String()))
}
