package ward

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
	events   ws.Publisher
}

func NewService(repo Repository, patients PatientDirectory, events ws.Publisher) *Service {
	return &Service{repo: repo, patients: patients, events: events}
}

func (s *Service) CreateRoom(ctx context.Context, r *Room) (*Room, error) {
	if r.RoomNumber == "" {
		return nil, errs.Validation("room_number is required")
	}
	if !validRoomTypes[r.Type] {
		return nil, errs.Validation("type must be ICU, General, Private or Emergency")
	}
	if r.Floor < 0 {
		return nil, errs.Validation("floor must not be negative")
	}
	if r.PricePerDay < 0 {
		return nil, errs.InvalidAmount("price_per_day must not be negative")
	}

	if err := s.repo.CreateRoom(ctx, r); err != nil {
		return nil, fmt.Errorf("create room: %w", err)
	}
	r.RecomputeAvailability()
	return r, nil
}

func (s *Service) GetRoom(ctx context.Context, id uuid.UUID) (*Room, error) {
	r, err := s.repo.GetRoom(ctx, id)
	if err != nil {
		return nil, errs.NotFound("room %s not found", id)
	}
	r.RecomputeAvailability()
	return r, nil
}

func (s *Service) ListRooms(ctx context.Context, roomType string, limit, offset int) ([]*Room, int, error) {
	rooms, total, err := s.repo.ListRooms(ctx, roomType, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	for _, r := range rooms {
		r.RecomputeAvailability()
	}
	return rooms, total, nil
}

// DeleteRoom is physical. A room with anyone still in a bed cannot go.
func (s *Service) DeleteRoom(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.GetRoom(ctx, id); err != nil {
		return errs.NotFound("room %s not found", id)
	}

	occupied, err := s.repo.OccupiedBeds(ctx, id)
	if err != nil {
		return fmt.Errorf("count occupied beds: %w", err)
	}
	if occupied > 0 {
		return errs.ReferentialIntegrity("room %s has %d occupied beds", id, occupied)
	}

	if err := s.repo.DeleteRoom(ctx, id); err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	return nil
}

func (s *Service) AddBed(ctx context.Context, roomID uuid.UUID, label string) (*Bed, error) {
	if label == "" {
		return nil, errs.Validation("label is required")
	}
	if _, err := s.repo.GetRoom(ctx, roomID); err != nil {
		return nil, errs.NotFound("room %s not found", roomID)
	}

	b := &Bed{RoomID: roomID, Label: label}
	if err := s.repo.CreateBed(ctx, b); err != nil {
		return nil, fmt.Errorf("create bed: %w", err)
	}
	return b, nil
}

// Allocate puts a patient in a free bed and records when.
func (s *Service) Allocate(ctx context.Context, bedID, patientID uuid.UUID) (*Bed, error) {
	if patientID == uuid.Nil {
		return nil, errs.Validation("patient_id is required")
	}
	ok, err := s.patients.Exists(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("check patient: %w", err)
	}
	if !ok {
		return nil, errs.ReferentialIntegrity("patient %s does not exist", patientID)
	}
	if _, err := s.repo.GetBed(ctx, bedID); err != nil {
		return nil, errs.NotFound("bed %s not found", bedID)
	}

	b, err := s.repo.Occupy(ctx, bedID, patientID)
	if err != nil {
		if errors.Is(err, ErrBedTaken) {
			return nil, errs.BedUnavailable("bed %s is already occupied", bedID)
		}
		return nil, fmt.Errorf("occupy bed: %w", err)
	}

	s.publish(ctx, "allocated", b)
	return b, nil
}

// Release frees an occupied bed. Releasing a free bed is a state error, not
// a no-op, so double releases surface instead of hiding races.
func (s *Service) Release(ctx context.Context, bedID uuid.UUID) (*Bed, error) {
	if _, err := s.repo.GetBed(ctx, bedID); err != nil {
		return nil, errs.NotFound("bed %s not found", bedID)
	}

	b, err := s.repo.Release(ctx, bedID)
	if err != nil {
		if errors.Is(err, ErrBedFree) {
			return nil, errs.InvalidStateTransition("bed %s is not occupied", bedID)
		}
		return nil, fmt.Errorf("release bed: %w", err)
	}

	s.publish(ctx, "released", b)
	return b, nil
}

func (s *Service) publish(ctx context.Context, action string, b *Bed) {
	_ = s.events.Publish(ctx, ws.NewEvent(ws.TopicBeds, action, "bed", b.ID.String()))
}
