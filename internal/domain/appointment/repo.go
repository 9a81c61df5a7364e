package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Filter narrows List results. Zero values match everything.
type Filter struct {
	DoctorID  uuid.UUID
	PatientID uuid.UUID
	Status    Status
	// Day restricts to slots starting within that calendar day (UTC).
	Day time.Time
}

// SlotConflictError reports an active slot already holding part of the
// requested window. Create returns it instead of inserting.
type SlotConflictError struct {
	Start time.Time
	End   time.Time
}

func (e *SlotConflictError) Error() string {
	return fmt.Sprintf("slot conflicts with appointment from %s to %s",
		e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339))
}

type Repository interface {
	// Create checks the doctor's active slots and inserts under one lock, so
	// two concurrent bookings of the same window cannot both land. Overlap
	// surfaces as *SlotConflictError.
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	List(ctx context.Context, f Filter, limit, offset int) ([]*Appointment, int, error)
	CountActiveByDoctor(ctx context.Context, doctorID uuid.UUID) (int, error)
}

// PatientDirectory and DoctorDirectory are the slices of neighbouring
// domains scheduling needs: existence checks on the two strong references.
type PatientDirectory interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type DoctorDirectory interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}
