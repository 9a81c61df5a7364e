package patient

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	// Search matches query against name and phone; an empty query lists all.
	Search(ctx context.Context, query string, limit, offset int) ([]*Patient, int, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	CountAssignedTo(ctx context.Context, doctorID uuid.UUID) (int, error)
}

// DoctorDirectory is the slice of the doctor domain this package needs:
// existence checks when assigning a doctor to a patient.
type DoctorDirectory interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}
