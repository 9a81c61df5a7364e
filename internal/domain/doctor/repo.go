package doctor

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	Update(ctx context.Context, d *Doctor) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, onlyAvailable bool, limit, offset int) ([]*Doctor, int, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// ReferenceChecker reports whether live records elsewhere still point at a
// doctor. Implemented by the patient and appointment repositories; a doctor
// cannot be removed while any checker holds a reference.
type ReferenceChecker interface {
	DoctorReferenced(ctx context.Context, doctorID uuid.UUID) (bool, string, error)
}
