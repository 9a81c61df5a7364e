package billing

import (
	"context"

	"github.com/google/uuid"

	"github.com/mediflow/clinic/internal/domain/pharmacy"
)

type Repository interface {
	// Create stores the bill and all its items.
	Create(ctx context.Context, b *Bill) error
	GetByID(ctx context.Context, id uuid.UUID) (*Bill, error)
	// UpdateDerived persists paid, total and status after a recompute.
	UpdateDerived(ctx context.Context, b *Bill) error
	// Delete removes a bill and its items. Only the create path uses it, to
	// undo a half-applied bill on stores without transactions.
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, patientID uuid.UUID, status Status, limit, offset int) ([]*Bill, int, error)
	CountByStatus(ctx context.Context, status Status) (int, error)
}

// PatientDirectory checks the bill's patient reference.
type PatientDirectory interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// Dispensary is the slice of the pharmacy service billing uses: pricing
// lookups when an item omits its unit price, stock dispensing when a bill is
// created and reversing adjustments when a create fails part-way. Satisfied
// by *pharmacy.Service.
type Dispensary interface {
	Get(ctx context.Context, id uuid.UUID) (*pharmacy.Medicine, error)
	Dispense(ctx context.Context, id uuid.UUID, quantity int, billID uuid.UUID) error
	AdjustStock(ctx context.Context, id uuid.UUID, delta int, reason string, billID *uuid.UUID) (*pharmacy.Medicine, error)
}
