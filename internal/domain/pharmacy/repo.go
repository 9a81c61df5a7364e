package pharmacy

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, m *Medicine) error
	GetByID(ctx context.Context, id uuid.UUID) (*Medicine, error)
	Update(ctx context.Context, m *Medicine) error
	List(ctx context.Context, lowOnly bool, limit, offset int) ([]*Medicine, int, error)

	// ApplyDelta moves stock and appends the ledger row atomically, holding
	// the row lock for the read-check-write. It returns the resulting stock
	// level or ErrStockExhausted when the delta would drive it negative.
	ApplyDelta(ctx context.Context, mv *StockMovement) (int, error)
	Movements(ctx context.Context, medicineID uuid.UUID, limit, offset int) ([]*StockMovement, int, error)
}

// ErrStockExhausted is the repository-level signal that a delta would make
// stock negative. The service wraps it into the caller-facing error.
var ErrStockExhausted = errors.New("stock would go negative")
