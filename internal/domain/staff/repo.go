package staff

import (
	"context"

	"github.com/google/uuid"
)

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Department string
	DutyStatus string
}

type Repository interface {
	Create(ctx context.Context, m *Member) error
	GetByID(ctx context.Context, id uuid.UUID) (*Member, error)
	Update(ctx context.Context, m *Member) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f Filter, limit, offset int) ([]*Member, int, error)
}
