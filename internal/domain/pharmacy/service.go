package pharmacy

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mediflow/clinic/internal/platform/ws"
	"github.com/mediflow/clinic/pkg/errs"
)

type Service struct {
	repo   Repository
	events ws.Publisher
}

func NewService(repo Repository, events ws.Publisher) *Service {
	return &Service{repo: repo, events: events}
}

func (s *Service) AddMedicine(ctx context.Context, m *Medicine) (*Medicine, error) {
	if m.Name == "" {
		return nil, errs.Validation("name is required")
	}
	if m.SKU == "" {
		return nil, errs.Validation("sku is required")
	}
	if m.UnitPrice < 0 {
		return nil, errs.InvalidAmount("unit_price must not be negative")
	}
	if m.Stock < 0 {
		return nil, errs.Validation("stock must not be negative")
	}
	if m.MinStockThreshold < 0 {
		return nil, errs.Validation("min_stock_threshold must not be negative")
	}

	if err := s.repo.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("create medicine: %w", err)
	}
	return m, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Medicine, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, errs.NotFound("medicine %s not found", id)
	}
	return m, nil
}

func (s *Service) List(ctx context.Context, lowOnly bool, limit, offset int) ([]*Medicine, int, error) {
	return s.repo.List(ctx, lowOnly, limit, offset)
}

func (s *Service) Apply(ctx context.Context, id uuid.UUID, p Patch) (*Medicine, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, errs.NotFound("medicine %s not found", id)
	}

	if p.Name != nil {
		if *p.Name == "" {
			return nil, errs.Validation("name must not be empty")
		}
		m.Name = *p.Name
	}
	if p.Brand != nil {
		m.Brand = *p.Brand
	}
	if p.SKU != nil {
		if *p.SKU == "" {
			return nil, errs.Validation("sku must not be empty")
		}
		m.SKU = *p.SKU
	}
	if p.UnitPrice != nil {
		if *p.UnitPrice < 0 {
			return nil, errs.InvalidAmount("unit_price must not be negative")
		}
		m.UnitPrice = *p.UnitPrice
	}
	if p.MinStockThreshold != nil {
		if *p.MinStockThreshold < 0 {
			return nil, errs.Validation("min_stock_threshold must not be negative")
		}
		m.MinStockThreshold = *p.MinStockThreshold
	}

	if err := s.repo.Update(ctx, m); err != nil {
		return nil, fmt.Errorf("update medicine: %w", err)
	}
	return m, nil
}

// AdjustStock applies a signed delta and appends the movement ledger row in
// the same transaction. A delta that would drive stock negative leaves both
// untouched.
func (s *Service) AdjustStock(ctx context.Context, id uuid.UUID, delta int, reason string, billID *uuid.UUID) (*Medicine, error) {
	if delta == 0 {
		return nil, errs.Validation("delta must not be zero")
	}
	if reason == "" {
		return nil, errs.Validation("reason is required")
	}

	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, errs.NotFound("medicine %s not found", id)
	}

	mv := &StockMovement{MedicineID: id, Delta: delta, Reason: reason, BillID: billID}
	newStock, err := s.repo.ApplyDelta(ctx, mv)
	if err != nil {
		if errors.Is(err, ErrStockExhausted) {
			return nil, errs.InsufficientStock(
				"medicine %s has %d in stock, cannot remove %d", id, m.Stock, -delta)
		}
		return nil, fmt.Errorf("apply stock delta: %w", err)
	}

	m.Stock = newStock
	if m.LowStock() {
		_ = s.events.Publish(ctx, ws.NewEvent(ws.TopicInventory, "low_stock", "medicine", id.String()))
	}
	return m, nil
}

// Dispense removes quantity units against a bill. Used by billing inside its
// transaction so the bill and the stock move commit together.
func (s *Service) Dispense(ctx context.Context, id uuid.UUID, quantity int, billID uuid.UUID) error {
	if quantity <= 0 {
		return errs.Validation("quantity must be positive")
	}
	_, err := s.AdjustStock(ctx, id, -quantity, "dispensed", &billID)
	return err
}

func (s *Service) Movements(ctx context.Context, id uuid.UUID, limit, offset int) ([]*StockMovement, int, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, 0, errs.NotFound("medicine %s not found", id)
	}
	return s.repo.Movements(ctx, id, limit, offset)
}
