package billing

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mediflow/clinic/internal/platform/db"
	"github.com/mediflow/clinic/pkg/errs"
)

type Service struct {
	repo       Repository
	patients   PatientDirectory
	dispensary Dispensary
	tx         db.Transactor
}

func NewService(repo Repository, patients PatientDirectory, dispensary Dispensary, tx db.Transactor) *Service {
	return &Service{repo: repo, patients: patients, dispensary: dispensary, tx: tx}
}

// Create validates the bill, fills medicine-linked prices from the catalog,
// recomputes the total and dispenses linked stock. The bill rows and every
// stock movement commit or roll back together.
func (s *Service) Create(ctx context.Context, b *Bill) (*Bill, error) {
	if b.PatientID == uuid.Nil {
		return nil, errs.Validation("patient_id is required")
	}
	if len(b.Items) == 0 {
		return nil, errs.Validation("a bill needs at least one item")
	}
	if b.Paid < 0 {
		return nil, errs.InvalidAmount("paid must not be negative")
	}

	ok, err := s.patients.Exists(ctx, b.PatientID)
	if err != nil {
		return nil, fmt.Errorf("check patient: %w", err)
	}
	if !ok {
		return nil, errs.ReferentialIntegrity("patient %s does not exist", b.PatientID)
	}

	// The stock check sums quantities per medicine, so two lines drawing the
	// same medicine cannot each pass against the full stock.
	needed := make(map[uuid.UUID]int)
	for i := range b.Items {
		it := &b.Items[i]
		if it.Quantity <= 0 {
			return nil, errs.Validation("item %d: quantity must be positive", i)
		}
		if it.UnitPrice < 0 {
			return nil, errs.InvalidAmount("item %d: unit_price must not be negative", i)
		}
		if it.MedicineID != nil {
			med, err := s.dispensary.Get(ctx, *it.MedicineID)
			if err != nil {
				return nil, errs.ReferentialIntegrity("item %d: medicine %s does not exist", i, *it.MedicineID)
			}
			needed[med.ID] += it.Quantity
			if needed[med.ID] > med.Stock {
				return nil, errs.InsufficientStock(
					"medicine %s has %d in stock, bill needs %d", med.ID, med.Stock, needed[med.ID])
			}
			// catalog price and name win over whatever the client sent
			it.UnitPrice = med.UnitPrice
			if it.Description == "" {
				it.Description = med.Name
			}
		}
		if it.Description == "" {
			return nil, errs.Validation("item %d: description is required", i)
		}
	}

	b.Recompute()
	if b.Paid > b.Total {
		return nil, errs.InvalidAmount("paid %.2f exceeds total %.2f", b.Paid, b.Total)
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, b); err != nil {
			return fmt.Errorf("create bill: %w", err)
		}
		var dispensed []Item
		for _, it := range b.Items {
			if it.MedicineID == nil {
				continue
			}
			if err := s.dispensary.Dispense(ctx, *it.MedicineID, it.Quantity, b.ID); err != nil {
				s.undoCreate(ctx, b, dispensed)
				return err
			}
			dispensed = append(dispensed, it)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// undoCreate reverses a half-applied create on stores that run WithinTx
// without a real transaction. When a transaction is in flight its rollback
// discards the bill and the movements, so reversing by hand would
// double-count.
func (s *Service) undoCreate(ctx context.Context, b *Bill, dispensed []Item) {
	if db.TxFromContext(ctx) != nil {
		return
	}
	for _, it := range dispensed {
		_, _ = s.dispensary.AdjustStock(ctx, *it.MedicineID, it.Quantity, "dispense reversed", &b.ID)
	}
	_ = s.repo.Delete(ctx, b.ID)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Bill, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, errs.NotFound("bill %s not found", id)
	}
	return b, nil
}

func (s *Service) List(ctx context.Context, patientID uuid.UUID, status Status, limit, offset int) ([]*Bill, int, error) {
	return s.repo.List(ctx, patientID, status, limit, offset)
}

// RecordPayment raises the paid amount and re-derives the status. A payment
// can settle a bill exactly but never overshoot it.
func (s *Service) RecordPayment(ctx context.Context, id uuid.UUID, amount float64) (*Bill, error) {
	if amount <= 0 {
		return nil, errs.InvalidAmount("payment amount must be positive")
	}

	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, errs.NotFound("bill %s not found", id)
	}
	if b.Status == StatusVoid {
		return nil, errs.InvalidStateTransition("bill %s is void", id)
	}
	if b.Paid+amount > b.Total {
		return nil, errs.InvalidAmount("payment %.2f would exceed outstanding %.2f", amount, b.Total-b.Paid)
	}

	b.Paid = round2(b.Paid + amount)
	b.Recompute()
	if err := s.repo.UpdateDerived(ctx, b); err != nil {
		return nil, fmt.Errorf("update bill: %w", err)
	}
	return b, nil
}

// Void is the removal operation. The row stays for the ledger; a void bill
// accepts no further payments.
func (s *Service) Void(ctx context.Context, id uuid.UUID) (*Bill, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, errs.NotFound("bill %s not found", id)
	}
	if b.Status == StatusVoid {
		return nil, errs.InvalidStateTransition("bill %s is already void", id)
	}

	b.Status = StatusVoid
	if err := s.repo.UpdateDerived(ctx, b); err != nil {
		return nil, fmt.Errorf("update bill: %w", err)
	}
	return b, nil
}
