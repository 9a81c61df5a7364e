package pharmacy

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/mediflow/clinic/internal/platform/ws"
	"github.com/mediflow/clinic/pkg/errs"
)

func newTestService() *Service {
	return NewService(NewMemRepo(), (*ws.Hub)(nil))
}

func addMedicine(t *testing.T, svc *Service, stock, threshold int) *Medicine {
	t.Helper()
	m, err := svc.AddMedicine(context.Background(), &Medicine{
		Name:              "Paracetamol 500mg",
		Brand:             "Calpol",
		SKU:               "PARA-500",
		UnitPrice:         2.50,
		Stock:             stock,
		MinStockThreshold: threshold,
	})
	if err != nil {
		t.Fatalf("add medicine: %v", err)
	}
	return m
}

func TestAddMedicine(t *testing.T) {
	svc := newTestService()
	m := addMedicine(t, svc, 100, 20)

	if m.ID == uuid.Nil {
		t.Fatal("expected generated id")
	}
	if m.LowStock() {
		t.Fatal("100 over threshold 20 reported low")
	}
}

func TestAddMedicine_Validation(t *testing.T) {
	svc := newTestService()

	if _, err := svc.AddMedicine(context.Background(), &Medicine{SKU: "X"}); !errs.IsKind(err, errs.KindValidation) {
		t.Fatalf("expected validation error for missing name, got %v", err)
	}
	if _, err := svc.AddMedicine(context.Background(), &Medicine{Name: "X", SKU: "X", UnitPrice: -1}); !errs.IsKind(err, errs.KindInvalidAmount) {
		t.Fatalf("expected invalid amount for negative price, got %v", err)
	}
	if _, err := svc.AddMedicine(context.Background(), &Medicine{Name: "X", SKU: "X", Stock: -5}); !errs.IsKind(err, errs.KindValidation) {
		t.Fatalf("expected validation error for negative stock, got %v", err)
	}
}

func TestAdjustStock(t *testing.T) {
	svc := newTestService()
	m := addMedicine(t, svc, 10, 2)

	m, err := svc.AdjustStock(context.Background(), m.ID, -4, "dispensed", nil)
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if m.Stock != 6 {
		t.Fatalf("stock = %d, want 6", m.Stock)
	}

	m, err = svc.AdjustStock(context.Background(), m.ID, 20, "restock", nil)
	if err != nil {
		t.Fatalf("restock: %v", err)
	}
	if m.Stock != 26 {
		t.Fatalf("stock = %d, want 26", m.Stock)
	}
}

func TestAdjustStock_NeverNegative(t *testing.T) {
	svc := newTestService()
	m := addMedicine(t, svc, 3, 1)

	_, err := svc.AdjustStock(context.Background(), m.ID, -5, "dispensed", nil)
	if !errs.IsKind(err, errs.KindInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	// the failed adjustment must leave stock and ledger untouched
	got, err := svc.Get(context.Background(), m.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Stock != 3 {
		t.Fatalf("stock = %d after rejected adjust, want 3", got.Stock)
	}
	movements, total, err := svc.Movements(context.Background(), m.ID, 10, 0)
	if err != nil {
		t.Fatalf("movements: %v", err)
	}
	if total != 0 || len(movements) != 0 {
		t.Fatalf("rejected adjust left %d ledger rows", total)
	}

	// draining to exactly zero is allowed
	if _, err := svc.AdjustStock(context.Background(), m.ID, -3, "dispensed", nil); err != nil {
		t.Fatalf("drain to zero: %v", err)
	}
}

func TestAdjustStock_LedgerRows(t *testing.T) {
	svc := newTestService()
	m := addMedicine(t, svc, 10, 2)

	if _, err := svc.AdjustStock(context.Background(), m.ID, -4, "dispensed", nil); err != nil {
		t.Fatalf("adjust: %v", err)
	}
	billID := uuid.New()
	if err := svc.Dispense(context.Background(), m.ID, 2, billID); err != nil {
		t.Fatalf("dispense: %v", err)
	}

	movements, total, err := svc.Movements(context.Background(), m.ID, 10, 0)
	if err != nil {
		t.Fatalf("movements: %v", err)
	}
	if total != 2 {
		t.Fatalf("got %d movements, want 2", total)
	}
	// newest first: the dispense against the bill
	if movements[0].Delta != -2 || movements[0].BillID == nil || *movements[0].BillID != billID {
		t.Fatalf("bill-linked movement not recorded: %+v", movements[0])
	}
}

func TestApply_CatalogOnly(t *testing.T) {
	svc := newTestService()
	m := addMedicine(t, svc, 10, 2)

	price := 3.75
	threshold := 5
	updated, err := svc.Apply(context.Background(), m.ID, Patch{UnitPrice: &price, MinStockThreshold: &threshold})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if updated.UnitPrice != price || updated.MinStockThreshold != threshold {
		t.Fatal("patch not applied")
	}

	got, err := svc.Get(context.Background(), m.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Stock != 10 {
		t.Fatalf("catalog patch changed stock to %d", got.Stock)
	}
}

func TestList_LowStockFilter(t *testing.T) {
	svc := newTestService()
	addMedicine(t, svc, 100, 20)
	low := addMedicine(t, svc, 5, 20)

	items, total, err := svc.List(context.Background(), true, 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || items[0].ID != low.ID {
		t.Fatalf("low stock filter returned %d items", total)
	}
	if !items[0].LowStock() {
		t.Fatal("expected derived low stock flag")
	}
}
