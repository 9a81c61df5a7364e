package billing

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/mediflow/clinic/internal/domain/pharmacy"
	"github.com/mediflow/clinic/internal/platform/db"
	"github.com/mediflow/clinic/internal/platform/ws"
	"github.com/mediflow/clinic/pkg/errs"
)

type stubPatients struct {
	known map[uuid.UUID]bool
}

func (s *stubPatients) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	return s.known[id], nil
}

type fixture struct {
	svc       *Service
	pharm     *pharmacy.Service
	patientID uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	patientID := uuid.New()
	pharm := pharmacy.NewService(pharmacy.NewMemRepo(), (*ws.Hub)(nil))
	svc := NewService(NewMemRepo(),
		&stubPatients{known: map[uuid.UUID]bool{patientID: true}},
		pharm, db.NoopTransactor{})
	return &fixture{svc: svc, pharm: pharm, patientID: patientID}
}

func (f *fixture) addMedicine(t *testing.T, price float64, stock int) *pharmacy.Medicine {
	t.Helper()
	m, err := f.pharm.AddMedicine(context.Background(), &pharmacy.Medicine{
		Name: "Amoxicillin 250mg", SKU: "AMOX-250", UnitPrice: price, Stock: stock, MinStockThreshold: 5,
	})
	if err != nil {
		t.Fatalf("add medicine: %v", err)
	}
	return m
}

func TestCreate(t *testing.T) {
	f := newFixture(t)

	b, err := f.svc.Create(context.Background(), &Bill{
		PatientID: f.patientID,
		Items: []Item{
			{Description: "Consultation", Quantity: 2, UnitPrice: 500},
			{Description: "Dressing", Quantity: 1, UnitPrice: 200},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if b.Total != 1200.00 {
		t.Fatalf("total = %v, want 1200.00", b.Total)
	}
	if b.Status != StatusUnpaid {
		t.Fatalf("status = %s, want unpaid", b.Status)
	}
}

func TestCreate_ClientTotalsIgnored(t *testing.T) {
	f := newFixture(t)

	b, err := f.svc.Create(context.Background(), &Bill{
		PatientID: f.patientID,
		Total:     1, // discarded
		Items:     []Item{{Description: "Consultation", Quantity: 1, UnitPrice: 500}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if b.Total != 500.00 {
		t.Fatalf("total = %v, want recomputed 500.00", b.Total)
	}
}

func TestCreate_DispensesStock(t *testing.T) {
	f := newFixture(t)
	med := f.addMedicine(t, 12.5, 10)

	b, err := f.svc.Create(context.Background(), &Bill{
		PatientID: f.patientID,
		Items:     []Item{{MedicineID: &med.ID, Quantity: 4, UnitPrice: 99}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// catalog price overrides the client's, description filled in
	if b.Items[0].UnitPrice != 12.5 || b.Items[0].Description != "Amoxicillin 250mg" {
		t.Fatalf("item not filled from catalog: %+v", b.Items[0])
	}
	if b.Total != 50.00 {
		t.Fatalf("total = %v, want 50.00", b.Total)
	}

	got, err := f.pharm.Get(context.Background(), med.ID)
	if err != nil {
		t.Fatalf("get medicine: %v", err)
	}
	if got.Stock != 6 {
		t.Fatalf("stock = %d after dispensing 4 of 10, want 6", got.Stock)
	}

	movements, total, err := f.pharm.Movements(context.Background(), med.ID, 10, 0)
	if err != nil {
		t.Fatalf("movements: %v", err)
	}
	if total != 1 || movements[0].BillID == nil || *movements[0].BillID != b.ID {
		t.Fatalf("dispense not linked to bill in ledger")
	}
}

func TestCreate_InsufficientStock(t *testing.T) {
	f := newFixture(t)
	med := f.addMedicine(t, 12.5, 3)

	_, err := f.svc.Create(context.Background(), &Bill{
		PatientID: f.patientID,
		Items:     []Item{{MedicineID: &med.ID, Quantity: 5}},
	})
	if !errs.IsKind(err, errs.KindInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	got, err := f.pharm.Get(context.Background(), med.ID)
	if err != nil {
		t.Fatalf("get medicine: %v", err)
	}
	if got.Stock != 3 {
		t.Fatalf("stock = %d after rejected bill, want 3", got.Stock)
	}
}

func TestCreate_InsufficientStockAcrossItems(t *testing.T) {
	f := newFixture(t)
	med := f.addMedicine(t, 12.5, 5)

	// two lines of 3 against a stock of 5: each line alone fits, the bill
	// as a whole does not
	_, err := f.svc.Create(context.Background(), &Bill{
		PatientID: f.patientID,
		Items: []Item{
			{MedicineID: &med.ID, Quantity: 3},
			{MedicineID: &med.ID, Quantity: 3},
		},
	})
	if !errs.IsKind(err, errs.KindInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	got, err := f.pharm.Get(context.Background(), med.ID)
	if err != nil {
		t.Fatalf("get medicine: %v", err)
	}
	if got.Stock != 5 {
		t.Fatalf("stock = %d after rejected bill, want 5", got.Stock)
	}
	if _, total, _ := f.pharm.Movements(context.Background(), med.ID, 10, 0); total != 0 {
		t.Fatalf("rejected bill left %d ledger rows", total)
	}
	if _, total, _ := f.svc.List(context.Background(), uuid.Nil, "", 10, 0); total != 0 {
		t.Fatalf("rejected bill persisted, %d bills listed", total)
	}
}

// faultyDispensary delegates to the real pharmacy service but fails the nth
// Dispense call, standing in for a stock write lost under a concurrent drain.
type faultyDispensary struct {
	*pharmacy.Service
	calls  int
	failOn int
}

func (d *faultyDispensary) Dispense(ctx context.Context, id uuid.UUID, quantity int, billID uuid.UUID) error {
	d.calls++
	if d.calls == d.failOn {
		return errs.InsufficientStock("medicine %s is out of stock", id)
	}
	return d.Service.Dispense(ctx, id, quantity, billID)
}

func TestCreate_FailedDispenseLeavesNoTrace(t *testing.T) {
	ctx := context.Background()
	patientID := uuid.New()
	pharm := pharmacy.NewService(pharmacy.NewMemRepo(), (*ws.Hub)(nil))
	disp := &faultyDispensary{Service: pharm, failOn: 2}
	svc := NewService(NewMemRepo(),
		&stubPatients{known: map[uuid.UUID]bool{patientID: true}},
		disp, db.NoopTransactor{})

	amox, err := pharm.AddMedicine(ctx, &pharmacy.Medicine{
		Name: "Amoxicillin 250mg", SKU: "AMOX-250", UnitPrice: 12.5, Stock: 5,
	})
	if err != nil {
		t.Fatalf("add medicine: %v", err)
	}
	ibu, err := pharm.AddMedicine(ctx, &pharmacy.Medicine{
		Name: "Ibuprofen 400mg", SKU: "IBU-400", UnitPrice: 8, Stock: 5,
	})
	if err != nil {
		t.Fatalf("add medicine: %v", err)
	}

	// the first line dispenses, the second fails mid-create
	_, err = svc.Create(ctx, &Bill{
		PatientID: patientID,
		Items: []Item{
			{MedicineID: &amox.ID, Quantity: 2},
			{MedicineID: &ibu.ID, Quantity: 2},
		},
	})
	if !errs.IsKind(err, errs.KindInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	got, err := pharm.Get(ctx, amox.ID)
	if err != nil {
		t.Fatalf("get medicine: %v", err)
	}
	if got.Stock != 5 {
		t.Fatalf("first line not reversed, stock = %d, want 5", got.Stock)
	}
	if _, total, _ := svc.List(ctx, uuid.Nil, "", 10, 0); total != 0 {
		t.Fatalf("failed create persisted, %d bills listed", total)
	}
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name string
		bill Bill
		kind errs.Kind
	}{
		{"missing patient", Bill{Items: []Item{{Description: "x", Quantity: 1}}}, errs.KindValidation},
		{"no items", Bill{PatientID: f.patientID}, errs.KindValidation},
		{"unknown patient", Bill{PatientID: uuid.New(), Items: []Item{{Description: "x", Quantity: 1}}}, errs.KindReferentialIntegrity},
		{"zero quantity", Bill{PatientID: f.patientID, Items: []Item{{Description: "x"}}}, errs.KindValidation},
		{"negative price", Bill{PatientID: f.patientID, Items: []Item{{Description: "x", Quantity: 1, UnitPrice: -1}}}, errs.KindInvalidAmount},
		{"negative paid", Bill{PatientID: f.patientID, Paid: -1, Items: []Item{{Description: "x", Quantity: 1}}}, errs.KindInvalidAmount},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := tc.bill
			if _, err := f.svc.Create(context.Background(), &b); !errs.IsKind(err, tc.kind) {
				t.Fatalf("expected %s, got %v", tc.kind, err)
			}
		})
	}
}

func TestCreate_UnknownMedicine(t *testing.T) {
	f := newFixture(t)
	ghost := uuid.New()

	_, err := f.svc.Create(context.Background(), &Bill{
		PatientID: f.patientID,
		Items:     []Item{{MedicineID: &ghost, Quantity: 1}},
	})
	if !errs.IsKind(err, errs.KindReferentialIntegrity) {
		t.Fatalf("expected referential integrity error, got %v", err)
	}
}

func TestRecordPayment(t *testing.T) {
	f := newFixture(t)

	b, err := f.svc.Create(context.Background(), &Bill{
		PatientID: f.patientID,
		Items: []Item{
			{Description: "Consultation", Quantity: 2, UnitPrice: 500},
			{Description: "Dressing", Quantity: 1, UnitPrice: 200},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	b, err = f.svc.RecordPayment(context.Background(), b.ID, 600)
	if err != nil {
		t.Fatalf("payment: %v", err)
	}
	if b.Status != StatusPartial || b.Paid != 600 {
		t.Fatalf("after 600 of 1200: status=%s paid=%v", b.Status, b.Paid)
	}

	b, err = f.svc.RecordPayment(context.Background(), b.ID, 600)
	if err != nil {
		t.Fatalf("settling payment: %v", err)
	}
	if b.Status != StatusPaid {
		t.Fatalf("paid in full, status = %s", b.Status)
	}
}

func TestRecordPayment_Overshoot(t *testing.T) {
	f := newFixture(t)

	b, err := f.svc.Create(context.Background(), &Bill{
		PatientID: f.patientID,
		Items:     []Item{{Description: "Consultation", Quantity: 1, UnitPrice: 500}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := f.svc.RecordPayment(context.Background(), b.ID, 501); !errs.IsKind(err, errs.KindInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}
	if _, err := f.svc.RecordPayment(context.Background(), b.ID, -5); !errs.IsKind(err, errs.KindInvalidAmount) {
		t.Fatalf("expected invalid amount for negative, got %v", err)
	}
}

func TestVoid(t *testing.T) {
	f := newFixture(t)

	b, err := f.svc.Create(context.Background(), &Bill{
		PatientID: f.patientID,
		Items:     []Item{{Description: "Consultation", Quantity: 1, UnitPrice: 500}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	b, err = f.svc.Void(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("void: %v", err)
	}
	if b.Status != StatusVoid {
		t.Fatalf("status = %s, want void", b.Status)
	}

	if _, err := f.svc.Void(context.Background(), b.ID); !errs.IsKind(err, errs.KindInvalidStateTransition) {
		t.Fatalf("expected invalid transition on double void, got %v", err)
	}
	if _, err := f.svc.RecordPayment(context.Background(), b.ID, 100); !errs.IsKind(err, errs.KindInvalidStateTransition) {
		t.Fatalf("expected invalid transition paying a void bill, got %v", err)
	}
}
