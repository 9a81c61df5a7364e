package doctor

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/mediflow/clinic/pkg/errs"
)

type stubChecker struct {
	referenced bool
	reason     string
}

func (s stubChecker) DoctorReferenced(_ context.Context, _ uuid.UUID) (bool, string, error) {
	return s.referenced, s.reason, nil
}

func newTestDoctor() *Doctor {
	return &Doctor{
		Name:            "Dr. Sarah Smith",
		Email:           "sarah@clinic.example",
		Specialization:  "Cardiology",
		Qualification:   "MD",
		ConsultationFee: 150,
	}
}

func TestCreate(t *testing.T) {
	svc := NewService(NewMemRepo())
	d, err := svc.Create(context.Background(), newTestDoctor())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.ID == uuid.Nil {
		t.Error("expected id assigned")
	}
	if !d.Available {
		t.Error("new doctors start available")
	}
}

func TestCreate_NameRequired(t *testing.T) {
	svc := NewService(NewMemRepo())
	d := newTestDoctor()
	d.Name = ""
	_, err := svc.Create(context.Background(), d)
	if !errs.IsKind(err, errs.KindValidation) {
		t.Errorf("expected ValidationError, got %v", err)
	}
}

func TestCreate_NegativeFee(t *testing.T) {
	svc := NewService(NewMemRepo())
	d := newTestDoctor()
	d.ConsultationFee = -10
	_, err := svc.Create(context.Background(), d)
	if !errs.IsKind(err, errs.KindInvalidAmount) {
		t.Errorf("expected InvalidAmountError, got %v", err)
	}
}

func TestApply_ToggleAvailability(t *testing.T) {
	svc := NewService(NewMemRepo())
	d, _ := svc.Create(context.Background(), newTestDoctor())

	off := false
	updated, err := svc.Apply(context.Background(), d.ID, Patch{Available: &off})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Available {
		t.Error("expected doctor unavailable after toggle")
	}

	got, _ := svc.Get(context.Background(), d.ID)
	if got.Available {
		t.Error("availability change was not persisted")
	}
}

func TestApply_PartialMerge(t *testing.T) {
	svc := NewService(NewMemRepo())
	d, _ := svc.Create(context.Background(), newTestDoctor())

	fee := 200.0
	updated, err := svc.Apply(context.Background(), d.ID, Patch{ConsultationFee: &fee})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.ConsultationFee != 200 {
		t.Errorf("expected fee 200, got %v", updated.ConsultationFee)
	}
	if updated.Specialization != "Cardiology" {
		t.Error("untouched fields must survive a patch")
	}
}

func TestApply_NotFound(t *testing.T) {
	svc := NewService(NewMemRepo())
	_, err := svc.Apply(context.Background(), uuid.New(), Patch{})
	if !errs.IsKind(err, errs.KindNotFound) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}

func TestDelete_BlockedWhileReferenced(t *testing.T) {
	svc := NewService(NewMemRepo(), stubChecker{referenced: true, reason: "2 active appointments"})
	d, _ := svc.Create(context.Background(), newTestDoctor())

	err := svc.Delete(context.Background(), d.ID)
	if !errs.IsKind(err, errs.KindReferentialIntegrity) {
		t.Errorf("expected ReferentialIntegrityError, got %v", err)
	}
}

func TestDelete_Unreferenced(t *testing.T) {
	svc := NewService(NewMemRepo(), stubChecker{})
	d, _ := svc.Create(context.Background(), newTestDoctor())

	if err := svc.Delete(context.Background(), d.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Get(context.Background(), d.ID); !errs.IsKind(err, errs.KindNotFound) {
		t.Error("expected doctor gone after delete")
	}
}

func TestList_OnlyAvailable(t *testing.T) {
	svc := NewService(NewMemRepo())
	a, _ := svc.Create(context.Background(), newTestDoctor())

	other := newTestDoctor()
	other.Name = "Dr. James Wilson"
	other.Email = "james@clinic.example"
	b, _ := svc.Create(context.Background(), other)

	off := false
	if _, err := svc.Apply(context.Background(), b.ID, Patch{Available: &off}); err != nil {
		t.Fatal(err)
	}

	items, total, err := svc.List(context.Background(), true, 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || len(items) != 1 || items[0].ID != a.ID {
		t.Errorf("expected only the available doctor, got %d items", len(items))
	}
}
