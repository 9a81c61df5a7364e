package patient

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mediflow/clinic/pkg/errs"
)

type stubDirectory struct {
	known map[uuid.UUID]bool
}

func (s *stubDirectory) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	return s.known[id], nil
}

func newTestService(known ...uuid.UUID) *Service {
	dir := &stubDirectory{known: make(map[uuid.UUID]bool)}
	for _, id := range known {
		dir.known[id] = true
	}
	return NewService(NewMemRepo(), dir)
}

func validPatient() *Patient {
	return &Patient{
		FirstName: "Asha",
		LastName:  "Rao",
		DOB:       time.Date(1991, 4, 2, 0, 0, 0, 0, time.UTC),
		Gender:    "female",
		Phone:     "9876543210",
	}
}

func TestRegister(t *testing.T) {
	svc := newTestService()

	p, err := svc.Register(context.Background(), validPatient())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if p.ID == uuid.Nil {
		t.Fatal("expected generated id")
	}
	if p.CreatedAt.IsZero() || p.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps to be set")
	}
}

func TestRegister_Validation(t *testing.T) {
	svc := newTestService()

	cases := []struct {
		name   string
		mutate func(*Patient)
	}{
		{"missing first name", func(p *Patient) { p.FirstName = "" }},
		{"missing last name", func(p *Patient) { p.LastName = "" }},
		{"missing dob", func(p *Patient) { p.DOB = time.Time{} }},
		{"bad gender", func(p *Patient) { p.Gender = "unknown" }},
		{"missing phone", func(p *Patient) { p.Phone = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := validPatient()
			tc.mutate(p)
			if _, err := svc.Register(context.Background(), p); !errs.IsKind(err, errs.KindValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestRegister_DanglingDoctor(t *testing.T) {
	svc := newTestService()

	p := validPatient()
	ghost := uuid.New()
	p.AssignedDoctorID = &ghost
	if _, err := svc.Register(context.Background(), p); !errs.IsKind(err, errs.KindValidation) {
		t.Fatalf("expected validation error for dangling doctor, got %v", err)
	}
}

func TestApply_ContactAndAssignment(t *testing.T) {
	docID := uuid.New()
	svc := newTestService(docID)

	p, err := svc.Register(context.Background(), validPatient())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	phone := "1112223333"
	email := "asha@example.com"
	updated, err := svc.Apply(context.Background(), p.ID, Patch{
		Phone:            &phone,
		Email:            &email,
		AssignedDoctorID: &docID,
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if updated.Phone != phone {
		t.Fatalf("phone = %q, want %q", updated.Phone, phone)
	}
	if updated.Email == nil || *updated.Email != email {
		t.Fatalf("email not applied")
	}
	if updated.AssignedDoctorID == nil || *updated.AssignedDoctorID != docID {
		t.Fatalf("doctor assignment not applied")
	}
	// identity is untouched by a patch
	if updated.FirstName != "Asha" || updated.Gender != "female" {
		t.Fatal("identity fields changed")
	}
}

func TestApply_UnassignDoctor(t *testing.T) {
	docID := uuid.New()
	svc := newTestService(docID)

	p := validPatient()
	p.AssignedDoctorID = &docID
	created, err := svc.Register(context.Background(), p)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	nilID := uuid.Nil
	updated, err := svc.Apply(context.Background(), created.ID, Patch{AssignedDoctorID: &nilID})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if updated.AssignedDoctorID != nil {
		t.Fatal("expected assignment cleared")
	}
}

func TestApply_NotFound(t *testing.T) {
	svc := newTestService()
	if _, err := svc.Apply(context.Background(), uuid.New(), Patch{}); !errs.IsKind(err, errs.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSearch(t *testing.T) {
	svc := newTestService()

	names := [][2]string{{"Asha", "Rao"}, {"Ben", "Kumar"}, {"Chitra", "Rao"}}
	for i, n := range names {
		p := validPatient()
		p.FirstName, p.LastName = n[0], n[1]
		p.Phone = "900000000" + string(rune('0'+i))
		if _, err := svc.Register(context.Background(), p); err != nil {
			t.Fatalf("register %s: %v", n[0], err)
		}
	}

	items, total, err := svc.Search(context.Background(), "rao", 10, 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Fatalf("got %d/%d results, want 2", len(items), total)
	}

	items, total, err = svc.Search(context.Background(), "9000000001", 10, 0)
	if err != nil {
		t.Fatalf("search by phone: %v", err)
	}
	if total != 1 || items[0].FirstName != "Ben" {
		t.Fatalf("phone search returned wrong patient")
	}
}

func TestDoctorReferenced(t *testing.T) {
	docID := uuid.New()
	svc := newTestService(docID)

	p := validPatient()
	p.AssignedDoctorID = &docID
	if _, err := svc.Register(context.Background(), p); err != nil {
		t.Fatalf("register: %v", err)
	}

	referenced, reason, err := svc.DoctorReferenced(context.Background(), docID)
	if err != nil {
		t.Fatalf("doctor referenced: %v", err)
	}
	if !referenced || reason == "" {
		t.Fatalf("expected reference with reason, got %v %q", referenced, reason)
	}

	referenced, _, err = svc.DoctorReferenced(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("doctor referenced: %v", err)
	}
	if referenced {
		t.Fatal("unassigned doctor reported as referenced")
	}
}
