package appointment

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mediflow/clinic/internal/platform/ws"
	"github.com/mediflow/clinic/pkg/errs"
)

type stubDirectory struct {
	known map[uuid.UUID]bool
}

func (s *stubDirectory) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	return s.known[id], nil
}

type fixture struct {
	svc       *Service
	patientID uuid.UUID
	doctorID  uuid.UUID
}

func newFixture() *fixture {
	patientID, doctorID := uuid.New(), uuid.New()
	dir := &stubDirectory{known: map[uuid.UUID]bool{patientID: true, doctorID: true}}
	return &fixture{
		svc:       NewService(NewMemRepo(), dir, dir, (*ws.Hub)(nil)),
		patientID: patientID,
		doctorID:  doctorID,
	}
}

func (f *fixture) slot(t *testing.T, hour, min, duration int) *Appointment {
	t.Helper()
	a, err := f.svc.Schedule(context.Background(), &Appointment{
		PatientID:       f.patientID,
		DoctorID:        f.doctorID,
		StartAt:         time.Date(2026, 9, 1, hour, min, 0, 0, time.UTC),
		DurationMinutes: duration,
		Reason:          "checkup",
	})
	if err != nil {
		t.Fatalf("schedule %02d:%02d: %v", hour, min, err)
	}
	return a
}

func TestSchedule(t *testing.T) {
	f := newFixture()
	a := f.slot(t, 9, 0, 30)

	if a.Status != StatusPending {
		t.Fatalf("status = %s, want pending", a.Status)
	}
	if got := a.End(); !got.Equal(time.Date(2026, 9, 1, 9, 30, 0, 0, time.UTC)) {
		t.Fatalf("end = %s", got)
	}
}

func TestSchedule_Conflict(t *testing.T) {
	f := newFixture()
	f.slot(t, 9, 0, 30)

	// 09:15 starts inside the 09:00-09:30 slot
	_, err := f.svc.Schedule(context.Background(), &Appointment{
		PatientID:       f.patientID,
		DoctorID:        f.doctorID,
		StartAt:         time.Date(2026, 9, 1, 9, 15, 0, 0, time.UTC),
		DurationMinutes: 30,
	})
	if !errs.IsKind(err, errs.KindSchedulingConflict) {
		t.Fatalf("expected scheduling conflict, got %v", err)
	}

	// back to back at 09:30 is fine, intervals are half open
	f.slot(t, 9, 30, 30)
}

func TestSchedule_ConcurrentSameSlot(t *testing.T) {
	f := newFixture()
	start := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)

	const callers = 8
	var wg sync.WaitGroup
	var booked int32
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Schedule(context.Background(), &Appointment{
				PatientID:       f.patientID,
				DoctorID:        f.doctorID,
				StartAt:         start,
				DurationMinutes: 30,
				Reason:          "checkup",
			})
			switch {
			case err == nil:
				atomic.AddInt32(&booked, 1)
			case !errs.IsKind(err, errs.KindSchedulingConflict):
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if booked != 1 {
		t.Fatalf("%d of %d concurrent bookings landed, want exactly 1", booked, callers)
	}
	_, total, err := f.svc.List(context.Background(), Filter{DoctorID: f.doctorID, Status: StatusPending}, 20, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 {
		t.Fatalf("%d pending appointments persisted, want 1", total)
	}
}

func TestSchedule_CancelledSlotFreesCalendar(t *testing.T) {
	f := newFixture()
	a := f.slot(t, 9, 0, 30)

	if _, err := f.svc.Cancel(context.Background(), a.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	f.slot(t, 9, 0, 30)
}

func TestSchedule_OtherDoctorUnaffected(t *testing.T) {
	f := newFixture()
	f.slot(t, 9, 0, 30)

	otherDoctor := uuid.New()
	dir := f.svc.doctors.(*stubDirectory)
	dir.known[otherDoctor] = true

	if _, err := f.svc.Schedule(context.Background(), &Appointment{
		PatientID:       f.patientID,
		DoctorID:        otherDoctor,
		StartAt:         time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC),
		DurationMinutes: 30,
	}); err != nil {
		t.Fatalf("other doctor same slot: %v", err)
	}
}

func TestSchedule_Validation(t *testing.T) {
	f := newFixture()

	cases := []struct {
		name string
		a    Appointment
		kind errs.Kind
	}{
		{"missing patient", Appointment{DoctorID: f.doctorID, StartAt: time.Now(), DurationMinutes: 30}, errs.KindValidation},
		{"missing doctor", Appointment{PatientID: f.patientID, StartAt: time.Now(), DurationMinutes: 30}, errs.KindValidation},
		{"zero duration", Appointment{PatientID: f.patientID, DoctorID: f.doctorID, StartAt: time.Now()}, errs.KindValidation},
		{"unknown patient", Appointment{PatientID: uuid.New(), DoctorID: f.doctorID, StartAt: time.Now(), DurationMinutes: 30}, errs.KindReferentialIntegrity},
		{"unknown doctor", Appointment{PatientID: f.patientID, DoctorID: uuid.New(), StartAt: time.Now(), DurationMinutes: 30}, errs.KindReferentialIntegrity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := tc.a
			if _, err := f.svc.Schedule(context.Background(), &a); !errs.IsKind(err, tc.kind) {
				t.Fatalf("expected %s, got %v", tc.kind, err)
			}
		})
	}
}

func TestTransition(t *testing.T) {
	f := newFixture()
	a := f.slot(t, 9, 0, 30)

	a, err := f.svc.Transition(context.Background(), a.ID, StatusConfirmed)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	a, err = f.svc.Transition(context.Background(), a.ID, StatusCompleted)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}

	// completed is terminal
	if _, err := f.svc.Transition(context.Background(), a.ID, StatusCancelled); !errs.IsKind(err, errs.KindInvalidStateTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestTransition_PendingToCompletedRejected(t *testing.T) {
	f := newFixture()
	a := f.slot(t, 9, 0, 30)

	if _, err := f.svc.Transition(context.Background(), a.ID, StatusCompleted); !errs.IsKind(err, errs.KindInvalidStateTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestTransition_UnknownStatus(t *testing.T) {
	f := newFixture()
	a := f.slot(t, 9, 0, 30)

	if _, err := f.svc.Transition(context.Background(), a.ID, Status("archived")); !errs.IsKind(err, errs.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDoctorReferenced(t *testing.T) {
	f := newFixture()
	a := f.slot(t, 9, 0, 30)

	referenced, _, err := f.svc.DoctorReferenced(context.Background(), f.doctorID)
	if err != nil {
		t.Fatalf("doctor referenced: %v", err)
	}
	if !referenced {
		t.Fatal("doctor with pending slot should be referenced")
	}

	if _, err := f.svc.Cancel(context.Background(), a.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	referenced, _, err = f.svc.DoctorReferenced(context.Background(), f.doctorID)
	if err != nil {
		t.Fatalf("doctor referenced: %v", err)
	}
	if referenced {
		t.Fatal("cancelled slots should not hold a reference")
	}
}

func TestList_Filters(t *testing.T) {
	f := newFixture()
	f.slot(t, 9, 0, 30)
	a := f.slot(t, 10, 0, 30)
	if _, err := f.svc.Transition(context.Background(), a.ID, StatusConfirmed); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	items, total, err := f.svc.List(context.Background(), Filter{Status: StatusConfirmed}, 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || items[0].ID != a.ID {
		t.Fatalf("status filter returned %d items", total)
	}

	_, total, err = f.svc.List(context.Background(), Filter{Day: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)}, 10, 0)
	if err != nil {
		t.Fatalf("list by day: %v", err)
	}
	if total != 2 {
		t.Fatalf("day filter returned %d items, want 2", total)
	}
}
