package errs

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	err := SchedulingConflict("doctor %s is booked", "d1")
	if KindOf(err) != KindSchedulingConflict {
		t.Errorf("expected SchedulingConflictError, got %s", KindOf(err))
	}
}

func TestKindOf_Wrapped(t *testing.T) {
	inner := InsufficientStock("stock would go negative")
	err := fmt.Errorf("adjust stock: %w", inner)
	if KindOf(err) != KindInsufficientStock {
		t.Errorf("expected InsufficientStockError through wrapping, got %s", KindOf(err))
	}
}

func TestKindOf_Untyped(t *testing.T) {
	if KindOf(errors.New("boom")) != "" {
		t.Error("expected empty kind for untyped error")
	}
}

func TestIsKind(t *testing.T) {
	err := BedUnavailable("bed %s occupied", "b1")
	if !IsKind(err, KindBedUnavailable) {
		t.Error("expected IsKind to match")
	}
	if IsKind(err, KindValidation) {
		t.Error("expected IsKind to reject a different kind")
	}
}

func TestErrorMessage(t *testing.T) {
	err := Validation("first_name is required")
	want := "ValidationError: first_name is required"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
}
