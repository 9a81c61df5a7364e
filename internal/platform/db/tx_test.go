package db

import (
	"context"
	"errors"
	"testing"
)

func TestTxFromContext_Empty(t *testing.T) {
	if tx := TxFromContext(context.Background()); tx != nil {
		t.Error("expected nil transaction from bare context")
	}
}

func TestNoopTransactor_RunsFn(t *testing.T) {
	called := false
	err := NoopTransactor{}.WithinTx(context.Background(), func(ctx context.Context) error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("expected fn to run")
	}
}

func TestNoopTransactor_PropagatesError(t *testing.T) {
	want := errors.New("boom")
	err := NoopTransactor{}.WithinTx(context.Background(), func(ctx context.Context) error {
		return want
	})
	if !errors.Is(err, want) {
		t.Errorf("expected error to propagate, got %v", err)
	}
}
