package billing

import "testing"

func TestComputeTotal(t *testing.T) {
	items := []Item{
		{Description: "Consultation", Quantity: 2, UnitPrice: 500},
		{Description: "Dressing", Quantity: 1, UnitPrice: 200},
	}
	if got := ComputeTotal(items); got != 1200.00 {
		t.Fatalf("total = %v, want 1200.00", got)
	}
}

func TestComputeTotal_RoundHalfUp(t *testing.T) {
	cases := []struct {
		qty   int
		price float64
		want  float64
	}{
		{3, 0.335, 1.01},  // 1.005 rounds up
		{1, 10.994, 10.99},
		{1, 10.995, 11.00},
		{0, 99.99, 0},
	}
	for _, tc := range cases {
		got := ComputeTotal([]Item{{Quantity: tc.qty, UnitPrice: tc.price}})
		if got != tc.want {
			t.Errorf("ComputeTotal(%d x %v) = %v, want %v", tc.qty, tc.price, got, tc.want)
		}
	}
}

func TestDeriveStatus(t *testing.T) {
	cases := []struct {
		total, paid float64
		want        Status
	}{
		{1200, 1200, StatusPaid},
		{1200, 1500, StatusPaid},
		{1200, 600, StatusPartial},
		{1200, 0, StatusUnpaid},
		{0, 0, StatusUnpaid},
	}
	for _, tc := range cases {
		if got := DeriveStatus(tc.total, tc.paid); got != tc.want {
			t.Errorf("DeriveStatus(%v, %v) = %s, want %s", tc.total, tc.paid, got, tc.want)
		}
	}
}
