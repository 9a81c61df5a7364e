package billing

import (
	"math"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusUnpaid  Status = "unpaid"
	StatusPartial Status = "partial"
	StatusPaid    Status = "paid"
	StatusVoid    Status = "void"
)

// Bill is one invoice. Total and Status are always derived server side from
// the items and the paid amount; values sent by clients are discarded.
type Bill struct {
	ID        uuid.UUID `db:"id" json:"id"`
	PatientID uuid.UUID `db:"patient_id" json:"patient_id"`
	Items     []Item    `json:"items"`
	Total     float64   `db:"total" json:"total"`
	Paid      float64   `db:"paid" json:"paid"`
	Status    Status    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Item is one ordered line. MedicineID links dispensed stock; consultation
// and service charges leave it nil.
type Item struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	BillID      uuid.UUID  `db:"bill_id" json:"bill_id"`
	Description string     `db:"description" json:"description"`
	MedicineID  *uuid.UUID `db:"medicine_id" json:"medicine_id,omitempty"`
	Quantity    int        `db:"quantity" json:"quantity"`
	UnitPrice   float64    `db:"unit_price" json:"unit_price"`
}

// round2 rounds half up to 2 decimals.
func round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}

// ComputeTotal sums quantity times unit price over the items, rounding the
// result half up to 2 decimals.
func ComputeTotal(items []Item) float64 {
	var sum float64
	for _, it := range items {
		sum += float64(it.Quantity) * it.UnitPrice
	}
	return round2(sum)
}

// DeriveStatus maps the paid amount against the total. It never yields void;
// voiding is an explicit operation.
func DeriveStatus(total, paid float64) Status {
	switch {
	case total > 0 && paid >= total:
		return StatusPaid
	case paid > 0:
		return StatusPartial
	default:
		return StatusUnpaid
	}
}

// Recompute refreshes the derived fields after any item or payment change.
func (b *Bill) Recompute() {
	b.Total = ComputeTotal(b.Items)
	if b.Status != StatusVoid {
		b.Status = DeriveStatus(b.Total, b.Paid)
	}
}
