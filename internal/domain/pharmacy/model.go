package pharmacy

import (
	"time"

	"github.com/google/uuid"
)

// Medicine is one catalog entry plus its live stock level. The low-stock
// flag is derived from stock and threshold on read, never stored.
type Medicine struct {
	ID                uuid.UUID `db:"id" json:"id"`
	Name              string    `db:"name" json:"name"`
	Brand             string    `db:"brand" json:"brand"`
	SKU               string    `db:"sku" json:"sku"`
	UnitPrice         float64   `db:"unit_price" json:"unit_price"`
	Stock             int       `db:"stock" json:"stock"`
	MinStockThreshold int       `db:"min_stock_threshold" json:"min_stock_threshold"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

func (m *Medicine) LowStock() bool {
	return m.Stock <= m.MinStockThreshold
}

// Patch covers the mutable catalog fields. Stock only moves through
// AdjustStock so every change lands in the movement ledger.
type Patch struct {
	Name              *string  `json:"name,omitempty"`
	Brand             *string  `json:"brand,omitempty"`
	SKU               *string  `json:"sku,omitempty"`
	UnitPrice         *float64 `json:"unit_price,omitempty"`
	MinStockThreshold *int     `json:"min_stock_threshold,omitempty"`
}

// StockMovement is one append-only ledger row. Delta is positive for
// restock, negative for dispensing.
type StockMovement struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	MedicineID uuid.UUID  `db:"medicine_id" json:"medicine_id"`
	Delta      int        `db:"delta" json:"delta"`
	Reason     string     `db:"reason" json:"reason"`
	BillID     *uuid.UUID `db:"bill_id" json:"bill_id,omitempty"`
	At         time.Time  `db:"at" json:"at"`
}
