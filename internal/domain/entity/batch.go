package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Batch is a stock lot of a product with its own expiry and available quantity.
// It is a read-only snapshot for pricing; only the order commit path decrements it.
type Batch struct {
	ID                string          `db:"id" json:"id"`
	ProductID         string          `db:"product_id" json:"product_id"`
	BatchNumber       string          `db:"batch_number" json:"batch_number"`
	ExpiryDate        *time.Time      `db:"expiry_date" json:"expiry_date,omitempty"`
	QuantityAvailable int64           `db:"quantity_available" json:"quantity_available"`
	MRP               decimal.Decimal `db:"mrp" json:"mrp"`
	SalePrice         decimal.Decimal `db:"sale_price" json:"sale_price"`
	UpdatedAt         time.Time       `db:"updated_at" json:"updated_at"`
}

// HasStock reports whether any quantity is available.
func (b Batch) HasStock() bool {
	return b.QuantityAvailable > 0
}

// ExpiresBefore reports whether the batch expires strictly before t.
// Undated batches never expire.
func (b Batch) ExpiresBefore(t time.Time) bool {
	return b.ExpiryDate != nil && b.ExpiryDate.Before(t)
}
