package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog record. The billing engine only reads it.
type Product struct {
	ID         string          `db:"id" json:"id"`
	Name       string          `db:"name" json:"name"`
	HSNCode    string          `db:"hsn_code" json:"hsn_code"`
	PackSize   string          `db:"pack_size" json:"pack_size,omitempty"`
	MRP        decimal.Decimal `db:"mrp" json:"mrp"`
	SalePrice  decimal.Decimal `db:"sale_price" json:"sale_price"`
	GSTPercent decimal.Decimal `db:"gst_percent" json:"gst_percent"`
	IsActive   bool            `db:"is_active" json:"is_active"`
	UpdatedAt  time.Time       `db:"updated_at" json:"updated_at"`
}
