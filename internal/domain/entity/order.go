package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is the committed form of a document, as sent to the order API.
type Order struct {
	ID             string          `db:"id" json:"id"`
	DocumentKind   string          `db:"document_kind" json:"document_kind"`
	CustomerID     string          `db:"customer_id" json:"customer_id"`
	Status         string          `db:"status" json:"status"`
	TotalAmount    decimal.Decimal `db:"total_amount" json:"total_amount"`
	DiscountAmount decimal.Decimal `db:"discount_amount" json:"discount_amount"`
	TaxableAmount  decimal.Decimal `db:"taxable_amount" json:"taxable_amount"`
	TaxAmount      decimal.Decimal `db:"tax_amount" json:"tax_amount"`
	ChargesAmount  decimal.Decimal `db:"charges_amount" json:"charges_amount"`
	RoundOff       decimal.Decimal `db:"round_off" json:"round_off"`
	NetAmount      decimal.Decimal `db:"net_amount" json:"net_amount"`
	Notes          string          `db:"notes" json:"notes,omitempty"`
	CancelReason   string          `db:"cancel_reason" json:"cancel_reason,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      *time.Time      `db:"updated_at" json:"updated_at,omitempty"`
	Lines          []OrderLine     `db:"-" json:"lines"`
}

// OrderLine is one committed line of an order.
type OrderLine struct {
	ID           string          `db:"id" json:"id"`
	OrderID      string          `db:"order_id" json:"order_id"`
	LineNo       int             `db:"line_no" json:"line_no"`
	ProductID    string          `db:"product_id" json:"product_id"`
	BatchID      string          `db:"batch_id" json:"batch_id"`
	Quantity     decimal.Decimal `db:"quantity" json:"quantity"`
	FreeQuantity decimal.Decimal `db:"free_quantity" json:"free_quantity"`
	UnitPrice    decimal.Decimal `db:"unit_price" json:"unit_price"`
	TotalPrice   decimal.Decimal `db:"total_price" json:"total_price"`
	Discount     decimal.Decimal `db:"discount" json:"discount"`
	TaxRate      decimal.Decimal `db:"tax_rate" json:"tax_rate"`
	TaxAmount    decimal.Decimal `db:"tax_amount" json:"tax_amount"`

	// Catalog details joined in when an order is read back
	ProductName string     `db:"product_name" json:"product_name,omitempty"`
	HSNCode     string     `db:"hsn_code" json:"hsn_code,omitempty"`
	BatchNumber string     `db:"batch_number" json:"batch_number,omitempty"`
	ExpiryDate  *time.Time `db:"expiry_date" json:"expiry_date,omitempty"`
}
