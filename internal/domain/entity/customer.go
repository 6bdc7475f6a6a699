package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer is passed through to documents for display; pricing never consults it.
type Customer struct {
	ID          string          `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	GSTIN       string          `db:"gstin" json:"gstin,omitempty"`
	Address     string          `db:"address" json:"address,omitempty"`
	Phone       string          `db:"phone" json:"phone,omitempty"`
	CreditLimit decimal.Decimal `db:"credit_limit" json:"credit_limit"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}
