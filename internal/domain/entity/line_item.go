package entity

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// LineItem is one product row of a document.
// Amount, DiscountAmount, TaxableAmount, TaxAmount and NetAmount are derived by the
// pricing calculator and are never set independently.
type LineItem struct {
	ID              string          `json:"id"`
	ProductID       string          `json:"product_id"`
	ProductName     string          `json:"product_name,omitempty"`
	HSNCode         string          `json:"hsn_code,omitempty"`
	BatchID         *string         `json:"batch_id,omitempty"`
	BatchNumber     string          `json:"batch_number,omitempty"`
	ExpiryDate      *time.Time      `json:"expiry_date,omitempty"`
	Quantity        decimal.Decimal `json:"quantity"`
	FreeQuantity    decimal.Decimal `json:"free_quantity"`
	Rate            decimal.Decimal `json:"rate"`
	MRP             decimal.Decimal `json:"mrp"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	TaxRate         decimal.Decimal `json:"tax_rate"`

	Amount         decimal.Decimal `json:"amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TaxableAmount  decimal.Decimal `json:"taxable_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	NetAmount      decimal.Decimal `json:"net_amount"`
}

// HasBatch reports whether a batch has been selected for the line.
func (l LineItem) HasBatch() bool {
	return l.BatchID != nil && *l.BatchID != ""
}

// StockQuantity is the quantity drawn from the batch, free goods included.
func (l LineItem) StockQuantity() decimal.Decimal {
	return l.Quantity.Add(l.FreeQuantity)
}

// UnmarshalJSON decodes the editable quantities and rates leniently, so a blank or
// half-typed field reads as zero instead of failing the request.
func (l *LineItem) UnmarshalJSON(data []byte) error {
	type plain LineItem
	form := struct {
		*plain
		Quantity        formNumber `json:"quantity"`
		FreeQuantity    formNumber `json:"free_quantity"`
		Rate            formNumber `json:"rate"`
		MRP             formNumber `json:"mrp"`
		DiscountPercent formNumber `json:"discount_percent"`
		TaxRate         formNumber `json:"tax_rate"`
	}{
		plain:           (*plain)(l),
		Quantity:        formNumber(l.Quantity),
		FreeQuantity:    formNumber(l.FreeQuantity),
		Rate:            formNumber(l.Rate),
		MRP:             formNumber(l.MRP),
		DiscountPercent: formNumber(l.DiscountPercent),
		TaxRate:         formNumber(l.TaxRate),
	}
	if err := json.Unmarshal(data, &form); err != nil {
		return err
	}

	l.Quantity = form.Quantity.decimal()
	l.FreeQuantity = form.FreeQuantity.decimal()
	l.Rate = form.Rate.decimal()
	l.MRP = form.MRP.decimal()
	l.DiscountPercent = form.DiscountPercent.decimal()
	l.TaxRate = form.TaxRate.decimal()
	return nil
}
