package entity

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// DocumentDiscount is a discount applied on top of line discounts,
// either as a percent of the discounted subtotal or as an absolute amount.
type DocumentDiscount struct {
	Kind  string          `json:"kind"`
	Value decimal.Decimal `json:"value"`
}

// UnmarshalJSON reads Value leniently, like the line quantities.
func (d *DocumentDiscount) UnmarshalJSON(data []byte) error {
	type plain DocumentDiscount
	form := struct {
		*plain
		Value formNumber `json:"value"`
	}{plain: (*plain)(d), Value: formNumber(d.Value)}
	if err := json.Unmarshal(data, &form); err != nil {
		return err
	}
	d.Value = form.Value.decimal()
	return nil
}

// Charge is an additional charge such as freight or transport.
type Charge struct {
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

// UnmarshalJSON reads Amount leniently.
func (c *Charge) UnmarshalJSON(data []byte) error {
	type plain Charge
	form := struct {
		*plain
		Amount formNumber `json:"amount"`
	}{plain: (*plain)(c), Amount: formNumber(c.Amount)}
	if err := json.Unmarshal(data, &form); err != nil {
		return err
	}
	c.Amount = form.Amount.decimal()
	return nil
}

// Document is an invoice, delivery challan or purchase entry being edited.
type Document struct {
	ID         string           `json:"id"`
	Kind       string           `json:"kind"`
	CustomerID string           `json:"customer_id"`
	Date       time.Time        `json:"date"`
	Lines      []LineItem       `json:"lines"`
	Discount   DocumentDiscount `json:"discount"`
	Charges    []Charge         `json:"charges,omitempty"`
	Notes      string           `json:"notes,omitempty"`
}

// Line returns the index of the line with the given ID, or -1.
func (d *Document) Line(lineID string) int {
	for i := range d.Lines {
		if d.Lines[i].ID == lineID {
			return i
		}
	}
	return -1
}

// TaxBucket is one row of the rate-wise GST summary.
type TaxBucket struct {
	Key           string          `json:"key"`
	Rate          decimal.Decimal `json:"rate"`
	TaxableAmount decimal.Decimal `json:"taxable_amount"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
	CGST          decimal.Decimal `json:"cgst"`
	SGST          decimal.Decimal `json:"sgst"`
}

// Summary holds the derived document totals.
type Summary struct {
	LineCount              int                        `json:"line_count"`
	TotalQuantity          decimal.Decimal            `json:"total_quantity"`
	TotalFreeQuantity      decimal.Decimal            `json:"total_free_quantity"`
	TotalAmount            decimal.Decimal            `json:"total_amount"`
	LineDiscountAmount     decimal.Decimal            `json:"line_discount_amount"`
	DocumentDiscountAmount decimal.Decimal            `json:"document_discount_amount"`
	DiscountAmount         decimal.Decimal            `json:"discount_amount"`
	TaxableAmount          decimal.Decimal            `json:"taxable_amount"`
	TotalTax               decimal.Decimal            `json:"gst_amount"`
	CGST                   decimal.Decimal            `json:"cgst"`
	SGST                   decimal.Decimal            `json:"sgst"`
	Breakup                map[string]decimal.Decimal `json:"breakup"`
	Buckets                []TaxBucket                `json:"buckets"`
	AdditionalCharges      decimal.Decimal            `json:"additional_charges"`
	PreRoundNet            decimal.Decimal            `json:"pre_round_net"`
	RoundOff               decimal.Decimal            `json:"round_off"`
	NetAmount              decimal.Decimal            `json:"net_amount"`
	AmountInWords          string                     `json:"amount_in_words"`
}
