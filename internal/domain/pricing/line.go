package pricing

import (
	"fmt"

	"github.com/garyjia/pharma-billing/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// LineAmounts holds the derived money fields of one line.
type LineAmounts struct {
	Amount         decimal.Decimal `json:"amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TaxableAmount  decimal.Decimal `json:"taxable_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	NetAmount      decimal.Decimal `json:"net_amount"`
}

// ComputeLine derives the amounts of one line.
//
// Negative quantity, rate or tax rate read as zero and the discount is clamped to
// 0-100; ValidateLine reports those inputs for callers that want to reject them.
// Discount applies to quantity × rate before tax, tax applies to the taxable amount
// (never to MRP) and nothing is rounded here.
func ComputeLine(quantity, rate, discountPercent, taxRate decimal.Decimal) LineAmounts {
	quantity = NonNegative(quantity)
	rate = NonNegative(rate)
	taxRate = NonNegative(taxRate)
	discountPercent = clampPercent(discountPercent)

	amount := quantity.Mul(rate)
	discount := percentOf(amount, discountPercent)
	taxable := amount.Sub(discount)
	tax := percentOf(taxable, taxRate)

	return LineAmounts{
		Amount:         amount,
		DiscountAmount: discount,
		TaxableAmount:  taxable,
		TaxAmount:      tax,
		NetAmount:      taxable.Add(tax),
	}
}

// ApplyLine returns a copy of line with its derived fields recomputed.
func ApplyLine(line entity.LineItem) entity.LineItem {
	a := ComputeLine(line.Quantity, line.Rate, line.DiscountPercent, line.TaxRate)
	line.Amount = a.Amount
	line.DiscountAmount = a.DiscountAmount
	line.TaxableAmount = a.TaxableAmount
	line.TaxAmount = a.TaxAmount
	line.NetAmount = a.NetAmount
	return line
}

// ValidateLine checks the inputs of one line. strictTax also rejects rates outside
// the GST slabs.
func ValidateLine(index int, line entity.LineItem, strictTax bool) error {
	switch {
	case line.Quantity.IsNegative():
		return &ValidationError{Err: ErrNegativeQuantity, Field: lineField(index, "quantity"), Details: line.Quantity.String()}
	case line.FreeQuantity.IsNegative():
		return &ValidationError{Err: ErrNegativeQuantity, Field: lineField(index, "free_quantity"), Details: line.FreeQuantity.String()}
	case line.Rate.IsNegative():
		return &ValidationError{Err: ErrNegativeRate, Field: lineField(index, "rate"), Details: line.Rate.String()}
	case line.DiscountPercent.IsNegative() || line.DiscountPercent.GreaterThan(hundred):
		return &ValidationError{Err: ErrDiscountOutOfRange, Field: lineField(index, "discount_percent"), Details: line.DiscountPercent.String()}
	case line.TaxRate.IsNegative():
		return &ValidationError{Err: ErrUnrecognizedTaxRate, Field: lineField(index, "tax_rate"), Details: line.TaxRate.String()}
	case strictTax && !IsRecognizedRate(line.TaxRate):
		return &ValidationError{Err: ErrUnrecognizedTaxRate, Field: lineField(index, "tax_rate"), Details: line.TaxRate.String()}
	}
	return nil
}

func lineField(index int, field string) string {
	return fmt.Sprintf("lines[%d].%s", index, field)
}
