package pricing

import (
	"fmt"

	"github.com/garyjia/pharma-billing/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// DocumentTotals derives the document Summary from its lines, document discount and
// additional charges. Every call recomputes everything from the inputs.
type DocumentTotals struct {
	tax *TaxAggregator
}

// NewDocumentTotals creates a DocumentTotals that aggregates tax with tax.
func NewDocumentTotals(tax *TaxAggregator) *DocumentTotals {
	if tax == nil {
		tax = NewTaxAggregator(false)
	}
	return &DocumentTotals{tax: tax}
}

// SummarizeDocument summarizes doc.
func (t *DocumentTotals) SummarizeDocument(doc entity.Document) (entity.Summary, error) {
	return t.Summarize(doc.Lines, doc.Discount, doc.Charges)
}

// Summarize computes the Summary.
//
// Line amounts are recomputed from quantity, rate, discount and tax rate, so stale
// derived fields on the input never leak into the totals. The document discount is
// taken on the sum of line taxable amounts, as a percent or as an absolute amount
// capped at that sum, and does not re-derive line tax. Negative charges read as zero.
// An empty line list yields an all-zero Summary.
func (t *DocumentTotals) Summarize(lines []entity.LineItem, discount entity.DocumentDiscount, charges []entity.Charge) (entity.Summary, error) {
	computed := make([]entity.LineItem, len(lines))
	summary := entity.Summary{LineCount: len(lines)}

	for i, line := range lines {
		line = ApplyLine(line)
		computed[i] = line

		summary.TotalQuantity = summary.TotalQuantity.Add(NonNegative(line.Quantity))
		summary.TotalFreeQuantity = summary.TotalFreeQuantity.Add(NonNegative(line.FreeQuantity))
		summary.TotalAmount = summary.TotalAmount.Add(line.Amount)
		summary.LineDiscountAmount = summary.LineDiscountAmount.Add(line.DiscountAmount)
	}

	subtotal := summary.TotalAmount.Sub(summary.LineDiscountAmount)
	docDiscount, err := documentDiscountAmount(discount, subtotal)
	if err != nil {
		return entity.Summary{}, err
	}
	summary.DocumentDiscountAmount = docDiscount
	summary.DiscountAmount = summary.LineDiscountAmount.Add(docDiscount)
	summary.TaxableAmount = summary.TotalAmount.Sub(summary.DiscountAmount)

	taxes, err := t.tax.Aggregate(computed)
	if err != nil {
		return entity.Summary{}, err
	}
	summary.TotalTax = taxes.TotalTax
	summary.CGST = taxes.CGST
	summary.SGST = taxes.SGST
	summary.Breakup = taxes.Breakup
	summary.Buckets = taxes.Buckets

	for _, c := range charges {
		summary.AdditionalCharges = summary.AdditionalCharges.Add(NonNegative(c.Amount))
	}

	summary.PreRoundNet = sum(summary.TaxableAmount, summary.TotalTax, summary.AdditionalCharges)
	rounded := RoundToUnit(summary.PreRoundNet)
	summary.RoundOff = rounded.Delta
	summary.NetAmount = rounded.Amount
	summary.AmountInWords = AmountInWords(summary.NetAmount)

	if err := checkSummary(summary); err != nil {
		return entity.Summary{}, err
	}
	return summary, nil
}

func documentDiscountAmount(discount entity.DocumentDiscount, subtotal decimal.Decimal) (decimal.Decimal, error) {
	switch discount.Kind {
	case "":
		return decimal.Zero, nil
	case entity.DiscountKindPercent:
		return percentOf(subtotal, clampPercent(discount.Value)), nil
	case entity.DiscountKindAmount:
		return decimal.Min(NonNegative(discount.Value), subtotal), nil
	default:
		return decimal.Zero, &ValidationError{Err: ErrInvalidDiscountKind, Field: "discount.kind", Details: discount.Kind}
	}
}

// checkSummary guards the identities the Summary must satisfy.
func checkSummary(s entity.Summary) error {
	breakupTotal := decimal.Zero
	for _, v := range s.Breakup {
		breakupTotal = breakupTotal.Add(v)
	}
	if !breakupTotal.Equal(s.TotalTax) {
		return &CalculationError{
			Err:     ErrBreakupMismatch,
			Details: fmt.Sprintf("breakup %s, total %s", breakupTotal.String(), s.TotalTax.String()),
		}
	}
	// Net is never negative and halves round up, so round-off lies in (-0.5, 0.5].
	if s.RoundOff.LessThanOrEqual(half.Neg()) || s.RoundOff.GreaterThan(half) ||
		!s.NetAmount.Equal(s.NetAmount.Truncate(0)) {
		return &CalculationError{
			Err:     ErrRoundOffOutOfRange,
			Details: fmt.Sprintf("pre-round %s, round-off %s", s.PreRoundNet.String(), s.RoundOff.String()),
		}
	}
	return nil
}

// ValidateDocument reports the first reason doc cannot be submitted as an order:
// an unknown kind, no customer, no lines, an invalid line, an invalid document
// discount or a negative charge. An empty kind is accepted. Batch selection and
// stock are checked by the order flow.
func ValidateDocument(doc entity.Document, strictTax bool) error {
	if doc.Kind != "" && !entity.IsValidDocumentKind(doc.Kind) {
		return &ValidationError{Err: ErrInvalidDocumentKind, Field: "kind", Details: doc.Kind}
	}
	if doc.CustomerID == "" {
		return &ValidationError{Err: ErrNoCustomer, Field: "customer_id"}
	}
	if len(doc.Lines) == 0 {
		return &ValidationError{Err: ErrNoLineItems, Field: "lines"}
	}
	for i, line := range doc.Lines {
		if err := ValidateLine(i, line, strictTax); err != nil {
			return err
		}
	}

	switch doc.Discount.Kind {
	case "":
	case entity.DiscountKindPercent:
		if doc.Discount.Value.IsNegative() || doc.Discount.Value.GreaterThan(hundred) {
			return &ValidationError{Err: ErrDiscountOutOfRange, Field: "discount.value", Details: doc.Discount.Value.String()}
		}
	case entity.DiscountKindAmount:
		if doc.Discount.Value.IsNegative() {
			return &ValidationError{Err: ErrNegativeAmount, Field: "discount.value", Details: doc.Discount.Value.String()}
		}
	default:
		return &ValidationError{Err: ErrInvalidDiscountKind, Field: "discount.kind", Details: doc.Discount.Kind}
	}

	for i, c := range doc.Charges {
		if c.Amount.IsNegative() {
			return &ValidationError{Err: ErrNegativeAmount, Field: fmt.Sprintf("charges[%d].amount", i), Details: c.Amount.String()}
		}
	}
	return nil
}
