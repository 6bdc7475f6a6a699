package pricing

import (
	"github.com/garyjia/pharma-billing/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// BucketOther collects tax at rates outside the recognized GST slabs.
const BucketOther = "other"

// gstSlabs is the closed set of recognized GST rates, in display order.
var gstSlabs = []decimal.Decimal{
	decimal.NewFromInt(0),
	decimal.NewFromInt(5),
	decimal.NewFromInt(12),
	decimal.NewFromInt(18),
	decimal.NewFromInt(28),
}

// GSTSlabs returns the recognized GST rates.
func GSTSlabs() []decimal.Decimal {
	out := make([]decimal.Decimal, len(gstSlabs))
	copy(out, gstSlabs)
	return out
}

// IsRecognizedRate reports whether rate is one of the GST slabs.
func IsRecognizedRate(rate decimal.Decimal) bool {
	return slabIndex(rate) >= 0
}

func slabIndex(rate decimal.Decimal) int {
	for i, slab := range gstSlabs {
		if slab.Equal(rate) {
			return i
		}
	}
	return -1
}

// BucketKey returns the breakup key for rate: the slab ("5", "12", ...) or BucketOther.
func BucketKey(rate decimal.Decimal) string {
	if i := slabIndex(rate); i >= 0 {
		return gstSlabs[i].String()
	}
	return BucketOther
}

// TaxSummary is the aggregated GST for a set of lines.
type TaxSummary struct {
	TotalTax decimal.Decimal
	CGST     decimal.Decimal
	SGST     decimal.Decimal
	Breakup  map[string]decimal.Decimal
	Buckets  []entity.TaxBucket
}

// TaxAggregator buckets line tax by GST slab.
//
// In strict mode a line at an unrecognized rate is a ValidationError. Otherwise its
// tax goes to the BucketOther bucket, so the breakup always adds up to the total.
type TaxAggregator struct {
	strict bool
}

// NewTaxAggregator creates a TaxAggregator.
func NewTaxAggregator(strict bool) *TaxAggregator {
	return &TaxAggregator{strict: strict}
}

// Strict reports whether unrecognized rates are rejected.
func (a *TaxAggregator) Strict() bool {
	return a.strict
}

// Aggregate sums TaxAmount and TaxableAmount of lines per slab. The lines' derived
// fields are used as given; DocumentTotals recomputes them before calling this.
func (a *TaxAggregator) Aggregate(lines []entity.LineItem) (TaxSummary, error) {
	buckets := make(map[string]*entity.TaxBucket)
	total := decimal.Zero

	for i, line := range lines {
		key := BucketKey(line.TaxRate)
		if key == BucketOther && a.strict {
			return TaxSummary{}, &ValidationError{
				Err:     ErrUnrecognizedTaxRate,
				Field:   lineField(i, "tax_rate"),
				Details: line.TaxRate.String(),
			}
		}

		b, ok := buckets[key]
		if !ok {
			b = &entity.TaxBucket{Key: key, Rate: line.TaxRate}
			buckets[key] = b
		}
		if key == BucketOther && !b.Rate.Equal(line.TaxRate) {
			// mixed non-standard rates share the bucket; no single rate applies
			b.Rate = decimal.Zero
		}
		b.TaxableAmount = b.TaxableAmount.Add(line.TaxableAmount)
		b.TaxAmount = b.TaxAmount.Add(line.TaxAmount)
		total = total.Add(line.TaxAmount)
	}

	summary := TaxSummary{
		TotalTax: total,
		CGST:     halve(total),
		SGST:     halve(total),
		Breakup:  make(map[string]decimal.Decimal, len(buckets)),
		Buckets:  make([]entity.TaxBucket, 0, len(buckets)),
	}

	for _, key := range bucketOrder() {
		b, ok := buckets[key]
		if !ok {
			continue
		}
		b.CGST = halve(b.TaxAmount)
		b.SGST = halve(b.TaxAmount)
		summary.Breakup[key] = b.TaxAmount
		summary.Buckets = append(summary.Buckets, *b)
	}

	return summary, nil
}

func bucketOrder() []string {
	keys := make([]string, 0, len(gstSlabs)+1)
	for _, slab := range gstSlabs {
		keys = append(keys, slab.String())
	}
	return append(keys, BucketOther)
}
