package pricing

import (
	"fmt"
	"math"

	"github.com/garyjia/pharma-billing/internal/domain/entity"
	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	half    = decimal.New(5, -1)
)

// NonNegative returns d, or zero when d is negative.
func NonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// ParseLenient parses a numeric form input the way the billing screens accept it:
// blank, non-numeric and negative input all read as zero. Digit-group commas are ignored.
func ParseLenient(s string) decimal.Decimal {
	return entity.ParseFormNumber(s)
}

// FromFloat converts a float input, rejecting NaN and infinities.
func FromFloat(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, &CalculationError{Err: ErrNonFinite, Details: fmt.Sprintf("%v", f)}
	}
	return decimal.NewFromFloat(f), nil
}

// percentOf returns amount × percent / 100 without division rounding.
func percentOf(amount, percent decimal.Decimal) decimal.Decimal {
	return amount.Mul(percent).Shift(-2)
}

// halve splits an amount into two exact halves.
func halve(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(half)
}

func clampPercent(p decimal.Decimal) decimal.Decimal {
	p = NonNegative(p)
	if p.GreaterThan(hundred) {
		return hundred
	}
	return p
}

func sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
