package pricing

import "github.com/shopspring/decimal"

// Rounded is an amount rounded to whole currency units and the delta that was applied.
type Rounded struct {
	Amount decimal.Decimal
	Delta  decimal.Decimal
}

// RoundToUnit rounds amount to the nearest whole currency unit. Halves round away
// from zero, so 10.50 becomes 11 and -10.50 becomes -11. Delta = Amount - amount and
// its magnitude never exceeds half a unit.
func RoundToUnit(amount decimal.Decimal) Rounded {
	rounded := amount.Round(0)
	return Rounded{
		Amount: rounded,
		Delta:  rounded.Sub(amount),
	}
}
