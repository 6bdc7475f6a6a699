package entity

import (
	"bytes"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseFormNumber reads a number typed into a billing form. Blank, non-numeric and
// negative input all read as zero. Digit-group commas are ignored.
func ParseFormNumber(s string) decimal.Decimal {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// formNumber decodes a JSON number or string with ParseFormNumber.
// null leaves the value unchanged.
type formNumber decimal.Decimal

func (n *formNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	*n = formNumber(ParseFormNumber(strings.Trim(string(data), `"`)))
	return nil
}

func (n formNumber) decimal() decimal.Decimal {
	return decimal.Decimal(n)
}
