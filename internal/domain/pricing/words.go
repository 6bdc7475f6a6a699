package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

var (
	onesWords = []string{
		"", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine",
		"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen", "Sixteen",
		"Seventeen", "Eighteen", "Nineteen",
	}
	tensWords = []string{
		"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety",
	}
)

// AmountInWords spells an amount in Indian numbering for invoice footers.
// Example: 913183 → "Rupees Nine Lakh Thirteen Thousand One Hundred Eighty Three Only".
// Paise are rounded to two places and appended when non-zero.
func AmountInWords(amount decimal.Decimal) string {
	prefix := ""
	if amount.IsNegative() {
		prefix = "Minus "
		amount = amount.Neg()
	}

	amount = amount.Round(2)
	rupees := amount.IntPart()
	paise := amount.Sub(decimal.NewFromInt(rupees)).Shift(2).IntPart()

	words := indianWords(rupees)
	if words == "" {
		words = "Zero"
	}

	var sb strings.Builder
	sb.WriteString(prefix)
	sb.WriteString("Rupees ")
	sb.WriteString(words)
	if paise > 0 {
		sb.WriteString(" and ")
		sb.WriteString(under100(paise))
		sb.WriteString(" Paise")
	}
	sb.WriteString(" Only")
	return sb.String()
}

func indianWords(n int64) string {
	if n == 0 {
		return ""
	}

	var parts []string
	if crores := n / 10000000; crores > 0 {
		// amounts of a hundred crore and more keep grouping in crores
		parts = append(parts, indianWords(crores)+" Crore")
		n %= 10000000
	}
	if lakhs := n / 100000; lakhs > 0 {
		parts = append(parts, under100(lakhs)+" Lakh")
		n %= 100000
	}
	if thousands := n / 1000; thousands > 0 {
		parts = append(parts, under100(thousands)+" Thousand")
		n %= 1000
	}
	if hundreds := n / 100; hundreds > 0 {
		parts = append(parts, onesWords[hundreds]+" Hundred")
		n %= 100
	}
	if n > 0 {
		parts = append(parts, under100(n))
	}
	return strings.Join(parts, " ")
}

func under100(n int64) string {
	if n < 20 {
		return onesWords[n]
	}
	if n%10 == 0 {
		return tensWords[n/10]
	}
	return tensWords[n/10] + " " + onesWords[n%10]
}
