package pricing

import (
	"strings"
	"testing"
	"time"

	"github.com/garyjia/pharma-billing/internal/domain/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, label ...string) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "%s want %s, got %s", strings.Join(label, " "), want, got.String())
}

func date(s string) *time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &d
}

func line(id, qty, rate, discount, tax string) entity.LineItem {
	return entity.LineItem{
		ID:              id,
		ProductID:       "prod-" + id,
		Quantity:        dec(qty),
		Rate:            dec(rate),
		DiscountPercent: dec(discount),
		TaxRate:         dec(tax),
	}
}
