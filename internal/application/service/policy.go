package service

import (
	"time"

	"github.com/garyjia/pharma-billing/internal/domain/pricing"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Stock policies applied when a line asks for more than its batch holds
const (
	StockPolicyReject = "reject"
	StockPolicyClamp  = "clamp"
)

// BillingPolicy holds the caller-side choices the pricing core leaves open
type BillingPolicy struct {
	// StrictTaxRates rejects GST rates outside the standard slabs
	StrictTaxRates bool

	// StockPolicy is StockPolicyReject or StockPolicyClamp
	StockPolicy string

	// SkipExpiredBatches keeps batches that expired before today out of allocation
	SkipExpiredBatches bool

	// Now is the clock used for the expiry cut-off; nil means time.Now
	Now func() time.Time
}

// DefaultBillingPolicy rejects oversized quantities and GST rates outside the slabs
func DefaultBillingPolicy() BillingPolicy {
	return BillingPolicy{StockPolicy: StockPolicyReject, StrictTaxRates: true}
}

func (p BillingPolicy) clamps() bool {
	return p.StockPolicy == StockPolicyClamp
}

func (p BillingPolicy) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p BillingPolicy) allocator() *pricing.BatchAllocator {
	if !p.SkipExpiredBatches {
		return pricing.NewBatchAllocator()
	}
	now := p.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return pricing.NewBatchAllocator(pricing.WithExpiryCutoff(today))
}

func (p BillingPolicy) totals() *pricing.DocumentTotals {
	return pricing.NewDocumentTotals(pricing.NewTaxAggregator(p.StrictTaxRates))
}
