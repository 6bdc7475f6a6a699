package pricing

import (
	"sort"
	"time"

	"github.com/garyjia/pharma-billing/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Allocation is the outcome of selecting a batch for a requested quantity.
type Allocation struct {
	Batch      *entity.Batch
	Requested  decimal.Decimal
	ClampedQty decimal.Decimal
}

// Found reports whether a batch was selected.
func (a Allocation) Found() bool {
	return a.Batch != nil
}

// Shortfall is the part of the request the selected batch cannot cover.
func (a Allocation) Shortfall() decimal.Decimal {
	return a.Requested.Sub(a.ClampedQty)
}

// BatchDraw is one batch's share of a split allocation.
type BatchDraw struct {
	Batch    entity.Batch
	Quantity decimal.Decimal
}

// BatchAllocator picks stock lots first-expiry-first-out.
type BatchAllocator struct {
	expiryCutoff *time.Time
}

// AllocatorOption configures a BatchAllocator.
type AllocatorOption func(*BatchAllocator)

// WithExpiryCutoff makes batches expiring before t ineligible.
func WithExpiryCutoff(t time.Time) AllocatorOption {
	return func(a *BatchAllocator) {
		a.expiryCutoff = &t
	}
}

// NewBatchAllocator creates a BatchAllocator. By default expired batches stay
// eligible; the allocator only looks at stock and expiry order.
func NewBatchAllocator(opts ...AllocatorOption) *BatchAllocator {
	a := &BatchAllocator{}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// RankBatches returns the product's eligible batches in allocation order: stock > 0,
// earliest expiry first, undated batches last. Batches with equal expiry keep their
// input order. An empty productID skips the product filter. candidates is not modified.
func (a *BatchAllocator) RankBatches(productID string, candidates []entity.Batch) []entity.Batch {
	eligible := make([]entity.Batch, 0, len(candidates))
	for _, b := range candidates {
		if productID != "" && b.ProductID != productID {
			continue
		}
		if !b.HasStock() {
			continue
		}
		if a.expiryCutoff != nil && b.ExpiresBefore(*a.expiryCutoff) {
			continue
		}
		eligible = append(eligible, b)
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		return expiresEarlier(eligible[i], eligible[j])
	})
	return eligible
}

// expiresEarlier orders dated batches by expiry and puts undated batches last.
func expiresEarlier(x, y entity.Batch) bool {
	switch {
	case x.ExpiryDate == nil:
		return false
	case y.ExpiryDate == nil:
		return true
	default:
		return x.ExpiryDate.Before(*y.ExpiryDate)
	}
}

// SelectBatch picks the first batch in allocation order.
//
// With no eligible batch it returns an Allocation without a batch and a StockError
// wrapping ErrNoStock. When the batch holds less than requested it returns the
// Allocation with ClampedQty set to the batch stock together with a StockError
// wrapping ErrInsufficientStock; whether to clamp or reject is the caller's call.
func (a *BatchAllocator) SelectBatch(productID string, candidates []entity.Batch, requested decimal.Decimal) (Allocation, error) {
	requested = NonNegative(requested)
	ranked := a.RankBatches(productID, candidates)
	if len(ranked) == 0 {
		return Allocation{Requested: requested, ClampedQty: decimal.Zero}, &StockError{
			Err:       ErrNoStock,
			ProductID: productID,
			Requested: requested,
			Available: decimal.Zero,
		}
	}

	selected := ranked[0]
	alloc := Allocation{
		Batch:      &selected,
		Requested:  requested,
		ClampedQty: requested,
	}
	if err := a.ValidateQuantity(selected, requested); err != nil {
		alloc.ClampedQty = decimal.NewFromInt(selected.QuantityAvailable)
		return alloc, err
	}
	return alloc, nil
}

// ValidateQuantity checks a requested quantity against the selected batch.
func (a *BatchAllocator) ValidateQuantity(batch entity.Batch, requested decimal.Decimal) error {
	available := decimal.NewFromInt(batch.QuantityAvailable)
	if requested.GreaterThan(available) {
		return &StockError{
			Err:       ErrInsufficientStock,
			ProductID: batch.ProductID,
			BatchID:   batch.ID,
			Requested: requested,
			Available: available,
		}
	}
	return nil
}

// PlanSplit spreads requested over the eligible batches in allocation order and
// returns the draws plus any quantity no batch could cover.
func (a *BatchAllocator) PlanSplit(productID string, candidates []entity.Batch, requested decimal.Decimal) ([]BatchDraw, decimal.Decimal) {
	remaining := NonNegative(requested)
	var draws []BatchDraw

	for _, b := range a.RankBatches(productID, candidates) {
		if !remaining.IsPositive() {
			break
		}
		take := decimal.Min(remaining, decimal.NewFromInt(b.QuantityAvailable))
		draws = append(draws, BatchDraw{Batch: b, Quantity: take})
		remaining = remaining.Sub(take)
	}

	return draws, remaining
}
