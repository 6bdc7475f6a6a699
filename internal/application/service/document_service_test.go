package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/garyjia/pharma-billing/internal/application/port"
	"github.com/garyjia/pharma-billing/internal/domain/entity"
	"github.com/garyjia/pharma-billing/internal/domain/event"
	"github.com/garyjia/pharma-billing/internal/domain/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDocumentService(policy BillingPolicy) (DocumentService, *mockBatchRepo, *mockDispatcher) {
	products, batches, customers := testCatalog()
	d := &mockDispatcher{}
	return NewDocumentService(products, batches, customers, d, policy, &mockLogger{}), batches, d
}

func TestDocumentService_AddProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("picks earliest expiring batch with stock", func(t *testing.T) {
		svc, _, d := newDocumentService(DefaultBillingPolicy())
		doc := &entity.Document{Kind: entity.DocumentKindInvoice}

		result, err := svc.AddProduct(ctx, doc, "p1", dec("4"), dec("0"))

		require.NoError(t, err)
		assert.Nil(t, result.StockIssue)
		assert.Equal(t, 0, result.Index)
		require.Len(t, doc.Lines, 1)

		line := doc.Lines[0]
		require.True(t, line.HasBatch())
		assert.Equal(t, "b-mar", *line.BatchID)
		assert.Equal(t, "PCM-03", line.BatchNumber)
		assert.Equal(t, "2025-03-31", line.ExpiryDate.Format("2006-01-02"))
		assert.NotEmpty(t, line.ID)
		assert.True(t, line.Rate.Equal(dec("100")), "batch without its own rate keeps the catalog rate")
		assert.True(t, line.MRP.Equal(dec("120")))
		assert.True(t, line.Amount.Equal(dec("400")))
		assert.True(t, line.TaxAmount.Equal(dec("48")))
		assert.Empty(t, d.eventsOf(event.TypeStockShortfall))
	})

	t.Run("rejects quantity above batch stock", func(t *testing.T) {
		svc, _, _ := newDocumentService(DefaultBillingPolicy())
		doc := &entity.Document{}

		_, err := svc.AddProduct(ctx, doc, "p1", dec("20"), dec("0"))

		require.Error(t, err)
		assert.True(t, errors.Is(err, pricing.ErrInsufficientStock))
		var stockErr *pricing.StockError
		require.True(t, errors.As(err, &stockErr))
		assert.Equal(t, "b-mar", stockErr.BatchID)
		assert.True(t, stockErr.Available.Equal(dec("10")))
		assert.Empty(t, doc.Lines)
	})

	t.Run("clamps quantity to batch stock", func(t *testing.T) {
		svc, _, d := newDocumentService(BillingPolicy{StockPolicy: StockPolicyClamp})
		doc := &entity.Document{}

		result, err := svc.AddProduct(ctx, doc, "p1", dec("20"), dec("0"))

		require.NoError(t, err)
		assert.True(t, errors.Is(result.StockIssue, pricing.ErrInsufficientStock))
		assert.True(t, result.Line.Quantity.Equal(dec("10")))
		assert.True(t, result.Line.Amount.Equal(dec("1000")))

		events := d.eventsOf(event.TypeStockShortfall)
		require.Len(t, events, 1)
		assert.Equal(t, "20", events[0].GetPayloadString(event.PayloadRequested))
		assert.Equal(t, "10", events[0].GetPayloadString(event.PayloadAvailable))
	})

	t.Run("keeps line without batch when nothing is in stock", func(t *testing.T) {
		svc, _, d := newDocumentService(DefaultBillingPolicy())
		doc := &entity.Document{}

		result, err := svc.AddProduct(ctx, doc, "p2", dec("2"), dec("0"))

		require.NoError(t, err)
		assert.True(t, errors.Is(result.StockIssue, pricing.ErrNoStock))
		assert.False(t, result.Line.HasBatch())
		assert.True(t, result.Line.Amount.Equal(dec("120")))
		assert.Len(t, d.eventsOf(event.TypeStockShortfall), 1)
	})

	t.Run("purchase lines skip allocation", func(t *testing.T) {
		svc, batches, _ := newDocumentService(DefaultBillingPolicy())
		batches.listFunc = func(ctx context.Context, productID string) ([]entity.Batch, error) {
			t.Fatal("purchase lines must not list batches")
			return nil, nil
		}
		doc := &entity.Document{Kind: entity.DocumentKindPurchase}

		result, err := svc.AddProduct(ctx, doc, "p1", dec("500"), dec("0"))

		require.NoError(t, err)
		assert.Nil(t, result.StockIssue)
		assert.False(t, result.Line.HasBatch())
	})

	t.Run("rejects negative quantity", func(t *testing.T) {
		svc, _, _ := newDocumentService(DefaultBillingPolicy())

		_, err := svc.AddProduct(ctx, &entity.Document{}, "p1", dec("-1"), dec("0"))

		assert.True(t, pricing.IsValidation(err))
		assert.True(t, errors.Is(err, pricing.ErrNegativeQuantity))
	})

	t.Run("unknown product", func(t *testing.T) {
		svc, _, _ := newDocumentService(DefaultBillingPolicy())

		_, err := svc.AddProduct(ctx, &entity.Document{}, "p9", dec("1"), dec("0"))

		assert.True(t, errors.Is(err, port.ErrNotFound))
	})

	t.Run("batch listing failure", func(t *testing.T) {
		svc, batches, _ := newDocumentService(DefaultBillingPolicy())
		batches.listFunc = func(ctx context.Context, productID string) ([]entity.Batch, error) {
			return nil, errors.New("database is locked")
		}

		_, err := svc.AddProduct(ctx, &entity.Document{}, "p1", dec("1"), dec("0"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "database is locked")
	})
}

func TestDocumentService_ChangeQuantity(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		policy    BillingPolicy
		quantity  string
		free      string
		wantErr   error
		wantIssue error
		wantQty   string
		wantFree  string
	}{
		{name: "within stock", policy: DefaultBillingPolicy(), quantity: "8", free: "2", wantQty: "8", wantFree: "2"},
		{name: "free goods count toward stock", policy: DefaultBillingPolicy(), quantity: "8", free: "4", wantErr: pricing.ErrInsufficientStock},
		{name: "clamp cuts free goods first", policy: BillingPolicy{StockPolicy: StockPolicyClamp}, quantity: "8", free: "4", wantIssue: pricing.ErrInsufficientStock, wantQty: "8", wantFree: "2"},
		{name: "clamp paid quantity", policy: BillingPolicy{StockPolicy: StockPolicyClamp}, quantity: "15", free: "1", wantIssue: pricing.ErrInsufficientStock, wantQty: "10", wantFree: "0"},
		{name: "negative free quantity", policy: DefaultBillingPolicy(), quantity: "1", free: "-1", wantErr: pricing.ErrNegativeQuantity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newDocumentService(tt.policy)
			doc := &entity.Document{}
			added, err := svc.AddProduct(ctx, doc, "p1", dec("1"), dec("0"))
			require.NoError(t, err)

			result, err := svc.ChangeQuantity(ctx, doc, added.Line.ID, dec(tt.quantity), dec(tt.free))

			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				assert.True(t, doc.Lines[0].Quantity.Equal(dec("1")), "line is unchanged on error")
				return
			}
			require.NoError(t, err)
			if tt.wantIssue != nil {
				assert.True(t, errors.Is(result.StockIssue, tt.wantIssue))
			} else {
				assert.Nil(t, result.StockIssue)
			}
			assert.Equal(t, tt.wantQty, doc.Lines[0].Quantity.String())
			assert.Equal(t, tt.wantFree, doc.Lines[0].FreeQuantity.String())
			assert.True(t, doc.Lines[0].Amount.Equal(dec(tt.wantQty).Mul(dec("100"))))
		})
	}

	t.Run("unknown line", func(t *testing.T) {
		svc, _, _ := newDocumentService(DefaultBillingPolicy())

		_, err := svc.ChangeQuantity(ctx, &entity.Document{}, "nope", dec("1"), dec("0"))

		assert.True(t, errors.Is(err, ErrLineNotFound))
	})
}

func TestDocumentService_SelectBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("manual batch sets rate and expiry", func(t *testing.T) {
		svc, _, _ := newDocumentService(DefaultBillingPolicy())
		doc := &entity.Document{}
		added, err := svc.AddProduct(ctx, doc, "p1", dec("2"), dec("0"))
		require.NoError(t, err)

		result, err := svc.SelectBatch(ctx, doc, added.Line.ID, "b-jun")

		require.NoError(t, err)
		assert.Equal(t, "b-jun", *result.Line.BatchID)
		assert.Equal(t, "PCM-06", result.Line.BatchNumber)
		assert.True(t, result.Line.Rate.Equal(dec("98")))
		assert.True(t, doc.Lines[0].Amount.Equal(dec("196")))
	})

	t.Run("batch of another product", func(t *testing.T) {
		svc, batches, _ := newDocumentService(DefaultBillingPolicy())
		batches.batches = append(batches.batches, entity.Batch{ID: "b-syrup", ProductID: "p2", QuantityAvailable: 50})
		doc := &entity.Document{}
		added, err := svc.AddProduct(ctx, doc, "p1", dec("2"), dec("0"))
		require.NoError(t, err)

		_, err = svc.SelectBatch(ctx, doc, added.Line.ID, "b-syrup")

		assert.True(t, errors.Is(err, pricing.ErrBatchMismatch))
		assert.Equal(t, "b-mar", *doc.Lines[0].BatchID)
	})

	t.Run("quantity above the chosen batch", func(t *testing.T) {
		svc, _, _ := newDocumentService(DefaultBillingPolicy())
		doc := &entity.Document{}
		added, err := svc.AddProduct(ctx, doc, "p1", dec("8"), dec("0"))
		require.NoError(t, err)

		_, err = svc.SelectBatch(ctx, doc, added.Line.ID, "b-jun")

		assert.True(t, errors.Is(err, pricing.ErrInsufficientStock))
	})

	t.Run("purchase accepts any batch of the product", func(t *testing.T) {
		svc, _, _ := newDocumentService(DefaultBillingPolicy())
		doc := &entity.Document{Kind: entity.DocumentKindPurchase}
		added, err := svc.AddProduct(ctx, doc, "p1", dec("100"), dec("0"))
		require.NoError(t, err)

		result, err := svc.SelectBatch(ctx, doc, added.Line.ID, "b-jan")

		require.NoError(t, err)
		assert.Nil(t, result.StockIssue)
		assert.Equal(t, "b-jan", *doc.Lines[0].BatchID)
	})
}

func TestDocumentService_UpdateAndRemoveLine(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newDocumentService(DefaultBillingPolicy())
	doc := &entity.Document{}
	first, err := svc.AddProduct(ctx, doc, "p1", dec("10"), dec("0"))
	require.NoError(t, err)
	second, err := svc.AddProduct(ctx, doc, "p2", dec("1"), dec("0"))
	require.NoError(t, err)

	discount := dec("10")
	result, err := svc.UpdateLine(doc, first.Line.ID, LineUpdate{DiscountPercent: &discount})
	require.NoError(t, err)
	assert.True(t, result.Line.DiscountAmount.Equal(dec("100")))
	assert.True(t, result.Line.TaxableAmount.Equal(dec("900")))
	assert.True(t, result.Line.TaxAmount.Equal(dec("108")))
	assert.True(t, doc.Lines[0].NetAmount.Equal(dec("1008")))

	tooMuch := dec("150")
	_, err = svc.UpdateLine(doc, first.Line.ID, LineUpdate{DiscountPercent: &tooMuch})
	assert.True(t, errors.Is(err, pricing.ErrDiscountOutOfRange))
	assert.True(t, doc.Lines[0].DiscountPercent.Equal(dec("10")))

	require.NoError(t, svc.RemoveLine(doc, first.Line.ID))
	require.Len(t, doc.Lines, 1)
	assert.Equal(t, second.Line.ID, doc.Lines[0].ID)

	assert.True(t, errors.Is(svc.RemoveLine(doc, first.Line.ID), ErrLineNotFound))
}

func TestDocumentService_UpdateLine_StrictTaxRates(t *testing.T) {
	require.True(t, DefaultBillingPolicy().StrictTaxRates, "strict rates by default")

	svc, _, _ := newDocumentService(DefaultBillingPolicy())
	doc := &entity.Document{}
	added, err := svc.AddProduct(context.Background(), doc, "p1", dec("1"), dec("0"))
	require.NoError(t, err)

	rate := dec("7")
	_, err = svc.UpdateLine(doc, added.Line.ID, LineUpdate{TaxRate: &rate})

	assert.True(t, errors.Is(err, pricing.ErrUnrecognizedTaxRate))
}

func TestDocumentService_UpdateLine_LenientTaxRates(t *testing.T) {
	policy := DefaultBillingPolicy()
	policy.StrictTaxRates = false
	svc, _, _ := newDocumentService(policy)
	doc := &entity.Document{}
	added, err := svc.AddProduct(context.Background(), doc, "p1", dec("1"), dec("0"))
	require.NoError(t, err)

	rate := dec("7")
	updated, err := svc.UpdateLine(doc, added.Line.ID, LineUpdate{TaxRate: &rate})

	require.NoError(t, err)
	assert.True(t, updated.Line.TaxRate.Equal(rate))
}

func TestDocumentService_SummarizeAndPreview(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newDocumentService(DefaultBillingPolicy())
	doc := &entity.Document{CustomerID: "c9"}
	_, err := svc.AddProduct(ctx, doc, "p1", dec("10"), dec("0"))
	require.NoError(t, err)
	_, err = svc.AddProduct(ctx, doc, "p2", dec("5"), dec("0"))
	require.NoError(t, err)

	summary, err := svc.Summarize(*doc)
	require.NoError(t, err)
	assert.True(t, summary.TotalTax.Equal(dec("174")))
	assert.True(t, summary.NetAmount.Equal(dec("1474")))

	preview, err := svc.Preview(ctx, *doc)
	require.NoError(t, err)
	assert.Nil(t, preview.Customer)
	assert.True(t, preview.Summary.NetAmount.Equal(summary.NetAmount))
	require.Len(t, preview.Issues, 2)
	assert.Contains(t, preview.Issues[0], "lines[1]")
	assert.Contains(t, preview.Issues[1], "c9")

	doc.CustomerID = "c1"
	doc.Lines = doc.Lines[:1]
	preview, err = svc.Preview(ctx, *doc)
	require.NoError(t, err)
	assert.Empty(t, preview.Issues)
	require.NotNil(t, preview.Customer)
	assert.Equal(t, "City Medicals", preview.Customer.Name)
}

func TestDocumentService_AllocateBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("FIFO selection and split", func(t *testing.T) {
		svc, _, _ := newDocumentService(DefaultBillingPolicy())

		sel, err := svc.AllocateBatch(ctx, "p1", dec("12"))

		require.NoError(t, err)
		require.True(t, sel.Allocation.Found())
		assert.Equal(t, "b-mar", sel.Allocation.Batch.ID)
		assert.True(t, sel.Allocation.ClampedQty.Equal(dec("10")))
		assert.True(t, errors.Is(sel.StockIssue, pricing.ErrInsufficientStock))

		ids := make([]string, 0, len(sel.Candidates))
		for _, b := range sel.Candidates {
			ids = append(ids, b.ID)
		}
		assert.Equal(t, []string{"b-mar", "b-jun", "b-none"}, ids)

		require.Len(t, sel.Split, 2)
		assert.True(t, sel.Split[0].Quantity.Equal(dec("10")))
		assert.Equal(t, "b-jun", sel.Split[1].Batch.ID)
		assert.True(t, sel.Split[1].Quantity.Equal(dec("2")))
		assert.True(t, sel.Shortfall.IsZero())
	})

	t.Run("expired batches skipped when configured", func(t *testing.T) {
		policy := BillingPolicy{
			StockPolicy:        StockPolicyReject,
			SkipExpiredBatches: true,
			Now:                func() time.Time { return time.Date(2025, 4, 15, 10, 0, 0, 0, time.UTC) },
		}
		svc, _, _ := newDocumentService(policy)

		sel, err := svc.AllocateBatch(ctx, "p1", dec("2"))

		require.NoError(t, err)
		assert.Nil(t, sel.StockIssue)
		assert.Equal(t, "b-jun", sel.Allocation.Batch.ID)
	})

	t.Run("no stock", func(t *testing.T) {
		svc, _, _ := newDocumentService(DefaultBillingPolicy())

		sel, err := svc.AllocateBatch(ctx, "p2", dec("1"))

		require.NoError(t, err)
		assert.False(t, sel.Allocation.Found())
		assert.True(t, errors.Is(sel.StockIssue, pricing.ErrNoStock))
		assert.True(t, sel.Shortfall.Equal(dec("1")))
	})
}

func TestDocumentService_ProductBatches(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newDocumentService(DefaultBillingPolicy())

	batches, err := svc.ProductBatches(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, batches, 3)
	assert.Equal(t, "b-mar", batches[0].ID)

	_, err = svc.ProductBatches(ctx, "p9")
	assert.True(t, errors.Is(err, port.ErrNotFound))
}
