package http

import (
	"bytes"
	"strings"

	"github.com/garyjia/pharma-billing/internal/application/service"
	"github.com/garyjia/pharma-billing/internal/domain/entity"
	"github.com/garyjia/pharma-billing/internal/domain/pricing"
	"github.com/shopspring/decimal"
)

// Amount is a form number. It accepts a JSON number or string, and blank,
// malformed or negative input reads as zero, matching what the billing screens do
// with a half-typed field.
type Amount struct {
	decimal.Decimal
}

// UnmarshalJSON implements json.Unmarshaler
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		a.Decimal = decimal.Zero
		return nil
	}
	a.Decimal = pricing.ParseLenient(strings.Trim(string(data), `"`))
	return nil
}

func (a *Amount) ptr() *decimal.Decimal {
	if a == nil {
		return nil
	}
	d := a.Decimal
	return &d
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// ComputeLineRequest is a single line priced on its own
type ComputeLineRequest struct {
	Quantity        Amount `json:"quantity"`
	Rate            Amount `json:"rate"`
	DiscountPercent Amount `json:"discount_percent"`
	TaxRate         Amount `json:"tax_rate"`
}

// ComputeLineResponse holds the derived line amounts and the net rounded to the rupee
type ComputeLineResponse struct {
	pricing.LineAmounts
	RoundedNet decimal.Decimal `json:"rounded_net"`
	RoundOff   decimal.Decimal `json:"round_off"`
}

// AddProductRequest adds a product to the posted document
type AddProductRequest struct {
	Document     entity.Document `json:"document"`
	ProductID    string          `json:"product_id" binding:"required"`
	Quantity     Amount          `json:"quantity"`
	FreeQuantity Amount          `json:"free_quantity"`
}

// ChangeQuantityRequest changes the quantities of one line
type ChangeQuantityRequest struct {
	Document     entity.Document `json:"document"`
	LineID       string          `json:"line_id" binding:"required"`
	Quantity     Amount          `json:"quantity"`
	FreeQuantity Amount          `json:"free_quantity"`
}

// SelectBatchRequest pins one line to a batch
type SelectBatchRequest struct {
	Document entity.Document `json:"document"`
	LineID   string          `json:"line_id" binding:"required"`
	BatchID  string          `json:"batch_id" binding:"required"`
}

// UpdateLineRequest overwrites the given line fields. Omitted fields are kept.
type UpdateLineRequest struct {
	Document        entity.Document `json:"document"`
	LineID          string          `json:"line_id" binding:"required"`
	Rate            *Amount         `json:"rate"`
	DiscountPercent *Amount         `json:"discount_percent"`
	TaxRate         *Amount         `json:"tax_rate"`
}

func (r UpdateLineRequest) update() service.LineUpdate {
	return service.LineUpdate{
		Rate:            r.Rate.ptr(),
		DiscountPercent: r.DiscountPercent.ptr(),
		TaxRate:         r.TaxRate.ptr(),
	}
}

// RemoveLineRequest drops one line
type RemoveLineRequest struct {
	Document entity.Document `json:"document"`
	LineID   string          `json:"line_id" binding:"required"`
}

// DocumentEditResponse is the edited document with its recomputed totals.
// StockIssue explains a line kept without a batch or cut down to stock.
type DocumentEditResponse struct {
	Document   entity.Document  `json:"document"`
	Line       *entity.LineItem `json:"line,omitempty"`
	LineIndex  *int             `json:"line_index,omitempty"`
	StockIssue string           `json:"stock_issue,omitempty"`
	Summary    *entity.Summary  `json:"summary,omitempty"`
}

// PreviewResponse is a document ready for review before submission
type PreviewResponse struct {
	Document entity.Document  `json:"document"`
	Summary  entity.Summary   `json:"summary"`
	Customer *entity.Customer `json:"customer,omitempty"`
	Issues   []string         `json:"issues"`
	Ready    bool             `json:"ready"`
}

// AllocateBatchRequest asks which batch would serve a quantity
type AllocateBatchRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  Amount `json:"quantity"`
}

// BatchDrawResponse is one batch's share of a split
type BatchDrawResponse struct {
	BatchID     string          `json:"batch_id"`
	BatchNumber string          `json:"batch_number"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// AllocateBatchResponse is the allocator's choice with the ranked candidates and
// the earliest-expiry split that would cover the quantity
type AllocateBatchResponse struct {
	Batch      *entity.Batch       `json:"batch,omitempty"`
	Requested  decimal.Decimal     `json:"requested"`
	Quantity   decimal.Decimal     `json:"quantity"`
	Candidates []entity.Batch      `json:"candidates"`
	Split      []BatchDrawResponse `json:"split"`
	Shortfall  decimal.Decimal     `json:"shortfall"`
	StockIssue string              `json:"stock_issue,omitempty"`
}

func toAllocateBatchResponse(sel *service.BatchSelection) AllocateBatchResponse {
	resp := AllocateBatchResponse{
		Batch:      sel.Allocation.Batch,
		Requested:  sel.Allocation.Requested,
		Quantity:   sel.Allocation.ClampedQty,
		Candidates: sel.Candidates,
		Split:      make([]BatchDrawResponse, 0, len(sel.Split)),
		Shortfall:  sel.Shortfall,
	}
	if resp.Candidates == nil {
		resp.Candidates = []entity.Batch{}
	}
	for _, d := range sel.Split {
		resp.Split = append(resp.Split, BatchDrawResponse{
			BatchID:     d.Batch.ID,
			BatchNumber: d.Batch.BatchNumber,
			Quantity:    d.Quantity,
		})
	}
	if sel.StockIssue != nil {
		resp.StockIssue = sel.StockIssue.Error()
	}
	return resp
}

// ListOrdersRequest represents query parameters for listing orders
type ListOrdersRequest struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

// CancelOrderRequest is the optional body of an order cancellation
type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

// ExportResponse describes a written export
type ExportResponse struct {
	OrderID     string `json:"order_id"`
	Path        string `json:"path"`
	Size        int    `json:"size"`
	DownloadURL string `json:"download_url"`
}
