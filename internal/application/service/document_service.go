package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/garyjia/pharma-billing/internal/application/dispatcher"
	"github.com/garyjia/pharma-billing/internal/application/port"
	"github.com/garyjia/pharma-billing/internal/domain/entity"
	"github.com/garyjia/pharma-billing/internal/domain/event"
	"github.com/garyjia/pharma-billing/internal/domain/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrLineNotFound is returned when a line ID is not on the document
var ErrLineNotFound = errors.New("line not found")

// LineResult is the outcome of a line edit.
// StockIssue is set when the line was kept without a batch or clamped to stock.
type LineResult struct {
	Line       entity.LineItem
	Index      int
	StockIssue error
}

// LineUpdate carries the line fields a user may overwrite. Nil fields are left alone.
type LineUpdate struct {
	Rate            *decimal.Decimal
	DiscountPercent *decimal.Decimal
	TaxRate         *decimal.Decimal
}

// DocumentPreview is a document with its totals and anything that blocks submission
type DocumentPreview struct {
	Document entity.Document
	Summary  entity.Summary
	Customer *entity.Customer
	Issues   []string
}

// BatchSelection is the allocator's view of one product
type BatchSelection struct {
	Allocation pricing.Allocation
	Candidates []entity.Batch
	Split      []pricing.BatchDraw
	Shortfall  decimal.Decimal
	StockIssue error
}

// DocumentService edits in-progress documents. It never writes stock.
type DocumentService interface {
	AddProduct(ctx context.Context, doc *entity.Document, productID string, quantity, freeQuantity decimal.Decimal) (*LineResult, error)
	ChangeQuantity(ctx context.Context, doc *entity.Document, lineID string, quantity, freeQuantity decimal.Decimal) (*LineResult, error)
	SelectBatch(ctx context.Context, doc *entity.Document, lineID, batchID string) (*LineResult, error)
	UpdateLine(doc *entity.Document, lineID string, update LineUpdate) (*LineResult, error)
	RemoveLine(doc *entity.Document, lineID string) error
	Summarize(doc entity.Document) (entity.Summary, error)
	Preview(ctx context.Context, doc entity.Document) (*DocumentPreview, error)
	AllocateBatch(ctx context.Context, productID string, quantity decimal.Decimal) (*BatchSelection, error)
	ProductBatches(ctx context.Context, productID string) ([]entity.Batch, error)
}

type documentServiceImpl struct {
	productRepo  port.ProductRepository
	batchRepo    port.BatchRepository
	customerRepo port.CustomerRepository
	dispatcher   dispatcher.Dispatcher
	policy       BillingPolicy
	logger       Logger
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(
	productRepo port.ProductRepository,
	batchRepo port.BatchRepository,
	customerRepo port.CustomerRepository,
	d dispatcher.Dispatcher,
	policy BillingPolicy,
	logger Logger,
) DocumentService {
	return &documentServiceImpl{
		productRepo:  productRepo,
		batchRepo:    batchRepo,
		customerRepo: customerRepo,
		dispatcher:   d,
		policy:       policy,
		logger:       logger,
	}
}

// AddProduct appends a line for the product, drawing from the earliest-expiring
// batch with stock. Without any stock the line is added with no batch and the
// StockError is returned as the result's StockIssue. Purchase documents receive
// stock, so their lines start without a batch and skip allocation.
func (s *documentServiceImpl) AddProduct(ctx context.Context, doc *entity.Document, productID string, quantity, freeQuantity decimal.Decimal) (*LineResult, error) {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	line := entity.LineItem{
		ID:           uuid.NewString(),
		ProductID:    product.ID,
		ProductName:  product.Name,
		HSNCode:      product.HSNCode,
		Quantity:     quantity,
		FreeQuantity: freeQuantity,
		Rate:         product.SalePrice,
		MRP:          product.MRP,
		TaxRate:      product.GSTPercent,
	}
	if err := pricing.ValidateLine(len(doc.Lines), line, s.policy.StrictTaxRates); err != nil {
		return nil, err
	}

	result := &LineResult{}
	if doc.Kind != entity.DocumentKindPurchase {
		batches, err := s.batchRepo.ListByProduct(ctx, productID)
		if err != nil {
			return nil, fmt.Errorf("failed to list batches: %w", err)
		}

		alloc, allocErr := s.policy.allocator().SelectBatch(productID, batches, line.StockQuantity())
		if alloc.Found() {
			applyBatch(&line, *alloc.Batch)
			if allocErr != nil {
				if !s.policy.clamps() {
					return nil, allocErr
				}
				clampLine(&line, alloc.ClampedQty)
			}
		}
		if allocErr != nil {
			result.StockIssue = allocErr
			s.reportShortfall(ctx, productID, alloc)
		}
	}

	line = pricing.ApplyLine(line)
	doc.Lines = append(doc.Lines, line)
	result.Line = line
	result.Index = len(doc.Lines) - 1

	s.logger.Info("Line added",
		"product_id", productID,
		"batch_number", line.BatchNumber,
		"quantity", line.Quantity.String())

	return result, nil
}

// ChangeQuantity sets the paid and free quantity of a line and checks them
// against the current stock of its batch.
func (s *documentServiceImpl) ChangeQuantity(ctx context.Context, doc *entity.Document, lineID string, quantity, freeQuantity decimal.Decimal) (*LineResult, error) {
	idx, err := findLine(doc, lineID)
	if err != nil {
		return nil, err
	}

	line := doc.Lines[idx]
	line.Quantity = quantity
	line.FreeQuantity = freeQuantity
	if err := pricing.ValidateLine(idx, line, s.policy.StrictTaxRates); err != nil {
		return nil, err
	}

	result := &LineResult{Index: idx}
	if line.HasBatch() && doc.Kind != entity.DocumentKindPurchase {
		batch, err := s.batchRepo.GetByID(ctx, *line.BatchID)
		if err != nil {
			return nil, fmt.Errorf("failed to get batch: %w", err)
		}
		if result.StockIssue, err = s.fitStock(&line, *batch); err != nil {
			return nil, err
		}
	}

	line = pricing.ApplyLine(line)
	doc.Lines[idx] = line
	result.Line = line
	return result, nil
}

// SelectBatch replaces the line's batch with a manual choice. Rate and MRP follow
// the batch.
func (s *documentServiceImpl) SelectBatch(ctx context.Context, doc *entity.Document, lineID, batchID string) (*LineResult, error) {
	idx, err := findLine(doc, lineID)
	if err != nil {
		return nil, err
	}

	batch, err := s.batchRepo.GetByID(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get batch: %w", err)
	}

	line := doc.Lines[idx]
	if batch.ProductID != line.ProductID {
		return nil, &pricing.StockError{
			Err:       pricing.ErrBatchMismatch,
			ProductID: line.ProductID,
			BatchID:   batch.ID,
		}
	}
	applyBatch(&line, *batch)

	result := &LineResult{Index: idx}
	if doc.Kind != entity.DocumentKindPurchase {
		if result.StockIssue, err = s.fitStock(&line, *batch); err != nil {
			return nil, err
		}
	}

	line = pricing.ApplyLine(line)
	doc.Lines[idx] = line
	result.Line = line
	return result, nil
}

// UpdateLine overwrites rate, discount or tax rate and recomputes the line
func (s *documentServiceImpl) UpdateLine(doc *entity.Document, lineID string, update LineUpdate) (*LineResult, error) {
	idx, err := findLine(doc, lineID)
	if err != nil {
		return nil, err
	}

	line := doc.Lines[idx]
	if update.Rate != nil {
		line.Rate = *update.Rate
	}
	if update.DiscountPercent != nil {
		line.DiscountPercent = *update.DiscountPercent
	}
	if update.TaxRate != nil {
		line.TaxRate = *update.TaxRate
	}
	if err := pricing.ValidateLine(idx, line, s.policy.StrictTaxRates); err != nil {
		return nil, err
	}

	line = pricing.ApplyLine(line)
	doc.Lines[idx] = line
	return &LineResult{Line: line, Index: idx}, nil
}

// RemoveLine drops a line, keeping the order of the rest
func (s *documentServiceImpl) RemoveLine(doc *entity.Document, lineID string) error {
	idx, err := findLine(doc, lineID)
	if err != nil {
		return err
	}
	doc.Lines = append(doc.Lines[:idx:idx], doc.Lines[idx+1:]...)
	return nil
}

// Summarize computes the document totals
func (s *documentServiceImpl) Summarize(doc entity.Document) (entity.Summary, error) {
	return s.policy.totals().SummarizeDocument(doc)
}

// Preview recomputes every line and the totals and lists what would stop the
// document from being submitted.
func (s *documentServiceImpl) Preview(ctx context.Context, doc entity.Document) (*DocumentPreview, error) {
	summary, err := s.Summarize(doc)
	if err != nil {
		return nil, err
	}

	lines := make([]entity.LineItem, len(doc.Lines))
	for i, line := range doc.Lines {
		lines[i] = pricing.ApplyLine(line)
	}
	doc.Lines = lines

	preview := &DocumentPreview{Document: doc, Summary: summary}
	if err := pricing.ValidateDocument(doc, s.policy.StrictTaxRates); err != nil {
		preview.Issues = append(preview.Issues, err.Error())
	}
	for i, line := range doc.Lines {
		if !line.HasBatch() {
			preview.Issues = append(preview.Issues, fmt.Sprintf("lines[%d]: %s", i, pricing.ErrBatchNotSelected))
		}
	}

	if doc.CustomerID != "" {
		customer, err := s.customerRepo.GetByID(ctx, doc.CustomerID)
		switch {
		case errors.Is(err, port.ErrNotFound):
			preview.Issues = append(preview.Issues, fmt.Sprintf("customer %s not found", doc.CustomerID))
		case err != nil:
			return nil, fmt.Errorf("failed to get customer: %w", err)
		default:
			preview.Customer = customer
		}
	}

	return preview, nil
}

// AllocateBatch shows which batch FIFO would pick for quantity and how the
// quantity would spread over the remaining batches.
func (s *documentServiceImpl) AllocateBatch(ctx context.Context, productID string, quantity decimal.Decimal) (*BatchSelection, error) {
	batches, err := s.batchRepo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}

	allocator := s.policy.allocator()
	alloc, allocErr := allocator.SelectBatch(productID, batches, quantity)
	split, shortfall := allocator.PlanSplit(productID, batches, quantity)

	return &BatchSelection{
		Allocation: alloc,
		Candidates: allocator.RankBatches(productID, batches),
		Split:      split,
		Shortfall:  shortfall,
		StockIssue: allocErr,
	}, nil
}

// ProductBatches lists the product's batches in allocation order
func (s *documentServiceImpl) ProductBatches(ctx context.Context, productID string) ([]entity.Batch, error) {
	if _, err := s.productRepo.GetByID(ctx, productID); err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	batches, err := s.batchRepo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}
	return s.policy.allocator().RankBatches(productID, batches), nil
}

// fitStock checks the line against the batch. Under the clamp policy the line is
// cut down to the stock and the StockError comes back as an issue; otherwise it is
// returned as the error.
func (s *documentServiceImpl) fitStock(line *entity.LineItem, batch entity.Batch) (issue error, err error) {
	stockErr := s.policy.allocator().ValidateQuantity(batch, line.StockQuantity())
	if stockErr == nil {
		return nil, nil
	}
	if !s.policy.clamps() {
		return nil, stockErr
	}
	clampLine(line, decimal.NewFromInt(batch.QuantityAvailable))
	return stockErr, nil
}

func (s *documentServiceImpl) reportShortfall(ctx context.Context, productID string, alloc pricing.Allocation) {
	if s.dispatcher == nil {
		return
	}
	evt := event.NewEvent(event.TypeStockShortfall, productID, map[string]interface{}{
		event.PayloadProductID: productID,
		event.PayloadRequested: alloc.Requested.String(),
		event.PayloadAvailable: alloc.ClampedQty.String(),
	})
	s.dispatcher.DispatchAsync(ctx, evt)
}

func findLine(doc *entity.Document, lineID string) (int, error) {
	idx := doc.Line(lineID)
	if idx < 0 {
		return -1, fmt.Errorf("%w: %s", ErrLineNotFound, lineID)
	}
	return idx, nil
}

// applyBatch points the line at batch. Batch prices win over catalog prices when set.
func applyBatch(line *entity.LineItem, batch entity.Batch) {
	id := batch.ID
	line.BatchID = &id
	line.BatchNumber = batch.BatchNumber
	line.ExpiryDate = batch.ExpiryDate
	if batch.SalePrice.IsPositive() {
		line.Rate = batch.SalePrice
	}
	if batch.MRP.IsPositive() {
		line.MRP = batch.MRP
	}
}

// clampLine fits paid plus free quantity into available, cutting free goods first.
func clampLine(line *entity.LineItem, available decimal.Decimal) {
	line.Quantity = decimal.Min(line.Quantity, available)
	line.FreeQuantity = decimal.Min(line.FreeQuantity, available.Sub(line.Quantity))
}
