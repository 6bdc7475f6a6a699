package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/garyjia/pharma-billing/internal/application/dispatcher"
	"github.com/garyjia/pharma-billing/internal/application/port"
	"github.com/garyjia/pharma-billing/internal/domain/entity"
	"github.com/garyjia/pharma-billing/internal/domain/event"
	"github.com/garyjia/pharma-billing/internal/domain/pricing"
	"github.com/garyjia/pharma-billing/internal/domain/workflow"
	"github.com/shopspring/decimal"
)

// Seller is the company printed at the top of exported documents
type Seller struct {
	Name    string
	GSTIN   string
	Address string
}

// ExportResult describes a written spreadsheet
type ExportResult struct {
	OrderID      string
	RelativePath string
	FullPath     string
	Size         int
}

// ExportService renders committed orders as spreadsheets
type ExportService interface {
	ExportOrder(ctx context.Context, orderID string) (*ExportResult, error)

	// Open returns a previously exported file and its download name
	Open(ctx context.Context, orderID string) ([]byte, string, error)
}

type exportServiceImpl struct {
	orderRepo    port.OrderRepository
	customerRepo port.CustomerRepository
	exporter     port.DocumentExporter
	storage      port.FileStorage
	dispatcher   dispatcher.Dispatcher
	seller       Seller
	logger       Logger
}

// NewExportService creates a new ExportService
func NewExportService(
	orderRepo port.OrderRepository,
	customerRepo port.CustomerRepository,
	exporter port.DocumentExporter,
	storage port.FileStorage,
	d dispatcher.Dispatcher,
	seller Seller,
	logger Logger,
) ExportService {
	return &exportServiceImpl{
		orderRepo:    orderRepo,
		customerRepo: customerRepo,
		exporter:     exporter,
		storage:      storage,
		dispatcher:   d,
		seller:       seller,
		logger:       logger,
	}
}

// ExportOrder writes the order as an xlsx file, replacing any earlier export, and
// marks it exported. Cancelled orders are refused.
func (s *exportServiceImpl) ExportOrder(ctx context.Context, orderID string) (*ExportResult, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	next, err := workflow.Next(ctx, order.Status, workflow.TriggerExport)
	if err != nil {
		return nil, fmt.Errorf("cannot export order %s in status %s: %w", orderID, order.Status, err)
	}

	customer, err := s.customerRepo.GetByID(ctx, order.CustomerID)
	if errors.Is(err, port.ErrNotFound) {
		customer = &entity.Customer{ID: order.CustomerID}
	} else if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	summary, err := SummaryFromOrder(order)
	if err != nil {
		return nil, err
	}

	header := port.InvoiceHeader{
		CompanyName:    s.seller.Name,
		CompanyGSTIN:   s.seller.GSTIN,
		CompanyAddress: s.seller.Address,
		Customer:       customer,
	}
	content, err := s.exporter.Export(ctx, header, order, summary)
	if err != nil {
		s.logger.Error("Failed to render order", "order_id", orderID, "error", err)
		return nil, fmt.Errorf("failed to render order: %w", err)
	}

	relPath := exportPath(order)
	if err := s.storage.Save(ctx, relPath, content); err != nil {
		return nil, fmt.Errorf("failed to save export: %w", err)
	}

	if next.String() != order.Status {
		ok, err := s.orderRepo.UpdateStatus(ctx, order.ID, order.Status, next.String(), "")
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("order %s changed while exporting: %w", order.ID, workflow.ErrInvalidTransition)
		}
	}

	result := &ExportResult{
		OrderID:      order.ID,
		RelativePath: relPath,
		FullPath:     s.storage.GetFullPath(relPath),
		Size:         len(content),
	}

	s.logger.Info("Order exported", "order_id", order.ID, "path", result.FullPath, "size", result.Size)

	if s.dispatcher != nil {
		s.dispatcher.DispatchAsync(ctx, event.NewEvent(event.TypeOrderExported, order.ID, map[string]interface{}{
			event.PayloadDocumentKind: order.DocumentKind,
			event.PayloadFilePath:     result.FullPath,
			event.PayloadStatus:       next.String(),
		}))
	}

	return result, nil
}

// Open reads the exported file of an order
func (s *exportServiceImpl) Open(ctx context.Context, orderID string) ([]byte, string, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get order: %w", err)
	}

	relPath := exportPath(order)
	if !s.storage.Exists(ctx, relPath) {
		return nil, "", fmt.Errorf("export of order %s: %w", orderID, port.ErrNotFound)
	}

	content, err := s.storage.Read(ctx, relPath)
	if err != nil {
		return nil, "", err
	}
	return content, path.Base(relPath), nil
}

func exportPath(order *entity.Order) string {
	return path.Join(strings.ToLower(order.DocumentKind), order.ID+".xlsx")
}

// SummaryFromOrder rebuilds the printable summary of a committed order. Money
// totals come from the stored order; the GST table is recomputed from its lines.
func SummaryFromOrder(order *entity.Order) (entity.Summary, error) {
	lines := make([]entity.LineItem, len(order.Lines))
	totalQty := decimal.Zero
	totalFree := decimal.Zero
	lineDiscount := decimal.Zero
	for i, ol := range order.Lines {
		batchID := ol.BatchID
		lines[i] = pricing.ApplyLine(entity.LineItem{
			ID:              ol.ID,
			ProductID:       ol.ProductID,
			BatchID:         &batchID,
			Quantity:        ol.Quantity,
			FreeQuantity:    ol.FreeQuantity,
			Rate:            ol.UnitPrice,
			DiscountPercent: ol.Discount,
			TaxRate:         ol.TaxRate,
		})
		totalQty = totalQty.Add(ol.Quantity)
		totalFree = totalFree.Add(ol.FreeQuantity)
		lineDiscount = lineDiscount.Add(lines[i].DiscountAmount)
	}

	tax, err := pricing.NewTaxAggregator(false).Aggregate(lines)
	if err != nil {
		return entity.Summary{}, err
	}

	return entity.Summary{
		LineCount:              len(order.Lines),
		TotalQuantity:          totalQty,
		TotalFreeQuantity:      totalFree,
		TotalAmount:            order.TotalAmount,
		LineDiscountAmount:     lineDiscount,
		DocumentDiscountAmount: order.DiscountAmount.Sub(lineDiscount),
		DiscountAmount:         order.DiscountAmount,
		TaxableAmount:          order.TaxableAmount,
		TotalTax:               order.TaxAmount,
		CGST:                   tax.CGST,
		SGST:                   tax.SGST,
		Breakup:                tax.Breakup,
		Buckets:                tax.Buckets,
		AdditionalCharges:      order.ChargesAmount,
		PreRoundNet:            order.NetAmount.Sub(order.RoundOff),
		RoundOff:               order.RoundOff,
		NetAmount:              order.NetAmount,
		AmountInWords:          pricing.AmountInWords(order.NetAmount),
	}, nil
}
