package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/garyjia/pharma-billing/internal/application/dispatcher"
	"github.com/garyjia/pharma-billing/internal/application/port"
	"github.com/garyjia/pharma-billing/internal/domain/entity"
	"github.com/garyjia/pharma-billing/internal/domain/event"
	"github.com/garyjia/pharma-billing/internal/domain/pricing"
	"github.com/garyjia/pharma-billing/internal/domain/workflow"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderService commits documents as orders and reads them back
type OrderService interface {
	// Submit validates doc, recomputes its totals and commits it together with the
	// stock change of every line. Nothing is written when any batch lacks stock.
	Submit(ctx context.Context, doc entity.Document) (*entity.Order, error)

	// Cancel voids an order and undoes its stock change in one transaction. A
	// cancelled purchase fails with a stock error once its stock was sold.
	Cancel(ctx context.Context, id, reason string) (*entity.Order, error)

	Get(ctx context.Context, id string) (*entity.Order, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Order, error)
}

type orderServiceImpl struct {
	orderRepo    port.OrderRepository
	batchRepo    port.BatchRepository
	customerRepo port.CustomerRepository
	txManager    port.TransactionManager
	dispatcher   dispatcher.Dispatcher
	policy       BillingPolicy
	logger       Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(
	orderRepo port.OrderRepository,
	batchRepo port.BatchRepository,
	customerRepo port.CustomerRepository,
	txManager port.TransactionManager,
	d dispatcher.Dispatcher,
	policy BillingPolicy,
	logger Logger,
) OrderService {
	return &orderServiceImpl{
		orderRepo:    orderRepo,
		batchRepo:    batchRepo,
		customerRepo: customerRepo,
		txManager:    txManager,
		dispatcher:   d,
		policy:       policy,
		logger:       logger,
	}
}

// Submit commits doc as an order
func (s *orderServiceImpl) Submit(ctx context.Context, doc entity.Document) (*entity.Order, error) {
	if doc.Kind == "" {
		doc.Kind = entity.DocumentKindInvoice
	}
	if err := s.validate(ctx, doc); err != nil {
		return nil, err
	}

	summary, err := s.policy.totals().SummarizeDocument(doc)
	if err != nil {
		return nil, err
	}
	order := buildOrder(doc, summary)

	err = s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		direction := entity.StockDirection(order.DocumentKind)
		for _, line := range order.Lines {
			if err := s.moveStock(ctx, direction, line); err != nil {
				return err
			}
		}
		return s.orderRepo.Create(ctx, order)
	})
	if err != nil {
		s.logger.Error("Failed to commit order", "customer_id", doc.CustomerID, "error", err)
		return nil, err
	}

	s.logger.Info("Order committed",
		"order_id", order.ID,
		"kind", order.DocumentKind,
		"lines", len(order.Lines),
		"net_amount", order.NetAmount.String())

	if s.dispatcher != nil {
		s.dispatcher.DispatchAsync(ctx, event.NewEvent(event.TypeOrderCommitted, order.ID, map[string]interface{}{
			event.PayloadDocumentKind: order.DocumentKind,
			event.PayloadCustomerID:   order.CustomerID,
			event.PayloadNetAmount:    order.NetAmount.String(),
			event.PayloadLineCount:    len(order.Lines),
		}))
	}

	return order, nil
}

// validate runs the document checks plus the ones only a commit needs: a known
// customer, a batch on every line and whole stock quantities.
func (s *orderServiceImpl) validate(ctx context.Context, doc entity.Document) error {
	if err := pricing.ValidateDocument(doc, s.policy.StrictTaxRates); err != nil {
		return err
	}

	if _, err := s.customerRepo.GetByID(ctx, doc.CustomerID); err != nil {
		if errors.Is(err, port.ErrNotFound) {
			return &pricing.ValidationError{Err: pricing.ErrNoCustomer, Field: "customer_id", Details: doc.CustomerID}
		}
		return fmt.Errorf("failed to get customer: %w", err)
	}

	for i, line := range doc.Lines {
		if !line.HasBatch() {
			return &pricing.ValidationError{Err: pricing.ErrBatchNotSelected, Field: fmt.Sprintf("lines[%d].batch_id", i)}
		}
		if !line.Quantity.IsInteger() || !line.FreeQuantity.IsInteger() {
			return &pricing.ValidationError{
				Err:     pricing.ErrFractionalQuantity,
				Field:   fmt.Sprintf("lines[%d].quantity", i),
				Details: line.StockQuantity().String(),
			}
		}
	}
	return nil
}

// Cancel voids an order and reverses the stock change of every line
func (s *orderServiceImpl) Cancel(ctx context.Context, id, reason string) (*entity.Order, error) {
	var order *entity.Order
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.orderRepo.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get order: %w", err)
		}

		next, err := workflow.Next(ctx, order.Status, workflow.TriggerCancel)
		if err != nil {
			return fmt.Errorf("cannot cancel order %s in status %s: %w", id, order.Status, err)
		}

		direction := -entity.StockDirection(order.DocumentKind)
		for _, line := range order.Lines {
			if err := s.moveStock(ctx, direction, line); err != nil {
				return err
			}
		}

		ok, err := s.orderRepo.UpdateStatus(ctx, id, order.Status, next.String(), reason)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("order %s changed while cancelling: %w", id, workflow.ErrInvalidTransition)
		}
		order.Status = next.String()
		order.CancelReason = reason
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to cancel order", "order_id", id, "error", err)
		return nil, err
	}

	s.logger.Info("Order cancelled", "order_id", order.ID, "kind", order.DocumentKind, "reason", reason)

	if s.dispatcher != nil {
		s.dispatcher.DispatchAsync(ctx, event.NewEvent(event.TypeOrderCancelled, order.ID, map[string]interface{}{
			event.PayloadDocumentKind: order.DocumentKind,
			event.PayloadCustomerID:   order.CustomerID,
			event.PayloadReason:       reason,
		}))
	}

	return order, nil
}

// moveStock applies one line's stock change inside the surrounding transaction.
// A positive direction adds stock to the batch, a negative one takes it out.
func (s *orderServiceImpl) moveStock(ctx context.Context, direction int64, line entity.OrderLine) error {
	batch, err := s.batchRepo.GetByID(ctx, line.BatchID)
	if errors.Is(err, port.ErrNotFound) {
		return &pricing.StockError{Err: pricing.ErrNoStock, ProductID: line.ProductID, BatchID: line.BatchID}
	}
	if err != nil {
		return fmt.Errorf("failed to get batch: %w", err)
	}
	if batch.ProductID != line.ProductID {
		return &pricing.StockError{Err: pricing.ErrBatchMismatch, ProductID: line.ProductID, BatchID: line.BatchID}
	}

	quantity := line.Quantity.Add(line.FreeQuantity)
	if quantity.IsZero() {
		return nil
	}

	var ok bool
	if direction > 0 {
		ok, err = s.batchRepo.Increment(ctx, batch.ID, quantity.IntPart())
	} else {
		ok, err = s.batchRepo.Decrement(ctx, batch.ID, quantity.IntPart())
	}
	if err != nil {
		return err
	}
	if !ok {
		return &pricing.StockError{
			Err:       pricing.ErrStockConflict,
			ProductID: line.ProductID,
			BatchID:   batch.ID,
			Requested: quantity,
			Available: decimal.NewFromInt(batch.QuantityAvailable),
		}
	}
	return nil
}

// Get returns an order with its lines
func (s *orderServiceImpl) Get(ctx context.Context, id string) (*entity.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

// List returns orders newest first
func (s *orderServiceImpl) List(ctx context.Context, limit, offset int) ([]*entity.Order, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	orders, err := s.orderRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// buildOrder turns a validated document and its summary into the order payload
func buildOrder(doc entity.Document, summary entity.Summary) *entity.Order {
	order := &entity.Order{
		ID:             uuid.NewString(),
		DocumentKind:   doc.Kind,
		CustomerID:     doc.CustomerID,
		Status:         entity.OrderStatusCommitted,
		TotalAmount:    summary.TotalAmount,
		DiscountAmount: summary.DiscountAmount,
		TaxableAmount:  summary.TaxableAmount,
		TaxAmount:      summary.TotalTax,
		ChargesAmount:  summary.AdditionalCharges,
		RoundOff:       summary.RoundOff,
		NetAmount:      summary.NetAmount,
		Notes:          doc.Notes,
		CreatedAt:      time.Now(),
		Lines:          make([]entity.OrderLine, 0, len(doc.Lines)),
	}

	for i, line := range doc.Lines {
		line = pricing.ApplyLine(line)
		order.Lines = append(order.Lines, entity.OrderLine{
			ID:           uuid.NewString(),
			OrderID:      order.ID,
			LineNo:       i + 1,
			ProductID:    line.ProductID,
			BatchID:      *line.BatchID,
			Quantity:     line.Quantity,
			FreeQuantity: line.FreeQuantity,
			UnitPrice:    line.Rate,
			TotalPrice:   line.Amount,
			Discount:     line.DiscountPercent,
			TaxRate:      line.TaxRate,
			TaxAmount:    line.TaxAmount,
		})
	}
	return order
}
