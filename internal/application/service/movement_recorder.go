package service

import (
	"context"
	"fmt"
	"time"

	"github.com/garyjia/pharma-billing/internal/application/dispatcher"
	"github.com/garyjia/pharma-billing/internal/application/port"
	"github.com/garyjia/pharma-billing/internal/domain/entity"
	"github.com/garyjia/pharma-billing/internal/domain/event"
	"github.com/google/uuid"
)

// Handler names registered by the recorder
const (
	MovementRecorderName = "stock-movement-recorder"
	MovementReversalName = "stock-movement-reversal"
)

// MovementRecorder writes the stock movement log for committed and cancelled orders
type MovementRecorder struct {
	orderRepo    port.OrderRepository
	movementRepo port.MovementRepository
	txManager    port.TransactionManager
	logger       Logger
}

// NewMovementRecorder creates a new MovementRecorder
func NewMovementRecorder(
	orderRepo port.OrderRepository,
	movementRepo port.MovementRepository,
	txManager port.TransactionManager,
	logger Logger,
) *MovementRecorder {
	return &MovementRecorder{
		orderRepo:    orderRepo,
		movementRepo: movementRepo,
		txManager:    txManager,
		logger:       logger,
	}
}

// Register subscribes the recorder to order.committed and order.cancelled
func (r *MovementRecorder) Register(d dispatcher.Dispatcher) {
	d.SubscribeNamed(event.TypeOrderCommitted, MovementRecorderName,
		"Writes one stock movement per committed order line", r.Handle)
	d.SubscribeNamed(event.TypeOrderCancelled, MovementReversalName,
		"Writes the reversing movement of every cancelled order line", r.Handle)
}

// Handle records the movements of the order named by the event: its stock change
// on order.committed, the opposite change on order.cancelled. An order that
// already has movements of that kind is skipped, so redelivery is harmless.
func (r *MovementRecorder) Handle(ctx context.Context, evt *event.Event) error {
	if evt.AggregateID == "" {
		return fmt.Errorf("%s event without order ID", evt.Type)
	}

	cancelled := evt.Type == event.TypeOrderCancelled
	referenceType := entity.ReferenceTypeOrder
	if cancelled {
		referenceType = entity.ReferenceTypeOrderCancellation
	}

	exists, err := r.movementRepo.ExistsForReference(ctx, referenceType, evt.AggregateID)
	if err != nil {
		return fmt.Errorf("failed to check movements: %w", err)
	}
	if exists {
		r.logger.Info("Movements already recorded", "order_id", evt.AggregateID)
		return nil
	}

	order, err := r.orderRepo.GetByID(ctx, evt.AggregateID)
	if err != nil {
		return fmt.Errorf("failed to get order: %w", err)
	}

	movementType := entity.MovementTypeFor(order.DocumentKind)
	direction := entity.StockDirection(order.DocumentKind)
	if cancelled {
		movementType = entity.MovementTypeCancellation
		direction = -direction
	}
	now := time.Now()

	err = r.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		for _, line := range order.Lines {
			quantity := line.Quantity.Add(line.FreeQuantity).IntPart()
			if quantity == 0 {
				continue
			}
			movement := &entity.StockMovement{
				ID:             uuid.NewString(),
				BatchID:        line.BatchID,
				ProductID:      line.ProductID,
				MovementType:   movementType,
				QuantityChange: direction * quantity,
				ReferenceType:  referenceType,
				ReferenceID:    order.ID,
				Notes:          fmt.Sprintf("line %d", line.LineNo),
				CreatedAt:      now,
			}
			if err := r.movementRepo.Create(ctx, movement); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to record stock movements", "order_id", order.ID, "error", err)
		return err
	}

	r.logger.Info("Stock movements recorded", "order_id", order.ID, "type", movementType)
	return nil
}
