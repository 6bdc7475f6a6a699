package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/garyjia/pharma-billing/internal/application/port"
	"github.com/garyjia/pharma-billing/internal/domain/entity"
	"github.com/garyjia/pharma-billing/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// OrderRepository implements port.OrderRepository
type OrderRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *sqlite.DB, logger *zap.Logger) port.OrderRepository {
	return &OrderRepository{
		db:     db,
		logger: logger,
	}
}

const orderColumns = `id, document_kind, customer_id, status, total_amount, discount_amount,
	taxable_amount, tax_amount, charges_amount, round_off, net_amount, notes, cancel_reason,
	created_at, updated_at`

const orderLineColumns = `id, order_id, line_no, product_id, batch_id, quantity, free_quantity,
	unit_price, total_price, discount, tax_rate, tax_amount`

// orderLinesWithCatalogQuery loads lines with the product and batch details printed
// on documents. Catalog rows removed since the commit leave those fields empty.
const orderLinesWithCatalogQuery = `
	SELECT ol.id, ol.order_id, ol.line_no, ol.product_id, ol.batch_id, ol.quantity, ol.free_quantity,
		ol.unit_price, ol.total_price, ol.discount, ol.tax_rate, ol.tax_amount,
		COALESCE(p.name, '') AS product_name,
		COALESCE(p.hsn_code, '') AS hsn_code,
		COALESCE(b.batch_number, '') AS batch_number,
		b.expiry_date
	FROM order_lines ol
	LEFT JOIN products p ON p.id = ol.product_id
	LEFT JOIN batches b ON b.id = ol.batch_id
	WHERE ol.order_id = ?
	ORDER BY ol.line_no
`

// Create inserts the order header and its lines in one transaction
func (r *OrderRepository) Create(ctx context.Context, order *entity.Order) error {
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}

	return r.db.WithTransaction(ctx, func(ctx context.Context) error {
		exec := r.db.Executor(ctx)

		_, err := exec.NamedExecContext(ctx, `
			INSERT INTO orders (`+orderColumns+`)
			VALUES (:id, :document_kind, :customer_id, :status, :total_amount, :discount_amount,
				:taxable_amount, :tax_amount, :charges_amount, :round_off, :net_amount, :notes, :cancel_reason,
				:created_at, :updated_at)
		`, order)
		if err != nil {
			r.logger.Error("Failed to create order", zap.String("order_id", order.ID), zap.Error(err))
			return fmt.Errorf("failed to create order: %w", err)
		}

		for i := range order.Lines {
			line := &order.Lines[i]
			line.OrderID = order.ID
			_, err := exec.NamedExecContext(ctx, `
				INSERT INTO order_lines (`+orderLineColumns+`)
				VALUES (:id, :order_id, :line_no, :product_id, :batch_id, :quantity, :free_quantity,
					:unit_price, :total_price, :discount, :tax_rate, :tax_amount)
			`, line)
			if err != nil {
				r.logger.Error("Failed to create order line",
					zap.String("order_id", order.ID),
					zap.Int("line_no", line.LineNo),
					zap.Error(err))
				return fmt.Errorf("failed to create order line %d: %w", line.LineNo, err)
			}
		}
		return nil
	})
}

// GetByID retrieves an order with its lines
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	exec := r.db.Executor(ctx)

	var order entity.Order
	err := exec.GetContext(ctx, &order, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order %s: %w", id, port.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("Failed to get order", zap.String("order_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if err := exec.SelectContext(ctx, &order.Lines, orderLinesWithCatalogQuery, id); err != nil {
		r.logger.Error("Failed to get order lines", zap.String("order_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get order lines: %w", err)
	}
	return &order, nil
}

// List returns order headers newest first
func (r *OrderRepository) List(ctx context.Context, limit, offset int) ([]*entity.Order, error) {
	var orders []*entity.Order
	err := r.db.Executor(ctx).SelectContext(ctx, &orders,
		`SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?`,
		limit, offset)
	if err != nil {
		r.logger.Error("Failed to list orders", zap.Error(err))
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// UpdateStatus moves the order from one status to another. A non-empty reason
// replaces the stored cancel reason. It reports false when the order is no
// longer in the from status.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id, from, to, reason string) (bool, error) {
	result, err := r.db.Executor(ctx).ExecContext(ctx, `
		UPDATE orders
		SET status = ?, cancel_reason = COALESCE(NULLIF(?, ''), cancel_reason), updated_at = ?
		WHERE id = ? AND status = ?
	`, to, reason, time.Now(), id, from)
	if err != nil {
		r.logger.Error("Failed to update order status",
			zap.String("order_id", id),
			zap.String("from", from),
			zap.String("to", to),
			zap.Error(err))
		return false, fmt.Errorf("failed to update order status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows == 1, nil
}

var _ port.OrderRepository = (*OrderRepository)(nil)
