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

// BatchRepository implements port.BatchRepository
type BatchRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewBatchRepository creates a new batch repository
func NewBatchRepository(db *sqlite.DB, logger *zap.Logger) port.BatchRepository {
	return &BatchRepository{
		db:     db,
		logger: logger,
	}
}

const batchColumns = `id, product_id, batch_number, expiry_date, quantity_available, mrp, sale_price, updated_at`

// GetByID retrieves a batch by ID
func (r *BatchRepository) GetByID(ctx context.Context, id string) (*entity.Batch, error) {
	var batch entity.Batch
	err := r.db.Executor(ctx).GetContext(ctx, &batch,
		`SELECT `+batchColumns+` FROM batches WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("batch %s: %w", id, port.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("Failed to get batch", zap.String("batch_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get batch: %w", err)
	}
	return &batch, nil
}

// ListByProduct returns the product's batches in insertion order. Ordering by
// expiry is left to the allocator so equal expiries keep this order.
func (r *BatchRepository) ListByProduct(ctx context.Context, productID string) ([]entity.Batch, error) {
	var batches []entity.Batch
	err := r.db.Executor(ctx).SelectContext(ctx, &batches,
		`SELECT `+batchColumns+` FROM batches WHERE product_id = ? ORDER BY rowid`, productID)
	if err != nil {
		r.logger.Error("Failed to list batches", zap.String("product_id", productID), zap.Error(err))
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}
	return batches, nil
}

// Upsert inserts the batch or replaces its stock snapshot
func (r *BatchRepository) Upsert(ctx context.Context, batch *entity.Batch) error {
	if batch.UpdatedAt.IsZero() {
		batch.UpdatedAt = time.Now()
	}

	query := `
		INSERT INTO batches (` + batchColumns + `)
		VALUES (:id, :product_id, :batch_number, :expiry_date, :quantity_available, :mrp, :sale_price, :updated_at)
		ON CONFLICT (id) DO UPDATE SET
			product_id = excluded.product_id,
			batch_number = excluded.batch_number,
			expiry_date = excluded.expiry_date,
			quantity_available = excluded.quantity_available,
			mrp = excluded.mrp,
			sale_price = excluded.sale_price,
			updated_at = excluded.updated_at
	`
	if _, err := r.db.Executor(ctx).NamedExecContext(ctx, query, batch); err != nil {
		r.logger.Error("Failed to upsert batch", zap.String("batch_id", batch.ID), zap.Error(err))
		return fmt.Errorf("failed to upsert batch: %w", err)
	}
	return nil
}

// Decrement subtracts quantity only while enough stock is left
func (r *BatchRepository) Decrement(ctx context.Context, batchID string, quantity int64) (bool, error) {
	query := `
		UPDATE batches
		SET quantity_available = quantity_available - ?, updated_at = ?
		WHERE id = ? AND quantity_available >= ?
	`
	result, err := r.db.Executor(ctx).ExecContext(ctx, query, quantity, time.Now(), batchID, quantity)
	if err != nil {
		r.logger.Error("Failed to decrement batch stock",
			zap.String("batch_id", batchID),
			zap.Int64("quantity", quantity),
			zap.Error(err))
		return false, fmt.Errorf("failed to decrement batch stock: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows == 1, nil
}

// Increment adds received quantity to a batch
func (r *BatchRepository) Increment(ctx context.Context, batchID string, quantity int64) (bool, error) {
	result, err := r.db.Executor(ctx).ExecContext(ctx,
		`UPDATE batches SET quantity_available = quantity_available + ?, updated_at = ? WHERE id = ?`,
		quantity, time.Now(), batchID)
	if err != nil {
		r.logger.Error("Failed to increment batch stock",
			zap.String("batch_id", batchID),
			zap.Int64("quantity", quantity),
			zap.Error(err))
		return false, fmt.Errorf("failed to increment batch stock: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows == 1, nil
}

var _ port.BatchRepository = (*BatchRepository)(nil)
