package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/garyjia/pharma-billing/internal/application/port"
	"github.com/garyjia/pharma-billing/internal/domain/entity"
	"github.com/garyjia/pharma-billing/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// MovementRepository implements port.MovementRepository
type MovementRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewMovementRepository creates a new stock movement repository
func NewMovementRepository(db *sqlite.DB, logger *zap.Logger) port.MovementRepository {
	return &MovementRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends a movement to the log
func (r *MovementRepository) Create(ctx context.Context, movement *entity.StockMovement) error {
	if movement.CreatedAt.IsZero() {
		movement.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO stock_movements (
			id, batch_id, product_id, movement_type, quantity_change,
			reference_type, reference_id, notes, created_at
		) VALUES (
			:id, :batch_id, :product_id, :movement_type, :quantity_change,
			:reference_type, :reference_id, :notes, :created_at
		)
	`
	if _, err := r.db.Executor(ctx).NamedExecContext(ctx, query, movement); err != nil {
		r.logger.Error("Failed to create stock movement",
			zap.String("batch_id", movement.BatchID),
			zap.String("reference_id", movement.ReferenceID),
			zap.Error(err))
		return fmt.Errorf("failed to create stock movement: %w", err)
	}
	return nil
}

// ListByBatch returns the batch's movements oldest first
func (r *MovementRepository) ListByBatch(ctx context.Context, batchID string) ([]*entity.StockMovement, error) {
	var movements []*entity.StockMovement
	err := r.db.Executor(ctx).SelectContext(ctx, &movements, `
		SELECT id, batch_id, product_id, movement_type, quantity_change,
			reference_type, reference_id, notes, created_at
		FROM stock_movements
		WHERE batch_id = ?
		ORDER BY created_at, rowid
	`, batchID)
	if err != nil {
		r.logger.Error("Failed to list stock movements", zap.String("batch_id", batchID), zap.Error(err))
		return nil, fmt.Errorf("failed to list stock movements: %w", err)
	}
	return movements, nil
}

// ExistsForReference reports whether movements were already logged for a reference
func (r *MovementRepository) ExistsForReference(ctx context.Context, referenceType, referenceID string) (bool, error) {
	var count int
	err := r.db.Executor(ctx).GetContext(ctx, &count,
		`SELECT COUNT(*) FROM stock_movements WHERE reference_type = ? AND reference_id = ?`,
		referenceType, referenceID)
	if err != nil {
		return false, fmt.Errorf("failed to count stock movements: %w", err)
	}
	return count > 0, nil
}

var _ port.MovementRepository = (*MovementRepository)(nil)
