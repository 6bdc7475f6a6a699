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

// ProductRepository implements port.ProductRepository
type ProductRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *sqlite.DB, logger *zap.Logger) port.ProductRepository {
	return &ProductRepository{
		db:     db,
		logger: logger,
	}
}

const productColumns = `id, name, hsn_code, pack_size, mrp, sale_price, gst_percent, is_active, updated_at`

// GetByID retrieves a product by ID
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	var product entity.Product
	err := r.db.Executor(ctx).GetContext(ctx, &product,
		`SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("product %s: %w", id, port.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("Failed to get product", zap.String("product_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &product, nil
}

// List returns active products ordered by name
func (r *ProductRepository) List(ctx context.Context, limit, offset int) ([]*entity.Product, error) {
	var products []*entity.Product
	err := r.db.Executor(ctx).SelectContext(ctx, &products,
		`SELECT `+productColumns+` FROM products WHERE is_active = 1 ORDER BY name LIMIT ? OFFSET ?`,
		limit, offset)
	if err != nil {
		r.logger.Error("Failed to list products", zap.Error(err))
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// Upsert inserts the product or replaces its catalog fields
func (r *ProductRepository) Upsert(ctx context.Context, product *entity.Product) error {
	if product.UpdatedAt.IsZero() {
		product.UpdatedAt = time.Now()
	}

	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES (:id, :name, :hsn_code, :pack_size, :mrp, :sale_price, :gst_percent, :is_active, :updated_at)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			hsn_code = excluded.hsn_code,
			pack_size = excluded.pack_size,
			mrp = excluded.mrp,
			sale_price = excluded.sale_price,
			gst_percent = excluded.gst_percent,
			is_active = excluded.is_active,
			updated_at = excluded.updated_at
	`
	if _, err := r.db.Executor(ctx).NamedExecContext(ctx, query, product); err != nil {
		r.logger.Error("Failed to upsert product", zap.String("product_id", product.ID), zap.Error(err))
		return fmt.Errorf("failed to upsert product: %w", err)
	}
	return nil
}

var _ port.ProductRepository = (*ProductRepository)(nil)
