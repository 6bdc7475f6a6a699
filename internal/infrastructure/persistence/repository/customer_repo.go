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

// CustomerRepository implements port.CustomerRepository
type CustomerRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewCustomerRepository creates a new customer repository
func NewCustomerRepository(db *sqlite.DB, logger *zap.Logger) port.CustomerRepository {
	return &CustomerRepository{
		db:     db,
		logger: logger,
	}
}

// GetByID retrieves a customer by ID
func (r *CustomerRepository) GetByID(ctx context.Context, id string) (*entity.Customer, error) {
	var customer entity.Customer
	err := r.db.Executor(ctx).GetContext(ctx, &customer, `
		SELECT id, name, gstin, address, phone, credit_limit, updated_at
		FROM customers
		WHERE id = ?
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("customer %s: %w", id, port.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("Failed to get customer", zap.String("customer_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return &customer, nil
}

// Upsert inserts the customer or replaces its details
func (r *CustomerRepository) Upsert(ctx context.Context, customer *entity.Customer) error {
	if customer.UpdatedAt.IsZero() {
		customer.UpdatedAt = time.Now()
	}

	query := `
		INSERT INTO customers (id, name, gstin, address, phone, credit_limit, updated_at)
		VALUES (:id, :name, :gstin, :address, :phone, :credit_limit, :updated_at)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			gstin = excluded.gstin,
			address = excluded.address,
			phone = excluded.phone,
			credit_limit = excluded.credit_limit,
			updated_at = excluded.updated_at
	`
	if _, err := r.db.Executor(ctx).NamedExecContext(ctx, query, customer); err != nil {
		r.logger.Error("Failed to upsert customer", zap.String("customer_id", customer.ID), zap.Error(err))
		return fmt.Errorf("failed to upsert customer: %w", err)
	}
	return nil
}

var _ port.CustomerRepository = (*CustomerRepository)(nil)
