package port

import (
	"context"
	"errors"

	"github.com/garyjia/pharma-billing/internal/domain/entity"
)

// ErrNotFound is returned by repositories when a record does not exist
var ErrNotFound = errors.New("record not found")

// ProductRepository defines read and upsert operations for the product catalog
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Product, error)
	Upsert(ctx context.Context, product *entity.Product) error
}

// BatchRepository defines persistence operations for stock lots
type BatchRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Batch, error)

	// ListByProduct returns every batch of the product, empty ones included,
	// so the allocator sees the same snapshot a catalog fetch would return.
	ListByProduct(ctx context.Context, productID string) ([]entity.Batch, error)

	Upsert(ctx context.Context, batch *entity.Batch) error

	// Decrement reduces available stock only if at least quantity is left.
	// It reports false when the conditional update matched no row.
	Decrement(ctx context.Context, batchID string, quantity int64) (bool, error)

	// Increment adds received stock. It reports false when the batch does not exist.
	Increment(ctx context.Context, batchID string, quantity int64) (bool, error)
}

// CustomerRepository defines persistence operations for customers
type CustomerRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Customer, error)
	Upsert(ctx context.Context, customer *entity.Customer) error
}

// OrderRepository defines persistence operations for committed orders
type OrderRepository interface {
	// Create inserts the order and its lines
	Create(ctx context.Context, order *entity.Order) error

	// GetByID returns the order with its lines
	GetByID(ctx context.Context, id string) (*entity.Order, error)

	// List returns orders newest first, without lines
	List(ctx context.Context, limit, offset int) ([]*entity.Order, error)

	// UpdateStatus changes the status only while the order is still in from
	UpdateStatus(ctx context.Context, id, from, to, reason string) (bool, error)
}

// MovementRepository defines persistence operations for the stock movement log
type MovementRepository interface {
	Create(ctx context.Context, movement *entity.StockMovement) error
	ListByBatch(ctx context.Context, batchID string) ([]*entity.StockMovement, error)
	ExistsForReference(ctx context.Context, referenceType, referenceID string) (bool, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
