package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/garyjia/pharma-billing/internal/application/dispatcher"
	"github.com/garyjia/pharma-billing/internal/application/port"
	"github.com/garyjia/pharma-billing/internal/domain/entity"
	"github.com/garyjia/pharma-billing/internal/domain/event"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

// Mock repositories

type mockProductRepo struct {
	products    map[string]*entity.Product
	getByIDFunc func(ctx context.Context, id string) (*entity.Product, error)
	upserted    []*entity.Product
}

func (m *mockProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	if p, ok := m.products[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, fmt.Errorf("product %s: %w", id, port.ErrNotFound)
}

func (m *mockProductRepo) List(ctx context.Context, limit, offset int) ([]*entity.Product, error) {
	var out []*entity.Product
	for _, p := range m.products {
		out = append(out, p)
	}
	return out, nil
}

func (m *mockProductRepo) Upsert(ctx context.Context, product *entity.Product) error {
	m.upserted = append(m.upserted, product)
	return nil
}

type mockBatchRepo struct {
	batches       []entity.Batch
	listFunc      func(ctx context.Context, productID string) ([]entity.Batch, error)
	decrementFunc func(ctx context.Context, batchID string, quantity int64) (bool, error)
	decrements    map[string]int64
	increments    map[string]int64
	upserted      []*entity.Batch
}

func (m *mockBatchRepo) GetByID(ctx context.Context, id string) (*entity.Batch, error) {
	for _, b := range m.batches {
		if b.ID == id {
			cp := b
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("batch %s: %w", id, port.ErrNotFound)
}

func (m *mockBatchRepo) ListByProduct(ctx context.Context, productID string) ([]entity.Batch, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, productID)
	}
	var out []entity.Batch
	for _, b := range m.batches {
		if b.ProductID == productID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *mockBatchRepo) Upsert(ctx context.Context, batch *entity.Batch) error {
	m.upserted = append(m.upserted, batch)
	return nil
}

func (m *mockBatchRepo) Decrement(ctx context.Context, batchID string, quantity int64) (bool, error) {
	if m.decrementFunc != nil {
		return m.decrementFunc(ctx, batchID, quantity)
	}
	for i := range m.batches {
		if m.batches[i].ID == batchID && m.batches[i].QuantityAvailable >= quantity {
			m.batches[i].QuantityAvailable -= quantity
			if m.decrements == nil {
				m.decrements = make(map[string]int64)
			}
			m.decrements[batchID] += quantity
			return true, nil
		}
	}
	return false, nil
}

func (m *mockBatchRepo) Increment(ctx context.Context, batchID string, quantity int64) (bool, error) {
	for i := range m.batches {
		if m.batches[i].ID == batchID {
			m.batches[i].QuantityAvailable += quantity
			if m.increments == nil {
				m.increments = make(map[string]int64)
			}
			m.increments[batchID] += quantity
			return true, nil
		}
	}
	return false, nil
}

type mockCustomerRepo struct {
	customers map[string]*entity.Customer
	upserted  []*entity.Customer
}

func (m *mockCustomerRepo) GetByID(ctx context.Context, id string) (*entity.Customer, error) {
	if c, ok := m.customers[id]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("customer %s: %w", id, port.ErrNotFound)
}

func (m *mockCustomerRepo) Upsert(ctx context.Context, customer *entity.Customer) error {
	m.upserted = append(m.upserted, customer)
	return nil
}

type mockOrderRepo struct {
	orders           map[string]*entity.Order
	createFunc       func(ctx context.Context, order *entity.Order) error
	listFunc         func(ctx context.Context, limit, offset int) ([]*entity.Order, error)
	updateStatusFunc func(ctx context.Context, id, from, to, reason string) (bool, error)
}

func (m *mockOrderRepo) Create(ctx context.Context, order *entity.Order) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, order)
	}
	if m.orders == nil {
		m.orders = make(map[string]*entity.Order)
	}
	m.orders[order.ID] = order
	return nil
}

func (m *mockOrderRepo) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	if o, ok := m.orders[id]; ok {
		return o, nil
	}
	return nil, fmt.Errorf("order %s: %w", id, port.ErrNotFound)
}

func (m *mockOrderRepo) UpdateStatus(ctx context.Context, id, from, to, reason string) (bool, error) {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, from, to, reason)
	}
	o, ok := m.orders[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	if reason != "" {
		o.CancelReason = reason
	}
	return true, nil
}

func (m *mockOrderRepo) List(ctx context.Context, limit, offset int) ([]*entity.Order, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, limit, offset)
	}
	var out []*entity.Order
	for _, o := range m.orders {
		out = append(out, o)
	}
	return out, nil
}

type mockMovementRepo struct {
	created    []*entity.StockMovement
	createFunc func(ctx context.Context, movement *entity.StockMovement) error
}

func (m *mockMovementRepo) Create(ctx context.Context, movement *entity.StockMovement) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, movement)
	}
	m.created = append(m.created, movement)
	return nil
}

func (m *mockMovementRepo) ListByBatch(ctx context.Context, batchID string) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	for _, mv := range m.created {
		if mv.BatchID == batchID {
			out = append(out, mv)
		}
	}
	return out, nil
}

func (m *mockMovementRepo) ExistsForReference(ctx context.Context, referenceType, referenceID string) (bool, error) {
	for _, mv := range m.created {
		if mv.ReferenceType == referenceType && mv.ReferenceID == referenceID {
			return true, nil
		}
	}
	return false, nil
}

type mockTxManager struct {
	withTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.withTransactionFunc != nil {
		return m.withTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

type mockLogger struct{}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}

// mockDispatcher records events instead of running handlers
type mockDispatcher struct {
	mu     sync.Mutex
	events []*event.Event
	named  map[event.Type][]string
}

func (m *mockDispatcher) Subscribe(eventType event.Type, handler dispatcher.Handler) {
	m.SubscribeNamed(eventType, "", "", handler)
}

func (m *mockDispatcher) SubscribeNamed(eventType event.Type, name, description string, handler dispatcher.Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.named == nil {
		m.named = make(map[event.Type][]string)
	}
	m.named[eventType] = append(m.named[eventType], name)
}

func (m *mockDispatcher) Unsubscribe(eventType event.Type, name string) {}

func (m *mockDispatcher) Dispatch(ctx context.Context, evt *event.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, evt)
	return nil
}

func (m *mockDispatcher) DispatchAsync(ctx context.Context, evt *event.Event) {
	_ = m.Dispatch(ctx, evt)
}

func (m *mockDispatcher) ListHandlers(eventType event.Type) []dispatcher.HandlerInfo {
	return nil
}

func (m *mockDispatcher) Close() error { return nil }

func (m *mockDispatcher) eventsOf(t event.Type) []*event.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*event.Event
	for _, e := range m.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// testCatalog: p1 has an empty January batch, a June batch with 5 at its own
// rate, a March batch with 10 and an undated batch with 3. p2 has no stock.
func testCatalog() (*mockProductRepo, *mockBatchRepo, *mockCustomerRepo) {
	products := &mockProductRepo{products: map[string]*entity.Product{
		"p1": {
			ID:         "p1",
			Name:       "Paracetamol 500mg",
			HSNCode:    "30049099",
			MRP:        dec("120"),
			SalePrice:  dec("100"),
			GSTPercent: dec("12"),
			IsActive:   true,
		},
		"p2": {
			ID:         "p2",
			Name:       "Cough Syrup 100ml",
			MRP:        dec("70"),
			SalePrice:  dec("60"),
			GSTPercent: dec("18"),
			IsActive:   true,
		},
	}}
	batches := &mockBatchRepo{batches: []entity.Batch{
		{ID: "b-jan", ProductID: "p1", BatchNumber: "PCM-01", ExpiryDate: day("2025-01-31"), QuantityAvailable: 0},
		{ID: "b-jun", ProductID: "p1", BatchNumber: "PCM-06", ExpiryDate: day("2025-06-30"), QuantityAvailable: 5, SalePrice: dec("98")},
		{ID: "b-mar", ProductID: "p1", BatchNumber: "PCM-03", ExpiryDate: day("2025-03-31"), QuantityAvailable: 10},
		{ID: "b-none", ProductID: "p1", BatchNumber: "PCM-XX", QuantityAvailable: 3},
	}}
	customers := &mockCustomerRepo{customers: map[string]*entity.Customer{
		"c1": {ID: "c1", Name: "City Medicals", GSTIN: "27AAPFU0939F1ZV"},
	}}
	return products, batches, customers
}
