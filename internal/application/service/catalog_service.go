package service

import (
	"context"
	"fmt"

	"github.com/garyjia/pharma-billing/internal/application/dispatcher"
	"github.com/garyjia/pharma-billing/internal/application/port"
	"github.com/garyjia/pharma-billing/internal/domain/event"
)

// ImportResult counts the records written by a catalog import
type ImportResult struct {
	Products  int
	Batches   int
	Customers int
}

// CatalogService loads master data into the catalog tables
type CatalogService interface {
	ImportWorkbook(ctx context.Context, path string) (*ImportResult, error)
}

type catalogServiceImpl struct {
	reader       port.CatalogReader
	productRepo  port.ProductRepository
	batchRepo    port.BatchRepository
	customerRepo port.CustomerRepository
	txManager    port.TransactionManager
	dispatcher   dispatcher.Dispatcher
	logger       Logger
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(
	reader port.CatalogReader,
	productRepo port.ProductRepository,
	batchRepo port.BatchRepository,
	customerRepo port.CustomerRepository,
	txManager port.TransactionManager,
	d dispatcher.Dispatcher,
	logger Logger,
) CatalogService {
	return &catalogServiceImpl{
		reader:       reader,
		productRepo:  productRepo,
		batchRepo:    batchRepo,
		customerRepo: customerRepo,
		txManager:    txManager,
		dispatcher:   d,
		logger:       logger,
	}
}

// ImportWorkbook upserts every product, batch and customer of the workbook in one
// transaction. Products go first so batches always find their product.
func (s *catalogServiceImpl) ImportWorkbook(ctx context.Context, path string) (*ImportResult, error) {
	snapshot, err := s.reader.Read(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	result := &ImportResult{}
	err = s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		for _, p := range snapshot.Products {
			if err := s.productRepo.Upsert(ctx, p); err != nil {
				return err
			}
			result.Products++
		}
		for _, b := range snapshot.Batches {
			if err := s.batchRepo.Upsert(ctx, b); err != nil {
				return err
			}
			result.Batches++
		}
		for _, c := range snapshot.Customers {
			if err := s.customerRepo.Upsert(ctx, c); err != nil {
				return err
			}
			result.Customers++
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Catalog import failed", "path", path, "error", err)
		return nil, fmt.Errorf("failed to import catalog: %w", err)
	}

	s.logger.Info("Catalog imported",
		"path", path,
		"products", result.Products,
		"batches", result.Batches,
		"customers", result.Customers)

	if s.dispatcher != nil {
		s.dispatcher.DispatchAsync(ctx, event.NewEvent(event.TypeCatalogImported, path, map[string]interface{}{
			event.PayloadFilePath: path,
			event.PayloadProducts: result.Products,
			event.PayloadBatches:  result.Batches,
		}))
	}

	return result, nil
}
