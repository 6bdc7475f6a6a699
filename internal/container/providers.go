package container

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garyjia/pharma-billing/internal/application/dispatcher"
	"github.com/garyjia/pharma-billing/internal/application/port"
	"github.com/garyjia/pharma-billing/internal/application/service"
	"github.com/garyjia/pharma-billing/internal/domain/event"
	"github.com/garyjia/pharma-billing/internal/infrastructure/catalog"
	"github.com/garyjia/pharma-billing/internal/infrastructure/export"
	"github.com/garyjia/pharma-billing/internal/infrastructure/persistence/repository"
	"github.com/garyjia/pharma-billing/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/pharma-billing/internal/infrastructure/storage"
	"github.com/garyjia/pharma-billing/internal/infrastructure/worker"
	"github.com/garyjia/pharma-billing/migrations"
	"github.com/garyjia/pharma-billing/pkg/database"
	"go.uber.org/zap"
)

// Handler names registered on the dispatcher besides the movement recorder
const (
	ShortfallAlertName = "stock-shortfall-alert"
	CatalogAuditName   = "catalog-import-audit"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	SqlDB          *sql.DB
	TransactionMgr *sqlite.DB
}

// StorageBundle holds storage and document rendering components.
type StorageBundle struct {
	FileStorage   port.FileStorage
	Exporter      port.DocumentExporter
	CatalogReader port.CatalogReader
}

// ProvideDatabase opens the database and applies pending migrations, from
// MigrationsDir when configured and from the embedded schema otherwise.
func ProvideDatabase(cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	migrator := database.NewMigrator(db, logger)
	if cfg.MigrationsDir != "" {
		err = migrator.RunMigrations(cfg.MigrationsDir)
	} else {
		err = migrator.RunMigrationsFS(migrations.FS)
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DatabaseBundle{
		SqlDB:          db.DB,
		TransactionMgr: sqlite.NewDB(db.DB, logger),
	}, nil
}

// ProvideRepositories creates all repositories on the transaction-aware handle.
func ProvideRepositories(db *sqlite.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Product:  repository.NewProductRepository(db, logger),
		Batch:    repository.NewBatchRepository(db, logger),
		Customer: repository.NewCustomerRepository(db, logger),
		Order:    repository.NewOrderRepository(db, logger),
		Movement: repository.NewMovementRepository(db, logger),
	}, nil
}

// ProvideStorage creates the export storage, the xlsx renderer and the catalog reader.
func ProvideStorage(cfg *StorageConfig, logger *zap.Logger) (*StorageBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("storage config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &StorageBundle{
		FileStorage:   storage.NewLocalFileStorage(cfg.ExportDir, logger),
		Exporter:      export.NewExcelExporter(cfg.FontFamily, logger),
		CatalogReader: catalog.NewXLSXReader(logger),
	}, nil
}

// ProvideDispatcher creates the event dispatcher.
func ProvideDispatcher(logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return dispatcher.NewDispatcher(
		dispatcher.WithLogger(&zapLoggerAdapter{logger: logger}),
	), nil
}

// ServiceDeps holds dependencies required for creating services.
type ServiceDeps struct {
	Repos      *RepositoryBundle
	TxManager  port.TransactionManager
	Storage    *StorageBundle
	Dispatcher dispatcher.Dispatcher
	Policy     service.BillingPolicy
	Seller     service.Seller
	Logger     *zap.Logger
}

// ProvideServices creates all application services.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.TxManager == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}
	if deps.Storage == nil {
		return nil, fmt.Errorf("storage bundle is required")
	}
	if deps.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	serviceLogger := &zapLoggerAdapter{logger: deps.Logger}
	repos := deps.Repos

	return &ServiceBundle{
		Document: service.NewDocumentService(
			repos.Product,
			repos.Batch,
			repos.Customer,
			deps.Dispatcher,
			deps.Policy,
			serviceLogger,
		),
		Order: service.NewOrderService(
			repos.Order,
			repos.Batch,
			repos.Customer,
			deps.TxManager,
			deps.Dispatcher,
			deps.Policy,
			serviceLogger,
		),
		Export: service.NewExportService(
			repos.Order,
			repos.Customer,
			deps.Storage.Exporter,
			deps.Storage.FileStorage,
			deps.Dispatcher,
			deps.Seller,
			serviceLogger,
		),
		Catalog: service.NewCatalogService(
			deps.Storage.CatalogReader,
			repos.Product,
			repos.Batch,
			repos.Customer,
			deps.TxManager,
			deps.Dispatcher,
			serviceLogger,
		),
	}, nil
}

// RegisterHandlers subscribes the event handlers: stock movements for committed
// orders, a warning for every shortfall and an audit line for catalog imports.
func RegisterHandlers(d dispatcher.Dispatcher, repos *RepositoryBundle, txManager port.TransactionManager, logger *zap.Logger) error {
	if d == nil {
		return fmt.Errorf("dispatcher is required")
	}
	if repos == nil {
		return fmt.Errorf("repositories are required")
	}
	if logger == nil {
		return fmt.Errorf("logger is required")
	}

	recorder := service.NewMovementRecorder(repos.Order, repos.Movement, txManager, &zapLoggerAdapter{logger: logger})
	recorder.Register(d)

	d.SubscribeNamed(event.TypeStockShortfall, ShortfallAlertName,
		"Logs requests that available stock could not cover", createShortfallHandler(logger))
	d.SubscribeNamed(event.TypeCatalogImported, CatalogAuditName,
		"Logs catalog imports", createCatalogAuditHandler(logger))

	return nil
}

// WorkerDeps holds dependencies required for creating workers.
type WorkerDeps struct {
	Importer  worker.CatalogImporter
	WorkerCfg *WorkerConfig
	Logger    *zap.Logger
}

// ProvideWorkers creates and registers all background workers.
// Returns *worker.WorkerManager with all workers registered but not started.
func ProvideWorkers(deps *WorkerDeps) (*worker.WorkerManager, error) {
	if deps == nil {
		return nil, fmt.Errorf("worker dependencies are required")
	}
	if deps.WorkerCfg == nil {
		return nil, fmt.Errorf("worker config is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	manager := worker.NewWorkerManager(deps.Logger)

	if deps.WorkerCfg.CatalogSyncEnabled {
		if deps.Importer == nil {
			return nil, fmt.Errorf("catalog importer is required for catalog sync")
		}
		syncWorker := worker.NewCatalogSyncWorker(worker.CatalogSyncConfig{
			Path:          deps.WorkerCfg.CatalogPath,
			PollInterval:  deps.WorkerCfg.CatalogPollInterval,
			ImportTimeout: deps.WorkerCfg.CatalogImportTimeout,
		}, deps.Importer, deps.Logger)
		manager.Register(syncWorker)
	}

	return manager, nil
}

// createShortfallHandler logs stock.shortfall events so purchasing can see which
// products ran short
func createShortfallHandler(logger *zap.Logger) dispatcher.Handler {
	return func(ctx context.Context, evt *event.Event) error {
		if evt == nil {
			return fmt.Errorf("event cannot be nil")
		}

		logger.Warn("Stock shortfall",
			zap.String("product_id", evt.GetPayloadString(event.PayloadProductID)),
			zap.String("requested", evt.GetPayloadString(event.PayloadRequested)),
			zap.String("available", evt.GetPayloadString(event.PayloadAvailable)),
			zap.String("event_id", evt.ID))
		return nil
	}
}

func createCatalogAuditHandler(logger *zap.Logger) dispatcher.Handler {
	return func(ctx context.Context, evt *event.Event) error {
		if evt == nil {
			return fmt.Errorf("event cannot be nil")
		}

		logger.Info("Catalog imported",
			zap.String("file_path", evt.GetPayloadString(event.PayloadFilePath)),
			zap.Int64("products", evt.GetPayloadInt(event.PayloadProducts)),
			zap.Int64("batches", evt.GetPayloadInt(event.PayloadBatches)),
			zap.String("event_id", evt.ID))
		return nil
	}
}
