package worker

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/garyjia/pharma-billing/internal/application/service"
	"go.uber.org/zap"
)

// CatalogImporter loads a catalog workbook into the store
type CatalogImporter interface {
	ImportWorkbook(ctx context.Context, path string) (*service.ImportResult, error)
}

// CatalogSyncConfig holds configuration for the catalog sync worker
type CatalogSyncConfig struct {
	Path          string
	PollInterval  time.Duration
	ImportTimeout time.Duration
}

// DefaultCatalogSyncConfig returns default configuration
func DefaultCatalogSyncConfig() CatalogSyncConfig {
	return CatalogSyncConfig{
		PollInterval:  time.Minute,
		ImportTimeout: 2 * time.Minute,
	}
}

// CatalogSyncStats is a snapshot of the worker's counters
type CatalogSyncStats struct {
	Imports    int
	Failures   int
	LastImport time.Time
	LastError  error
}

// CatalogSyncWorker re-imports the catalog workbook whenever its modification
// time or size changes. A failed import is retried on the next tick.
type CatalogSyncWorker struct {
	config   CatalogSyncConfig
	importer CatalogImporter
	logger   *zap.Logger

	mu        sync.RWMutex
	cancel    context.CancelFunc
	done      chan struct{}
	isRunning bool
	seenMod   time.Time
	seenSize  int64
	stats     CatalogSyncStats
}

// NewCatalogSyncWorker creates a new catalog sync worker
func NewCatalogSyncWorker(config CatalogSyncConfig, importer CatalogImporter, logger *zap.Logger) *CatalogSyncWorker {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultCatalogSyncConfig().PollInterval
	}
	if config.ImportTimeout <= 0 {
		config.ImportTimeout = DefaultCatalogSyncConfig().ImportTimeout
	}
	return &CatalogSyncWorker{
		config:   config,
		importer: importer,
		logger:   logger,
	}
}

// Start checks the workbook once and then polls it in the background
func (w *CatalogSyncWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.isRunning {
		w.mu.Unlock()
		return fmt.Errorf("catalog sync worker already running")
	}
	if w.config.Path == "" {
		w.mu.Unlock()
		return fmt.Errorf("catalog sync worker has no workbook path")
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	w.isRunning = true
	w.mu.Unlock()

	w.logger.Info("CatalogSyncWorker started",
		zap.String("path", w.config.Path),
		zap.Duration("poll_interval", w.config.PollInterval))

	go w.pollLoop(runCtx, w.done)
	return nil
}

// Stop terminates the polling loop and waits for a running import to finish
func (w *CatalogSyncWorker) Stop() error {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return nil
	}
	w.isRunning = false
	cancel, done := w.cancel, w.done
	w.mu.Unlock()

	cancel()
	<-done

	stats := w.Stats()
	w.logger.Info("CatalogSyncWorker stopped",
		zap.Int("imports", stats.Imports),
		zap.Int("failures", stats.Failures))
	return nil
}

// Name returns the worker name for identification
func (w *CatalogSyncWorker) Name() string {
	return "CatalogSyncWorker"
}

// Stats returns the worker's counters
func (w *CatalogSyncWorker) Stats() CatalogSyncStats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

func (w *CatalogSyncWorker) pollLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	w.syncIfChanged(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.syncIfChanged(ctx)
		}
	}
}

// syncIfChanged imports the workbook when it differs from the last import
func (w *CatalogSyncWorker) syncIfChanged(ctx context.Context) {
	info, err := os.Stat(w.config.Path)
	if err != nil {
		if !os.IsNotExist(err) {
			w.logger.Warn("Failed to stat catalog workbook", zap.String("path", w.config.Path), zap.Error(err))
		}
		return
	}

	w.mu.RLock()
	unchanged := info.ModTime().Equal(w.seenMod) && info.Size() == w.seenSize
	w.mu.RUnlock()
	if unchanged {
		return
	}

	importCtx, cancel := context.WithTimeout(ctx, w.config.ImportTimeout)
	defer cancel()

	result, err := w.importer.ImportWorkbook(importCtx, w.config.Path)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		w.stats.Failures++
		w.stats.LastError = err
		w.logger.Error("Catalog sync failed", zap.String("path", w.config.Path), zap.Error(err))
		return
	}

	w.seenMod = info.ModTime()
	w.seenSize = info.Size()
	w.stats.Imports++
	w.stats.LastImport = time.Now()
	w.stats.LastError = nil
	w.logger.Info("Catalog synced",
		zap.String("path", w.config.Path),
		zap.Int("products", result.Products),
		zap.Int("batches", result.Batches),
		zap.Int("customers", result.Customers))
}
