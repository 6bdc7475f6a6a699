// Package container provides dependency injection and lifecycle management
// for the billing server, following Clean Architecture principles.
package container

import (
	"fmt"
	"time"

	"github.com/garyjia/pharma-billing/internal/application/service"
)

// Config holds all configuration for the Container.
// It aggregates configurations for all subsystems.
type Config struct {
	// Database configuration
	Database DatabaseConfig

	// Billing policy applied by the document and order services
	Billing service.BillingPolicy

	// Storage and export configuration
	Storage StorageConfig

	// Server configuration
	Server ServerConfig

	// Worker configuration
	Worker WorkerConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Path to SQLite database file
	Path string

	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int

	// ConnMaxLifetime is the maximum connection lifetime
	ConnMaxLifetime time.Duration

	// MigrationsDir replaces the embedded schema when set
	MigrationsDir string
}

// StorageConfig holds export settings.
type StorageConfig struct {
	// ExportDir is where rendered documents are written
	ExportDir string

	// FontFamily for exported workbooks
	FontFamily string

	// Seller printed on every export
	Seller service.Seller
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Debug        bool
}

// WorkerConfig holds background worker settings.
type WorkerConfig struct {
	// Catalog sync settings
	CatalogSyncEnabled   bool
	CatalogPath          string
	CatalogPollInterval  time.Duration
	CatalogImportTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:            "data/pharmabill.db",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Billing: service.DefaultBillingPolicy(),
		Storage: StorageConfig{
			ExportDir:  "exports",
			FontFamily: "Calibri",
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Worker: WorkerConfig{
			CatalogPollInterval:  time.Minute,
			CatalogImportTimeout: 2 * time.Minute,
		},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Storage.ExportDir == "" {
		return fmt.Errorf("storage.export_dir is required")
	}

	if c.Worker.CatalogSyncEnabled && c.Worker.CatalogPath == "" {
		return fmt.Errorf("worker.catalog_path is required when catalog sync is enabled")
	}

	return nil
}
