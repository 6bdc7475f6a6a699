package config

import (
	"github.com/garyjia/pharma-billing/internal/application/service"
	"github.com/garyjia/pharma-billing/internal/container"
)

// ToContainerConfig converts the application Config to a container.Config.
// This provides a bridge between the file-based config loaded by viper
// and the container's configuration structure.
func (c *Config) ToContainerConfig() *container.Config {
	return &container.Config{
		Database: container.DatabaseConfig{
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
			MigrationsDir:   c.Database.MigrationsDir,
		},
		Billing: service.BillingPolicy{
			StrictTaxRates:     c.Billing.StrictTaxRates,
			StockPolicy:        c.Billing.StockPolicy,
			SkipExpiredBatches: c.Billing.SkipExpiredBatches,
		},
		Storage: container.StorageConfig{
			ExportDir:  c.Export.OutputDir,
			FontFamily: c.Export.FontFamily,
			Seller: service.Seller{
				Name:    c.Export.CompanyName,
				GSTIN:   c.Export.CompanyGSTIN,
				Address: c.Export.CompanyAddress,
			},
		},
		Server: container.ServerConfig{
			Host:         c.Server.Host,
			Port:         c.Server.Port,
			ReadTimeout:  c.Server.ReadTimeout,
			WriteTimeout: c.Server.WriteTimeout,
			Debug:        c.Logger.Level == "debug",
		},
		Worker: container.WorkerConfig{
			CatalogSyncEnabled:   c.Catalog.SyncEnabled,
			CatalogPath:          c.Catalog.Path,
			CatalogPollInterval:  c.Catalog.PollInterval,
			CatalogImportTimeout: c.Catalog.ImportTimeout,
		},
	}
}
