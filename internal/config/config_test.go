package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
server:
  port: 9090
  read_timeout: 15s
database:
  path: /var/lib/pharmabill/billing.db
billing:
  strict_tax_rates: false
  stock_policy: clamp
  skip_expired_batches: true
export:
  output_dir: /srv/exports
  company_name: Shree Medical Agencies
  company_gstin: 27AAACS1234F1ZS
  company_address: Shop 4, Station Road, Pune
catalog:
  path: /srv/catalog.xlsx
  sync_enabled: true
  poll_interval: 30s
logger:
  level: debug
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, "/var/lib/pharmabill/billing.db", cfg.Database.Path)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)

	assert.False(t, cfg.Billing.StrictTaxRates)
	assert.Equal(t, "clamp", cfg.Billing.StockPolicy)
	assert.True(t, cfg.Billing.SkipExpiredBatches)

	assert.Equal(t, "Shree Medical Agencies", cfg.Export.CompanyName)
	assert.Equal(t, "Calibri", cfg.Export.FontFamily)

	assert.True(t, cfg.Catalog.SyncEnabled)
	assert.Equal(t, 30*time.Second, cfg.Catalog.PollInterval)
	assert.Equal(t, 2*time.Minute, cfg.Catalog.ImportTimeout)

	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "json", cfg.Logger.Format)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "export:\n  company_name: Acme Pharma\n"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "data/pharmabill.db", cfg.Database.Path)
	assert.True(t, cfg.Billing.StrictTaxRates)
	assert.Equal(t, "reject", cfg.Billing.StockPolicy)
	assert.Equal(t, "exports", cfg.Export.OutputDir)
	assert.False(t, cfg.Catalog.SyncEnabled)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PHARMABILL_SERVER_PORT", "7070")
	t.Setenv("PHARMABILL_BILLING_STOCK_POLICY", "reject")
	t.Setenv("COMPANY_NAME", "Env Pharma")

	cfg, err := Load(writeConfig(t, "export:\n  output_dir: out\n"))
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "reject", cfg.Billing.StockPolicy)
	assert.Equal(t, "Env Pharma", cfg.Export.CompanyName)
}

func TestLoad_NoFile(t *testing.T) {
	t.Setenv("PHARMABILL_EXPORT_COMPANY_NAME", "Env Only")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "Env Only", cfg.Export.CompanyName)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: 8080},
			Database: DatabaseConfig{Path: "billing.db"},
			Billing:  BillingConfig{StockPolicy: "reject"},
			Export:   ExportConfig{OutputDir: "exports", CompanyName: "Acme"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "valid gstin", mutate: func(c *Config) { c.Export.CompanyGSTIN = "27AAPFU0939F1ZV" }},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: "server.port"},
		{name: "no database", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: "database.path"},
		{name: "unknown policy", mutate: func(c *Config) { c.Billing.StockPolicy = "borrow" }, wantErr: "billing.stock_policy"},
		{name: "no company", mutate: func(c *Config) { c.Export.CompanyName = "" }, wantErr: "export.company_name"},
		{name: "bad gstin", mutate: func(c *Config) { c.Export.CompanyGSTIN = "27AAPFU0939F1ZX" }, wantErr: "export.company_gstin"},
		{name: "sync without path", mutate: func(c *Config) { c.Catalog.SyncEnabled = true; c.Catalog.PollInterval = time.Minute }, wantErr: "catalog.path"},
		{
			name: "sync without interval",
			mutate: func(c *Config) {
				c.Catalog.SyncEnabled = true
				c.Catalog.Path = "catalog.xlsx"
			},
			wantErr: "catalog.poll_interval",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()

			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestToContainerConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	cc := cfg.ToContainerConfig()

	require.NoError(t, cc.Validate())
	assert.Equal(t, "/var/lib/pharmabill/billing.db", cc.Database.Path)
	assert.False(t, cc.Billing.StrictTaxRates)
	assert.Equal(t, "clamp", cc.Billing.StockPolicy)
	assert.True(t, cc.Billing.SkipExpiredBatches)
	assert.Equal(t, "/srv/exports", cc.Storage.ExportDir)
	assert.Equal(t, "Shree Medical Agencies", cc.Storage.Seller.Name)
	assert.Equal(t, "27AAACS1234F1ZS", cc.Storage.Seller.GSTIN)
	assert.Equal(t, 9090, cc.Server.Port)
	assert.True(t, cc.Server.Debug)
	assert.True(t, cc.Worker.CatalogSyncEnabled)
	assert.Equal(t, "/srv/catalog.xlsx", cc.Worker.CatalogPath)
	assert.Equal(t, 30*time.Second, cc.Worker.CatalogPollInterval)
}
