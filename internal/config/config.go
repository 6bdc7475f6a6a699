package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/garyjia/pharma-billing/internal/application/service"
	"github.com/garyjia/pharma-billing/pkg/utils"
)

// EnvPrefix prefixes every environment override, e.g. PHARMABILL_SERVER_PORT
const EnvPrefix = "PHARMABILL"

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Billing  BillingConfig  `mapstructure:"billing"`
	Export   ExportConfig   `mapstructure:"export"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	// MigrationsDir overrides the embedded schema when set
	MigrationsDir string `mapstructure:"migrations_dir"`
}

// BillingConfig holds pricing and stock policy
type BillingConfig struct {
	StrictTaxRates     bool   `mapstructure:"strict_tax_rates"`
	StockPolicy        string `mapstructure:"stock_policy"`
	SkipExpiredBatches bool   `mapstructure:"skip_expired_batches"`
}

// ExportConfig holds spreadsheet export configuration
type ExportConfig struct {
	OutputDir      string `mapstructure:"output_dir"`
	CompanyName    string `mapstructure:"company_name"`
	CompanyGSTIN   string `mapstructure:"company_gstin"`
	CompanyAddress string `mapstructure:"company_address"`
	FontFamily     string `mapstructure:"font_family"`
}

// CatalogConfig holds catalog workbook sync configuration
type CatalogConfig struct {
	Path          string        `mapstructure:"path"`
	SyncEnabled   bool          `mapstructure:"sync_enabled"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	ImportTimeout time.Duration `mapstructure:"import_timeout"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables. A .env file in
// the working directory is read first; its values never override variables
// already set. An empty configPath runs on defaults and environment alone.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults
	setDefaults(v)

	// Read config file
	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Override with environment variables
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	// Database defaults
	v.SetDefault("database.path", "data/pharmabill.db")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.migrations_dir", "")

	// Billing defaults
	v.SetDefault("billing.strict_tax_rates", true)
	v.SetDefault("billing.stock_policy", service.StockPolicyReject)
	v.SetDefault("billing.skip_expired_batches", false)

	// Export defaults
	v.SetDefault("export.output_dir", "exports")
	v.SetDefault("export.company_name", "")
	v.SetDefault("export.company_gstin", "")
	v.SetDefault("export.company_address", "")
	v.SetDefault("export.font_family", "Calibri")

	// Catalog defaults
	v.SetDefault("catalog.path", "")
	v.SetDefault("catalog.sync_enabled", false)
	v.SetDefault("catalog.poll_interval", time.Minute)
	v.SetDefault("catalog.import_timeout", 2*time.Minute)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")
}

// bindEnvVars binds the short names deployments already use
func bindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("export.company_name", EnvPrefix+"_EXPORT_COMPANY_NAME", "COMPANY_NAME")
	_ = v.BindEnv("export.company_gstin", EnvPrefix+"_EXPORT_COMPANY_GSTIN", "COMPANY_GSTIN")
	_ = v.BindEnv("database.path", EnvPrefix+"_DATABASE_PATH", "DATABASE_PATH")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	switch c.Billing.StockPolicy {
	case service.StockPolicyClamp, service.StockPolicyReject:
	default:
		return fmt.Errorf("billing.stock_policy must be %s or %s, got %q",
			service.StockPolicyClamp, service.StockPolicyReject, c.Billing.StockPolicy)
	}

	if c.Export.OutputDir == "" {
		return fmt.Errorf("export.output_dir is required")
	}
	if c.Export.CompanyName == "" {
		return fmt.Errorf("export.company_name is required")
	}
	if c.Export.CompanyGSTIN != "" {
		if err := utils.ValidateGSTIN(c.Export.CompanyGSTIN); err != nil {
			return fmt.Errorf("export.company_gstin: %w", err)
		}
	}

	if c.Catalog.SyncEnabled {
		if c.Catalog.Path == "" {
			return fmt.Errorf("catalog.path is required when catalog.sync_enabled is set")
		}
		if c.Catalog.PollInterval <= 0 {
			return fmt.Errorf("catalog.poll_interval must be positive")
		}
	}

	return nil
}
