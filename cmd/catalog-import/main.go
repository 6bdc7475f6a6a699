// Command catalog-import loads a product, batch and customer workbook into the
// billing database and exits.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/garyjia/pharma-billing/internal/config"
	"github.com/garyjia/pharma-billing/internal/container"
	"github.com/garyjia/pharma-billing/pkg/utils"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the configuration file")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [-config path] <catalog.xlsx>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	workbook := flag.Arg(0)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: "stderr",
		Format:     "console",
		Service:    "catalog-import",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// The one-shot import must not race the background sync worker
	containerCfg := cfg.ToContainerConfig()
	containerCfg.Worker.CatalogSyncEnabled = false

	app, err := container.NewContainer(containerCfg, logger)
	if err != nil {
		logger.Fatal("Failed to create container", zap.Error(err))
	}

	ctx := context.Background()
	if err := app.Start(ctx); err != nil {
		logger.Fatal("Failed to start container", zap.Error(err))
	}

	result, importErr := app.Services().Catalog.ImportWorkbook(ctx, workbook)
	if err := app.Close(); err != nil {
		logger.Error("Container closed with errors", zap.Error(err))
	}
	if importErr != nil {
		logger.Error("Catalog import failed", zap.String("path", workbook), zap.Error(importErr))
		os.Exit(1)
	}

	fmt.Printf("imported %d products, %d batches, %d customers from %s\n",
		result.Products, result.Batches, result.Customers, workbook)
}
