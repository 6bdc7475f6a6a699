package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/garyjia/pharma-billing/internal/config"
	"github.com/garyjia/pharma-billing/internal/container"
	httpapi "github.com/garyjia/pharma-billing/internal/interfaces/http"
	"github.com/garyjia/pharma-billing/pkg/utils"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
		Service:    "pharma-billing",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting pharma billing server",
		zap.String("version", httpapi.Version),
		zap.Int("port", cfg.Server.Port),
		zap.String("stock_policy", cfg.Billing.StockPolicy))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Wire database, storage, services and workers
	app, err := container.NewContainer(cfg.ToContainerConfig(), logger)
	if err != nil {
		logger.Fatal("Failed to create container", zap.Error(err))
	}
	if err := app.Start(ctx); err != nil {
		logger.Fatal("Failed to start container", zap.Error(err))
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("Container closed with errors", zap.Error(err))
		}
	}()

	serverCfg := app.Config().Server
	services := app.Services()
	server := httpapi.NewServer(
		httpapi.ServerConfig{
			Host:         serverCfg.Host,
			Port:         serverCfg.Port,
			ReadTimeout:  serverCfg.ReadTimeout,
			WriteTimeout: serverCfg.WriteTimeout,
			Debug:        serverCfg.Debug,
		},
		services.Document,
		services.Order,
		services.Export,
		container.NewLoggerAdapter(logger),
	)

	// Blocks until SIGINT/SIGTERM, then shuts the listener down gracefully
	if err := server.Start(ctx); err != nil {
		logger.Error("HTTP server stopped with error", zap.Error(err))
	}

	logger.Info("Server exited")
}
