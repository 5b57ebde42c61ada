package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/soltixdb/dbstats/internal/config"
	statsgrpc "github.com/soltixdb/dbstats/internal/grpc"
	"github.com/soltixdb/dbstats/internal/logging"
	"github.com/soltixdb/dbstats/internal/metadata"
	"github.com/soltixdb/dbstats/internal/queue"
	"github.com/soltixdb/dbstats/internal/router"
	"github.com/soltixdb/dbstats/internal/services"
)

var (
	Version   = "dev"     // Injected via ldflags during build
	GitCommit = "unknown" // Injected via ldflags during build
	BuildTime = "unknown" // Injected via ldflags during build
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewFromConfig(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetGlobal(logger)
	logger.Info("Stats service starting...",
		"version", Version, "commit", GitCommit, "build time", BuildTime)

	if err := cfg.EnsureDirectories(); err != nil {
		logger.Fatal("Failed to create directories", "error", err)
	}

	// Dataset registry
	logger.Info("Opening dataset registry", "type", cfg.Registry.Type, "endpoints", cfg.Registry.Endpoints)
	registry, err := metadata.New(cfg.Registry, logger)
	if err != nil {
		logger.Fatal("Failed to open dataset registry", "error", err)
	}
	defer func() { _ = registry.Close() }()

	// Queue (optional)
	var (
		queueClient queue.Queue
		publisher   queue.Publisher
	)
	if cfg.Queue.Enabled {
		logger.Info("Connecting to Queue", "type", cfg.Queue.Type, "url", cfg.Queue.URL)
		queueClient, err = queue.New(cfg.Queue, logger)
		if err != nil {
			logger.Fatal("Failed to connect to Queue", "error", err)
		}
		defer func() { _ = queueClient.Close() }()
		publisher = queueClient
		logger.Info("Queue connection established")
	} else {
		logger.Info("Queue disabled, summaries are not published")
	}

	svc := services.NewStatsService(logger, registry, publisher, cfg)
	defer svc.Close()

	var worker *services.Worker
	if queueClient != nil {
		worker = services.NewWorker(svc, queueClient, logger)
		if err := worker.Start(); err != nil {
			logger.Fatal("Failed to start analysis worker", "error", err)
		}
	}

	if cfg.Auth.Enabled {
		logger.Info("API key authentication enabled", "num_keys", len(cfg.Auth.APIKeys))
	} else {
		logger.Warn("API key authentication DISABLED - all requests will be allowed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// gRPC server
	grpcDone := make(chan struct{})
	if cfg.Server.GRPCPort > 0 {
		grpcServer := statsgrpc.NewStatsServer(cfg.GetGRPCAddress(), svc, logger)
		go func() {
			defer close(grpcDone)
			if err := grpcServer.Start(ctx); err != nil {
				logger.Fatal("Failed to start gRPC server", "error", err)
			}
		}()
	} else {
		close(grpcDone)
	}

	// HTTP server
	app := router.New(logger, svc, cfg)
	go func() {
		addr := cfg.GetServerAddress()
		logger.Info("Server listening", "address", addr)
		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	if worker != nil {
		if err := worker.Stop(); err != nil {
			logger.Warn("Failed to stop analysis worker", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	cancel()
	<-grpcDone

	logger.Info("Server exited")
}
