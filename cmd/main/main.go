package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"trading-backend/src/config"
	"trading-backend/src/grpc_control"
	"trading-backend/src/logger"
	"trading-backend/src/metrics"
	"trading-backend/src/server"
	"trading-backend/src/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "config/default.yaml", "path to config file")
	flag.Parse()

	// Load config from YAML file
	cfg, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	appLogger := logger.NewLogger(&cfg.Logging, cfg.Name)
	defer appLogger.Sync()

	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// 1. Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	quoteMetrics := metrics.NewQuoteMetrics(registry)

	// 2. Storage
	db, err := setupDatabase(ctx, cfg.MConfig, appLogger, quoteMetrics)
	if err != nil {
		appLogger.Critical("Failed to init db: %v", err)
		return
	}
	defer db.Close()

	// 3. Source and synchronizer
	source := setupSource(cfg, appLogger, quoteMetrics)
	quoteService := service.NewQuoteService(db.Quotes(), source, appLogger.Named("service"), quoteMetrics)

	// 4. Servers
	srv := server.NewAPIServer(cfg.MConfig, quoteService, registry, appLogger.Named("server"))
	ctrl := grpc_control.NewControlService(cfg.MConfig, appLogger.Named("grpc"))

	go func() {
		if err := srv.Start(); err != nil {
			appLogger.Critical("Server failed: %v", err)
		}
	}()
	go func() {
		if err := ctrl.Start(); err != nil {
			appLogger.Critical("gRPC server failed: %v", err)
		}
	}()

	// 5. Admit the daily list, then refresh everything stored
	if len(cfg.MarketData.DailyList) > 0 {
		saved, err := quoteService.SaveQuotes(ctx, cfg.MarketData.DailyList)
		if err != nil {
			appLogger.Error("Failed to admit daily list %v: %v", cfg.MarketData.DailyList, err)
		} else {
			appLogger.Info("Admitted %d tickers from the daily list", len(saved))
		}
	}

	scheduler := setupScheduler(cfg, quoteService, srv, ctrl, appLogger)
	if _, err := scheduler.RunOnce(ctx); err != nil {
		appLogger.Warning("Initial refresh failed: %v", err)
	}
	if stored, err := quoteService.FindAllQuotes(ctx); err == nil {
		srv.UpdateAllDatas(stored)
	}

	wg := &sync.WaitGroup{}
	scheduler.Start(ctx, wg)

	appLogger.Info("Initialization complete.")

	<-ctx.Done()
	appLogger.Info("Shutting down...")

	wg.Wait()
	if err := srv.Stop(); err != nil {
		appLogger.Error("Server shutdown: %v", err)
	}
	ctrl.Stop()
}
