package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"trading-backend/src/config"
	"trading-backend/src/data_source/iex"
	"trading-backend/src/logger"
	"trading-backend/src/metrics"
	"trading-backend/src/models"
	"trading-backend/src/network"
	"trading-backend/src/service"
	"trading-backend/src/storage"
)

// One-shot synchronizer: admits -tickers when given, otherwise refreshes every stored ticker.
func main() {
	configPath := flag.String("config", "config/default.yaml", "path to config file")
	tickersFlag := flag.String("tickers", "", "comma separated tickers to admit, e.g. AAPL,MSFT")
	flag.Parse()

	cfg, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.NewLogger(&cfg.Logging, cfg.Name+"-sync")
	defer appLogger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	m := metrics.NewQuoteMetrics(nil)

	db, err := storage.New(cfg.MConfig, appLogger.Named("storage"), m)
	if err != nil {
		appLogger.Critical("Failed to init db: %v", err)
		return
	}
	if err := db.Initialize(ctx); err != nil {
		appLogger.Critical("Failed to migrate db: %v", err)
		return
	}
	defer db.Close()

	netMgr := network.NewAsyncNetworkManager(cfg.MConfig, appLogger.Named("network"), m)
	source := iex.NewIexMarketDataSource(&cfg.MarketData, netMgr, appLogger.Named("iex"))
	svc := service.NewQuoteService(db.Quotes(), source, appLogger.Named("service"), m)

	var quotes []models.MQuote
	if tickers := splitTickers(*tickersFlag); len(tickers) > 0 {
		quotes, err = svc.SaveQuotes(ctx, tickers)
	} else {
		quotes, err = svc.UpdateMarketData(ctx)
	}
	if err != nil {
		appLogger.Error("Sync failed: %v", err)
		_ = appLogger.Sync()
		os.Exit(1)
	}

	for _, q := range quotes {
		fmt.Printf("%-8s last=%s bid=%s x %d ask=%s x %d\n", q.Ticker, q.LastPrice, q.BidPrice, q.BidSize, q.AskPrice, q.AskSize)
	}
}

func splitTickers(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.ToUpper(strings.TrimSpace(t)); t != "" {
			out = append(out, t)
		}
	}
	return out
}
