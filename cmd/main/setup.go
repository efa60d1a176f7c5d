package main

import (
	"context"
	"time"

	"trading-backend/src/config"
	"trading-backend/src/data_source/iex"
	"trading-backend/src/grpc_control"
	"trading-backend/src/interfaces"
	"trading-backend/src/logger"
	"trading-backend/src/metrics"
	"trading-backend/src/models"
	"trading-backend/src/network"
	"trading-backend/src/storage"
	"trading-backend/src/utils"
)

// -----------------------------------------------------------------------------

// setupDatabase initializes the database connection based on config
func setupDatabase(ctx context.Context, cfg *models.MConfig, appLogger *logger.Logger, m *metrics.QuoteMetrics) (interfaces.IDatabase, error) {
	db, err := storage.New(cfg, appLogger.Named("storage"), m)
	if err != nil {
		return nil, err
	}
	if err := db.Initialize(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// -----------------------------------------------------------------------------

// setupSource builds the IEX client on top of the retrying network manager
func setupSource(cfg *config.Config, appLogger *logger.Logger, m *metrics.QuoteMetrics) interfaces.IMarketDataSource {
	netMgr := network.NewAsyncNetworkManager(cfg.MConfig, appLogger.Named("network"), m)
	return iex.NewIexMarketDataSource(&cfg.MarketData, netMgr, appLogger.Named("iex"))
}

// -----------------------------------------------------------------------------

// setupScheduler wires the periodic refresh to the websocket feed and the health service
func setupScheduler(
	cfg *config.Config,
	svc interfaces.IQuoteService,
	srv interfaces.IDataExchanger,
	ctrl *grpc_control.ControlService,
	appLogger *logger.Logger,
) *utils.MarketScheduler {
	var cal *utils.TradingCalendar
	if cfg.MarketData.OnlyWhenMarketOpen {
		cal = utils.NewTradingCalendar(cfg.MarketData.CalendarMIC, appLogger.Named("calendar"))
	}

	interval := time.Duration(cfg.MarketData.UpdateIntervalSeconds) * time.Second
	return utils.NewMarketScheduler(interval, cal, refreshFunc(svc, srv, ctrl), appLogger.Named("scheduler"))
}

// -----------------------------------------------------------------------------

func refreshFunc(svc interfaces.IQuoteService, srv interfaces.IDataExchanger, ctrl *grpc_control.ControlService) utils.RefreshFunc {
	return func(ctx context.Context) error {
		quotes, err := svc.UpdateMarketData(ctx)
		ctrl.ReportSync(err)
		if err != nil {
			return err
		}
		srv.Broadcast(quotes)
		return nil
	}
}
