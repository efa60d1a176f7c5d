package storage

import (
	"fmt"

	"trading-backend/src/interfaces"
	"trading-backend/src/logger"
	"trading-backend/src/metrics"
	"trading-backend/src/models"
)

// New selects the backend named by cfg.Storage.DBType. Initialize must still be called.
func New(cfg *models.MConfig, log *logger.Logger, m *metrics.QuoteMetrics) (interfaces.IDatabase, error) {
	switch cfg.Storage.DBType {
	case "postgres":
		return NewPostgresDB(cfg, log, m)
	case "sqlite", "":
		return NewSQLiteDB(cfg, log, m)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Storage.DBType)
	}
}
