package interfaces

import (
	"context"

	"trading-backend/src/models"
)

// -----------------------------------------------------------------------------
// IMarketDataSource is an external quote provider keyed by ticker.
// -----------------------------------------------------------------------------

//go:generate mockgen -package=service_test -destination=../service/mock_market_data_source_test.go -source=market_data_source.go IMarketDataSource
type IMarketDataSource interface {

	// FindByTicker returns false when the provider does not know the ticker.
	FindByTicker(ctx context.Context, ticker string) (models.MIexQuote, bool, error)
}
