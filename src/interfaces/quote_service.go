package interfaces

import (
	"context"

	"trading-backend/src/models"
)

// -----------------------------------------------------------------------------
// IQuoteService is the synchronizer surface exposed to the HTTP and CLI layers.
// -----------------------------------------------------------------------------

type IQuoteService interface {

	// UpdateMarketData refreshes every stored ticker from the market data source.
	UpdateMarketData(ctx context.Context) ([]models.MQuote, error)

	// SaveQuotes validates tickers upstream and persists them in input order.
	SaveQuotes(ctx context.Context, tickers []string) ([]models.MQuote, error)

	// SaveQuote validates and persists a single ticker.
	SaveQuote(ctx context.Context, ticker string) (models.MQuote, error)

	// SaveQuoteRecord persists a quote without upstream validation.
	SaveQuoteRecord(ctx context.Context, quote models.MQuote) (models.MQuote, error)

	// FindIexQuoteByTicker returns the raw upstream snapshot.
	FindIexQuoteByTicker(ctx context.Context, ticker string) (models.MIexQuote, error)

	FindAllQuotes(ctx context.Context) ([]models.MQuote, error)
}
