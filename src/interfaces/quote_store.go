package interfaces

import (
	"context"

	"trading-backend/src/models"
)

// -----------------------------------------------------------------------------
// IQuoteStore defines persistence of quote records keyed by ticker.
// -----------------------------------------------------------------------------

type IQuoteStore interface {

	// FindByTicker returns false when no record exists for ticker.
	FindByTicker(ctx context.Context, ticker string) (models.MQuote, bool, error)

	// FindAll returns every stored quote.
	FindAll(ctx context.Context) ([]models.MQuote, error)

	// Exists reports whether FindByTicker would find a record.
	Exists(ctx context.Context, ticker string) (bool, error)

	// -----------------------------------------------------------------------------

	// Upsert updates the record when the ticker exists and inserts it otherwise.
	Upsert(ctx context.Context, quote models.MQuote) (models.MQuote, error)

	// UpsertBatch applies all inserts and all updates as two batched statements.
	UpsertBatch(ctx context.Context, quotes []models.MQuote) ([]models.MQuote, error)

	// -----------------------------------------------------------------------------

	// DeleteByTicker fails with an invalid argument error when the ticker is absent.
	DeleteByTicker(ctx context.Context, ticker string) error

	DeleteAll(ctx context.Context) error

	Count(ctx context.Context) (int64, error)
}
