package service

import (
	"context"
	"fmt"
	"time"

	"trading-backend/src/helpers"
	"trading-backend/src/interfaces"
	"trading-backend/src/logger"
	"trading-backend/src/metrics"
	"trading-backend/src/models"

	"github.com/shopspring/decimal"
)

// QuoteService reconciles the quote store with the market data source
type QuoteService struct {
	Store   interfaces.IQuoteStore
	Source  interfaces.IMarketDataSource
	Logger  *logger.Logger
	Metrics *metrics.QuoteMetrics
}

// -----------------------------------------------------------------------------

func NewQuoteService(store interfaces.IQuoteStore, source interfaces.IMarketDataSource, log *logger.Logger, m *metrics.QuoteMetrics) *QuoteService {
	if log == nil {
		log = logger.NewNop("QuoteService")
	}
	if m == nil {
		m = metrics.NewQuoteMetrics(nil)
	}
	return &QuoteService{
		Store:   store,
		Source:  source,
		Logger:  log,
		Metrics: m,
	}
}

// -----------------------------------------------------------------------------

// BuildQuoteFromIexQuote maps a snapshot onto a quote record. Absent fields become zero.
func BuildQuoteFromIexQuote(iexQuote models.MIexQuote) (models.MQuote, error) {
	if iexQuote.Symbol == "" {
		return models.MQuote{}, helpers.NewInvalidArgument("symbol", "snapshot has no symbol")
	}

	return models.MQuote{
		Ticker:    iexQuote.Symbol,
		LastPrice: decimalOrZero(iexQuote.LatestPrice),
		BidPrice:  decimalOrZero(iexQuote.IexBidPrice),
		BidSize:   int64OrZero(iexQuote.IexBidSize),
		AskPrice:  decimalOrZero(iexQuote.IexAskPrice),
		AskSize:   int64OrZero(iexQuote.IexAskSize),
	}, nil
}

func decimalOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

func int64OrZero(n *int64) int64 {
	if n == nil {
		return 0
	}
	return *n
}

// -----------------------------------------------------------------------------

// UpdateMarketData refreshes every stored ticker from the source, one upsert per
// ticker. The first unknown ticker or failed write aborts the run; quotes
// refreshed before the failure stay written.
func (s *QuoteService) UpdateMarketData(ctx context.Context) (refreshed []models.MQuote, err error) {
	started := time.Now()
	defer func() { s.Metrics.ObserveSync("update_market_data", started, err) }()

	stored, err := s.Store.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load stored quotes: %w", err)
	}

	refreshed = make([]models.MQuote, 0, len(stored))
	for _, current := range stored {
		iexQuote, ok, err := s.Source.FindByTicker(ctx, current.Ticker)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", current.Ticker, err)
		}
		if !ok {
			s.Logger.Warning("QuoteService: %s is no longer known upstream, aborting refresh after %d quotes", current.Ticker, len(refreshed))
			return nil, &helpers.TickerNotFoundError{Ticker: current.Ticker}
		}

		quote, err := BuildQuoteFromIexQuote(iexQuote)
		if err != nil {
			return nil, err
		}
		quote.Ticker = current.Ticker

		saved, err := s.Store.Upsert(ctx, quote)
		if err != nil {
			return nil, err
		}
		s.Metrics.QuotesPersisted.Inc()
		refreshed = append(refreshed, saved)
	}

	s.Logger.Info("QuoteService: refreshed %d quotes", len(refreshed))
	return refreshed, nil
}

// -----------------------------------------------------------------------------

// SaveQuotes admits tickers. Every ticker is validated upstream before the first
// write, so an unknown ticker leaves the store untouched.
func (s *QuoteService) SaveQuotes(ctx context.Context, tickers []string) (saved []models.MQuote, err error) {
	started := time.Now()
	defer func() { s.Metrics.ObserveSync("save_quotes", started, err) }()

	pending := make([]models.MQuote, 0, len(tickers))
	for _, ticker := range tickers {
		quote, err := s.fetchQuote(ctx, ticker)
		if err != nil {
			return nil, err
		}
		pending = append(pending, quote)
	}

	saved = make([]models.MQuote, 0, len(pending))
	for _, quote := range pending {
		record, err := s.Store.Upsert(ctx, quote)
		if err != nil {
			return nil, err
		}
		s.Metrics.QuotesPersisted.Inc()
		saved = append(saved, record)
	}

	s.Logger.Info("QuoteService: saved %d quotes", len(saved))
	return saved, nil
}

// -----------------------------------------------------------------------------

func (s *QuoteService) SaveQuote(ctx context.Context, ticker string) (saved models.MQuote, err error) {
	started := time.Now()
	defer func() { s.Metrics.ObserveSync("save_quote", started, err) }()

	quote, err := s.fetchQuote(ctx, ticker)
	if err != nil {
		return models.MQuote{}, err
	}

	saved, err = s.Store.Upsert(ctx, quote)
	if err != nil {
		return models.MQuote{}, err
	}
	s.Metrics.QuotesPersisted.Inc()
	return saved, nil
}

// -----------------------------------------------------------------------------

// SaveQuoteRecord writes a quote as given, without asking the source
func (s *QuoteService) SaveQuoteRecord(ctx context.Context, quote models.MQuote) (models.MQuote, error) {
	saved, err := s.Store.Upsert(ctx, quote)
	if err != nil {
		return models.MQuote{}, err
	}
	s.Metrics.QuotesPersisted.Inc()
	return saved, nil
}

// -----------------------------------------------------------------------------

func (s *QuoteService) FindIexQuoteByTicker(ctx context.Context, ticker string) (models.MIexQuote, error) {
	iexQuote, ok, err := s.Source.FindByTicker(ctx, ticker)
	if err != nil {
		return models.MIexQuote{}, err
	}
	if !ok {
		return models.MIexQuote{}, helpers.NewInvalidArgument(ticker, "unknown ticker")
	}
	return iexQuote, nil
}

// -----------------------------------------------------------------------------

func (s *QuoteService) FindAllQuotes(ctx context.Context) ([]models.MQuote, error) {
	return s.Store.FindAll(ctx)
}

// -----------------------------------------------------------------------------

// fetchQuote validates one ticker upstream and maps the snapshot
func (s *QuoteService) fetchQuote(ctx context.Context, ticker string) (models.MQuote, error) {
	iexQuote, err := s.FindIexQuoteByTicker(ctx, ticker)
	if err != nil {
		return models.MQuote{}, err
	}

	quote, err := BuildQuoteFromIexQuote(iexQuote)
	if err != nil {
		return models.MQuote{}, err
	}
	quote.Ticker = ticker
	return quote, nil
}
