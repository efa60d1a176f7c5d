package iex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"trading-backend/src/helpers"
	"trading-backend/src/interfaces"
	"trading-backend/src/logger"
	"trading-backend/src/models"
)

// IexMarketDataSource reads quote snapshots from IEX Cloud
type IexMarketDataSource struct {
	BaseURL string
	Token   string
	Network interfaces.INetworkManager
	Logger  *logger.Logger
}

// -----------------------------------------------------------------------------

func NewIexMarketDataSource(cfg *models.MMarketDataConfig, netMgr interfaces.INetworkManager, log *logger.Logger) *IexMarketDataSource {
	return &IexMarketDataSource{
		BaseURL: strings.TrimRight(cfg.BaseURL, "/"),
		Token:   cfg.Token,
		Network: netMgr,
		Logger:  log,
	}
}

// -----------------------------------------------------------------------------

// FindByTicker fetches {base}/stock/{ticker}/quote. An unknown symbol (404) is
// reported as ok == false.
func (s *IexMarketDataSource) FindByTicker(ctx context.Context, ticker string) (models.MIexQuote, bool, error) {
	if strings.TrimSpace(ticker) == "" {
		return models.MIexQuote{}, false, helpers.NewInvalidArgument("ticker", "ticker cannot be empty")
	}

	endpoint := fmt.Sprintf("%s/stock/%s/quote", s.BaseURL, url.PathEscape(ticker))
	body, err := s.Network.Get(ctx, endpoint, map[string]string{"token": s.Token})

	var statusErr *helpers.HTTPStatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
		s.Logger.Debug("IEX: unknown symbol %s", ticker)
		return models.MIexQuote{}, false, nil
	}
	if err != nil {
		return models.MIexQuote{}, false, fmt.Errorf("iex quote %s: %w", ticker, err)
	}

	var quote models.MIexQuote
	if err := json.Unmarshal(body, &quote); err != nil {
		return models.MIexQuote{}, false, helpers.NewNetworkError("decode iex quote "+ticker, err)
	}
	if quote.Symbol == "" {
		quote.Symbol = ticker
	}

	return quote, true, nil
}
