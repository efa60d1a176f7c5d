package iex

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"trading-backend/src/helpers"
	"trading-backend/src/logger"
	"trading-backend/src/models"
	"trading-backend/src/network"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const appleQuote = `{
	"symbol": "AAPL",
	"companyName": "Apple Inc",
	"primaryExchange": "NASDAQ",
	"latestPrice": 187.44,
	"iexBidPrice": 187.40,
	"iexBidSize": 100,
	"iexAskPrice": 187.48,
	"iexAskSize": 200,
	"isUSMarketOpen": true
}`

func newTestSource(t *testing.T, handler http.HandlerFunc) *IexMarketDataSource {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &models.MConfig{
		Network:    models.MNetworkConfig{RequestTimeout: 2, MaxRetries: 2, BreakerMaxFailures: 10, BreakerCooldownSecs: 60},
		MarketData: models.MMarketDataConfig{BaseURL: srv.URL + "/", Token: "pk_test"},
	}
	nm := network.NewAsyncNetworkManager(cfg, logger.NewNop("network"), nil)
	nm.BaseDelay = time.Millisecond

	return NewIexMarketDataSource(&cfg.MarketData, nm, logger.NewNop("iex"))
}

func TestFindByTickerDecodesSnapshot(t *testing.T) {
	t.Parallel()

	// Arrange
	source := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stock/AAPL/quote", r.URL.Path)
		assert.Equal(t, "pk_test", r.URL.Query().Get("token"))
		_, _ = w.Write([]byte(appleQuote))
	})

	// Act
	quote, ok, err := source.FindByTicker(context.Background(), "AAPL")

	// Assert
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "AAPL", quote.Symbol)
	require.Equal(t, "Apple Inc", quote.CompanyName)
	require.True(t, quote.LatestPrice.Equal(decimal.RequireFromString("187.44")))
	require.True(t, quote.IexBidPrice.Equal(decimal.RequireFromString("187.40")))
	require.EqualValues(t, 100, *quote.IexBidSize)
	require.EqualValues(t, 200, *quote.IexAskSize)
}

func TestFindByTickerClosedMarketNulls(t *testing.T) {
	t.Parallel()

	source := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"symbol":"AAPL","latestPrice":null,"iexBidPrice":null,"iexBidSize":null,"iexAskPrice":null,"iexAskSize":null}`))
	})

	quote, ok, err := source.FindByTicker(context.Background(), "AAPL")

	require.NoError(t, err)
	require.True(t, ok)
	require.Nil(t, quote.LatestPrice)
	require.Nil(t, quote.IexBidSize)
	require.Nil(t, quote.IexAskPrice)
}

func TestFindByTickerUnknownSymbol(t *testing.T) {
	t.Parallel()

	// Arrange: IEX answers 404 for unknown symbols
	var calls atomic.Int32
	source := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "Unknown symbol", http.StatusNotFound)
	})

	// Act
	_, ok, err := source.FindByTicker(context.Background(), "BOGUS")

	// Assert
	require.NoError(t, err)
	require.False(t, ok)
	require.EqualValues(t, 1, calls.Load())
}

func TestFindByTickerRetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	source := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(appleQuote))
	})

	_, ok, err := source.FindByTicker(context.Background(), "AAPL")

	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 2, calls.Load())
}

func TestFindByTickerForbiddenIsAnError(t *testing.T) {
	t.Parallel()

	source := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, _, err := source.FindByTicker(context.Background(), "AAPL")

	var statusErr *helpers.HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusForbidden, statusErr.StatusCode)
}

func TestFindByTickerMalformedBody(t *testing.T) {
	t.Parallel()

	source := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})

	_, _, err := source.FindByTicker(context.Background(), "AAPL")

	var netErr *helpers.NetworkError
	require.ErrorAs(t, err, &netErr)
}

func TestFindByTickerRejectsEmptyTicker(t *testing.T) {
	t.Parallel()

	source := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	_, _, err := source.FindByTicker(context.Background(), " ")

	var invalid *helpers.InvalidArgumentError
	require.ErrorAs(t, err, &invalid)
}
