package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"trading-backend/src/helpers"
	"trading-backend/src/logger"
	"trading-backend/src/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// fakeQuoteService answers with canned results
type fakeQuoteService struct {
	quotes     []models.MQuote
	iexQuote   models.MIexQuote
	err        error
	gotTickers []string
	gotRecord  models.MQuote
}

func (f *fakeQuoteService) UpdateMarketData(ctx context.Context) ([]models.MQuote, error) {
	return f.quotes, f.err
}

func (f *fakeQuoteService) SaveQuotes(ctx context.Context, tickers []string) ([]models.MQuote, error) {
	f.gotTickers = tickers
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.MQuote, 0, len(tickers))
	for _, t := range tickers {
		out = append(out, models.MQuote{Ticker: t})
	}
	return out, nil
}

func (f *fakeQuoteService) SaveQuote(ctx context.Context, ticker string) (models.MQuote, error) {
	f.gotTickers = []string{ticker}
	return models.MQuote{Ticker: ticker}, f.err
}

func (f *fakeQuoteService) SaveQuoteRecord(ctx context.Context, quote models.MQuote) (models.MQuote, error) {
	f.gotRecord = quote
	return quote, f.err
}

func (f *fakeQuoteService) FindIexQuoteByTicker(ctx context.Context, ticker string) (models.MIexQuote, error) {
	return f.iexQuote, f.err
}

func (f *fakeQuoteService) FindAllQuotes(ctx context.Context) ([]models.MQuote, error) {
	return f.quotes, f.err
}

func newTestServer(t *testing.T, svc *fakeQuoteService, reg *prometheus.Registry) *APIServer {
	t.Helper()

	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	s := NewAPIServer(&models.MConfig{Host: "127.0.0.1", Port: 8080}, svc, reg, logger.NewNop("server"))
	t.Cleanup(func() { _ = s.Stop() })
	return s
}

func do(t *testing.T, s *APIServer, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

// -----------------------------------------------------------------------------

func TestGetDailyList(t *testing.T) {
	t.Parallel()

	// Arrange
	svc := &fakeQuoteService{quotes: []models.MQuote{{Ticker: "AAPL", LastPrice: decimal.RequireFromString("187.44"), BidSize: 3}}}
	s := newTestServer(t, svc, nil)

	// Act
	rec := do(t, s, http.MethodGet, "/quote/dailyList", "")

	// Assert
	require.Equal(t, http.StatusOK, rec.Code)
	var got []models.MQuote
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	require.Equal(t, "AAPL", got[0].Ticker)
	require.True(t, got[0].LastPrice.Equal(decimal.RequireFromString("187.44")))

	_, err := uuid.Parse(rec.Header().Get(requestIDHeader))
	require.NoError(t, err)
}

func TestRequestIDIsEchoed(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeQuoteService{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set(requestIDHeader, "trace-42")
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "trace-42", rec.Header().Get(requestIDHeader))
}

func TestGetIexQuote(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeQuoteService{iexQuote: models.MIexQuote{Symbol: "AAPL", CompanyName: "Apple Inc"}}, nil)

	rec := do(t, s, http.MethodGet, "/quote/iex/ticker/AAPL", "")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"companyName":"Apple Inc"`)
}

func TestPostTickerCreates(t *testing.T) {
	t.Parallel()

	// Arrange
	svc := &fakeQuoteService{}
	s := newTestServer(t, svc, nil)

	// Act
	rec := do(t, s, http.MethodPost, "/quote/tickerId/MSFT", "")

	// Assert: created and merged into the served state
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, []string{"MSFT"}, svc.gotTickers)
	require.Contains(t, s.snapshot(nil).Quotes, "MSFT")
}

func TestPostTickersKeepsOrder(t *testing.T) {
	t.Parallel()

	svc := &fakeQuoteService{}
	s := newTestServer(t, svc, nil)

	rec := do(t, s, http.MethodPost, "/quote/tickers", `{"tickers":["MSFT","AAPL"]}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, []string{"MSFT", "AAPL"}, svc.gotTickers)
	var got []models.MQuote
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "MSFT", got[0].Ticker)
	require.Equal(t, "AAPL", got[1].Ticker)
}

func TestPostTickersRejectsBadBodies(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeQuoteService{}, nil)

	for _, body := range []string{`{"tickers":[]}`, `not json`, `{}`} {
		rec := do(t, s, http.MethodPost, "/quote/tickers", body)
		require.Equalf(t, http.StatusBadRequest, rec.Code, "body %s", body)
	}
}

func TestPutQuoteSavesRecord(t *testing.T) {
	t.Parallel()

	svc := &fakeQuoteService{}
	s := newTestServer(t, svc, nil)

	rec := do(t, s, http.MethodPut, "/quote/", `{"ticker":"TSLA","lastPrice":"250.50","bidPrice":250.4,"bidSize":5,"askPrice":"250.6","askSize":6}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "TSLA", svc.gotRecord.Ticker)
	require.True(t, svc.gotRecord.LastPrice.Equal(decimal.RequireFromString("250.5")))
	require.True(t, svc.gotRecord.BidPrice.Equal(decimal.RequireFromString("250.4")))
	require.EqualValues(t, 6, svc.gotRecord.AskSize)
}

func TestPutMarketDataBroadcastsRefresh(t *testing.T) {
	t.Parallel()

	svc := &fakeQuoteService{quotes: []models.MQuote{{Ticker: "AAPL"}, {Ticker: "MSFT"}}}
	s := newTestServer(t, svc, nil)

	rec := do(t, s, http.MethodPut, "/quote/iexMarketData", "")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, s.snapshot(nil).Quotes, 2)
}

func TestErrorMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid argument", helpers.NewInvalidArgument("BOGUS", "unknown ticker"), http.StatusBadRequest},
		{"ticker not found", &helpers.TickerNotFoundError{Ticker: "MSFT"}, http.StatusNotFound},
		{"persistence", &helpers.PersistenceError{Op: "update", Ticker: "AAPL", Expected: 1}, http.StatusInternalServerError},
		{"wrapped not found", errors.Join(errors.New("refresh"), &helpers.TickerNotFoundError{Ticker: "X"}), http.StatusNotFound},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			s := newTestServer(t, &fakeQuoteService{err: tc.err}, nil)

			rec := do(t, s, http.MethodPut, "/quote/iexMarketData", "")

			require.Equal(t, tc.want, rec.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.Equal(t, tc.err.Error(), body["error"])
			require.NotEmpty(t, body["requestId"])
		})
	}
}

func TestHealthAndMetrics(t *testing.T) {
	t.Parallel()

	// Arrange
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "trading_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()
	s := newTestServer(t, &fakeQuoteService{}, reg)
	s.UpdateAllDatas([]models.MQuote{{Ticker: "AAPL"}})

	// Act
	health := do(t, s, http.MethodGet, "/api/health", "")
	metrics := do(t, s, http.MethodGet, "/metrics", "")

	// Assert
	require.Equal(t, http.StatusOK, health.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(health.Body.Bytes(), &body))
	require.Equal(t, "ok", body["status"])
	require.EqualValues(t, 1, body["quotes"])

	require.Equal(t, http.StatusOK, metrics.Code)
	require.Contains(t, metrics.Body.String(), "trading_test_total 1")
}

// -----------------------------------------------------------------------------

func readFeed(t *testing.T, conn *websocket.Conn) models.MQuoteFeed {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var feed models.MQuoteFeed
	require.NoError(t, conn.ReadJSON(&feed))
	return feed
}

func TestWebSocketFeed(t *testing.T) {
	t.Parallel()

	// Arrange: a served state and a connected client
	s := newTestServer(t, &fakeQuoteService{}, nil)
	s.UpdateAllDatas([]models.MQuote{{Ticker: "AAPL"}})
	s.StartHub()
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	// Assert: the full state arrives first
	initial := readFeed(t, conn)
	require.Equal(t, "INITIAL", initial.Type)
	require.Contains(t, initial.Quotes, "AAPL")

	// Act: a refresh is broadcast
	s.Broadcast([]models.MQuote{{Ticker: "MSFT", BidSize: 7}})

	// Assert
	update := readFeed(t, conn)
	require.Equal(t, "UPDATE", update.Type)
	require.EqualValues(t, 7, update.Quotes["MSFT"].BidSize)
	require.NotContains(t, update.Quotes, "AAPL")

	// Act: narrow the subscription
	require.NoError(t, conn.WriteJSON(models.MSubscribeCommand{Command: "subscribe", Tickers: []string{"MSFT"}}))

	// Assert
	subscribed := readFeed(t, conn)
	require.Equal(t, "INITIAL", subscribed.Type)
	require.Len(t, subscribed.Quotes, 1)
	require.Contains(t, subscribed.Quotes, "MSFT")

	s.Broadcast([]models.MQuote{{Ticker: "AAPL"}, {Ticker: "MSFT"}})
	filtered := readFeed(t, conn)
	require.Len(t, filtered.Quotes, 1)
	require.Contains(t, filtered.Quotes, "MSFT")
}
