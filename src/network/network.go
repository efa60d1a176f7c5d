package network

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"trading-backend/src/helpers"
	"trading-backend/src/logger"
	"trading-backend/src/metrics"
	"trading-backend/src/models"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
)

const (
	defaultUserAgent = "trading-backend/1.0"
	defaultBaseDelay = 500 * time.Millisecond
)

// AsyncNetworkManager performs upstream GET requests with retries and a circuit breaker
type AsyncNetworkManager struct {
	Config    *models.MConfig
	Client    *http.Client
	Breaker   *gobreaker.CircuitBreaker
	Logger    *logger.Logger
	Metrics   *metrics.QuoteMetrics
	BaseDelay time.Duration
}

// response is what a single attempt hands back through the breaker
type response struct {
	status int
	body   []byte
}

// -----------------------------------------------------------------------------

func NewAsyncNetworkManager(cfg *models.MConfig, log *logger.Logger, m *metrics.QuoteMetrics) *AsyncNetworkManager {
	if m == nil {
		m = metrics.NewQuoteMetrics(nil)
	}

	nm := &AsyncNetworkManager{
		Config:    cfg,
		Logger:    log,
		Metrics:   m,
		BaseDelay: defaultBaseDelay,
		Client: &http.Client{
			Transport: http.DefaultTransport.(*http.Transport).Clone(),
			Timeout:   time.Duration(cfg.Network.RequestTimeout) * time.Second,
		},
	}
	nm.Breaker = nm.createBreaker()
	return nm
}

// -----------------------------------------------------------------------------

func (nm *AsyncNetworkManager) createBreaker() *gobreaker.CircuitBreaker {
	maxFailures := uint32(nm.Config.Network.BreakerMaxFailures)
	if maxFailures == 0 {
		maxFailures = 5
	}
	cooldown := time.Duration(nm.Config.Network.BreakerCooldownSecs) * time.Second
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "market-data",
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			nm.Logger.Warning("Circuit breaker %s: %s -> %s", name, from.String(), to.String())
			nm.Metrics.BreakerState.Set(float64(to))
		},
	})
}

// -----------------------------------------------------------------------------

// Get performs a GET request with retries. Non-2xx answers are returned as
// *helpers.HTTPStatusError; only 429 and 5xx are retried.
func (nm *AsyncNetworkManager) Get(ctx context.Context, urlStr string, params map[string]string) ([]byte, error) {
	reqURL, err := url.Parse(urlStr)
	if err != nil {
		return nil, helpers.NewInvalidArgument("url", err.Error())
	}

	q := reqURL.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	reqURL.RawQuery = q.Encode()
	finalURL := reqURL.String()

	var body []byte
	attemptFn := func() error {
		res, err := nm.Breaker.Execute(func() (interface{}, error) {
			return nm.do(ctx, finalURL)
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			nm.Metrics.UpstreamRequests.WithLabelValues("breaker_open").Inc()
			return backoff.Permanent(helpers.NewNetworkError("market data upstream unavailable", err))
		}
		if err != nil {
			return err
		}

		r := res.(response)
		if r.status < 200 || r.status > 299 {
			return &helpers.HTTPStatusError{StatusCode: r.status, URL: reqURL.Path}
		}
		body = r.body
		return nil
	}

	notify := func(attempt int, err error, wait time.Duration) {
		nm.Logger.Info("Request failed (attempt %d/%d): %v, retrying in %s",
			attempt, nm.Config.Network.MaxRetries+1, err, wait)
	}

	if err := helpers.RetryWithBackoff(ctx, nm.Config.Network.MaxRetries, nm.BaseDelay, attemptFn, notify); err != nil {
		return nil, err
	}
	return body, nil
}

// -----------------------------------------------------------------------------

// do sends one request. Client errors (4xx except 429) come back as a result,
// not an error, so they do not count against the breaker.
func (nm *AsyncNetworkManager) do(ctx context.Context, finalURL string) (response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, finalURL, nil)
	if err != nil {
		return response{}, err
	}

	userAgent := nm.Config.Network.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := nm.Client.Do(req)
	if err != nil {
		nm.Metrics.UpstreamRequests.WithLabelValues("transport_error").Inc()
		return response{}, helpers.NewNetworkError("request failed", err)
	}
	defer resp.Body.Close()

	statusErr := &helpers.HTTPStatusError{StatusCode: resp.StatusCode, URL: req.URL.Path}
	if statusErr.Retryable() {
		nm.Metrics.UpstreamRequests.WithLabelValues("server_error").Inc()
		return response{}, statusErr
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		nm.Metrics.UpstreamRequests.WithLabelValues("client_error").Inc()
		return response{status: resp.StatusCode}, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		nm.Metrics.UpstreamRequests.WithLabelValues("transport_error").Inc()
		return response{}, helpers.NewNetworkError(fmt.Sprintf("read body from %s", req.URL.Path), err)
	}

	nm.Metrics.UpstreamRequests.WithLabelValues("success").Inc()
	return response{status: resp.StatusCode, body: body}, nil
}
