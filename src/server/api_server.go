package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"trading-backend/src/interfaces"
	"trading-backend/src/logger"
	"trading-backend/src/models"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// -----------------------------------------------------------------------------
// APIServer
// -----------------------------------------------------------------------------

type APIServer struct {
	Config  *models.MConfig
	Logger  *logger.Logger
	Service interfaces.IQuoteService
	engine  *gin.Engine
	http    *http.Server

	// WebSocket clients
	clients     map[*Client]struct{}
	connections atomic.Int64
	broadcast   chan *models.MQuoteFeed
	register    chan *Client
	unregister  chan *Client
	done        chan struct{}
	hubOnce     sync.Once
	stopOnce    sync.Once

	// Quotes served to new websocket clients
	latestState *models.MQuoteFeed
	stateMutex  sync.RWMutex
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

// NewAPIServer builds the REST and websocket surface. gatherer backs /metrics;
// nil serves the default registry.
func NewAPIServer(cfg *models.MConfig, svc interfaces.IQuoteService, gatherer prometheus.Gatherer, log *logger.Logger) *APIServer {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	s := &APIServer{
		Config:  cfg,
		Logger:  log,
		Service: svc,
		engine:  gin.New(),
		clients: make(map[*Client]struct{}),
		// Buffered so a refresh never waits on slow websocket clients
		broadcast:  make(chan *models.MQuoteFeed, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		latestState: &models.MQuoteFeed{
			Type:   "INITIAL",
			Quotes: make(map[string]models.MQuote),
		},
	}

	s.engine.Use(gin.Recovery(), s.requestID(), s.accessLog())

	// Add CORS Middleware
	s.engine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://127.0.0.1:") || strings.HasPrefix(origin, "http://localhost:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	s.setupRoutes(gatherer)
	return s
}

// -----------------------------------------------------------------------------

// Handler exposes the router, mainly for httptest
func (s *APIServer) Handler() http.Handler {
	return s.engine
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

// Start serves HTTP until Stop is called
func (s *APIServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.Logger.Info("Starting server on %s", addr)

	s.StartHub()

	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// -----------------------------------------------------------------------------

// StartHub runs the websocket hub loop once
func (s *APIServer) StartHub() {
	s.hubOnce.Do(func() {
		go s.handleWebsockets()
	})
}

// -----------------------------------------------------------------------------

func (s *APIServer) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		close(s.done)

		if s.http != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			err = s.http.Shutdown(ctx)
		}
		s.Logger.Info("Server stopped")
	})
	return err
}

// -----------------------------------------------------------------------------

func (s *APIServer) getHealth(c *gin.Context) {
	s.stateMutex.RLock()
	timestamp := s.latestState.Timestamp
	quotes := len(s.latestState.Quotes)
	s.stateMutex.RUnlock()

	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"connections":   s.connectionCount(),
		"quotes":        quotes,
		"latest_update": timestamp,
	})
}
