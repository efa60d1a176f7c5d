package server

import (
	"net/http"

	"trading-backend/src/helpers"
	"trading-backend/src/models"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *APIServer) setupRoutes(gatherer prometheus.Gatherer) {
	quote := s.engine.Group("/quote")
	{
		quote.GET("/dailyList", s.getDailyList)
		quote.GET("/iex/ticker/:ticker", s.getIexQuote)
		quote.POST("/tickerId/:ticker", s.postTicker)
		quote.POST("/tickers", s.postTickers)
		quote.PUT("/iexMarketData", s.putMarketData)
		quote.PUT("/", s.putQuote)
	}

	s.engine.GET("/api/health", s.getHealth)
	s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	// WebSocket endpoint
	s.engine.GET("/ws", s.handleWebSocket)
}

// -----------------------------------------------------------------------------
// Quote Handlers
// -----------------------------------------------------------------------------

type tickersRequest struct {
	Tickers []string `json:"tickers"`
}

// -----------------------------------------------------------------------------

func (s *APIServer) getDailyList(c *gin.Context) {
	quotes, err := s.Service.FindAllQuotes(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, quotes)
}

// -----------------------------------------------------------------------------

func (s *APIServer) getIexQuote(c *gin.Context) {
	quote, err := s.Service.FindIexQuoteByTicker(c.Request.Context(), c.Param("ticker"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

// -----------------------------------------------------------------------------

func (s *APIServer) postTicker(c *gin.Context) {
	quote, err := s.Service.SaveQuote(c.Request.Context(), c.Param("ticker"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.Broadcast([]models.MQuote{quote})
	c.JSON(http.StatusCreated, quote)
}

// -----------------------------------------------------------------------------

func (s *APIServer) postTickers(c *gin.Context) {
	var req tickersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, helpers.NewInvalidArgument("body", err.Error()))
		return
	}
	if len(req.Tickers) == 0 {
		s.writeError(c, helpers.NewInvalidArgument("tickers", "at least one ticker is required"))
		return
	}

	quotes, err := s.Service.SaveQuotes(c.Request.Context(), req.Tickers)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.Broadcast(quotes)
	c.JSON(http.StatusCreated, quotes)
}

// -----------------------------------------------------------------------------

func (s *APIServer) putMarketData(c *gin.Context) {
	quotes, err := s.Service.UpdateMarketData(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.Broadcast(quotes)
	c.JSON(http.StatusOK, quotes)
}

// -----------------------------------------------------------------------------

func (s *APIServer) putQuote(c *gin.Context) {
	var quote models.MQuote
	if err := c.ShouldBindJSON(&quote); err != nil {
		s.writeError(c, helpers.NewInvalidArgument("body", err.Error()))
		return
	}

	saved, err := s.Service.SaveQuoteRecord(c.Request.Context(), quote)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.Broadcast([]models.MQuote{saved})
	c.JSON(http.StatusOK, saved)
}
