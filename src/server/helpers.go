package server

import (
	"errors"
	"net/http"
	"time"

	"trading-backend/src/helpers"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "requestID"
)

// -----------------------------------------------------------------------------
// Middleware
// -----------------------------------------------------------------------------

// requestID keeps an incoming X-Request-ID or assigns a new one
func (s *APIServer) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// -----------------------------------------------------------------------------

func (s *APIServer) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		s.Logger.Info("%s %s %d %s rid=%s",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(started), c.GetString(requestIDKey))
	}
}

// -----------------------------------------------------------------------------
// Error Mapping
// -----------------------------------------------------------------------------

// statusFor maps the error taxonomy onto HTTP status codes
func statusFor(err error) int {
	var invalid *helpers.InvalidArgumentError
	var notFound *helpers.TickerNotFoundError
	var persistence *helpers.PersistenceError

	switch {
	case errors.As(err, &invalid):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &persistence):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// -----------------------------------------------------------------------------

func (s *APIServer) writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.Logger.Error("%s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	}

	c.JSON(status, gin.H{
		"error":     err.Error(),
		"status":    status,
		"requestId": c.GetString(requestIDKey),
	})
}

// -----------------------------------------------------------------------------

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
