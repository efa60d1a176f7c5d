package server

import (
	"sync"
	"time"

	"trading-backend/src/models"

	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Constants
// -----------------------------------------------------------------------------

const (
	writeWait      = 2 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// -----------------------------------------------------------------------------
// Client Structure
// -----------------------------------------------------------------------------

type Client struct {
	hub  *APIServer
	conn *websocket.Conn
	send chan *models.MQuoteFeed

	mu      sync.RWMutex
	tickers []string // empty means every ticker
	closed  bool
}

// -----------------------------------------------------------------------------

func (c *Client) subscribe(tickers []string) {
	c.mu.Lock()
	c.tickers = append([]string(nil), tickers...)
	c.mu.Unlock()
}

// -----------------------------------------------------------------------------

// trySend queues a feed without blocking. It reports false when the buffer is
// full or the client is closed.
func (c *Client) trySend(feed *models.MQuoteFeed) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- feed:
		return true
	default:
		return false
	}
}

// -----------------------------------------------------------------------------

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// -----------------------------------------------------------------------------

// filter narrows a feed to the client's subscription
func (c *Client) filter(feed *models.MQuoteFeed) *models.MQuoteFeed {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.tickers) == 0 {
		return feed
	}

	out := &models.MQuoteFeed{Type: feed.Type, Quotes: make(map[string]models.MQuote), Timestamp: feed.Timestamp}
	for ticker, q := range feed.Quotes {
		if contains(c.tickers, ticker) {
			out.Quotes[ticker] = q
		}
	}
	return out
}

// -----------------------------------------------------------------------------
// readPump - handles incoming messages from client
// Act as a Watchdog for the connection
// -----------------------------------------------------------------------------

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
		c.hub.Logger.Debug("Client disconnected")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.Logger.Info("WebSocket error: %v", err)
			}
			break
		}
		c.hub.HandleClientMessage(c, message)
	}
}

// -----------------------------------------------------------------------------
// writePump - sends messages to client
// -----------------------------------------------------------------------------

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.hub.Logger.Info("Write error: %v", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
