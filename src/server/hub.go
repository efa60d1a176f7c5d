package server

import (
	"encoding/json"
	"net/http"
	"time"

	"trading-backend/src/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

// handleWebsockets is the main Hub loop
func (s *APIServer) handleWebsockets() {
	for {
		select {
		case <-s.done:
			for client := range s.clients {
				delete(s.clients, client)
				client.close()
			}
			s.connections.Store(0)
			return

		case client := <-s.register:
			s.clients[client] = struct{}{}
			s.connections.Add(1)
			// Send the full state on connect
			client.trySend(s.snapshot(nil))

		case client := <-s.unregister:
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				client.close()
				s.connections.Add(-1)
			}

		case message := <-s.broadcast:
			for client := range s.clients {
				if !client.trySend(client.filter(message)) {
					// Client too slow, disconnect to keep the hub moving
					delete(s.clients, client)
					client.close()
					s.connections.Add(-1)
				}
			}
		}
	}
}

// -----------------------------------------------------------------------------

func (s *APIServer) connectionCount() int64 {
	return s.connections.Load()
}

// -----------------------------------------------------------------------------
// Data Exchange Interface Implementation
// -----------------------------------------------------------------------------

// UpdateAllDatas merges quotes into the served state without notifying clients
func (s *APIServer) UpdateAllDatas(quotes []models.MQuote) {
	s.merge(quotes)
}

// -----------------------------------------------------------------------------

// Broadcast merges quotes into the served state and queues an UPDATE for every
// client. A full queue drops the update; the state is still merged.
func (s *APIServer) Broadcast(quotes []models.MQuote) {
	if len(quotes) == 0 {
		return
	}
	feed := s.merge(quotes)

	select {
	case <-s.done:
	case s.broadcast <- feed:
	default:
		s.Logger.Warning("Broadcast queue full, dropping update of %d quotes", len(quotes))
	}
}

// -----------------------------------------------------------------------------

func (s *APIServer) merge(quotes []models.MQuote) *models.MQuoteFeed {
	now := time.Now().UnixMilli()
	feed := &models.MQuoteFeed{
		Type:      "UPDATE",
		Quotes:    make(map[string]models.MQuote, len(quotes)),
		Timestamp: now,
	}

	s.stateMutex.Lock()
	defer s.stateMutex.Unlock()

	for _, q := range quotes {
		s.latestState.Quotes[q.Ticker] = q
		feed.Quotes[q.Ticker] = q
	}
	s.latestState.Timestamp = now
	return feed
}

// -----------------------------------------------------------------------------

// snapshot copies the served state, restricted to tickers when given
func (s *APIServer) snapshot(tickers []string) *models.MQuoteFeed {
	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()

	out := &models.MQuoteFeed{
		Type:      "INITIAL",
		Quotes:    make(map[string]models.MQuote),
		Timestamp: s.latestState.Timestamp,
	}
	for ticker, q := range s.latestState.Quotes {
		if len(tickers) == 0 || contains(tickers, ticker) {
			out.Quotes[ticker] = q
		}
	}
	return out
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (s *APIServer) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := &Client{
		hub:  s,
		conn: conn,
		// Buffered channel to prevent blocking the Hub loop
		send: make(chan *models.MQuoteFeed, 256),
	}

	select {
	case s.register <- client:
	case <-s.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

// HandleClientMessage applies a subscribe command and answers with the matching state
func (s *APIServer) HandleClientMessage(client *Client, message []byte) {
	var cmd models.MSubscribeCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		s.Logger.Info("Failed to parse client command: %v, disconnecting client", err)
		client.conn.Close()
		return
	}

	if cmd.Command != "subscribe" {
		return
	}

	client.subscribe(cmd.Tickers)
	client.trySend(s.snapshot(cmd.Tickers))
}
