package models

// -----------------------------------------------------------------------------
// Websocket quote feed payload
// -----------------------------------------------------------------------------

type MQuoteFeed struct {
	Type      string            `json:"type"` // "INITIAL" or "UPDATE"
	Quotes    map[string]MQuote `json:"quotes"`
	Timestamp int64             `json:"timestamp"`
}

// -----------------------------------------------------------------------------
// SubscribeCommand for client messages
// -----------------------------------------------------------------------------

type MSubscribeCommand struct {
	Command string   `json:"command"`
	Tickers []string `json:"tickers"`
}
