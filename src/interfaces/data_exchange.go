package interfaces

import "trading-backend/src/models"

// -----------------------------------------------------------------------------
// IDataExchanger publishes refreshed quotes to external listeners.
// -----------------------------------------------------------------------------

type IDataExchanger interface {
	// -----------------------------------------------------------------------------
	// Broadcast merges quotes into the served state and pushes them to subscribers.
	Broadcast(quotes []models.MQuote)

	// -----------------------------------------------------------------------------
	// UpdateAllDatas updates the served state without broadcasting
	UpdateAllDatas(quotes []models.MQuote)

	// -----------------------------------------------------------------------------
	// Start the server
	Start() error

	// -----------------------------------------------------------------------------
	// Stop the server gracefully
	Stop() error
}
