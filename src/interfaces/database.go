package interfaces

import "context"

// -----------------------------------------------------------------------------
// IDatabase defines the contract for a storage backend.
// -----------------------------------------------------------------------------

type IDatabase interface {

	// -----------------------------------------------------------------------------

	// Initialize opens the connection and creates missing tables.
	Initialize(ctx context.Context) error

	// -----------------------------------------------------------------------------

	// Quotes returns the quote store bound to this backend.
	Quotes() IQuoteStore

	// Traders and Accounts return the trader and account stores of this backend.
	Traders() ITraderStore
	Accounts() IAccountStore

	// -----------------------------------------------------------------------------

	// Close the database connection
	Close() error
}
