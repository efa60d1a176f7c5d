package interfaces

import (
	"context"

	"trading-backend/src/models"

	"github.com/shopspring/decimal"
)

// -----------------------------------------------------------------------------
// ITraderStore persists traders keyed by generated id.
// -----------------------------------------------------------------------------

type ITraderStore interface {

	// Save inserts the trader and returns it with its generated id.
	Save(ctx context.Context, trader models.MTrader) (models.MTrader, error)

	// FindByID returns false when no trader has id.
	FindByID(ctx context.Context, id int64) (models.MTrader, bool, error)

	Exists(ctx context.Context, id int64) (bool, error)

	Count(ctx context.Context) (int64, error)
}

// -----------------------------------------------------------------------------
// IAccountStore persists cash accounts, at most one per trader.
// -----------------------------------------------------------------------------

type IAccountStore interface {

	// Save opens an account for a stored trader that holds none yet.
	Save(ctx context.Context, account models.MAccount) (models.MAccount, error)

	FindByID(ctx context.Context, id int64) (models.MAccount, bool, error)

	// FindByTraderID returns false when the trader holds no account.
	FindByTraderID(ctx context.Context, traderID int64) (models.MAccount, bool, error)

	ExistsByTraderID(ctx context.Context, traderID int64) (bool, error)

	// -----------------------------------------------------------------------------

	// UpdateAmountByID sets the amount and reads the row back to confirm it.
	UpdateAmountByID(ctx context.Context, id int64, amount decimal.Decimal) (models.MAccount, error)

	// DeleteByTraderID fails with an invalid argument error when the trader holds no account.
	DeleteByTraderID(ctx context.Context, traderID int64) error

	Count(ctx context.Context) (int64, error)
}
