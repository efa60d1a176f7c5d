package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MTrader represents a row of the trader table. ID is generated on insert.
type MTrader struct {
	ID        int64     `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Dob       time.Time `json:"dob"`
	Country   string    `json:"country"`
	Email     string    `json:"email"`
}

// -----------------------------------------------------------------------------

// MAccount is the cash account of one trader
type MAccount struct {
	ID       int64           `json:"id"`
	TraderID int64           `json:"traderId"`
	Amount   decimal.Decimal `json:"amount"`
}
