package models

import "github.com/shopspring/decimal"

// MQuote represents a row of the quote table. Ticker is the primary key.
type MQuote struct {
	Ticker    string          `json:"ticker"`
	LastPrice decimal.Decimal `json:"lastPrice"`
	BidPrice  decimal.Decimal `json:"bidPrice"`
	BidSize   int64           `json:"bidSize"`
	AskPrice  decimal.Decimal `json:"askPrice"`
	AskSize   int64           `json:"askSize"`
}

// -----------------------------------------------------------------------------

// MIexQuote is a quote snapshot as returned by IEX Cloud.
// Price and size fields are null while the market is closed.
type MIexQuote struct {
	Symbol          string           `json:"symbol"`
	CompanyName     string           `json:"companyName,omitempty"`
	PrimaryExchange string           `json:"primaryExchange,omitempty"`
	LatestSource    string           `json:"latestSource,omitempty"`
	LatestUpdate    int64            `json:"latestUpdate,omitempty"`
	LatestPrice     *decimal.Decimal `json:"latestPrice"`
	IexBidPrice     *decimal.Decimal `json:"iexBidPrice"`
	IexBidSize      *int64           `json:"iexBidSize"`
	IexAskPrice     *decimal.Decimal `json:"iexAskPrice"`
	IexAskSize      *int64           `json:"iexAskSize"`
	IsUSMarketOpen  bool             `json:"isUSMarketOpen,omitempty"`
}
