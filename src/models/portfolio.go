package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Lot is the still-unsold remainder of one Buy transaction. Lots are
// rebuilt from scratch on every computation pass and are never persisted.
type Lot struct {
	SequenceID int64           `json:"sequence_id"`
	Symbol     string          `json:"symbol"`
	Date       time.Time       `json:"date"`
	Price      decimal.Decimal `json:"price"`
	Remaining  int64           `json:"remaining"`
}

// RealizedTrade describes one completed Sell matched against prior buy
// lots. SharesMatched can fall short of SharesSold on an oversold ledger;
// in that case AvgBuyPrice covers only what matched and ProfitLoss is
// earned on the matched shares alone. The shortfall is reported separately
// as a LedgerWarning, never as fabricated cost.
type RealizedTrade struct {
	TransactionID  int64           `json:"transaction_id"`
	Date           time.Time       `json:"date"`
	Symbol         string          `json:"symbol"`
	SharesSold     int64           `json:"shares_sold"`
	SharesMatched  int64           `json:"shares_matched"`
	SellPrice      decimal.Decimal `json:"sell_price"`
	TotalSellValue decimal.Decimal `json:"total_sell_value"`
	AvgBuyPrice    decimal.Decimal `json:"avg_buy_price"`
	TotalBuyValue  decimal.Decimal `json:"total_buy_value"`
	ProfitLoss     decimal.Decimal `json:"profit_loss"`
}

// SymbolCost is the aggregated cost of one symbol's remaining lots.
type SymbolCost struct {
	NetShares int64           `json:"net_shares"`
	CostBasis decimal.Decimal `json:"cost_basis"`
}

// CostBasisReport maps each held symbol to its cost of carry, plus the
// grand total across all held symbols.
type CostBasisReport struct {
	BySymbol map[string]SymbolCost `json:"by_symbol"`
	Total    decimal.Decimal       `json:"total"`
}

// Quote lookup status values.
const (
	QuoteStatusOK          = "OK"
	QuoteStatusUnavailable = "UNAVAILABLE"
)

// PriceQuote is the price oracle's answer for one symbol. CurrentPrice and
// PreviousClose are only meaningful when Status is OK.
type PriceQuote struct {
	Symbol        string          `json:"symbol"`
	Status        string          `json:"status"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	PreviousClose decimal.Decimal `json:"previous_close"`
}

// HeldPosition is a currently open position valued at market.
// PercentageChange is nil when the previous close (or the exposure) is
// zero: the day-over-day percentage is undefined there, which is distinct
// from a legitimate 0% move.
type HeldPosition struct {
	Symbol             string           `json:"symbol"`
	ShareName          string           `json:"share_name"`
	NetShares          int64            `json:"net_shares"`
	CostBasis          decimal.Decimal  `json:"cost_basis"`
	AvgBuyingPrice     decimal.Decimal  `json:"avg_buying_price"`
	CurrentPrice       decimal.Decimal  `json:"current_price"`
	PreviousClose      decimal.Decimal  `json:"previous_close"`
	PotentialSaleValue decimal.Decimal  `json:"potential_sale_value"`
	UnrealizedPL       decimal.Decimal  `json:"unrealized_pl"`
	PriceChange        decimal.Decimal  `json:"price_change"`
	PercentageChange   *decimal.Decimal `json:"percentage_change"`
}

// Ledger warning kinds (non-fatal data-quality anomalies).
const (
	WarningOversold            = "OVERSOLD"
	WarningInconsistentHolding = "INCONSISTENT_HOLDING"
)

// LedgerWarning flags a data-quality problem found during a computation
// pass. Warnings ride along with the (still usable) result so the caller
// can decide whether to surface them.
type LedgerWarning struct {
	Kind          string `json:"kind"`
	Symbol        string `json:"symbol"`
	TransactionID int64  `json:"transaction_id,omitempty"`
	Shortfall     int64  `json:"shortfall,omitempty"`
}

// ValuationSummary aggregates the priced held positions. Symbols without a
// usable quote contribute to neither figure.
type ValuationSummary struct {
	UnrealizedProfit decimal.Decimal `json:"unrealized_profit"`
	OneDayReturn     decimal.Decimal `json:"one_day_return"`
}

// PortfolioSnapshot is the complete output of one computation pass over a
// ledger. RealizedProfit is the original cost-inclusive scalar (sell
// revenue minus buy cost plus held cost basis); RealizedTradesTotal is the
// pure sum of per-sale profit/loss. Both are exposed because they answer
// different questions.
type PortfolioSnapshot struct {
	HeldPositions       []HeldPosition  `json:"held_positions"`
	RealizedTrades      []RealizedTrade `json:"realized_trades"`
	RealizedProfit      decimal.Decimal `json:"realized_profit"`
	RealizedTradesTotal decimal.Decimal `json:"realized_trades_total"`
	UnrealizedProfit    decimal.Decimal `json:"unrealized_profit"`
	OneDayReturn        decimal.Decimal `json:"one_day_return"`
	Warnings            []LedgerWarning `json:"warnings"`
}
