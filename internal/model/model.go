// Package model defines the core domain types shared across the game.
// All monetary values, prices and share counts use shopspring/decimal.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// First and last trading day of a game.
const (
	FirstDay = 1
	LastDay  = 5
)

// TradeType is the direction of a fill.
type TradeType string

const (
	Buy  TradeType = "buy"
	Sell TradeType = "sell"
)

// Company is static reference data, keyed by ID.
type Company struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Ticker      string `json:"ticker"`
	Sector      string `json:"sector"`
	Description string `json:"description"`
}

// PriceRow holds the pre-seeded closing price of one company for each day.
type PriceRow struct {
	CompanyID string          `json:"companyId"`
	Day1Price decimal.Decimal `json:"day1Price"`
	Day2Price decimal.Decimal `json:"day2Price"`
	Day3Price decimal.Decimal `json:"day3Price"`
	Day4Price decimal.Decimal `json:"day4Price"`
	Day5Price decimal.Decimal `json:"day5Price"`
}

// OnDay returns the row's price for day, and false when day is outside [1,5].
func (r PriceRow) OnDay(day int) (decimal.Decimal, bool) {
	switch day {
	case 1:
		return r.Day1Price, true
	case 2:
		return r.Day2Price, true
	case 3:
		return r.Day3Price, true
	case 4:
		return r.Day4Price, true
	case 5:
		return r.Day5Price, true
	}
	return decimal.Zero, false
}

// MarketState is the full reference data set: companies and their prices.
type MarketState struct {
	Companies []Company  `json:"companies"`
	PriceData []PriceRow `json:"priceData"`
}

// PurchaseLot is an immutable record of one buy fill. Lots are never pruned,
// even after the shares they bought have been sold.
type PurchaseLot struct {
	Shares    decimal.Decimal `json:"shares"`
	Price     decimal.Decimal `json:"price"`
	Day       int             `json:"day"`
	Timestamp time.Time       `json:"timestamp"`
}

// Cost is shares * price.
func (l PurchaseLot) Cost() decimal.Decimal {
	return l.Shares.Mul(l.Price)
}

// Holding is the aggregate position in one company.
type Holding struct {
	CompanyID       string          `json:"companyId"`
	Shares          decimal.Decimal `json:"shares"`
	AveragePrice    decimal.Decimal `json:"averagePrice"` // weighted cost basis, updated on buys only
	PurchaseHistory []PurchaseLot   `json:"purchaseHistory"`
}

// Portfolio is cash plus one holding per company, in first-purchase order.
type Portfolio struct {
	Cash     decimal.Decimal `json:"cash"`
	Holdings []Holding       `json:"holdings"`
}

// Transaction is an immutable record of a fill.
type Transaction struct {
	ID        string          `json:"id"`
	Type      TradeType       `json:"type"`
	CompanyID string          `json:"companyId"`
	Shares    decimal.Decimal `json:"shares"`
	Price     decimal.Decimal `json:"price"`
	Day       int             `json:"day"`
	Timestamp time.Time       `json:"timestamp"`
}

// Amount is shares * price.
func (t Transaction) Amount() decimal.Decimal {
	return t.Shares.Mul(t.Price)
}

// PortfolioSnapshot is a point-in-time valuation of the whole portfolio.
// PercentChange is null for the first snapshot or when the preceding total
// was zero.
type PortfolioSnapshot struct {
	Day           int                 `json:"day"`
	Cash          decimal.Decimal     `json:"cash"`
	TotalValue    decimal.Decimal     `json:"totalValue"`
	HoldingsValue decimal.Decimal     `json:"holdingsValue"`
	PercentChange decimal.NullDecimal `json:"percentChange"`
}

// GameState is the whole state of one game.
type GameState struct {
	CurrentDay            int                 `json:"currentDay"`
	StartingCapital       decimal.Decimal     `json:"startingCapital"`
	Transactions          []Transaction       `json:"transactions"`
	Portfolio             Portfolio           `json:"portfolio"`
	PortfolioValueHistory []PortfolioSnapshot `json:"portfolioValueHistory"`
	DailyTradesRemaining  int                 `json:"dailyTradesRemaining"`
	IsGameOver            bool                `json:"isGameOver"`
}

// LastSnapshot returns the most recent snapshot, or nil when history is empty.
func (s *GameState) LastSnapshot() *PortfolioSnapshot {
	if len(s.PortfolioValueHistory) == 0 {
		return nil
	}
	snap := s.PortfolioValueHistory[len(s.PortfolioValueHistory)-1]
	return &snap
}

// Clone returns a deep copy whose slices share nothing with s.
func (s GameState) Clone() GameState {
	out := s
	out.Transactions = make([]Transaction, len(s.Transactions))
	copy(out.Transactions, s.Transactions)
	out.PortfolioValueHistory = make([]PortfolioSnapshot, len(s.PortfolioValueHistory))
	copy(out.PortfolioValueHistory, s.PortfolioValueHistory)
	out.Portfolio.Holdings = make([]Holding, len(s.Portfolio.Holdings))
	for i, h := range s.Portfolio.Holdings {
		lots := make([]PurchaseLot, len(h.PurchaseHistory))
		copy(lots, h.PurchaseHistory)
		h.PurchaseHistory = lots
		out.Portfolio.Holdings[i] = h
	}
	return out
}

// GameSettings configures a new game. Persisted independently of GameState.
type GameSettings struct {
	StartingCapital decimal.Decimal `json:"startingCapital"`
	TradesPerDay    int             `json:"tradesPerDay"`
}

// DefaultSettings are used when no settings have been saved.
func DefaultSettings() GameSettings {
	return GameSettings{
		StartingCapital: decimal.NewFromInt(10000),
		TradesPerDay:    3,
	}
}
