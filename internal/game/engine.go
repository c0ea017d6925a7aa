// Package game implements the trade engine and the day-advancement state
// machine of the five-day game.
//
// Every operation is a function from (state, inputs) to a new state. The
// input state is never modified; on failure it is returned as-is together
// with the error. Callers serialise calls and persist the result.
package game

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atmx/stock-game/internal/ledger"
	"github.com/atmx/stock-game/internal/model"
	"github.com/atmx/stock-game/internal/valuation"
)

var (
	ErrNoTradesRemaining  = errors.New("game: no trades remaining for today")
	ErrInvalidQuantity    = errors.New("game: shares must be positive")
	ErrPriceUnavailable   = errors.New("game: price unavailable")
	ErrInsufficientFunds  = errors.New("game: not enough cash for this purchase")
	ErrInsufficientShares = errors.New("game: not enough shares to sell")

	// ErrFinalDay is returned by Advance once the final day has been reached.
	// The returned state is still valid (it is marked game over).
	ErrFinalDay = errors.New("game: already on the final day")

	ErrInvalidSettings = errors.New("game: invalid settings")
)

// Engine executes trades and advances days. It is stateless apart from its
// clock and ID source; a zero Engine is not usable, use NewEngine.
type Engine struct {
	now   func() time.Time
	newID func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the time source for lots and transactions.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDs sets the transaction ID generator.
func WithIDs(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// NewEngine creates an engine using the wall clock and random UUIDs unless
// overridden.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ValidateSettings checks that capital and the daily quota are positive.
func ValidateSettings(s model.GameSettings) error {
	if !s.StartingCapital.IsPositive() {
		return fmt.Errorf("%w: starting capital must be positive", ErrInvalidSettings)
	}
	if s.TradesPerDay <= 0 {
		return fmt.Errorf("%w: trades per day must be positive", ErrInvalidSettings)
	}
	return nil
}

// NewGame returns the initial state for settings: day 1, all cash, and a
// single opening snapshot.
func (e *Engine) NewGame(settings model.GameSettings) (model.GameState, error) {
	if err := ValidateSettings(settings); err != nil {
		return model.GameState{}, err
	}
	return model.GameState{
		CurrentDay:            model.FirstDay,
		StartingCapital:       settings.StartingCapital,
		Transactions:          []model.Transaction{},
		Portfolio:             model.Portfolio{Cash: settings.StartingCapital, Holdings: []model.Holding{}},
		PortfolioValueHistory: []model.PortfolioSnapshot{valuation.Initial(settings.StartingCapital)},
		DailyTradesRemaining:  settings.TradesPerDay,
	}, nil
}

// Buy purchases shares of companyID at the current day's price.
func (e *Engine) Buy(state model.GameState, prices valuation.PriceSource, companyID string, shares decimal.Decimal) (model.GameState, error) {
	if state.DailyTradesRemaining <= 0 {
		return state, ErrNoTradesRemaining
	}
	if !shares.IsPositive() {
		return state, ErrInvalidQuantity
	}
	price, err := prices.Price(companyID, state.CurrentDay)
	if err != nil || !price.IsPositive() {
		return state, fmt.Errorf("%w: %s on day %d", ErrPriceUnavailable, companyID, state.CurrentDay)
	}
	cost := shares.Mul(price)
	if cost.GreaterThan(state.Portfolio.Cash) {
		return state, fmt.Errorf("%w: cost %s, cash %s", ErrInsufficientFunds, cost.StringFixed(2), state.Portfolio.Cash.StringFixed(2))
	}

	at := e.now()
	next := state.Clone()
	lot := model.PurchaseLot{Shares: shares, Price: price, Day: state.CurrentDay, Timestamp: at}
	if err := ledger.ApplyBuy(&next.Portfolio, companyID, lot); err != nil {
		return state, fmt.Errorf("%w: %v", ErrInsufficientFunds, err)
	}

	e.record(&next, model.Buy, companyID, shares, price, prices, at)
	return next, nil
}

// Sell sells shares of companyID at the current day's price.
func (e *Engine) Sell(state model.GameState, prices valuation.PriceSource, companyID string, shares decimal.Decimal) (model.GameState, error) {
	if state.DailyTradesRemaining <= 0 {
		return state, ErrNoTradesRemaining
	}
	if !shares.IsPositive() {
		return state, ErrInvalidQuantity
	}
	owned := ledger.SharesOwned(state.Portfolio, companyID)
	if ledger.Find(state.Portfolio, companyID) < 0 || owned.LessThan(shares) {
		return state, fmt.Errorf("%w: own %s of %s", ErrInsufficientShares, owned, companyID)
	}
	price, err := prices.Price(companyID, state.CurrentDay)
	if err != nil || !price.IsPositive() {
		return state, fmt.Errorf("%w: %s on day %d", ErrPriceUnavailable, companyID, state.CurrentDay)
	}

	next := state.Clone()
	if err := ledger.ApplySell(&next.Portfolio, companyID, shares, price); err != nil {
		return state, fmt.Errorf("%w: %v", ErrInsufficientShares, err)
	}

	e.record(&next, model.Sell, companyID, shares, price, prices, e.now())
	return next, nil
}

// record appends the transaction and the post-trade snapshot, and uses up
// one of today's trades.
func (e *Engine) record(s *model.GameState, typ model.TradeType, companyID string, shares, price decimal.Decimal, prices valuation.PriceSource, at time.Time) {
	s.Transactions = append(s.Transactions, model.Transaction{
		ID:        e.newID(),
		Type:      typ,
		CompanyID: companyID,
		Shares:    shares,
		Price:     price,
		Day:       s.CurrentDay,
		Timestamp: at,
	})
	s.PortfolioValueHistory = append(s.PortfolioValueHistory,
		valuation.Snapshot(s.Portfolio, s.CurrentDay, prices, s.LastSnapshot()))
	s.DailyTradesRemaining--
}
