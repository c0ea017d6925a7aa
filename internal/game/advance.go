package game

import (
	"fmt"

	"github.com/atmx/stock-game/internal/model"
	"github.com/atmx/stock-game/internal/valuation"
)

// Advance moves the game to the next day: the unchanged portfolio is valued
// at the new day's prices and the daily quota is reset to tradesPerDay.
// Reaching day 5 ends the game. From day 5 onwards Advance only marks the
// game over and returns ErrFinalDay; it appends no snapshot.
func (e *Engine) Advance(state model.GameState, prices valuation.PriceSource, tradesPerDay int) (model.GameState, error) {
	if state.CurrentDay >= model.LastDay {
		next := state.Clone()
		next.IsGameOver = true
		return next, ErrFinalDay
	}
	if tradesPerDay <= 0 {
		return state, fmt.Errorf("%w: trades per day must be positive", ErrInvalidSettings)
	}

	next := state.Clone()
	next.CurrentDay = state.CurrentDay + 1
	next.PortfolioValueHistory = append(next.PortfolioValueHistory,
		valuation.Snapshot(next.Portfolio, next.CurrentDay, prices, state.LastSnapshot()))
	next.DailyTradesRemaining = tradesPerDay
	next.IsGameOver = next.CurrentDay == model.LastDay
	return next, nil
}
