// Package results computes the end-of-game analytics: profit and loss, the
// best and worst buy, qualitative feedback and improvement tips.
//
// Every function degrades to zero values rather than failing; analytics are
// read-only views over a finished (or in-progress) game.
package results

import (
	"github.com/shopspring/decimal"

	"github.com/atmx/stock-game/internal/model"
	"github.com/atmx/stock-game/internal/valuation"
)

var (
	hundred = decimal.NewFromInt(100)
	half    = decimal.NewFromFloat(0.5)
)

// PnL is the overall result of a game.
type PnL struct {
	Amount     decimal.Decimal `json:"amount"`
	Percentage decimal.Decimal `json:"percentage"`
}

// ProfitLoss compares the last recorded total value with the starting
// capital. It is zero when the history is empty; the percentage is zero when
// the starting capital is.
func ProfitLoss(state model.GameState) PnL {
	last := state.LastSnapshot()
	if last == nil {
		return PnL{Amount: decimal.Zero, Percentage: decimal.Zero}
	}
	amount := last.TotalValue.Sub(state.StartingCapital)
	if state.StartingCapital.IsZero() {
		return PnL{Amount: amount, Percentage: decimal.Zero}
	}
	return PnL{Amount: amount, Percentage: amount.Div(state.StartingCapital).Mul(hundred)}
}

// TradeExtremes holds the buys with the highest and lowest return to the
// final day's price.
type TradeExtremes struct {
	BestTrade   *model.Transaction `json:"bestTrade"`
	WorstTrade  *model.Transaction `json:"worstTrade"`
	BestReturn  decimal.Decimal    `json:"bestReturn"`
	WorstReturn decimal.Decimal    `json:"worstReturn"`
}

// finalPrice is the day-5 price of companyID, or zero when it is missing.
func finalPrice(prices valuation.PriceSource, companyID string) decimal.Decimal {
	p, err := prices.Price(companyID, model.LastDay)
	if err != nil {
		return decimal.Zero
	}
	return p
}

// TradeReturn is the percent return of a buy held to the final day.
func TradeReturn(t model.Transaction, prices valuation.PriceSource) decimal.Decimal {
	if !t.Price.IsPositive() {
		return decimal.Zero
	}
	return finalPrice(prices, t.CompanyID).Sub(t.Price).Div(t.Price).Mul(hundred)
}

// BestAndWorstTrade ranks buy transactions by TradeReturn. Sells are not
// ranked. On ties the earlier transaction is kept. With no buys both trades
// are nil and both returns zero.
func BestAndWorstTrade(state model.GameState, prices valuation.PriceSource) TradeExtremes {
	out := TradeExtremes{BestReturn: decimal.Zero, WorstReturn: decimal.Zero}
	for i := range state.Transactions {
		t := state.Transactions[i]
		if t.Type != model.Buy {
			continue
		}
		r := TradeReturn(t, prices)
		if out.BestTrade == nil || r.GreaterThan(out.BestReturn) {
			out.BestTrade, out.BestReturn = &t, r
		}
		if out.WorstTrade == nil || r.LessThan(out.WorstReturn) {
			out.WorstTrade, out.WorstReturn = &t, r
		}
	}
	return out
}

var feedbackBands = []struct {
	min     decimal.Decimal
	message string
}{
	{decimal.NewFromInt(20), "Exceptional! You have a natural talent for investing. Your strategic decisions led to outstanding returns!"},
	{decimal.NewFromInt(10), "Great job! You made smart investment choices and achieved very good returns."},
	{decimal.NewFromInt(5), "Good work! Your portfolio performed well with solid investment choices."},
	{decimal.Zero, "You ended with a profit, which is a good start. With practice, you can improve your returns even more!"},
	{decimal.NewFromInt(-5), "You had a small loss, but that's part of learning. Look at which stocks performed well to improve next time."},
	{decimal.NewFromInt(-15), "This was a challenging game. Review your decisions and learn from the market patterns for better results next time."},
}

const lowestFeedback = "Investing can be difficult! Don't be discouraged, analyze what went wrong and try different strategies next time."

// Feedback returns the qualitative message for a final percentage return.
func Feedback(percentage decimal.Decimal) string {
	for _, b := range feedbackBands {
		if percentage.GreaterThanOrEqual(b.min) {
			return b.message
		}
	}
	return lowestFeedback
}

// Tip messages, in the order they are reported.
const (
	TipTradeMore     = "Try making more trades to take advantage of price movements."
	TipDiversify     = "Diversify your portfolio by investing in multiple companies to reduce risk."
	TipSoldWinners   = "You sold some stocks that continued to rise. Consider holding winning positions longer."
	TipKeptLosers    = "Some stocks in your final portfolio lost value. Be ready to sell underperforming stocks."
	TipIdleCash      = "You kept a lot of cash uninvested. Consider putting more money to work in the market."
	TipBalanced      = "You made balanced trading decisions. Keep refining your strategy!"
	minTradesForTips = 5
)

// Tips returns improvement tips for the game. There is always at least one.
func Tips(state model.GameState, prices valuation.PriceSource) []string {
	var tips []string

	if len(state.Transactions) < minTradesForTips {
		tips = append(tips, TipTradeMore)
	}
	if len(state.Portfolio.Holdings) <= 1 && len(state.Transactions) > 0 {
		tips = append(tips, TipDiversify)
	}

	for _, t := range state.Transactions {
		if t.Type == model.Sell && finalPrice(prices, t.CompanyID).GreaterThan(t.Price) {
			tips = append(tips, TipSoldWinners)
			break
		}
	}

	for _, h := range state.Portfolio.Holdings {
		if len(h.PurchaseHistory) == 0 {
			continue
		}
		if finalPrice(prices, h.CompanyID).LessThan(h.PurchaseHistory[0].Price) {
			tips = append(tips, TipKeptLosers)
			break
		}
	}

	if state.Portfolio.Cash.GreaterThan(state.StartingCapital.Mul(half)) {
		tips = append(tips, TipIdleCash)
	}

	if len(tips) == 0 {
		tips = append(tips, TipBalanced)
	}
	return tips
}
