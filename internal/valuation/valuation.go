// Package valuation marks a portfolio to the price table and records the
// snapshots that make up a game's value history.
package valuation

import (
	"github.com/shopspring/decimal"

	"github.com/atmx/stock-game/internal/model"
)

// PriceSource resolves the table price of a company on a day.
type PriceSource interface {
	Price(companyID string, day int) (decimal.Decimal, error)
}

var hundred = decimal.NewFromInt(100)

// HoldingValue is shares * price on day. An unresolvable price values the
// holding at zero.
func HoldingValue(h model.Holding, day int, prices PriceSource) decimal.Decimal {
	p, err := prices.Price(h.CompanyID, day)
	if err != nil {
		return decimal.Zero
	}
	return h.Shares.Mul(p)
}

// Value returns the holdings value and total value (cash + holdings) of p on day.
func Value(p model.Portfolio, day int, prices PriceSource) (holdingsValue, totalValue decimal.Decimal) {
	holdingsValue = decimal.Zero
	for _, h := range p.Holdings {
		holdingsValue = holdingsValue.Add(HoldingValue(h, day, prices))
	}
	return holdingsValue, p.Cash.Add(holdingsValue)
}

// Snapshot values p on day. preceding is the last snapshot in the history,
// or nil for the first one.
func Snapshot(p model.Portfolio, day int, prices PriceSource, preceding *model.PortfolioSnapshot) model.PortfolioSnapshot {
	holdingsValue, totalValue := Value(p, day, prices)
	return model.PortfolioSnapshot{
		Day:           day,
		Cash:          p.Cash,
		TotalValue:    totalValue,
		HoldingsValue: holdingsValue,
		PercentChange: PercentChange(totalValue, preceding),
	}
}

// PercentChange is the percent delta of total against preceding's total.
// It is null without a preceding snapshot or when the preceding total is zero.
func PercentChange(total decimal.Decimal, preceding *model.PortfolioSnapshot) decimal.NullDecimal {
	if preceding == nil || preceding.TotalValue.IsZero() {
		return decimal.NullDecimal{}
	}
	prev := preceding.TotalValue
	return decimal.NewNullDecimal(total.Sub(prev).Div(prev).Mul(hundred))
}

// Initial is the first snapshot of a game: all cash, nothing invested.
func Initial(capital decimal.Decimal) model.PortfolioSnapshot {
	return model.PortfolioSnapshot{
		Day:           model.FirstDay,
		Cash:          capital,
		TotalValue:    capital,
		HoldingsValue: decimal.Zero,
	}
}

// DailySeries keeps the last snapshot of each day, in day order. History may
// hold several snapshots per day (one per trade); charts want one point.
// PercentChange of each point is against the previous day's close, and null
// on the first day.
func DailySeries(history []model.PortfolioSnapshot) []model.PortfolioSnapshot {
	var series []model.PortfolioSnapshot
	for _, s := range history {
		if n := len(series); n > 0 && series[n-1].Day == s.Day {
			series[n-1] = s
			continue
		}
		series = append(series, s)
	}
	for i := range series {
		if i == 0 {
			series[i].PercentChange = decimal.NullDecimal{}
			continue
		}
		series[i].PercentChange = PercentChange(series[i].TotalValue, &series[i-1])
	}
	return series
}
