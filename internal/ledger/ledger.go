// Package ledger applies fills to a portfolio: cash movements, holdings and
// their purchase-lot lineage.
//
// Functions here do not validate game rules (quota, funds); the game engine
// does that before calling them. They do guard their own invariants and
// reject rather than clamp.
package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/atmx/stock-game/internal/model"
)

var (
	// ErrNonPositive is returned for a fill with shares or price <= 0.
	ErrNonPositive = errors.New("ledger: shares and price must be positive")

	// ErrNegativeCash is returned when a debit would leave cash below zero.
	ErrNegativeCash = errors.New("ledger: cash would become negative")

	// ErrNotHeld is returned when selling a company that is not held.
	ErrNotHeld = errors.New("ledger: company not held")

	// ErrOversell is returned when selling more shares than held.
	ErrOversell = errors.New("ledger: not enough shares")
)

// Find returns the index of companyID's holding, or -1.
func Find(p model.Portfolio, companyID string) int {
	for i, h := range p.Holdings {
		if h.CompanyID == companyID {
			return i
		}
	}
	return -1
}

// SharesOwned returns the shares held in companyID, zero when not held.
func SharesOwned(p model.Portfolio, companyID string) decimal.Decimal {
	if i := Find(p, companyID); i >= 0 {
		return p.Holdings[i].Shares
	}
	return decimal.Zero
}

// ApplyBuy debits cash and records lot in the holding for companyID,
// creating the holding when absent. p is modified in place; callers pass a
// copy they own.
func ApplyBuy(p *model.Portfolio, companyID string, lot model.PurchaseLot) error {
	if !lot.Shares.IsPositive() || !lot.Price.IsPositive() {
		return ErrNonPositive
	}
	cost := lot.Cost()
	if cost.GreaterThan(p.Cash) {
		return fmt.Errorf("%w: cost %s, cash %s", ErrNegativeCash, cost, p.Cash)
	}

	i := Find(*p, companyID)
	if i < 0 {
		p.Holdings = append(p.Holdings, model.Holding{CompanyID: companyID})
		i = len(p.Holdings) - 1
	}
	h := &p.Holdings[i]
	h.AveragePrice = WeightedAverage(h.Shares, h.AveragePrice, lot.Shares, lot.Price)
	h.Shares = h.Shares.Add(lot.Shares)
	h.PurchaseHistory = append(h.PurchaseHistory, lot)

	p.Cash = p.Cash.Sub(cost)
	return nil
}

// ApplySell credits cash and decrements the holding for companyID. Purchase
// lots are kept as they are. A holding that reaches zero shares is removed.
func ApplySell(p *model.Portfolio, companyID string, shares, price decimal.Decimal) error {
	if !shares.IsPositive() || !price.IsPositive() {
		return ErrNonPositive
	}
	i := Find(*p, companyID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotHeld, companyID)
	}
	h := &p.Holdings[i]
	if h.Shares.LessThan(shares) {
		return fmt.Errorf("%w: hold %s, selling %s", ErrOversell, h.Shares, shares)
	}

	h.Shares = h.Shares.Sub(shares)
	if h.Shares.IsZero() {
		p.Holdings = append(p.Holdings[:i:i], p.Holdings[i+1:]...)
	}
	p.Cash = p.Cash.Add(shares.Mul(price))
	return nil
}

// WeightedAverage folds a new fill into a running average price:
// (priorShares*priorAvg + shares*price) / (priorShares+shares).
func WeightedAverage(priorShares, priorAvg, shares, price decimal.Decimal) decimal.Decimal {
	total := priorShares.Add(shares)
	if !total.IsPositive() {
		return decimal.Zero
	}
	return priorShares.Mul(priorAvg).Add(shares.Mul(price)).Div(total)
}

// LotCost returns Σ shares*price over every lot the holding ever bought,
// including lots whose shares have since been sold.
func LotCost(h model.Holding) decimal.Decimal {
	total := decimal.Zero
	for _, l := range h.PurchaseHistory {
		total = total.Add(l.Cost())
	}
	return total
}

// LotShares returns Σ shares over every lot the holding ever bought.
func LotShares(h model.Holding) decimal.Decimal {
	total := decimal.Zero
	for _, l := range h.PurchaseHistory {
		total = total.Add(l.Shares)
	}
	return total
}

// ReportedAveragePrice is LotCost divided by the holding's current shares.
// After a partial sell this no longer reflects the cost of the remaining
// shares, because lots are never reduced; it is kept as the figure shown in
// portfolio listings.
func ReportedAveragePrice(h model.Holding) decimal.Decimal {
	if !h.Shares.IsPositive() {
		return decimal.Zero
	}
	return LotCost(h).Div(h.Shares)
}
