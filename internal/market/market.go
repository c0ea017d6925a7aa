// Package market holds the read-only reference data of a game: the companies
// that can be traded and their pre-seeded price for each of the five days.
package market

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/atmx/stock-game/internal/model"
)

var (
	// ErrPriceNotFound is returned when a price cannot be resolved: unknown
	// company, day outside [1,5], or a non-positive table entry.
	ErrPriceNotFound = errors.New("market: price not found")

	// ErrCompanyNotFound is returned for an unknown company ID.
	ErrCompanyNotFound = errors.New("market: company not found")
)

var hundred = decimal.NewFromInt(100)

// Market indexes a MarketState for lookups. It never mutates the data it was
// built from.
type Market struct {
	companies []model.Company
	byID      map[string]model.Company
	rows      map[string]model.PriceRow
}

// New builds a Market from reference data. Later duplicates of a company or
// price row win.
func New(state model.MarketState) *Market {
	m := &Market{
		companies: append([]model.Company(nil), state.Companies...),
		byID:      make(map[string]model.Company, len(state.Companies)),
		rows:      make(map[string]model.PriceRow, len(state.PriceData)),
	}
	for _, c := range state.Companies {
		m.byID[c.ID] = c
	}
	for _, r := range state.PriceData {
		m.rows[r.CompanyID] = r
	}
	return m
}

// Price returns the table price of companyID on day.
func (m *Market) Price(companyID string, day int) (decimal.Decimal, error) {
	row, ok := m.rows[companyID]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: unknown company %s", ErrPriceNotFound, companyID)
	}
	p, ok := row.OnDay(day)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: day %d out of range", ErrPriceNotFound, day)
	}
	if !p.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: no price for %s on day %d", ErrPriceNotFound, companyID, day)
	}
	return p, nil
}

// Company returns the company with the given ID.
func (m *Market) Company(id string) (model.Company, error) {
	c, ok := m.byID[id]
	if !ok {
		return model.Company{}, fmt.Errorf("%w: %s", ErrCompanyNotFound, id)
	}
	return c, nil
}

// CompanyName returns the display name of id, falling back to the ID itself.
func (m *Market) CompanyName(id string) string {
	if c, ok := m.byID[id]; ok && c.Name != "" {
		return c.Name
	}
	return id
}

// Companies returns the companies in load order.
func (m *Market) Companies() []model.Company {
	return append([]model.Company(nil), m.companies...)
}

// State returns the reference data as a MarketState.
func (m *Market) State() model.MarketState {
	rows := make([]model.PriceRow, 0, len(m.companies))
	seen := make(map[string]bool, len(m.rows))
	for _, c := range m.companies {
		if r, ok := m.rows[c.ID]; ok && !seen[c.ID] {
			rows = append(rows, r)
			seen[c.ID] = true
		}
	}
	for id, r := range m.rows {
		if !seen[id] {
			rows = append(rows, r)
		}
	}
	return model.MarketState{Companies: m.Companies(), PriceData: rows}
}

// PriceHistory returns the resolvable prices of companyID for days 1..upToDay.
// Missing days are skipped.
func (m *Market) PriceHistory(companyID string, upToDay int) []decimal.Decimal {
	if upToDay > model.LastDay {
		upToDay = model.LastDay
	}
	var history []decimal.Decimal
	for day := model.FirstDay; day <= upToDay; day++ {
		if p, err := m.Price(companyID, day); err == nil {
			history = append(history, p)
		}
	}
	return history
}

// DayChange returns the percent change of companyID's price on day against
// the previous day. ok is false on day 1 or when either price is missing.
func (m *Market) DayChange(companyID string, day int) (change decimal.Decimal, ok bool) {
	if day <= model.FirstDay {
		return decimal.Zero, false
	}
	today, err := m.Price(companyID, day)
	if err != nil {
		return decimal.Zero, false
	}
	yesterday, err := m.Price(companyID, day-1)
	if err != nil {
		return decimal.Zero, false
	}
	return today.Sub(yesterday).Div(yesterday).Mul(hundred), true
}

// MaxAffordableShares returns the largest whole number of shares cash can buy
// at price. It is zero for a non-positive price.
func MaxAffordableShares(cash, price decimal.Decimal) decimal.Decimal {
	if !price.IsPositive() || !cash.IsPositive() {
		return decimal.Zero
	}
	return cash.Div(price).Floor()
}
