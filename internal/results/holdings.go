package results

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/atmx/stock-game/internal/ledger"
	"github.com/atmx/stock-game/internal/market"
	"github.com/atmx/stock-game/internal/model"
	"github.com/atmx/stock-game/internal/valuation"
)

// HoldingSummary is one row of the portfolio listing.
//
// AveragePrice and GainLoss are computed from every purchase lot, including
// lots whose shares were later sold. After a partial sell they overstate the
// cost of the remaining shares.
type HoldingSummary struct {
	CompanyID       string          `json:"companyId"`
	Name            string          `json:"name"`
	Ticker          string          `json:"ticker"`
	Sector          string          `json:"sector"`
	Shares          decimal.Decimal `json:"shares"`
	CurrentPrice    decimal.Decimal `json:"currentPrice"`
	CurrentValue    decimal.Decimal `json:"currentValue"`
	AveragePrice    decimal.Decimal `json:"averagePrice"`
	CostBasis       decimal.Decimal `json:"costBasis"`
	GainLoss        decimal.Decimal `json:"gainLoss"`
	GainLossPercent decimal.Decimal `json:"gainLossPercent"`
}

// Holdings summarises each holding at the current day's price.
func Holdings(state model.GameState, m *market.Market) []HoldingSummary {
	day := min(state.CurrentDay, model.LastDay)
	out := make([]HoldingSummary, 0, len(state.Portfolio.Holdings))
	for _, h := range state.Portfolio.Holdings {
		price, err := m.Price(h.CompanyID, day)
		if err != nil {
			price = decimal.Zero
		}
		value := valuation.HoldingValue(h, day, m)
		cost := ledger.LotCost(h)
		gain := value.Sub(cost)

		pct := decimal.Zero
		if cost.IsPositive() {
			pct = gain.Div(cost).Mul(hundred)
		}

		s := HoldingSummary{
			CompanyID:       h.CompanyID,
			Name:            m.CompanyName(h.CompanyID),
			Ticker:          h.CompanyID,
			Shares:          h.Shares,
			CurrentPrice:    price,
			CurrentValue:    value,
			AveragePrice:    ledger.ReportedAveragePrice(h),
			CostBasis:       cost,
			GainLoss:        gain,
			GainLossPercent: pct,
		}
		if c, err := m.Company(h.CompanyID); err == nil {
			s.Ticker = c.Ticker
			s.Sector = c.Sector
		}
		out = append(out, s)
	}
	return out
}

// SectorWeight is the share of holdings value invested in one sector.
type SectorWeight struct {
	Sector string          `json:"sector"`
	Value  decimal.Decimal `json:"value"`
	Share  decimal.Decimal `json:"share"` // percent of total holdings value
}

const unknownSector = "Other"

// SectorExposure groups the current holdings value by company sector,
// largest first. Companies without a sector are grouped as "Other". Share is
// zero for every sector when nothing is invested.
func SectorExposure(state model.GameState, m *market.Market) []SectorWeight {
	day := min(state.CurrentDay, model.LastDay)

	bySector := make(map[string]decimal.Decimal)
	var order []string
	total := decimal.Zero
	for _, h := range state.Portfolio.Holdings {
		sector := unknownSector
		if c, err := m.Company(h.CompanyID); err == nil && c.Sector != "" {
			sector = c.Sector
		}
		if _, ok := bySector[sector]; !ok {
			order = append(order, sector)
		}
		v := valuation.HoldingValue(h, day, m)
		bySector[sector] = bySector[sector].Add(v)
		total = total.Add(v)
	}

	out := make([]SectorWeight, 0, len(order))
	for _, sector := range order {
		w := SectorWeight{Sector: sector, Value: bySector[sector], Share: decimal.Zero}
		if total.IsPositive() {
			w.Share = w.Value.Div(total).Mul(hundred)
		}
		out = append(out, w)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Value.GreaterThan(out[j].Value)
	})
	return out
}
