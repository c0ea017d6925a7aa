package main

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/atmx/stock-game/internal/market"
	"github.com/atmx/stock-game/internal/model"
	"github.com/atmx/stock-game/internal/results"
	"github.com/atmx/stock-game/internal/trade"
)

func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func TestStatusMarkdown(t *testing.T) {
	st := model.GameState{
		CurrentDay:           2,
		DailyTradesRemaining: 3,
		Portfolio:            model.Portfolio{Cash: d(9428)},
		PortfolioValueHistory: []model.PortfolioSnapshot{
			{Day: 1, TotalValue: d(10000)},
			{Day: 2, TotalValue: d(10013), PercentChange: decimal.NewNullDecimal(d(0.13))},
		},
	}
	holdings := []results.HoldingSummary{{
		Name: "Emaar Properties", Ticker: "EMAAR", Shares: d(100),
		AveragePrice: d(5.72), CurrentPrice: d(5.85), CurrentValue: d(585), GainLossPercent: d(2.27),
	}}

	md := statusMarkdown(st, holdings)
	for _, want := range []string{
		"# Day 2 of 5",
		"| 9428.00 | 10013.00 | +0.13% | 3 |",
		"| Emaar Properties (EMAAR) | 100 | 5.72 | 5.85 | 585.00 | +2.27% |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("missing %q in:\n%s", want, md)
		}
	}
}

func TestStatusMarkdown_GameOverWithoutSnapshots(t *testing.T) {
	st := model.GameState{CurrentDay: 5, IsGameOver: true, Portfolio: model.Portfolio{Cash: d(50)}}

	md := statusMarkdown(st, nil)
	if !strings.Contains(md, "(game over)") {
		t.Errorf("expected game over title, got:\n%s", md)
	}
	if !strings.Contains(md, "| 50.00 | 50.00 | - | 0 |") {
		t.Errorf("expected cash as value and no change, got:\n%s", md)
	}
	if strings.Contains(md, "## Holdings") {
		t.Error("no holdings section expected")
	}
}

func TestMarketMarkdown(t *testing.T) {
	md := marketMarkdown(market.New(market.Default()), 2)
	// EMAAR 5.72 -> 5.85
	if !strings.Contains(md, "| EMAAR | Emaar Properties | Real Estate | 5.85 | +2.27% |") {
		t.Errorf("unexpected market table:\n%s", md)
	}
}

func TestCompanyMarkdown(t *testing.T) {
	co := trade.CompanyResponse{
		Company:       model.Company{ID: "DIB", Name: "Dubai Islamic Bank", Ticker: "DIB", Sector: "Banking"},
		Day:           1,
		Price:         decimal.NewNullDecimal(d(4.89)),
		History:       []decimal.Decimal{d(4.89)},
		SharesOwned:   decimal.Zero,
		MaxAffordable: d(2044),
	}
	md := companyMarkdown(co)
	for _, want := range []string{"# Dubai Islamic Bank (DIB)", "Day 1 price: **4.89** (-)", "afford 2044 more", "| 1 | 4.89 |"} {
		if !strings.Contains(md, want) {
			t.Errorf("missing %q in:\n%s", want, md)
		}
	}
}
