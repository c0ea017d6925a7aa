package results

import (
	"github.com/shopspring/decimal"

	"github.com/atmx/stock-game/internal/market"
	"github.com/atmx/stock-game/internal/model"
	"github.com/atmx/stock-game/internal/valuation"
)

// Trade is a ranked buy with its company name resolved.
type Trade struct {
	model.Transaction
	CompanyName string          `json:"companyName"`
	Return      decimal.Decimal `json:"return"`
}

// Report is the complete results view of a game.
type Report struct {
	Day             int                       `json:"day"`
	IsGameOver      bool                      `json:"isGameOver"`
	StartingCapital decimal.Decimal           `json:"startingCapital"`
	FinalValue      decimal.Decimal           `json:"finalValue"`
	Cash            decimal.Decimal           `json:"cash"`
	ProfitLoss      PnL                       `json:"profitLoss"`
	BestTrade       *Trade                    `json:"bestTrade"`
	WorstTrade      *Trade                    `json:"worstTrade"`
	Feedback        string                    `json:"feedback"`
	Tips            []string                  `json:"tips"`
	Holdings        []HoldingSummary          `json:"holdings"`
	Sectors         []SectorWeight            `json:"sectors"`
	Daily           []model.PortfolioSnapshot `json:"daily"`
	Transactions    int                       `json:"transactions"`
}

// Build assembles the report for state against market m.
func Build(state model.GameState, m *market.Market) Report {
	pnl := ProfitLoss(state)
	extremes := BestAndWorstTrade(state, m)

	r := Report{
		Day:             state.CurrentDay,
		IsGameOver:      state.IsGameOver,
		StartingCapital: state.StartingCapital,
		FinalValue:      state.StartingCapital,
		Cash:            state.Portfolio.Cash,
		ProfitLoss:      pnl,
		Feedback:        Feedback(pnl.Percentage),
		Tips:            Tips(state, m),
		Holdings:        Holdings(state, m),
		Sectors:         SectorExposure(state, m),
		Daily:           valuation.DailySeries(state.PortfolioValueHistory),
		Transactions:    len(state.Transactions),
	}
	if last := state.LastSnapshot(); last != nil {
		r.FinalValue = last.TotalValue
	}
	if extremes.BestTrade != nil {
		r.BestTrade = &Trade{*extremes.BestTrade, m.CompanyName(extremes.BestTrade.CompanyID), extremes.BestReturn}
	}
	if extremes.WorstTrade != nil {
		r.WorstTrade = &Trade{*extremes.WorstTrade, m.CompanyName(extremes.WorstTrade.CompanyID), extremes.WorstReturn}
	}
	if r.Daily == nil {
		r.Daily = []model.PortfolioSnapshot{}
	}
	return r
}
