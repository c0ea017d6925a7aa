package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/shopspring/decimal"

	"github.com/atmx/stock-game/internal/market"
	"github.com/atmx/stock-game/internal/model"
	"github.com/atmx/stock-game/internal/results"
	"github.com/atmx/stock-game/internal/trade"
)

// printMarkdown renders md for the terminal, falling back to the raw text.
func printMarkdown(md string) {
	out, err := glamour.Render(md, "auto")
	if err != nil {
		fmt.Fprintln(os.Stderr, "warning: could not render markdown:", err)
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}

func percent(v decimal.NullDecimal) string {
	if !v.Valid {
		return "-"
	}
	if v.Decimal.IsNegative() {
		return v.Decimal.StringFixed(2) + "%"
	}
	return "+" + v.Decimal.StringFixed(2) + "%"
}

// statusMarkdown summarizes a game. holdings may be nil.
func statusMarkdown(st model.GameState, holdings []results.HoldingSummary) string {
	var b strings.Builder

	if st.IsGameOver {
		fmt.Fprintf(&b, "# Day %d of %d (game over)\n\n", st.CurrentDay, model.LastDay)
	} else {
		fmt.Fprintf(&b, "# Day %d of %d\n\n", st.CurrentDay, model.LastDay)
	}

	total := st.Portfolio.Cash
	change := decimal.NullDecimal{}
	if last := st.LastSnapshot(); last != nil {
		total = last.TotalValue
		change = last.PercentChange
	}
	fmt.Fprintln(&b, "| Cash | Portfolio value | Change | Trades left today |")
	fmt.Fprintln(&b, "|---:|---:|---:|---:|")
	fmt.Fprintf(&b, "| %s | %s | %s | %d |\n\n",
		st.Portfolio.Cash.StringFixed(2), total.StringFixed(2), percent(change), st.DailyTradesRemaining)

	if len(holdings) > 0 {
		fmt.Fprintf(&b, "## Holdings\n\n")
		fmt.Fprintln(&b, "| Company | Shares | Avg. price | Price | Value | Gain/Loss |")
		fmt.Fprintln(&b, "|---|---:|---:|---:|---:|---:|")
		for _, h := range holdings {
			fmt.Fprintf(&b, "| %s (%s) | %s | %s | %s | %s | %s |\n",
				h.Name, h.Ticker, h.Shares, h.AveragePrice.StringFixed(2), h.CurrentPrice.StringFixed(2),
				h.CurrentValue.StringFixed(2), percent(decimal.NewNullDecimal(h.GainLossPercent)))
		}
		fmt.Fprintln(&b)
	}
	return b.String()
}

// marketMarkdown lists every company's price on day.
func marketMarkdown(m *market.Market, day int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Market, day %d\n\n", day)
	fmt.Fprintln(&b, "| Ticker | Company | Sector | Price | Change |")
	fmt.Fprintln(&b, "|---|---|---|---:|---:|")
	for _, c := range m.Companies() {
		price := "n/a"
		if p, err := m.Price(c.ID, day); err == nil {
			price = p.StringFixed(2)
		}
		change := decimal.NullDecimal{}
		if ch, ok := m.DayChange(c.ID, day); ok {
			change = decimal.NewNullDecimal(ch)
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n", c.Ticker, c.Name, c.Sector, price, percent(change))
	}
	return b.String()
}

func companyMarkdown(co trade.CompanyResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s (%s)\n\n", co.Company.Name, co.Company.Ticker)
	if co.Company.Sector != "" {
		fmt.Fprintf(&b, "*%s*\n\n", co.Company.Sector)
	}
	if co.Company.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", co.Company.Description)
	}

	price := "n/a"
	if co.Price.Valid {
		price = co.Price.Decimal.StringFixed(2)
	}
	fmt.Fprintf(&b, "Day %d price: **%s** (%s)\n\n", co.Day, price, percent(co.DayChange))
	fmt.Fprintf(&b, "You own %s shares and can afford %s more.\n\n", co.SharesOwned, co.MaxAffordable)

	if len(co.History) > 0 {
		fmt.Fprintln(&b, "| Day | Price |")
		fmt.Fprintln(&b, "|---:|---:|")
		for i, p := range co.History {
			fmt.Fprintf(&b, "| %d | %s |\n", i+1, p.StringFixed(2))
		}
	}
	return b.String()
}
