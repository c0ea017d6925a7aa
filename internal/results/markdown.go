package results

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

func money(v decimal.Decimal) string { return v.StringFixed(2) }

func signedPercent(v decimal.Decimal) string {
	if v.IsNegative() {
		return v.StringFixed(2) + "%"
	}
	return "+" + v.StringFixed(2) + "%"
}

// Markdown renders the report as a markdown document.
func Markdown(r Report) string {
	var b strings.Builder

	if r.IsGameOver {
		fmt.Fprintf(&b, "# Game Results\n\n")
	} else {
		fmt.Fprintf(&b, "# Results so far (day %d)\n\n", r.Day)
	}

	fmt.Fprintln(&b, "| Starting capital | Final value | Profit/Loss | Return |")
	fmt.Fprintln(&b, "|---:|---:|---:|---:|")
	fmt.Fprintf(&b, "| %s | %s | %s | %s |\n\n",
		money(r.StartingCapital),
		money(r.FinalValue),
		money(r.ProfitLoss.Amount),
		signedPercent(r.ProfitLoss.Percentage),
	)

	fmt.Fprintf(&b, "> %s\n\n", r.Feedback)

	fmt.Fprintf(&b, "## Trades\n\n")
	if r.BestTrade == nil {
		fmt.Fprintf(&b, "No buy trades were made.\n\n")
	} else {
		fmt.Fprintf(&b, "- Best: **%s**, bought on day %d at %s (%s)\n",
			r.BestTrade.CompanyName, r.BestTrade.Day, money(r.BestTrade.Price), signedPercent(r.BestTrade.Return))
		fmt.Fprintf(&b, "- Worst: **%s**, bought on day %d at %s (%s)\n\n",
			r.WorstTrade.CompanyName, r.WorstTrade.Day, money(r.WorstTrade.Price), signedPercent(r.WorstTrade.Return))
	}

	if len(r.Holdings) > 0 {
		fmt.Fprintf(&b, "## Holdings\n\n")
		fmt.Fprintln(&b, "| Company | Shares | Avg. price | Price | Value | Gain/Loss |")
		fmt.Fprintln(&b, "|:---|---:|---:|---:|---:|---:|")
		for _, h := range r.Holdings {
			fmt.Fprintf(&b, "| %s (%s) | %s | %s | %s | %s | %s (%s) |\n",
				h.Name, h.Ticker, h.Shares.String(), money(h.AveragePrice), money(h.CurrentPrice),
				money(h.CurrentValue), money(h.GainLoss), signedPercent(h.GainLossPercent))
		}
		fmt.Fprintln(&b)
	}

	if len(r.Sectors) > 0 {
		fmt.Fprintf(&b, "## Sectors\n\n")
		fmt.Fprintln(&b, "| Sector | Value | Share |")
		fmt.Fprintln(&b, "|:---|---:|---:|")
		for _, s := range r.Sectors {
			fmt.Fprintf(&b, "| %s | %s | %s%% |\n", s.Sector, money(s.Value), s.Share.StringFixed(1))
		}
		fmt.Fprintln(&b)
	}

	if len(r.Daily) > 0 {
		fmt.Fprintf(&b, "## Portfolio value\n\n")
		fmt.Fprintln(&b, "| Day | Cash | Holdings | Total | Change |")
		fmt.Fprintln(&b, "|---:|---:|---:|---:|---:|")
		for _, s := range r.Daily {
			change := "-"
			if s.PercentChange.Valid {
				change = signedPercent(s.PercentChange.Decimal)
			}
			fmt.Fprintf(&b, "| %d | %s | %s | %s | %s |\n",
				s.Day, money(s.Cash), money(s.HoldingsValue), money(s.TotalValue), change)
		}
		fmt.Fprintln(&b)
	}

	fmt.Fprintf(&b, "## Tips\n\n")
	for _, tip := range r.Tips {
		fmt.Fprintf(&b, "- %s\n", tip)
	}
	return b.String()
}
