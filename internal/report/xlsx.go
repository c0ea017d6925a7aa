// Package report exports a game's results as an XLSX workbook.
package report

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/atmx/stock-game/internal/model"
	"github.com/atmx/stock-game/internal/results"
)

// Sheet names.
const (
	SummarySheet      = "Summary"
	HoldingsSheet     = "Holdings"
	DailySheet        = "Daily"
	TransactionsSheet = "Transactions"
)

// ContentType is the MIME type of the generated workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var ErrEmptyReport = errors.New("report: nothing to export")

// Generate renders the report and the game's transactions as XLSX bytes.
func Generate(rep results.Report, txs []model.Transaction) ([]byte, error) {
	if rep.StartingCapital.IsZero() && len(rep.Daily) == 0 {
		return nil, ErrEmptyReport
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			slog.Error("got error while closing file", "err", err)
		}
	}()

	// The default sheet becomes the summary.
	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return nil, err
	}

	titleStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#cfe2f3"}},
	})
	if err != nil {
		return nil, err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	if err := fillSummary(f, rep, titleStyle, headerStyle); err != nil {
		return nil, err
	}
	if err := fillHoldings(f, rep.Holdings, headerStyle); err != nil {
		return nil, err
	}
	if err := fillDaily(f, rep.Daily, headerStyle); err != nil {
		return nil, err
	}
	if err := fillTransactions(f, txs, headerStyle); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("report: write: %w", err)
	}
	return buf.Bytes(), nil
}

func num(v decimal.Decimal) float64 {
	return v.Round(4).InexactFloat64()
}

// setRow writes values left to right starting at column A of row.
func setRow(f *excelize.File, sheet string, row int, values ...any) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

func header(f *excelize.File, sheet string, style int, names ...string) error {
	values := make([]any, len(names))
	for i, n := range names {
		values[i] = n
	}
	if err := setRow(f, sheet, 1, values...); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(names), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, style)
}

func fillSummary(f *excelize.File, rep results.Report, titleStyle, headerStyle int) error {
	sheet := SummarySheet
	if err := f.MergeCell(sheet, "A1", "C1"); err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, "A1", "Game Results"); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "A1", titleStyle); err != nil {
		return err
	}

	rows := [][]any{
		{"Starting capital", num(rep.StartingCapital)},
		{"Final value", num(rep.FinalValue)},
		{"Profit/Loss", num(rep.ProfitLoss.Amount)},
		{"Return %", num(rep.ProfitLoss.Percentage)},
		{"Day", rep.Day},
		{"Game over", rep.IsGameOver},
		{"Transactions", rep.Transactions},
		tradeRow("Best trade", rep.BestTrade),
		tradeRow("Worst trade", rep.WorstTrade),
		{"Feedback", rep.Feedback},
	}
	for i, r := range rows {
		if err := setRow(f, sheet, i+2, r...); err != nil {
			return err
		}
	}

	row := len(rows) + 3
	if err := f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Tips"); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), headerStyle); err != nil {
		return err
	}
	for i, tip := range rep.Tips {
		if err := f.SetCellValue(sheet, fmt.Sprintf("A%d", row+1+i), tip); err != nil {
			return err
		}
	}
	return f.SetColWidth(sheet, "A", "A", 20)
}

func tradeRow(label string, t *results.Trade) []any {
	if t == nil {
		return []any{label, "None"}
	}
	return []any{label, t.CompanyName, num(t.Return)}
}

func fillHoldings(f *excelize.File, holdings []results.HoldingSummary, headerStyle int) error {
	sheet := HoldingsSheet
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	if err := header(f, sheet, headerStyle,
		"Company", "Ticker", "Sector", "Shares", "Avg. price", "Price", "Value", "Cost", "Gain/Loss", "Gain/Loss %"); err != nil {
		return err
	}
	for i, h := range holdings {
		if err := setRow(f, sheet, i+2,
			h.Name, h.Ticker, h.Sector, num(h.Shares), num(h.AveragePrice), num(h.CurrentPrice),
			num(h.CurrentValue), num(h.CostBasis), num(h.GainLoss), num(h.GainLossPercent)); err != nil {
			return err
		}
	}
	return nil
}

func fillDaily(f *excelize.File, daily []model.PortfolioSnapshot, headerStyle int) error {
	sheet := DailySheet
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	if err := header(f, sheet, headerStyle, "Day", "Cash", "Holdings", "Total", "Change %"); err != nil {
		return err
	}
	for i, s := range daily {
		var change any = ""
		if s.PercentChange.Valid {
			change = num(s.PercentChange.Decimal)
		}
		if err := setRow(f, sheet, i+2, s.Day, num(s.Cash), num(s.HoldingsValue), num(s.TotalValue), change); err != nil {
			return err
		}
	}
	return nil
}

func fillTransactions(f *excelize.File, txs []model.Transaction, headerStyle int) error {
	sheet := TransactionsSheet
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	if err := header(f, sheet, headerStyle, "ID", "Day", "Type", "Company", "Shares", "Price", "Amount", "Time"); err != nil {
		return err
	}
	for i, t := range txs {
		if err := setRow(f, sheet, i+2,
			t.ID, t.Day, string(t.Type), t.CompanyID, num(t.Shares), num(t.Price), num(t.Amount()),
			t.Timestamp.UTC().Format("2006-01-02 15:04:05")); err != nil {
			return err
		}
	}
	return nil
}
