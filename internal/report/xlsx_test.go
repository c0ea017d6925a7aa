package report

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/atmx/stock-game/internal/game"
	"github.com/atmx/stock-game/internal/market"
	"github.com/atmx/stock-game/internal/model"
	"github.com/atmx/stock-game/internal/results"
)

func finishedGame(t *testing.T) (model.GameState, *market.Market) {
	t.Helper()
	n := 0
	e := game.NewEngine(
		game.WithClock(func() time.Time { return time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC) }),
		game.WithIDs(func() string { n++; return fmt.Sprintf("tx-%d", n) }),
	)
	m := market.New(market.Default())
	s, err := e.NewGame(model.DefaultSettings())
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	if s, err = e.Buy(s, m, "EMAAR", decimal.NewFromInt(100)); err != nil {
		t.Fatalf("Buy: %v", err)
	}
	for i := 0; i < 4; i++ {
		if s, err = e.Advance(s, m, 3); err != nil {
			t.Fatalf("Advance: %v", err)
		}
	}
	return s, m
}

func open(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func cell(t *testing.T, f *excelize.File, sheet, name string) string {
	t.Helper()
	v, err := f.GetCellValue(sheet, name)
	if err != nil {
		t.Fatalf("GetCellValue(%s!%s): %v", sheet, name, err)
	}
	return v
}

func TestGenerate_Summary(t *testing.T) {
	s, m := finishedGame(t)
	data, err := Generate(results.Build(s, m), s.Transactions)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	f := open(t, data)

	sheets := f.GetSheetList()
	want := []string{SummarySheet, HoldingsSheet, DailySheet, TransactionsSheet}
	if fmt.Sprint(sheets) != fmt.Sprint(want) {
		t.Errorf("expected sheets %v, got %v", want, sheets)
	}

	tests := []struct {
		cell string
		want string
	}{
		{"A1", "Game Results"},
		{"B2", "10000"},
		{"B3", "10032"},
		{"B4", "32"},
		{"B5", "0.32"},
		{"B9", "Emaar Properties"},
	}
	for _, tt := range tests {
		if got := cell(t, f, SummarySheet, tt.cell); got != tt.want {
			t.Errorf("Summary!%s = %q, want %q", tt.cell, got, tt.want)
		}
	}
}

func TestGenerate_DetailSheets(t *testing.T) {
	s, m := finishedGame(t)
	data, err := Generate(results.Build(s, m), s.Transactions)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	f := open(t, data)

	if got := cell(t, f, HoldingsSheet, "A2"); got != "Emaar Properties" {
		t.Errorf("Holdings!A2 = %q", got)
	}
	if got := cell(t, f, HoldingsSheet, "G2"); got != "604" {
		t.Errorf("Holdings!G2 (value) = %q, want 604", got)
	}

	rows, err := f.GetRows(DailySheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 6 { // header + 5 days
		t.Errorf("expected 6 daily rows, got %d", len(rows))
	}

	if got := cell(t, f, TransactionsSheet, "A2"); got != "tx-1" {
		t.Errorf("Transactions!A2 = %q, want tx-1", got)
	}
	if got := cell(t, f, TransactionsSheet, "G2"); got != "572" {
		t.Errorf("Transactions!G2 (amount) = %q, want 572", got)
	}
}

func TestGenerate_Empty(t *testing.T) {
	if _, err := Generate(results.Report{}, nil); !errors.Is(err, ErrEmptyReport) {
		t.Errorf("expected ErrEmptyReport, got %v", err)
	}
}
