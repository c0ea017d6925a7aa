package client

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/atmx/stock-game/internal/game"
	"github.com/atmx/stock-game/internal/model"
	"github.com/atmx/stock-game/internal/store"
	"github.com/atmx/stock-game/internal/trade"
)

func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func newTestClient(t *testing.T) *Client {
	t.Helper()
	svc := trade.NewService(store.NewRecords(store.NewMemoryStore()), game.NewEngine(), nil)
	r := chi.NewRouter()
	r.Route("/api/v1", svc.Mount)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return New(srv.URL, 5*time.Second)
}

func TestClient_PlayGame(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	st, err := c.Start(ctx, nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if st.CurrentDay != 1 || !st.Portfolio.Cash.Equal(d(10000)) {
		t.Fatalf("unexpected new game: %+v", st)
	}

	resp, err := c.Buy(ctx, "EMAAR", d(100))
	if err != nil {
		t.Fatalf("Buy: %v", err)
	}
	if !resp.State.Portfolio.Cash.Equal(d(9428)) {
		t.Errorf("expected cash 9428, got %s", resp.State.Portfolio.Cash)
	}

	if _, err := c.Sell(ctx, "EMAAR", d(50)); err != nil {
		t.Fatalf("Sell: %v", err)
	}

	adv, err := c.Advance(ctx)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if adv.State.CurrentDay != 2 {
		t.Errorf("expected day 2, got %d", adv.State.CurrentDay)
	}

	hs, err := c.Holdings(ctx)
	if err != nil {
		t.Fatalf("Holdings: %v", err)
	}
	if len(hs) != 1 || !hs[0].Shares.Equal(d(50)) {
		t.Errorf("expected 50 EMAAR shares, got %+v", hs)
	}

	rep, err := c.Results(ctx)
	if err != nil {
		t.Fatalf("Results: %v", err)
	}
	if rep.Day != 2 || rep.IsGameOver {
		t.Errorf("unexpected report: day %d over %v", rep.Day, rep.IsGameOver)
	}

	data, err := c.ResultsXLSX(ctx)
	if err != nil {
		t.Fatalf("ResultsXLSX: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("PK")) {
		t.Error("expected an xlsx (zip) body")
	}

	g, err := c.Game(ctx)
	if err != nil {
		t.Fatalf("Game: %v", err)
	}
	if len(g.Transactions) != 2 {
		t.Errorf("expected 2 transactions, got %d", len(g.Transactions))
	}

	st, err = c.Reset(ctx)
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if st.CurrentDay != 1 || len(st.Transactions) != 0 {
		t.Errorf("reset should start over, got %+v", st)
	}
}

func TestClient_APIError(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	_, err := c.Game(ctx)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Status != 404 || apiErr.Code != "no_game" {
		t.Errorf("expected 404 no_game, got %d %q", apiErr.Status, apiErr.Code)
	}

	if _, err := c.Start(ctx, nil); err != nil {
		t.Fatalf("Start: %v", err)
	}
	_, err = c.Buy(ctx, "ETISALAT", d(1000))
	if !errors.As(err, &apiErr) || apiErr.Code != "insufficient_funds" {
		t.Errorf("expected insufficient_funds, got %v", err)
	}
}

func TestClient_MarketAndSettings(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	ms, err := c.Market(ctx)
	if err != nil {
		t.Fatalf("Market: %v", err)
	}
	if len(ms.Companies) != 10 {
		t.Errorf("expected 10 companies, got %d", len(ms.Companies))
	}

	co, err := c.Company(ctx, "DIB")
	if err != nil {
		t.Fatalf("Company: %v", err)
	}
	if co.Company.Name != "Dubai Islamic Bank" || !co.Price.Decimal.Equal(d(4.89)) {
		t.Errorf("unexpected company: %+v", co)
	}

	saved, err := c.SaveSettings(ctx, model.GameSettings{StartingCapital: d(500), TradesPerDay: 1})
	if err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}
	got, err := c.Settings(ctx)
	if err != nil {
		t.Fatalf("Settings: %v", err)
	}
	if !got.StartingCapital.Equal(saved.StartingCapital) || got.TradesPerDay != 1 {
		t.Errorf("settings not saved: %+v", got)
	}

	st, err := c.Start(ctx, &trade.StartRequest{TradesPerDay: 2})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !st.StartingCapital.Equal(d(500)) || st.DailyTradesRemaining != 2 {
		t.Errorf("expected 500 capital and 2 trades, got %+v", st)
	}
}

func TestClient_ImportMarket(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	csv := []byte("Company Name,Ticker Symbol,Day 1,Day 2,Day 3,Day 4,Day 5\nAcme,acme,1,2,3,4,5\n")
	ms, err := c.ImportMarket(ctx, csv)
	if err != nil {
		t.Fatalf("ImportMarket: %v", err)
	}
	if len(ms.Companies) != 1 || ms.Companies[0].ID != "ACME" {
		t.Errorf("unexpected imported market: %+v", ms.Companies)
	}

	_, err = c.ImportMarket(ctx, []byte("nope\n"))
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code != "invalid_csv" {
		t.Errorf("expected invalid_csv, got %v", err)
	}
}
