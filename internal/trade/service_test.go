package trade_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/atmx/stock-game/internal/game"
	"github.com/atmx/stock-game/internal/model"
	"github.com/atmx/stock-game/internal/report"
	"github.com/atmx/stock-game/internal/results"
	"github.com/atmx/stock-game/internal/store"
	"github.com/atmx/stock-game/internal/trade"
)

func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

// newTestEnv creates a test Service with in-memory store and chi router.
func newTestEnv(t *testing.T) (*trade.Service, *store.MemoryStore, chi.Router) {
	t.Helper()
	ms := store.NewMemoryStore()
	n := 0
	engine := game.NewEngine(
		game.WithClock(func() time.Time { return time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC) }),
		game.WithIDs(func() string { n++; return fmt.Sprintf("tx-%d", n) }),
	)
	svc := trade.NewService(store.NewRecords(ms), engine, nil)

	r := chi.NewRouter()
	r.Route("/api/v1", svc.Mount)

	return svc, ms, r
}

func do(t *testing.T, router chi.Router, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func doTrade(t *testing.T, router chi.Router, side string, req trade.TradeRequest) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(req)
	return do(t, router, "POST", "/api/v1/game/"+side, body)
}

func startGame(t *testing.T, router chi.Router) model.GameState {
	t.Helper()
	w := do(t, router, "POST", "/api/v1/game", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("start game: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var st model.GameState
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	return st
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) trade.ErrorResponse {
	t.Helper()
	var resp trade.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}
	return resp
}

// --- Game lifecycle tests ---

func TestGetGame_NoGame(t *testing.T) {
	_, _, router := newTestEnv(t)

	w := do(t, router, "GET", "/api/v1/game", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if resp := decodeError(t, w); resp.Code != "no_game" {
		t.Errorf("expected code no_game, got %q", resp.Code)
	}
}

func TestStartGame_Defaults(t *testing.T) {
	_, _, router := newTestEnv(t)
	st := startGame(t, router)

	if st.CurrentDay != 1 || st.DailyTradesRemaining != 3 {
		t.Errorf("unexpected initial state: %+v", st)
	}
	if !st.Portfolio.Cash.Equal(d(10000)) {
		t.Errorf("expected cash 10000, got %s", st.Portfolio.Cash)
	}

	w := do(t, router, "GET", "/api/v1/game", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected saved game, got %d", w.Code)
	}
}

func TestStartGame_WithSettingsSavesThem(t *testing.T) {
	_, _, router := newTestEnv(t)

	w := do(t, router, "POST", "/api/v1/game", []byte(`{"starting_capital":"5000","trades_per_day":2}`))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var st model.GameState
	json.Unmarshal(w.Body.Bytes(), &st)
	if !st.StartingCapital.Equal(d(5000)) || st.DailyTradesRemaining != 2 {
		t.Errorf("settings not applied: %+v", st)
	}

	w = do(t, router, "GET", "/api/v1/settings", nil)
	var settings model.GameSettings
	json.Unmarshal(w.Body.Bytes(), &settings)
	if !settings.StartingCapital.Equal(d(5000)) || settings.TradesPerDay != 2 {
		t.Errorf("expected saved settings 5000/2, got %+v", settings)
	}
}

func TestStartGame_InvalidSettings(t *testing.T) {
	_, _, router := newTestEnv(t)

	w := do(t, router, "POST", "/api/v1/game", []byte(`{"starting_capital":"-1"}`))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if resp := decodeError(t, w); resp.Code != "invalid_settings" {
		t.Errorf("expected invalid_settings, got %q", resp.Code)
	}
}

func TestPutSettings(t *testing.T) {
	_, _, router := newTestEnv(t)

	w := do(t, router, "PUT", "/api/v1/settings", []byte(`{"startingCapital":"2500","tradesPerDay":4}`))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	st := startGame(t, router)
	if !st.StartingCapital.Equal(d(2500)) || st.DailyTradesRemaining != 4 {
		t.Errorf("new game should use saved settings, got %+v", st)
	}

	w = do(t, router, "PUT", "/api/v1/settings", []byte(`{"startingCapital":"2500","tradesPerDay":0}`))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for zero trades per day, got %d", w.Code)
	}
}

// --- Trade execution tests ---

func TestBuyThenSell(t *testing.T) {
	_, _, router := newTestEnv(t)
	startGame(t, router)

	w := doTrade(t, router, "buy", trade.TradeRequest{CompanyID: "EMAAR", Shares: d(100)})
	if w.Code != http.StatusOK {
		t.Fatalf("buy: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp trade.TradeResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Transaction.ID != "tx-1" || !resp.Transaction.Price.Equal(d(5.72)) {
		t.Errorf("unexpected transaction: %+v", resp.Transaction)
	}
	if !resp.State.Portfolio.Cash.Equal(d(9428)) {
		t.Errorf("expected cash 9428, got %s", resp.State.Portfolio.Cash)
	}

	// Lower-case ids are accepted.
	w = doTrade(t, router, "sell", trade.TradeRequest{CompanyID: "emaar", Shares: d(50)})
	if w.Code != http.StatusOK {
		t.Fatalf("sell: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if !resp.State.Portfolio.Cash.Equal(d(9714)) {
		t.Errorf("expected cash 9714, got %s", resp.State.Portfolio.Cash)
	}
	if resp.State.DailyTradesRemaining != 1 {
		t.Errorf("expected 1 trade remaining, got %d", resp.State.DailyTradesRemaining)
	}
	if !resp.State.Portfolio.Holdings[0].Shares.Equal(d(50)) {
		t.Errorf("expected 50 shares, got %s", resp.State.Portfolio.Holdings[0].Shares)
	}
}

func TestTrade_Errors(t *testing.T) {
	tests := []struct {
		name   string
		side   string
		setup  []trade.TradeRequest
		req    trade.TradeRequest
		status int
		code   string
	}{
		{
			name: "insufficient funds", side: "buy",
			req:    trade.TradeRequest{CompanyID: "ETISALAT", Shares: d(1000)},
			status: http.StatusConflict, code: "insufficient_funds",
		},
		{
			name: "zero shares", side: "buy",
			req:    trade.TradeRequest{CompanyID: "EMAAR", Shares: d(0)},
			status: http.StatusBadRequest, code: "invalid_quantity",
		},
		{
			name: "unknown company", side: "buy",
			req:    trade.TradeRequest{CompanyID: "NOPE", Shares: d(1)},
			status: http.StatusUnprocessableEntity, code: "price_unavailable",
		},
		{
			name: "sell not held", side: "sell",
			req:    trade.TradeRequest{CompanyID: "DIB", Shares: d(1)},
			status: http.StatusConflict, code: "insufficient_shares",
		},
		{
			name: "quota exhausted", side: "buy",
			setup: []trade.TradeRequest{
				{CompanyID: "DFM", Shares: d(1)},
				{CompanyID: "DFM", Shares: d(1)},
				{CompanyID: "DFM", Shares: d(1)},
			},
			req:    trade.TradeRequest{CompanyID: "DFM", Shares: d(1)},
			status: http.StatusConflict, code: "no_trades_remaining",
		},
		{
			name: "missing company", side: "buy",
			req:    trade.TradeRequest{Shares: d(1)},
			status: http.StatusBadRequest, code: "bad_request",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, router := newTestEnv(t)
			startGame(t, router)
			for _, req := range tt.setup {
				if w := doTrade(t, router, "buy", req); w.Code != http.StatusOK {
					t.Fatalf("setup trade failed: %d %s", w.Code, w.Body.String())
				}
			}

			w := doTrade(t, router, tt.side, tt.req)
			if w.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}
			if resp := decodeError(t, w); resp.Code != tt.code {
				t.Errorf("expected code %q, got %q", tt.code, resp.Code)
			}
		})
	}
}

func TestTrade_InvalidBody(t *testing.T) {
	_, _, router := newTestEnv(t)
	startGame(t, router)

	w := do(t, router, "POST", "/api/v1/game/buy", []byte(`{not json`))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestTrade_NoGame(t *testing.T) {
	_, _, router := newTestEnv(t)

	w := doTrade(t, router, "buy", trade.TradeRequest{CompanyID: "EMAAR", Shares: d(1)})
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestFailedTradeIsNotPersisted(t *testing.T) {
	svc, _, router := newTestEnv(t)
	startGame(t, router)

	doTrade(t, router, "buy", trade.TradeRequest{CompanyID: "ETISALAT", Shares: d(1000)})

	st, err := svc.State(context.Background())
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if len(st.Transactions) != 0 || st.DailyTradesRemaining != 3 || !st.Portfolio.Cash.Equal(d(10000)) {
		t.Errorf("rejected trade must leave the saved game untouched: %+v", st)
	}
}

// --- Day advancement tests ---

func advance(t *testing.T, router chi.Router) trade.AdvanceResponse {
	t.Helper()
	w := do(t, router, "POST", "/api/v1/game/advance", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("advance: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp trade.AdvanceResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

func TestAdvance_ToGameOver(t *testing.T) {
	_, _, router := newTestEnv(t)
	startGame(t, router)

	for day := 2; day <= 5; day++ {
		resp := advance(t, router)
		if resp.State.CurrentDay != day {
			t.Fatalf("expected day %d, got %d", day, resp.State.CurrentDay)
		}
		if resp.Notice != "" {
			t.Errorf("unexpected notice on day %d: %q", day, resp.Notice)
		}
	}

	resp := advance(t, router)
	if resp.Notice != "already on the final day" {
		t.Errorf("expected final-day notice, got %q", resp.Notice)
	}
	if !resp.State.IsGameOver || resp.State.CurrentDay != 5 {
		t.Errorf("expected game over on day 5, got %+v", resp.State)
	}
	if len(resp.State.PortfolioValueHistory) != 5 {
		t.Errorf("final-day advance must not add a snapshot, got %d", len(resp.State.PortfolioValueHistory))
	}

	w := doTrade(t, router, "buy", trade.TradeRequest{CompanyID: "EMAAR", Shares: d(1)})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 after game over, got %d", w.Code)
	}
	if code := decodeError(t, w).Code; code != "game_over" {
		t.Errorf("expected game_over, got %q", code)
	}
}

func TestAdvance_ResetsQuota(t *testing.T) {
	_, _, router := newTestEnv(t)
	startGame(t, router)
	doTrade(t, router, "buy", trade.TradeRequest{CompanyID: "DFM", Shares: d(1)})

	resp := advance(t, router)
	if resp.State.DailyTradesRemaining != 3 {
		t.Errorf("expected quota reset to 3, got %d", resp.State.DailyTradesRemaining)
	}
}

func TestReset(t *testing.T) {
	_, _, router := newTestEnv(t)
	startGame(t, router)
	doTrade(t, router, "buy", trade.TradeRequest{CompanyID: "DFM", Shares: d(10)})
	advance(t, router)

	w := do(t, router, "POST", "/api/v1/game/reset", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var st model.GameState
	json.Unmarshal(w.Body.Bytes(), &st)
	if st.CurrentDay != 1 || len(st.Transactions) != 0 || !st.Portfolio.Cash.Equal(d(10000)) {
		t.Errorf("reset should start a fresh game, got %+v", st)
	}
}

// --- Market tests ---

func TestGetMarket(t *testing.T) {
	_, _, router := newTestEnv(t)

	w := do(t, router, "GET", "/api/v1/market", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var ms model.MarketState
	json.Unmarshal(w.Body.Bytes(), &ms)
	if len(ms.Companies) != 10 || len(ms.PriceData) != 10 {
		t.Errorf("expected the 10-company sample, got %d/%d", len(ms.Companies), len(ms.PriceData))
	}
}

func TestGetCompany(t *testing.T) {
	_, _, router := newTestEnv(t)
	startGame(t, router)
	advance(t, router)

	w := do(t, router, "GET", "/api/v1/market/EMAAR", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp trade.CompanyResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Day != 2 || !resp.Price.Valid || !resp.Price.Decimal.Equal(d(5.85)) {
		t.Errorf("expected day 2 price 5.85, got day %d %+v", resp.Day, resp.Price)
	}
	if len(resp.History) != 2 {
		t.Errorf("expected 2 prices of history, got %d", len(resp.History))
	}
	if !resp.DayChange.Valid {
		t.Error("expected a day change on day 2")
	}
	// floor(10000 / 5.85) = 1709
	if !resp.MaxAffordable.Equal(d(1709)) {
		t.Errorf("expected 1709 affordable, got %s", resp.MaxAffordable)
	}

	w = do(t, router, "GET", "/api/v1/market/NOPE", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown company, got %d", w.Code)
	}
}

const importCSV = `Company Name,Ticker Symbol,Sector,Day 1,Day 2,Day 3,Day 4,Day 5
Acme Corp,ACME,Tools,10,11,12,13,14
Globex,GLBX,Energy,5,4,3,2,1
`

func TestImportMarket(t *testing.T) {
	_, _, router := newTestEnv(t)

	w := do(t, router, "POST", "/api/v1/market/import", []byte(importCSV))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = do(t, router, "GET", "/api/v1/market", nil)
	var ms model.MarketState
	json.Unmarshal(w.Body.Bytes(), &ms)
	if len(ms.Companies) != 2 || ms.Companies[0].ID != "ACME" {
		t.Fatalf("expected imported market, got %+v", ms.Companies)
	}

	startGame(t, router)
	w = doTrade(t, router, "buy", trade.TradeRequest{CompanyID: "ACME", Shares: d(10)})
	if w.Code != http.StatusOK {
		t.Fatalf("buy on imported market: %d %s", w.Code, w.Body.String())
	}
}

func TestImportMarket_Rejected(t *testing.T) {
	_, _, router := newTestEnv(t)

	w := do(t, router, "POST", "/api/v1/market/import", []byte("Company Name,Ticker Symbol\nAcme,ACME\n"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed csv, got %d", w.Code)
	}
	if code := decodeError(t, w).Code; code != "invalid_csv" {
		t.Errorf("expected invalid_csv, got %q", code)
	}

	startGame(t, router)
	w = do(t, router, "POST", "/api/v1/market/import", []byte(importCSV))
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 during a game, got %d", w.Code)
	}
	if code := decodeError(t, w).Code; code != "game_in_progress" {
		t.Errorf("expected game_in_progress, got %q", code)
	}
}

// --- Results tests ---

func TestResults(t *testing.T) {
	_, _, router := newTestEnv(t)
	startGame(t, router)
	doTrade(t, router, "buy", trade.TradeRequest{CompanyID: "EMAAR", Shares: d(100)})
	for i := 0; i < 4; i++ {
		advance(t, router)
	}

	w := do(t, router, "GET", "/api/v1/game/results", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var rep results.Report
	json.Unmarshal(w.Body.Bytes(), &rep)
	if !rep.ProfitLoss.Amount.Equal(d(32)) {
		t.Errorf("expected +32, got %s", rep.ProfitLoss.Amount)
	}
	if rep.BestTrade == nil || rep.BestTrade.CompanyID != "EMAAR" {
		t.Errorf("expected EMAAR best trade, got %+v", rep.BestTrade)
	}
	if len(rep.Tips) == 0 || rep.Feedback == "" {
		t.Error("expected feedback and tips")
	}

	w = do(t, router, "GET", "/api/v1/game/holdings", nil)
	var hs []results.HoldingSummary
	json.Unmarshal(w.Body.Bytes(), &hs)
	if len(hs) != 1 || !hs[0].CurrentValue.Equal(d(604)) {
		t.Errorf("expected EMAAR worth 604, got %+v", hs)
	}

	w = do(t, router, "GET", "/api/v1/game/results.xlsx", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("xlsx: expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != report.ContentType {
		t.Errorf("unexpected content type %q", ct)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("PK")) {
		t.Error("expected a zip (xlsx) body")
	}
}

func TestResults_NoGame(t *testing.T) {
	_, _, router := newTestEnv(t)
	for _, path := range []string{"/api/v1/game/results", "/api/v1/game/holdings", "/api/v1/game/results.xlsx"} {
		if w := do(t, router, "GET", path, nil); w.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", path, w.Code)
		}
	}
}

// --- Persistence tests ---

func TestCorruptSavedGameIsAbsent(t *testing.T) {
	_, ms, router := newTestEnv(t)
	ms.Set(context.Background(), store.KeyGameState, []byte(`{"currentDay":`))

	w := do(t, router, "GET", "/api/v1/game", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected corrupt game to read as absent (404), got %d", w.Code)
	}
	startGame(t, router)
}

func TestStatePersistedAsJSON(t *testing.T) {
	_, ms, router := newTestEnv(t)
	startGame(t, router)
	doTrade(t, router, "buy", trade.TradeRequest{CompanyID: "EMAAR", Shares: d(100)})

	raw, err := ms.Get(context.Background(), store.KeyGameState)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	for _, want := range []string{`"currentDay":1`, `"companyId":"EMAAR"`, `"dailyTradesRemaining":2`} {
		if !strings.Contains(string(raw), want) {
			t.Errorf("persisted state missing %s: %s", want, raw)
		}
	}
}
