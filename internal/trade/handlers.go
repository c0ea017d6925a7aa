package trade

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/atmx/stock-game/internal/game"
	"github.com/atmx/stock-game/internal/market"
	"github.com/atmx/stock-game/internal/model"
	"github.com/atmx/stock-game/internal/report"
	"github.com/atmx/stock-game/internal/results"
)

// maxImportBytes bounds the size of an uploaded CSV.
const maxImportBytes = 1 << 20

// --- Request/Response types ---

// TradeRequest is the JSON body for POST /game/buy and /game/sell.
type TradeRequest struct {
	CompanyID string          `json:"company_id"`
	Shares    decimal.Decimal `json:"shares"`
}

// TradeResponse is the JSON body returned from a successful trade.
type TradeResponse struct {
	Transaction model.Transaction `json:"transaction"`
	State       model.GameState   `json:"state"`
}

// StartRequest is the optional JSON body for POST /game.
type StartRequest struct {
	StartingCapital decimal.Decimal `json:"starting_capital"`
	TradesPerDay    int             `json:"trades_per_day"`
}

// AdvanceResponse is the JSON body returned from POST /game/advance.
type AdvanceResponse struct {
	State  model.GameState `json:"state"`
	Notice string          `json:"notice,omitempty"`
}

// CompanyResponse is the JSON body returned from GET /market/{companyID}.
type CompanyResponse struct {
	Company       model.Company       `json:"company"`
	Day           int                 `json:"day"`
	Price         decimal.NullDecimal `json:"price"`
	DayChange     decimal.NullDecimal `json:"day_change"`
	History       []decimal.Decimal   `json:"history"`
	SharesOwned   decimal.Decimal     `json:"shares_owned"`
	MaxAffordable decimal.Decimal     `json:"max_affordable"`
}

// ErrorResponse is the JSON body of every error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Mount registers the game API on r. The caller decides the prefix.
func (s *Service) Mount(r chi.Router) {
	r.Get("/market", s.GetMarket)
	r.Get("/market/{companyID}", s.GetCompany)
	r.Post("/market/import", s.PostImport)

	r.Get("/settings", s.GetSettings)
	r.Put("/settings", s.PutSettings)

	r.Post("/game", s.PostGame)
	r.Get("/game", s.GetGame)
	r.Post("/game/buy", s.PostBuy)
	r.Post("/game/sell", s.PostSell)
	r.Post("/game/advance", s.PostAdvance)
	r.Post("/game/reset", s.PostReset)
	r.Get("/game/holdings", s.GetHoldings)
	r.Get("/game/results", s.GetResults)
	r.Get("/game/results.xlsx", s.GetResultsXLSX)
}

// --- Market handlers ---

// GetMarket handles GET /api/v1/market
func (s *Service) GetMarket(w http.ResponseWriter, r *http.Request) {
	m, err := s.Market(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m.State())
}

// GetCompany handles GET /api/v1/market/{companyID}
// Prices are listed up to the current day of the saved game (day 1 when
// there is none).
func (s *Service) GetCompany(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "companyID")

	m, err := s.Market(ctx)
	if err != nil {
		s.fail(w, err)
		return
	}
	c, err := m.Company(id)
	if err != nil {
		writeError(w, "company not found: "+id, http.StatusNotFound)
		return
	}

	resp := CompanyResponse{
		Company:       c,
		Day:           model.FirstDay,
		SharesOwned:   decimal.Zero,
		MaxAffordable: decimal.Zero,
	}
	st, err := s.State(ctx)
	switch {
	case err == nil:
		resp.Day = min(st.CurrentDay, model.LastDay)
	case !errors.Is(err, ErrNoGame):
		s.fail(w, err)
		return
	}

	resp.History = m.PriceHistory(id, resp.Day)
	if resp.History == nil {
		resp.History = []decimal.Decimal{}
	}
	if p, err := m.Price(id, resp.Day); err == nil {
		resp.Price = decimal.NewNullDecimal(p)
		if st.CurrentDay > 0 {
			resp.MaxAffordable = market.MaxAffordableShares(st.Portfolio.Cash, p)
		}
	}
	if ch, ok := m.DayChange(id, resp.Day); ok {
		resp.DayChange = decimal.NewNullDecimal(ch)
	}
	for _, h := range st.Portfolio.Holdings {
		if h.CompanyID == id {
			resp.SharesOwned = h.Shares
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// PostImport handles POST /api/v1/market/import
// The body is a CSV file; see market.ParseCSV for the format.
func (s *Service) PostImport(w http.ResponseWriter, r *http.Request) {
	ms, err := market.ParseCSV(io.LimitReader(r.Body, maxImportBytes))
	if err != nil {
		writeErrorCode(w, err.Error(), "invalid_csv", http.StatusBadRequest)
		return
	}
	if err := s.ImportMarket(r.Context(), ms); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ms)
}

// --- Settings handlers ---

// GetSettings handles GET /api/v1/settings
func (s *Service) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.Settings(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// PutSettings handles PUT /api/v1/settings
func (s *Service) PutSettings(w http.ResponseWriter, r *http.Request) {
	var settings model.GameSettings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.SaveSettings(r.Context(), settings); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// --- Game handlers ---

// PostGame handles POST /api/v1/game
// An empty body starts a game with the saved settings.
func (s *Service) PostGame(w http.ResponseWriter, r *http.Request) {
	var settings *model.GameSettings

	body, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes))
	if err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(strings.TrimSpace(string(body))) > 0 {
		var req StartRequest
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(w, "invalid request body", http.StatusBadRequest)
			return
		}
		saved, err := s.Settings(r.Context())
		if err != nil {
			s.fail(w, err)
			return
		}
		if !req.StartingCapital.IsZero() {
			saved.StartingCapital = req.StartingCapital
		}
		if req.TradesPerDay != 0 {
			saved.TradesPerDay = req.TradesPerDay
		}
		settings = &saved
	}

	st, err := s.NewGame(r.Context(), settings)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

// GetGame handles GET /api/v1/game
func (s *Service) GetGame(w http.ResponseWriter, r *http.Request) {
	st, err := s.State(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// PostBuy handles POST /api/v1/game/buy
func (s *Service) PostBuy(w http.ResponseWriter, r *http.Request) {
	s.handleTrade(w, r, model.Buy)
}

// PostSell handles POST /api/v1/game/sell
func (s *Service) PostSell(w http.ResponseWriter, r *http.Request) {
	s.handleTrade(w, r, model.Sell)
}

func (s *Service) handleTrade(w http.ResponseWriter, r *http.Request, typ model.TradeType) {
	var req TradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.CompanyID == "" {
		writeError(w, "company_id is required", http.StatusBadRequest)
		return
	}

	st, tx, err := s.Trade(r.Context(), typ, strings.ToUpper(strings.TrimSpace(req.CompanyID)), req.Shares)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TradeResponse{Transaction: tx, State: st})
}

// PostAdvance handles POST /api/v1/game/advance
func (s *Service) PostAdvance(w http.ResponseWriter, r *http.Request) {
	st, err := s.Advance(r.Context(), TriggerManual)
	if errors.Is(err, game.ErrFinalDay) {
		writeJSON(w, http.StatusOK, AdvanceResponse{State: st, Notice: "already on the final day"})
		return
	}
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AdvanceResponse{State: st})
}

// PostReset handles POST /api/v1/game/reset
func (s *Service) PostReset(w http.ResponseWriter, r *http.Request) {
	st, err := s.NewGame(r.Context(), nil)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// GetHoldings handles GET /api/v1/game/holdings
func (s *Service) GetHoldings(w http.ResponseWriter, r *http.Request) {
	st, m, ok := s.gameAndMarket(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, results.Holdings(st, m))
}

// GetResults handles GET /api/v1/game/results
func (s *Service) GetResults(w http.ResponseWriter, r *http.Request) {
	st, m, ok := s.gameAndMarket(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, results.Build(st, m))
}

// GetResultsXLSX handles GET /api/v1/game/results.xlsx
func (s *Service) GetResultsXLSX(w http.ResponseWriter, r *http.Request) {
	st, m, ok := s.gameAndMarket(w, r)
	if !ok {
		return
	}
	data, err := report.Generate(results.Build(st, m), st.Transactions)
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="stock-game-results.xlsx"`)
	w.Write(data)
}

func (s *Service) gameAndMarket(w http.ResponseWriter, r *http.Request) (model.GameState, *market.Market, bool) {
	st, err := s.State(r.Context())
	if err != nil {
		s.fail(w, err)
		return model.GameState{}, nil, false
	}
	m, err := s.Market(r.Context())
	if err != nil {
		s.fail(w, err)
		return model.GameState{}, nil, false
	}
	return st, m, true
}

// --- Errors ---

// errorCode maps domain errors to stable API codes.
func errorCode(err error) string {
	switch {
	case errors.Is(err, game.ErrNoTradesRemaining):
		return "no_trades_remaining"
	case errors.Is(err, game.ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(err, game.ErrPriceUnavailable):
		return "price_unavailable"
	case errors.Is(err, game.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, game.ErrInsufficientShares):
		return "insufficient_shares"
	case errors.Is(err, game.ErrInvalidSettings):
		return "invalid_settings"
	case errors.Is(err, ErrGameOver):
		return "game_over"
	case errors.Is(err, ErrNoGame):
		return "no_game"
	case errors.Is(err, ErrGameInProgress):
		return "game_in_progress"
	case errors.Is(err, report.ErrEmptyReport):
		return "empty_report"
	}
	return "internal"
}

func errorStatus(code string) int {
	switch code {
	case "no_trades_remaining", "insufficient_funds", "insufficient_shares", "game_over", "game_in_progress":
		return http.StatusConflict
	case "invalid_quantity", "invalid_settings":
		return http.StatusBadRequest
	case "price_unavailable", "empty_report":
		return http.StatusUnprocessableEntity
	case "no_game":
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// fail writes err as a JSON error. Unexpected errors are logged and their
// detail is not exposed.
func (s *Service) fail(w http.ResponseWriter, err error) {
	code := errorCode(err)
	status := errorStatus(code)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "err", err)
		writeErrorCode(w, "internal error", code, status)
		return
	}
	writeErrorCode(w, err.Error(), code, status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response with a code derived from status.
func writeError(w http.ResponseWriter, message string, status int) {
	code := "bad_request"
	switch status {
	case http.StatusNotFound:
		code = "not_found"
	case http.StatusInternalServerError:
		code = "internal"
	}
	writeErrorCode(w, message, code, status)
}

func writeErrorCode(w http.ResponseWriter, message, code string, status int) {
	writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}
