// Package trade provides the HTTP handlers and business logic for playing
// the game: starting and resetting games, executing trades, advancing days,
// and querying the market, holdings and results.
//
// All monetary values use shopspring/decimal, never float64 for money.
package trade

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/atmx/stock-game/internal/game"
	"github.com/atmx/stock-game/internal/market"
	"github.com/atmx/stock-game/internal/metrics"
	"github.com/atmx/stock-game/internal/model"
	"github.com/atmx/stock-game/internal/store"
)

var (
	// ErrNoGame is returned when an operation needs a game and none is saved.
	ErrNoGame = errors.New("trade: no game in progress")

	// ErrGameOver is returned for trades on a finished game.
	ErrGameOver = errors.New("trade: game is over")

	// ErrGameInProgress is returned when market data is replaced while an
	// unfinished game depends on it.
	ErrGameInProgress = errors.New("trade: a game is in progress")
)

// Advance triggers.
const (
	TriggerManual    = "manual"
	TriggerScheduled = "scheduled"
)

// Service runs the game against the store. Uses a mutex for serialized
// load-execute-persist cycles (single-instance). For horizontal scaling,
// replace with distributed locking or database-level optimistic concurrency.
type Service struct {
	records *store.Records
	engine  *game.Engine
	mu      sync.Mutex
	wsHub   *WSHub // optional WebSocket hub for real-time broadcasts
}

// NewService creates a new game service.
// Pass nil for hub if WebSocket broadcasting is not needed.
func NewService(records *store.Records, engine *game.Engine, hub *WSHub) *Service {
	return &Service{
		records: records,
		engine:  engine,
		wsHub:   hub,
	}
}

func (s *Service) broadcast(msg WSMessage) {
	if s.wsHub != nil {
		s.wsHub.Broadcast(msg)
	}
}

func observeState(st model.GameState) {
	metrics.CurrentDay.Set(float64(st.CurrentDay))
	if last := st.LastSnapshot(); last != nil {
		metrics.PortfolioValue.Set(last.TotalValue.InexactFloat64())
	}
}

// Market returns the current market data.
func (s *Service) Market(ctx context.Context) (*market.Market, error) {
	ms, err := s.records.LoadMarket(ctx)
	if err != nil {
		return nil, err
	}
	return market.New(ms), nil
}

// State returns the saved game, or ErrNoGame.
func (s *Service) State(ctx context.Context) (model.GameState, error) {
	st, err := s.records.LoadGame(ctx)
	if err != nil {
		return model.GameState{}, err
	}
	if st == nil {
		return model.GameState{}, ErrNoGame
	}
	return *st, nil
}

// Settings returns the saved settings or the defaults.
func (s *Service) Settings(ctx context.Context) (model.GameSettings, error) {
	return s.records.LoadSettings(ctx)
}

// SaveSettings validates and saves settings for the next game.
func (s *Service) SaveSettings(ctx context.Context, settings model.GameSettings) error {
	if err := game.ValidateSettings(settings); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records.SaveSettings(ctx, settings)
}

// NewGame starts a new game, replacing any saved one. When settings is nil
// the saved settings are used; otherwise they are validated and saved first.
func (s *Service) NewGame(ctx context.Context, settings *model.GameSettings) (model.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cfg model.GameSettings
	if settings != nil {
		if err := game.ValidateSettings(*settings); err != nil {
			return model.GameState{}, err
		}
		if err := s.records.SaveSettings(ctx, *settings); err != nil {
			return model.GameState{}, err
		}
		cfg = *settings
	} else {
		saved, err := s.records.LoadSettings(ctx)
		if err != nil {
			return model.GameState{}, err
		}
		cfg = saved
	}

	st, err := s.engine.NewGame(cfg)
	if err != nil {
		return model.GameState{}, err
	}
	if err := s.records.SaveGame(ctx, st); err != nil {
		return model.GameState{}, err
	}

	metrics.GamesStarted.Inc()
	observeState(st)
	slog.Info("game started",
		"starting_capital", cfg.StartingCapital.String(),
		"trades_per_day", cfg.TradesPerDay,
	)
	s.broadcast(stateMessage(MsgGameStarted, st))
	return st, nil
}

// Trade executes a buy or sell on the saved game and persists the result.
func (s *Service) Trade(ctx context.Context, typ model.TradeType, companyID string, shares decimal.Decimal) (model.GameState, model.Transaction, error) {
	start := time.Now()

	// Serialize trade execution.
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.State(ctx)
	if err != nil {
		return model.GameState{}, model.Transaction{}, err
	}
	if st.IsGameOver {
		metrics.TradeRejections.WithLabelValues(string(typ), errorCode(ErrGameOver)).Inc()
		return st, model.Transaction{}, ErrGameOver
	}
	m, err := s.Market(ctx)
	if err != nil {
		return st, model.Transaction{}, err
	}

	var next model.GameState
	switch typ {
	case model.Buy:
		next, err = s.engine.Buy(st, m, companyID, shares)
	case model.Sell:
		next, err = s.engine.Sell(st, m, companyID, shares)
	default:
		return st, model.Transaction{}, fmt.Errorf("%w: unknown trade type %q", game.ErrInvalidQuantity, typ)
	}
	if err != nil {
		metrics.TradeRejections.WithLabelValues(string(typ), errorCode(err)).Inc()
		slog.Debug("trade rejected", "type", typ, "company", companyID, "shares", shares.String(), "err", err)
		return st, model.Transaction{}, err
	}

	if err := s.records.SaveGame(ctx, next); err != nil {
		return st, model.Transaction{}, err
	}

	tx := next.Transactions[len(next.Transactions)-1]
	metrics.TradesTotal.WithLabelValues(string(typ)).Inc()
	metrics.TradeVolume.WithLabelValues(companyID, string(typ)).Add(shares.InexactFloat64())
	metrics.TradeLatency.WithLabelValues(string(typ)).Observe(time.Since(start).Seconds())
	observeState(next)

	slog.Info("trade executed",
		"trade_id", tx.ID,
		"type", tx.Type,
		"company", tx.CompanyID,
		"shares", tx.Shares.String(),
		"price", tx.Price.String(),
		"day", tx.Day,
		"cash", next.Portfolio.Cash.String(),
		"trades_remaining", next.DailyTradesRemaining,
	)

	msg := stateMessage(MsgTradeExecuted, next)
	msg.TradeType = string(tx.Type)
	msg.CompanyID = tx.CompanyID
	msg.Shares = tx.Shares.String()
	msg.Price = tx.Price.String()
	s.broadcast(msg)

	return next, tx, nil
}

// Advance moves the saved game to the next day using the saved trades per
// day. On the final day it returns the game-over state with
// game.ErrFinalDay.
func (s *Service) Advance(ctx context.Context, trigger string) (model.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.State(ctx)
	if err != nil {
		return model.GameState{}, err
	}
	settings, err := s.records.LoadSettings(ctx)
	if err != nil {
		return st, err
	}
	m, err := s.Market(ctx)
	if err != nil {
		return st, err
	}

	next, err := s.engine.Advance(st, m, settings.TradesPerDay)
	if errors.Is(err, game.ErrFinalDay) {
		if !st.IsGameOver {
			if err := s.records.SaveGame(ctx, next); err != nil {
				return st, err
			}
			s.broadcast(stateMessage(MsgGameOver, next))
		}
		return next, err
	}
	if err != nil {
		return st, err
	}

	if err := s.records.SaveGame(ctx, next); err != nil {
		return st, err
	}

	metrics.DayAdvances.WithLabelValues(trigger).Inc()
	observeState(next)
	slog.Info("day advanced",
		"day", next.CurrentDay,
		"trigger", trigger,
		"game_over", next.IsGameOver,
	)

	typ := MsgDayAdvanced
	if next.IsGameOver {
		typ = MsgGameOver
	}
	s.broadcast(stateMessage(typ, next))
	return next, nil
}

// ImportMarket replaces the market data. It is refused while an unfinished
// game is saved.
func (s *Service) ImportMarket(ctx context.Context, ms model.MarketState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.records.LoadGame(ctx)
	if err != nil {
		return err
	}
	if st != nil && !st.IsGameOver {
		return ErrGameInProgress
	}
	if err := s.records.SaveMarket(ctx, ms); err != nil {
		return err
	}

	slog.Info("market imported", "companies", len(ms.Companies))
	s.broadcast(WSMessage{Type: MsgMarketImported, Companies: len(ms.Companies)})
	return nil
}
