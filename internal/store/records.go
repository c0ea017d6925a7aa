package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/atmx/stock-game/internal/market"
	"github.com/atmx/stock-game/internal/model"
)

// Records reads and writes the game's JSON records on a KV.
//
// A record that is missing or cannot be decoded is treated as absent and the
// default is returned instead. Only I/O failures of the underlying store are
// reported as errors.
type Records struct {
	kv KV
}

// NewRecords creates typed record access on kv.
func NewRecords(kv KV) *Records {
	return &Records{kv: kv}
}

// load decodes key into v. It reports false when the record is absent or
// corrupt.
func (r *Records) load(ctx context.Context, key string, v any) (bool, error) {
	data, err := r.kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		slog.Warn("ignoring corrupt record", "key", key, "error", err)
		return false, nil
	}
	return true, nil
}

func (r *Records) save(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := r.kv.Set(ctx, key, data); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// LoadGame returns the saved game, or nil when there is none.
func (r *Records) LoadGame(ctx context.Context) (*model.GameState, error) {
	var s model.GameState
	ok, err := r.load(ctx, KeyGameState, &s)
	if err != nil || !ok {
		return nil, err
	}
	if s.CurrentDay < model.FirstDay {
		slog.Warn("ignoring corrupt record", "key", KeyGameState, "error", "day out of range")
		return nil, nil
	}
	return &s, nil
}

// SaveGame replaces the saved game.
func (r *Records) SaveGame(ctx context.Context, s model.GameState) error {
	return r.save(ctx, KeyGameState, s)
}

// LoadSettings returns the saved settings, or the defaults.
func (r *Records) LoadSettings(ctx context.Context) (model.GameSettings, error) {
	var s model.GameSettings
	ok, err := r.load(ctx, KeyGameSettings, &s)
	if err != nil {
		return model.GameSettings{}, err
	}
	if !ok || !s.StartingCapital.IsPositive() || s.TradesPerDay <= 0 {
		return model.DefaultSettings(), nil
	}
	return s, nil
}

// SaveSettings replaces the saved settings.
func (r *Records) SaveSettings(ctx context.Context, s model.GameSettings) error {
	return r.save(ctx, KeyGameSettings, s)
}

// LoadMarket returns the saved market data, or the built-in sample market
// when either half of it is absent.
func (r *Records) LoadMarket(ctx context.Context) (model.MarketState, error) {
	var ms model.MarketState
	ok, err := r.load(ctx, KeyMarketCompanies, &ms.Companies)
	if err != nil {
		return model.MarketState{}, err
	}
	if !ok || len(ms.Companies) == 0 {
		return market.Default(), nil
	}
	ok, err = r.load(ctx, KeyMarketPriceData, &ms.PriceData)
	if err != nil {
		return model.MarketState{}, err
	}
	if !ok {
		return market.Default(), nil
	}
	return ms, nil
}

// SaveMarket replaces the saved companies and price data.
func (r *Records) SaveMarket(ctx context.Context, ms model.MarketState) error {
	if err := r.save(ctx, KeyMarketCompanies, ms.Companies); err != nil {
		return err
	}
	return r.save(ctx, KeyMarketPriceData, ms.PriceData)
}
