// Package store defines the persistence interface for the game.
// Implementations include PostgreSQL (source of truth), Redis (standalone or
// as a read-through cache in front of PostgreSQL), and in-memory (for
// testing and development).
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no value is stored under the key.
var ErrNotFound = errors.New("store: key not found")

// Record keys.
const (
	KeyGameState       = "game_state"
	KeyGameSettings    = "game_settings"
	KeyMarketCompanies = "market_companies"
	KeyMarketPriceData = "market_price_data"
)

// KV is a key/value blob store. Values are opaque JSON documents.
type KV interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error
}
