package config

import (
	"log"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	Postgres Postgres
	Redis    Redis
	HTTP     HTTP
	Game     Game
	Client   Client
}

type Postgres struct {
	URL string `env:"DATABASE_URL"`
}

type Redis struct {
	URL       string        `env:"REDIS_URL"`
	KeyPrefix string        `env:"REDIS_KEY_PREFIX" envDefault:"stockgame"`
	CacheTTL  time.Duration `env:"CACHE_TTL" envDefault:"30s"`
}

type HTTP struct {
	ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
}

type Game struct {
	// DayDuration enables timed mode when positive.
	DayDuration time.Duration `env:"DAY_DURATION" envDefault:"0s"`
}

type Client struct {
	Server  string        `env:"STOCKGAME_SERVER" envDefault:"http://localhost:8080"`
	Timeout time.Duration `env:"CLIENT_TIMEOUT" envDefault:"10s"`
}

// Load reads the environment, after loading .env when present.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("parse config error: %s", err)
	}
	return cfg
}

// SlogLevel maps LOG_LEVEL to a slog level. Unknown values mean info.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
