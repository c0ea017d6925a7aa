package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/atmx/stock-game/internal/config"
	"github.com/atmx/stock-game/internal/game"
	"github.com/atmx/stock-game/internal/metrics"
	"github.com/atmx/stock-game/internal/scheduler"
	"github.com/atmx/stock-game/internal/store"
	"github.com/atmx/stock-game/internal/trade"
)

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Initialize store ---
	kv, cleanup := openStore(ctx, cfg)
	defer func() {
		for _, fn := range cleanup {
			fn()
		}
	}()

	// --- WebSocket hub ---
	wsHub := trade.NewWSHub()
	go wsHub.Run(ctx)

	// --- Game service ---
	gameSvc := trade.NewService(store.NewRecords(kv), game.NewEngine(), wsHub)

	// --- Timed mode ---
	if cfg.Game.DayDuration > 0 {
		sched := scheduler.New()
		sched.NewIntervalJob("advance day", scheduler.AdvanceDay(gameSvc), cfg.Game.DayDuration, false)
		sched.Start()
		defer sched.Stop()
		slog.Info("timed mode enabled", "day_duration", cfg.Game.DayDuration.String())
	}

	// --- HTTP router ---
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metrics.Middleware)

	// CORS middleware for frontend cross-origin requests.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"stock-game"}`))
	})

	// Prometheus metrics endpoint.
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// WebSocket endpoint for real-time game updates. Long-lived, so it
		// sits outside the request timeout.
		r.Get("/ws", wsHub.HandleWS)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(30 * time.Second))
			gameSvc.Mount(r)
		})
	})

	// --- Server ---
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("stock-game listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	slog.Info("shutting down stock-game...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
	}
	cancel()
	fmt.Println("stock-game stopped")
}

// openStore picks the backend from the configuration: Postgres (optionally
// behind a Redis cache), Redis alone, or memory.
func openStore(ctx context.Context, cfg *config.Config) (store.KV, []func()) {
	var cleanup []func()

	var rdb *redis.Client
	if cfg.Redis.URL != "" {
		opt, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			slog.Error("invalid REDIS_URL", "err", err)
			os.Exit(1)
		}
		rdb = redis.NewClient(opt)
		cleanup = append(cleanup, func() { rdb.Close() })
		if err := rdb.Ping(ctx).Err(); err != nil {
			slog.Error("redis connection failed", "err", err)
			os.Exit(1)
		}
	}

	if cfg.Postgres.URL == "" {
		if rdb != nil {
			slog.Info("using Redis store")
			return store.NewRedisStore(rdb, cfg.Redis.KeyPrefix), cleanup
		}
		slog.Warn("DATABASE_URL not set, using in-memory store (data will not persist)")
		return store.NewMemoryStore(), cleanup
	}

	pool, err := pgxpool.New(ctx, cfg.Postgres.URL)
	if err != nil {
		slog.Error("database connection failed", "err", err)
		os.Exit(1)
	}
	cleanup = append(cleanup, pool.Close)
	if err := store.Migrate(pool); err != nil {
		slog.Error("database migration failed", "err", err)
		os.Exit(1)
	}
	slog.Info("connected to PostgreSQL")

	var kv store.KV = store.NewPostgresStore(pool)

	// Wrap with Redis read-through cache if configured.
	if rdb != nil {
		kv = store.NewCachedStore(kv, rdb, cfg.Redis.CacheTTL, cfg.Redis.KeyPrefix)
		slog.Info("Redis cache enabled", "ttl", cfg.Redis.CacheTTL.String())
	}
	return kv, cleanup
}
