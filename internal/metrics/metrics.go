// Package metrics provides Prometheus instrumentation for the game server.
package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// TradesTotal counts trades executed, partitioned by type (buy/sell).
	TradesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stockgame_trades_total",
		Help: "Total number of trades executed",
	}, []string{"type"})

	// TradeRejections counts rejected trades by error code.
	TradeRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stockgame_trade_rejections_total",
		Help: "Trades rejected by the engine or the service",
	}, []string{"type", "code"})

	// TradeLatency tracks trade execution latency, load to persist.
	TradeLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stockgame_trade_latency_seconds",
		Help:    "Trade execution latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"type"})

	// TradeVolume tracks cumulative traded shares per company.
	TradeVolume = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stockgame_trade_volume_shares_total",
		Help: "Cumulative trade volume in shares",
	}, []string{"company_id", "type"})

	// DayAdvances counts day advancements by trigger (manual/scheduled).
	DayAdvances = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stockgame_day_advances_total",
		Help: "Total number of day advancements",
	}, []string{"trigger"})

	// GamesStarted counts new games and resets.
	GamesStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stockgame_games_started_total",
		Help: "Total number of games started",
	})

	// CurrentDay is the day of the active game.
	CurrentDay = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stockgame_current_day",
		Help: "Current day of the active game",
	})

	// PortfolioValue is the last recorded total value of the active game.
	PortfolioValue = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stockgame_portfolio_value",
		Help: "Last recorded total portfolio value",
	})

	// WebSocketClients tracks connected WebSocket clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stockgame_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stockgame_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stockgame_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		// Use the route pattern for path label to avoid high cardinality.
		path := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			path = rc.RoutePattern()
		}
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Hijack lets the WebSocket upgrade take over the connection.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("metrics: response writer does not support hijacking")
	}
	return h.Hijack()
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
