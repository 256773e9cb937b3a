package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/opinix/opinix/internal/metrics"
	"github.com/opinix/opinix/internal/service"
)

// NewRouter creates a chi router with all routes registered, request
// logging, and Prometheus metrics middleware. Routes that take no body
// (the path-parameter POSTs) skip JSON parsing entirely.
func NewRouter(
	userSvc *service.UserService,
	marketSvc *service.MarketService,
	orderSvc *service.OrderService,
	adminSvc *service.AdminService,
	logger *slog.Logger,
) chi.Router {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(requestLogging(logger))
	r.Use(metrics.Middleware)

	// Create handlers.
	userH := NewUserHandler(userSvc)
	marketH := NewMarketHandler(marketSvc)
	orderH := NewOrderHandler(orderSvc)

	// Health check and metrics.
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", metrics.Handler())

	// User routes.
	r.Post("/user/create/{userId}", userH.Create)
	r.Post("/onramp/inr", userH.Onramp)
	r.Get("/balance/inr/{userId}", userH.BalanceINR)
	r.Get("/balance/stock/{userId}", userH.BalanceStock)

	// Market routes.
	r.Post("/symbol/create/{symbol}", marketH.CreateSymbol)
	r.Get("/orderbook/{symbol}", marketH.Orderbook)
	r.Post("/trade/mint", marketH.Mint)

	// Order routes.
	r.Post("/order/buy", orderH.Buy)
	r.Post("/order/sell", orderH.Sell)

	// Operational reset, used by the behavioral test harness.
	r.Post("/reset", func(w http.ResponseWriter, r *http.Request) {
		adminSvc.Reset()
		writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
	})

	return r
}

// requestLogging returns middleware that logs each request's method, path,
// status code, and duration using slog.
func requestLogging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}
