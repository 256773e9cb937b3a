package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/opinix/opinix/internal/config"
	"github.com/opinix/opinix/internal/engine"
	"github.com/opinix/opinix/internal/feed"
	"github.com/opinix/opinix/internal/handler"
	"github.com/opinix/opinix/internal/ledger"
	"github.com/opinix/opinix/internal/service"
)

func main() {
	healthcheck := flag.Bool("healthcheck", false, "Run health check against running server")
	flag.Parse()

	// Handle -healthcheck flag: HTTP GET to localhost:PORT/healthz, exit 0/1.
	if *healthcheck {
		port := os.Getenv("HTTP_PORT")
		if port == "" {
			port = "3000"
		}
		resp, err := http.Get(fmt.Sprintf("http://localhost:%s/healthz", port))
		if err != nil || resp.StatusCode != http.StatusOK {
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up slog logger with configured level.
	var logLevel slog.Level
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Core state.
	book := ledger.New()
	registry := engine.NewRegistry()
	matcher := engine.NewMatcher(registry, book)

	// Feed: publisher + WebSocket hub.
	publisher := feed.NewPublisher(registry)
	hub := feed.NewHub()
	publisher.Attach(hub)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	// Services.
	userSvc := service.NewUserService(book)
	marketSvc := service.NewMarketService(registry, book)
	orderSvc := service.NewOrderService(matcher, publisher)
	adminSvc := service.NewAdminService(book, registry, publisher)

	// HTTP API server.
	router := handler.NewRouter(userSvc, marketSvc, orderSvc, adminSvc, logger)
	apiSrv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	// WebSocket server on its own port.
	wsMux := http.NewServeMux()
	wsMux.HandleFunc("/", hub.HandleWS)
	wsSrv := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.WSPort),
		Handler:     wsMux,
		IdleTimeout: cfg.IdleTimeout,
	}

	go func() {
		logger.Info("api server starting", slog.String("addr", apiSrv.Addr))
		if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("api server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()
	go func() {
		logger.Info("ws server starting", slog.String("addr", wsSrv.Addr))
		if err := wsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("ws server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Wait for SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutdown signal received", slog.String("signal", sig.String()))

	// Graceful shutdown: stop both servers, cancel context (stops the hub).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := apiSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("api server shutdown error", slog.String("error", err.Error()))
	}
	if err := wsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("ws server shutdown error", slog.String("error", err.Error()))
	}
	cancel()

	logger.Info("server stopped")
}
