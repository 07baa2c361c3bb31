package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/odyssey-erp/banquet-desk/internal/app"
	banquethttp "github.com/odyssey-erp/banquet-desk/internal/banquet/http"
	"github.com/odyssey-erp/banquet-desk/internal/banquet/remote"
	"github.com/odyssey-erp/banquet-desk/internal/banquet/session"
	"github.com/odyssey-erp/banquet-desk/internal/observability"
	"github.com/odyssey-erp/banquet-desk/internal/platform/cache"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	if cfg.HotelID == "" || cfg.LoginID == "" {
		logger.Warn("hotel or login id not configured, submissions will be refused")
	}

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	booking := remote.NewClient(remote.Config{
		BaseURL:         cfg.BookingBaseURL,
		Timeout:         cfg.BookingTimeout,
		ReceiptSentinel: cfg.ReceiptSuccessSentinel,
	}, logger)

	desks := banquethttp.NewRegistry(app.NewDeskFactory(app.DeskDeps{
		Config:   cfg,
		Logger:   logger,
		Service:  booking,
		Backend:  session.NewRedisBackend(redisClient, cfg.SessionTTL),
		Recorder: metrics,
	}), cfg.DeskIdle, cfg.IsProduction(), logger)
	metrics.TrackDesks(desks.Len)

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		desks.Run(sweepCtx, cfg.DeskSweep)
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:      logger,
		Config:      cfg,
		DeskHandler: banquethttp.NewHandler(logger, desks),
		Metrics:     metrics,
		Ready: func(r *http.Request) error {
			return cache.Ping(r.Context(), redisClient)
		},
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("booking", cfg.BookingBaseURL))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
	// Desks are closed after the server drains so pending drafts reach Redis.
	stopSweep()
	<-sweepDone
}
