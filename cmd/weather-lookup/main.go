package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	httpapi "github.com/i474232898/weather-lookup/internal/api/http"
	wsapi "github.com/i474232898/weather-lookup/internal/api/ws"
	"github.com/i474232898/weather-lookup/internal/config"
	"github.com/i474232898/weather-lookup/internal/scheduler"
	"github.com/i474232898/weather-lookup/internal/store"
	"github.com/i474232898/weather-lookup/internal/weather"
	"github.com/i474232898/weather-lookup/internal/weather/providers"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zl, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Upstream clients share timeout and retry settings.
	clientCfg := providers.ClientConfig{
		Timeout:    cfg.HTTPTimeout,
		MaxRetries: cfg.HTTPMaxRetries,
	}
	forecastCfg := clientCfg
	forecastCfg.BaseURL = cfg.ForecastBaseURL
	forecast, err := providers.NewOpenMeteoProvider(forecastCfg)
	if err != nil {
		zl.Fatal("failed to create forecast client", zap.Error(err))
	}
	geocodingCfg := clientCfg
	geocodingCfg.BaseURL = cfg.GeocodingBaseURL
	geocoder, err := providers.NewGeocodingProvider(geocodingCfg)
	if err != nil {
		zl.Fatal("failed to create geocoding client", zap.Error(err))
	}

	recent, err := store.Open(ctx, store.Options{
		Backend:       cfg.RecentStore,
		Capacity:      store.DefaultCapacity,
		SQLitePath:    cfg.SQLitePath,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
	}, zl)
	if err != nil {
		zl.Fatal("failed to open recent search store", zap.Error(err), zap.String("backend", cfg.RecentStore))
	}
	defer recent.Close()

	resolver := weather.NewResolver(geocoder, zl.Named("resolver"))
	builder := weather.NewBuilder()
	orchestrator := weather.NewOrchestrator(resolver, forecast, builder, recent, zl.Named("orchestrator"))

	// Watched cities and chart views are not user searches and do not touch
	// the recent list.
	unrecorded := weather.NewOrchestrator(resolver, forecast, builder, nil, zl.Named("unrecorded"))
	sched := scheduler.New(cfg.WatchCities, cfg.WatchInterval, unrecorded, zl)
	if err := sched.Start(); err != nil {
		zl.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "weather-lookup",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-lookup",
		})
	})

	httpapi.RegisterRoutes(app, httpapi.Services{
		Runner:      orchestrator,
		ChartRunner: unrecorded,
		Suggester:   resolver,
		Recent:      recent,
	})

	wsServer := &http.Server{
		Addr: ":" + cfg.WSPort,
		Handler: wsapi.NewServer(wsapi.Options{
			Runner:    orchestrator,
			Suggester: resolver,
			Recent:    recent,
			Debounce:  cfg.SuggestDebounce,
			Logger:    zl.Named("ws"),
		}).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zl.Info("http server listening", zap.String("port", cfg.Port))
		if err := app.Listen(":" + cfg.Port); err != nil {
			zl.Error("fiber server stopped", zap.Error(err))
		}
	}()
	go func() {
		zl.Info("websocket server listening", zap.String("port", cfg.WSPort))
		if err := wsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Error("websocket server stopped", zap.Error(err))
		}
	}()

	// Wait for termination signal
	<-ctx.Done()
	zl.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		zl.Error("error during http shutdown", zap.Error(err))
	}
	if err := wsServer.Shutdown(shutdownCtx); err != nil {
		zl.Error("error during websocket shutdown", zap.Error(err))
	}
}

func newLogger(cfg *config.AppConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	zcfg := zap.NewProductionConfig()
	if cfg.AppEnv == "development" {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}
