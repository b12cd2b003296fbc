package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/meridian-dist/meridian/internal/app"
	"github.com/meridian-dist/meridian/internal/auth"
	"github.com/meridian-dist/meridian/internal/catalog/clients"
	"github.com/meridian-dist/meridian/internal/catalog/locations"
	"github.com/meridian-dist/meridian/internal/catalog/outlets"
	"github.com/meridian-dist/meridian/internal/catalog/products"
	"github.com/meridian-dist/meridian/internal/observability"
	"github.com/meridian-dist/meridian/internal/orders"
	"github.com/meridian-dist/meridian/internal/platform/cache"
	"github.com/meridian-dist/meridian/internal/platform/db"
	"github.com/meridian-dist/meridian/internal/shared"
	"github.com/meridian-dist/meridian/internal/stock"
	"github.com/meridian-dist/meridian/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

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

	sessionManager := shared.NewSessionManager(redisClient, "meridian_session", cfg.SessionTTL, cfg.IsProduction())
	auditLogger := shared.NewAuditLogger(pool)
	metrics := observability.NewMetrics()

	authService := auth.NewService(auth.NewRepository(pool))
	authHandler := auth.NewHandler(logger, authService, sessionManager)

	stockService := stock.NewService(stock.NewRepository(pool), auditLogger)
	stockHandler := stock.NewHandler(logger, stockService)

	productService := products.NewService(products.NewRepository(pool))
	locationService := locations.NewService(locations.NewRepository(pool))
	clientService := clients.NewService(clients.NewRepository(pool))
	outletService := outlets.NewService(outlets.NewRepository(pool))

	orderService := orders.NewService(orders.NewRepository(pool), outletService, auditLogger, cfg.OrderSeqStart)
	orderHandler := orders.NewHandler(logger, orderService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterConfig{
		Logger:          logger,
		Config:          cfg,
		SessionManager:  sessionManager,
		Metrics:         metrics,
		AuthHandler:     authHandler,
		StockHandler:    stockHandler,
		OrderHandler:    orderHandler,
		ProductHandler:  products.NewHandler(logger, productService),
		LocationHandler: locations.NewHandler(logger, locationService),
		ClientHandler:   clients.NewHandler(logger, clientService),
		OutletHandler:   outlets.NewHandler(logger, outletService),
		JobsHandler:     jobs.NewHandler(inspector, logger),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
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
}
