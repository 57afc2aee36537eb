package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/moodshelf/recs-gateway/internal/ai"
	"github.com/moodshelf/recs-gateway/internal/api/http/handlers"
	"github.com/moodshelf/recs-gateway/internal/auth"
	"github.com/moodshelf/recs-gateway/internal/cache"
	"github.com/moodshelf/recs-gateway/internal/catalog"
	"github.com/moodshelf/recs-gateway/internal/config"
	"github.com/moodshelf/recs-gateway/internal/events"
	"github.com/moodshelf/recs-gateway/internal/gatekeeper"
	"github.com/moodshelf/recs-gateway/internal/observability"
	"github.com/moodshelf/recs-gateway/internal/persistence"
	"github.com/moodshelf/recs-gateway/internal/repository"
	"github.com/moodshelf/recs-gateway/internal/service"
	"github.com/moodshelf/recs-gateway/internal/worker"

	apihttp "github.com/moodshelf/recs-gateway/internal/api/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	postgres, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("postgres connection failed", zap.Error(err))
	}
	defer postgres.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, postgres.PoolHandle(), logger); err != nil {
			logger.Fatal("migrations failed", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var store repository.TicketStore
	if pool := postgres.PoolHandle(); pool != nil {
		store = repository.NewPgTicketStore(pool)
	} else {
		store = repository.NewMemoryTicketStore()
	}

	var responseCache cache.ResponseCache
	if redis.Ping(ctx) == nil {
		responseCache = cache.NewRedisCache(redis.Client, cfg.Cache.TTL(), logger)
	} else {
		logger.Warn("redis unavailable; response cache falls back to memory")
		responseCache = cache.NewMemoryCache(cfg.Cache.TTL(), cfg.Cache.MaxEntries)
	}

	dispatcher := events.NewInMemoryDispatcher()
	notifications := service.NewNotificationService(dispatcher, logger, cfg.Notify.WebhookURL)
	notifications.RegisterHandlers()

	keeper := gatekeeper.New(store, dispatcher, logger, cfg.Gatekeeper)

	aiClient := ai.NewClient(cfg.AI, logger)
	catalogTimeout := cfg.AI.Timeout()
	recommender := service.NewRecommendService(service.RecommendDependencies{
		AI:     aiClient,
		Books:  catalog.NewBooksClient(cfg.Catalog, catalogTimeout, logger),
		Movies: catalog.NewMoviesClient(cfg.Catalog, catalogTimeout, logger),
		Music:  catalog.NewMusicClient(cfg.Catalog, catalogTimeout, logger),
		Cache:  responseCache,
		Logger: logger,
	})

	sweeper := worker.NewExpiryWorker(store, cfg.Gatekeeper.SweepInterval(), logger)
	go sweeper.Run(ctx)

	tokens := auth.NewTokenManager(cfg.Admin.JWTSecret, cfg.Admin.TokenTTLMinutes)
	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: cfg.App.Env == "production",
	})

	apihttp.RegisterRoutes(app, apihttp.RouteConfig{
		Keeper:         keeper,
		Recommend:      handlers.NewRecommendHandler(recommender, keeper, logger),
		Admin:          handlers.NewAdminHandler(keeper, tokens, cfg.Admin, logger),
		Health:         handlers.NewHealthHandler(postgres, redis, cfg.App.Version),
		AdminMW:        auth.NewAdminMiddleware(tokens),
		Logger:         logger,
		Metrics:        metrics,
		RequestTimeout: cfg.App.RequestTimeout(),
	})

	go func() {
		logger.Info("server starting", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()

	waitForShutdown(app, logger, cancel)
}

func waitForShutdown(app *fiber.App, logger *zap.Logger, cancel context.CancelFunc) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutdown signal received")
	cancel()

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	logger.Info("server stopped")
}
