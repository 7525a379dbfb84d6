// @title                       Storefront API
// @version                     1.0
// @description                 Products, accounts and shopping carts.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/storefront/shop-api/internal/api"
	"github.com/storefront/shop-api/internal/api/handler"
	"github.com/storefront/shop-api/internal/core/service"
	mongodb "github.com/storefront/shop-api/internal/infrastructure/db/mongo"
	redisdb "github.com/storefront/shop-api/internal/infrastructure/db/redis"
	"github.com/storefront/shop-api/internal/infrastructure/queue"
	"github.com/storefront/shop-api/internal/pkg/config"
	"github.com/storefront/shop-api/internal/pkg/security"
	"github.com/storefront/shop-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "shop-api",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Infrastructure ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  "shop-api",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mongodb")
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = mongoClient.Disconnect(dctx)
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer rdb.Close()

	userRepo := mongodb.NewUserRepository(db)
	productRepo := mongodb.NewProductRepository(db)
	cartRepo := mongodb.NewCartRepository(db)
	if err := mongodb.EnsureIndexes(ctx, userRepo, cartRepo); err != nil {
		log.Fatal().Err(err).Msg("failed to create indexes")
	}

	// Workers outlive the signal so in-flight requests drain during Shutdown.
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	dispatcher := queue.NewDispatcher(cfg.Cart.Workers, log)
	dispatcher.Start(workerCtx)

	// --- Services ---
	hasher := security.NewBcryptHasher(cfg.Auth.BcryptCost)
	signer := security.NewJWTSigner(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	authService, err := service.NewAuthService(userRepo, hasher, signer, redisdb.NewRevocationList(rdb), log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build auth service")
	}
	cartService := service.NewCartService(cartRepo, productRepo, service.CartOptions{
		Runner:      dispatcher,
		Idempotency: redisdb.NewDedupStore(rdb, cfg.Cart.IdempotencyTTL),
		MaxRetries:  cfg.Cart.MaxRetries,
	}, log)

	e := api.NewRouter(api.Services{
		Auth:     authService,
		Users:    service.NewUserService(userRepo, cartRepo, hasher, log),
		Products: service.NewProductService(productRepo, log),
		Carts:    cartService,
	}, map[string]handler.Check{
		"mongodb": func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) },
		"redis":   func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	}, log)

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("http server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	stopWorkers()
}
