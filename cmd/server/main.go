package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/sweetshop/inventory-system/internal/api"
	"github.com/sweetshop/inventory-system/internal/api/middleware"
	"github.com/sweetshop/inventory-system/internal/core/ports"
	"github.com/sweetshop/inventory-system/internal/core/service"
	"github.com/sweetshop/inventory-system/internal/infrastructure/config"
	mongostore "github.com/sweetshop/inventory-system/internal/infrastructure/db/mongo"
	redisstore "github.com/sweetshop/inventory-system/internal/infrastructure/db/redis"
	"github.com/sweetshop/inventory-system/internal/infrastructure/db/sqlite"
	"github.com/sweetshop/inventory-system/internal/infrastructure/http/handlers"
	"github.com/sweetshop/inventory-system/internal/infrastructure/queue"
	"github.com/sweetshop/inventory-system/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

// @title                       Sweet Shop Inventory API
// @version                     1.0
// @description                 Authenticated catalog and stock management for a sweet shop.
// @BasePath                    /api
//
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Bearer token
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "sweetshop: %v\n", err)
		os.Exit(1)
	}
}

// stores bundles the repositories of the selected backend.
type stores struct {
	auth   ports.AuthRepository
	sweets ports.SweetRepository
	events ports.StockEventRepository
	health []handlers.Dependency
	close  func(context.Context)
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "sweetshop",
	})

	st, err := openStores(ctx, cfg, logger.Component("store"))
	if err != nil {
		return err
	}
	defer st.close(context.Background())

	authOpts := []service.AuthOption{
		service.WithBcryptCost(cfg.Auth.BcryptCost),
		service.WithLogger(logger.Component("auth")),
	}
	if cfg.Redis.Addr != "" {
		rdb, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer rdb.Close()

		throttle := redisstore.NewLoginThrottle(rdb, cfg.Auth.LoginMaxFailures, cfg.Auth.LoginLockout)
		authOpts = append(authOpts, service.WithLoginThrottle(throttle))
		st.health = append(st.health, handlers.Dependency{Name: "redis", Pinger: redisstore.Pinger{Client: rdb}})
	} else {
		log.Warn().Msg("REDIS_ADDR not set, login throttling disabled")
	}

	authSvc := service.NewAuthService(st.auth, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, authOpts...)
	if cfg.Admin.Enabled() {
		if _, err := authSvc.EnsureAdmin(ctx, cfg.Admin.Username, cfg.Admin.Email, cfg.Admin.Password); err != nil {
			return err
		}
	}

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	dispatcher := queue.NewDispatcher(cfg.EventWorkers, st.events, logger.Component("stock_events"))
	dispatcher.Start(workerCtx)
	defer func() {
		stopWorkers()
		dispatcher.Wait()
	}()

	inventory := service.NewInventoryService(st.sweets, st.events, dispatcher, logger.Component("inventory"))

	limiter := middleware.NewRateLimiter(cfg.Auth.RatePerMinute)
	defer limiter.Stop()

	e := api.NewRouter(api.Deps{
		Auth:        authSvc,
		Inventory:   inventory,
		Authorizer:  service.NewGate(authSvc),
		AuthLimiter: limiter,
		Health:      st.health,
		Log:         logger.Component("http"),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("store", cfg.StoreDriver).Msg("http server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func openStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*stores, error) {
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		log.Info().Str("path", cfg.SQLite.Path).Msg("sqlite store opened")
		return &stores{
			auth:   sqlite.NewAuthRepository(db),
			sweets: sqlite.NewSweetRepository(db),
			events: sqlite.NewStockEventRepository(db),
			health: []handlers.Dependency{{Name: "sqlite", Pinger: sqlite.Pinger{DB: db}}},
			close:  func(context.Context) { _ = db.Close() },
		}, nil

	default:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		if err := mongostore.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		log.Info().Str("database", cfg.Mongo.Database).Msg("mongodb store connected")
		return &stores{
			auth:   mongostore.NewAuthRepository(db),
			sweets: mongostore.NewSweetRepository(db),
			events: mongostore.NewStockEventRepository(db),
			health: []handlers.Dependency{{Name: "mongodb", Pinger: mongostore.Pinger{Client: client}}},
			close:  func(ctx context.Context) { _ = client.Disconnect(ctx) },
		}, nil
	}
}
