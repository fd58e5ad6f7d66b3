package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/hackgods/therapy-center-scheduling/internal/api"
	"github.com/hackgods/therapy-center-scheduling/internal/config"
	"github.com/hackgods/therapy-center-scheduling/internal/db"
	"github.com/hackgods/therapy-center-scheduling/internal/logging"
	"github.com/hackgods/therapy-center-scheduling/internal/notify"
	redisclient "github.com/hackgods/therapy-center-scheduling/internal/redis"
	"github.com/hackgods/therapy-center-scheduling/internal/scheduling"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Bootstrap().Fatal().Err(err).Msg("config load error")
	}

	logger := logging.New(cfg.Env, cfg.LogLevel, cfg.Version)
	logger.Info().
		Str("http_port", cfg.HTTPPort).
		Str("store", cfg.Store).
		Msg("api-server starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		repo   scheduling.Repository
		pgPool *pgxpool.Pool
	)
	switch cfg.Store {
	case config.StoreMemory:
		repo = scheduling.NewMemRepository()
		logger.Warn().Msg("using in-memory store, data is lost on exit")
	default:
		pgCtx, cancelPg := context.WithTimeout(rootCtx, 30*time.Second)
		pool, applied, err := db.ConnectAndMigrate(pgCtx, cfg.PostgresDSN, db.PoolOptions{})
		cancelPg()
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres connection error")
		}
		defer pool.Close()
		logger.Info().Int("migrations_applied", applied).Msg("connected to Postgres")
		pgPool = pool
		repo = scheduling.NewPgRepository(pool)
	}

	retry := redisclient.RetryPolicy{Attempts: cfg.LockRetries, Delay: cfg.LockRetryDelay}
	var (
		rdb      *redis.Client
		locker   redisclient.Locker
		notifier notify.Notifier
	)
	logNotifier := notify.NewLogNotifier(logger)
	if cfg.RedisAddr != "" {
		rdb, err = redisclient.NewRedisClient(rootCtx, redisclient.Options{
			Addr:     cfg.RedisAddr,
			Username: cfg.RedisUsername,
			Password: cfg.RedisPassword,
			PoolSize: cfg.RedisPoolSize,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connection error")
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				logger.Error().Err(err).Msg("error closing redis")
			}
		}()
		logger.Info().Str("addr", cfg.RedisAddr).Msg("connected to Redis")
		locker = redisclient.NewRedisLocker(rdb, cfg.LockTTL, retry)
		notifier = notify.Multi{
			notify.NewStreamNotifier(rdb, cfg.NotifyStream, cfg.NotifyMaxLen),
			logNotifier,
		}
	} else {
		// Single-process locks only hold when one api-server owns the store.
		locker = redisclient.NewLocalLocker(retry)
		notifier = logNotifier
	}

	svc := scheduling.NewService(repo, locker, notifier, cfg, logger)

	router := api.NewRouter(api.RouterConfig{
		Service:            svc,
		PgPool:             pgPool,
		Redis:              rdb,
		Logger:             logger,
		Env:                cfg.Env,
		Version:            cfg.Version,
		RequestTimeout:     cfg.RequestTimeout,
		DefaultTherapyTime: cfg.DefaultTherapyTime,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-rootCtx.Done():
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("http server error")
		}
	}

	logger.Info().Dur("timeout", cfg.ShutdownTimeout).Msg("shutting down api-server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}
