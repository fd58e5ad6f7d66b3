package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackgods/therapy-center-scheduling/internal/config"
	"github.com/hackgods/therapy-center-scheduling/internal/db"
	"github.com/hackgods/therapy-center-scheduling/internal/logging"
	"github.com/hackgods/therapy-center-scheduling/internal/notify"
	"github.com/hackgods/therapy-center-scheduling/internal/plan"
	redisclient "github.com/hackgods/therapy-center-scheduling/internal/redis"
	"github.com/hackgods/therapy-center-scheduling/internal/scheduling"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Bootstrap().Fatal().Err(err).Msg("config load error")
	}
	logger := logging.New(cfg.Env, cfg.LogLevel, cfg.Version).With().Str("component", "reminder-worker").Logger()

	if cfg.Store != config.StorePostgres {
		logger.Fatal().Str("store", cfg.Store).Msg("reminder worker needs the postgres store")
	}
	logger.Info().Dur("interval", cfg.ReminderInterval).Msg("reminder worker starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN, db.PoolOptions{MaxConns: 4})
	cancelPg()
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	logger.Info().Msg("connected to Postgres")

	var (
		dedupe   redisclient.Deduper
		notifier notify.Notifier = notify.NewLogNotifier(logger)
	)
	if cfg.RedisAddr != "" {
		rdb, err := redisclient.NewRedisClient(rootCtx, redisclient.Options{
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
		logger.Info().Msg("connected to Redis")
		dedupe = redisclient.NewRedisDeduper(rdb)
		notifier = notify.Multi{notify.NewStreamNotifier(rdb, cfg.NotifyStream, cfg.NotifyMaxLen), notifier}
	} else {
		logger.Warn().Msg("no redis configured, reminders are deduplicated in this process only")
		dedupe = redisclient.NewLocalDeduper()
	}

	locker := redisclient.NewLocalLocker(redisclient.RetryPolicy{Attempts: 1})
	svc := scheduling.NewService(scheduling.NewPgRepository(pgPool), locker, notifier, cfg, logger)

	// Run once at startup
	runOnce(rootCtx, svc, dedupe, logger)

	ticker := time.NewTicker(cfg.ReminderInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			logger.Info().Msg("shutdown signal received, stopping reminder worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc, dedupe, logger)
		}
	}
}

func runOnce(ctx context.Context, svc *scheduling.Service, dedupe redisclient.Deduper, logger zerolog.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	start := time.Now()
	today := plan.Truncate(start)
	sent, err := svc.SendDailyReminders(runCtx, today, dedupe)
	if err != nil {
		logger.Error().Err(err).Int("sent", sent).Msg("reminder run error")
		return
	}
	logger.Info().
		Str("date", plan.FormatDate(today)).
		Int("sent", sent).
		Dur("took", time.Since(start)).
		Msg("reminder run complete")
}
