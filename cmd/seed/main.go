package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/hackgods/therapy-center-scheduling/internal/config"
	"github.com/hackgods/therapy-center-scheduling/internal/db"
	"github.com/hackgods/therapy-center-scheduling/internal/logging"
	redisclient "github.com/hackgods/therapy-center-scheduling/internal/redis"
	"github.com/hackgods/therapy-center-scheduling/internal/scheduling"
)

var specializations = []string{
	"Panchakarma",
	"Naturopathy",
	"Ayurveda",
	"Physiotherapy",
	"Hydrotherapy",
	"Acupuncture",
	"Yoga Therapy",
	"Nutrition",
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Bootstrap().Fatal().Err(err).Msg("config load error")
	}
	logger := logging.New(cfg.Env, cfg.LogLevel, cfg.Version)

	if cfg.PostgresDSN == "" {
		logger.Fatal().Msg("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, _, err := db.ConnectAndMigrate(ctx, cfg.PostgresDSN, db.PoolOptions{})
	if err != nil {
		logger.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	// The seeder is the only writer, so process-local locks are enough.
	svc := scheduling.NewService(
		scheduling.NewPgRepository(pool),
		redisclient.NewLocalLocker(redisclient.RetryPolicy{Attempts: 1}),
		nil,
		cfg,
		logger,
	)

	centers := getInt("SEED_CENTERS", 10)
	doctors := getInt("SEED_DOCTORS_PER_CENTER", 6)
	patients := getInt("SEED_PATIENTS", 5000)

	if err := seedCenters(context.Background(), svc, logger, centers, doctors); err != nil {
		logger.Fatal().Err(err).Msg("seed centers")
	}
	if err := seedPatients(context.Background(), pool, logger, patients); err != nil {
		logger.Fatal().Err(err).Msg("seed patients")
	}

	logger.Info().Msg("seed complete")
}

func seedCenters(ctx context.Context, svc *scheduling.Service, logger zerolog.Logger, centers, doctorsPerCenter int) error {
	logger.Info().Int("centers", centers).Int("doctors_per_center", doctorsPerCenter).Msg("seeding centers")

	for i := 0; i < centers; i++ {
		c, err := svc.CreateCenter(ctx, scheduling.CenterRequest{
			Name:  gofakeit.Company() + " Wellness Center",
			Email: gofakeit.Email(),
			Phone: gofakeit.Phone(),
		})
		if err != nil {
			return err
		}
		// Most centers are approved so the simulator has somewhere to book.
		if gofakeit.Number(1, 10) <= 8 {
			if _, err := svc.ApproveCenter(ctx, c.ID); err != nil {
				return err
			}
		}

		for j := 0; j < doctorsPerCenter; j++ {
			_, err := svc.CreateDoctor(ctx, scheduling.DoctorRequest{
				CenterID:       c.ID,
				Name:           "Dr. " + gofakeit.Name(),
				Email:          gofakeit.Email(),
				Phone:          gofakeit.Phone(),
				Specialization: specializations[gofakeit.Number(0, len(specializations)-1)],
				WorkingDays:    randomWorkingDays(),
			})
			if err != nil {
				return err
			}
		}
	}

	logger.Info().Msg("centers seeded")
	return nil
}

// randomWorkingDays drops up to two days from the default Mon-Sat week.
func randomWorkingDays() []time.Weekday {
	days := append([]time.Weekday(nil), scheduling.DefaultWorkingDays...)
	drop := gofakeit.Number(0, 2)
	for k := 0; k < drop && len(days) > 1; k++ {
		idx := gofakeit.Number(0, len(days)-1)
		days = append(days[:idx], days[idx+1:]...)
	}
	return days
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, logger zerolog.Logger, count int) error {
	logger.Info().Int("count", count).Msg("seeding patients")

	const batchSize = 500

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			_, err := tx.Exec(ctx, `
				INSERT INTO patients (id, name, email, phone, created_at)
				VALUES ($1, $2, $3, $4, now())
			`, uuid.New(), gofakeit.Name(), gofakeit.Email(), gofakeit.Phone())
			if err != nil {
				_ = tx.Rollback(ctx)
				return fmt.Errorf("insert patient: %w", err)
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		logger.Info().Int("done", end).Int("total", count).Msg("patients seeded")
	}

	return nil
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}
