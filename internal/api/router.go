package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/hackgods/therapy-center-scheduling/internal/scheduling"
)

type RouterConfig struct {
	Service            *scheduling.Service
	PgPool             *pgxpool.Pool
	Redis              *redis.Client
	Logger             zerolog.Logger
	Env                string
	Version            string
	RequestTimeout     time.Duration
	DefaultTherapyTime string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(RecoveryMiddleware(cfg.Logger))
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	svc := cfg.Service

	// Plan catalogue
	r.Get("/plans", listTemplatesHandler())
	r.Get("/plans/{id}/preview", previewPlanHandler(cfg.DefaultTherapyTime))

	// Directory
	r.Post("/centers", createCenterHandler(svc))
	r.Post("/centers/{id}/approve", approveCenterHandler(svc))
	r.Post("/centers/{id}/suspend", suspendCenterHandler(svc))
	r.Get("/centers/{id}/availability", centerAvailabilityHandler(svc))
	r.Post("/centers/{id}/doctors", createDoctorHandler(svc))
	r.Post("/doctors/{id}/deactivate", deactivateDoctorHandler(svc))
	r.Get("/doctors/{id}/availability", doctorAvailabilityHandler(svc))
	r.Post("/patients", createPatientHandler(svc))

	// Single therapy sessions
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", createSessionHandler(svc))
		r.Get("/", listSessionsHandler(svc))
		r.Get("/{id}", getSessionHandler(svc))
		r.Post("/{id}/approve", approveSessionHandler(svc))
		r.Post("/{id}/reject", rejectSessionHandler(svc))
		r.Post("/{id}/assign", assignSessionHandler(svc))
		r.Post("/{id}/start", startSessionHandler(svc))
		r.Post("/{id}/complete", completeSessionHandler(svc))
	})

	// Detox programs
	r.Route("/programs", func(r chi.Router) {
		r.Post("/", createProgramHandler(svc))
		r.Get("/", listProgramsHandler(svc))
		r.Get("/{id}", getProgramHandler(svc))
		r.Post("/{id}/approve", bindProgramHandler(svc, svc.ApproveProgram))
		r.Post("/{id}/reassign", bindProgramHandler(svc, svc.ReassignProgram))
		r.Post("/{id}/reject", rejectProgramHandler(svc))
		r.Post("/{id}/start", startProgramHandler(svc))
		r.Post("/{id}/complete", completeProgramHandler(svc))
		r.Patch("/{id}/days/{day}/slots/{slot}", updateSlotHandler(svc))
		r.Post("/{id}/progress", recordProgressHandler(svc))
		r.Get("/{id}/progress", progressSummaryHandler(svc))
	})

	return r
}
