package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"travel-planner/internal/config"
	"travel-planner/internal/models"
	"travel-planner/internal/store"
	"travel-planner/internal/telemetry"
)

// Store is the persistence surface the API depends on. *store.Store
// satisfies it; tests substitute fakes.
type Store interface {
	CreateUser(ctx context.Context, email, passwordHash string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)

	CreateJob(ctx context.Context, userID string, brief models.TripBrief) (models.GenerationJob, error)
	GetJob(ctx context.Context, id, userID string) (models.GenerationJob, error)
	FailJob(ctx context.Context, id, message string) error

	ListPlans(ctx context.Context, userID string, limit, offset int) ([]models.Plan, error)
	GetPlan(ctx context.Context, id, userID string) (models.Plan, error)
	GetActivities(ctx context.Context, planID string) ([]models.Activity, error)
	UpdatePlan(ctx context.Context, id, userID string, patch store.PlanPatch) (models.Plan, error)
	DeletePlan(ctx context.Context, id, userID string) error
	UpdateActivity(ctx context.Context, planID, activityID, userID string, patch store.ActivityPatch) (models.Activity, error)
}

// Enqueuer hands generation job IDs to the worker.
type Enqueuer interface {
	Enqueue(ctx context.Context, jobID string) error
}

// Limiter throttles generation submissions per user.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, float64, error)
}

// Server wires HTTP handlers for the planning API.
type Server struct {
	cfg     config.Config
	store   Store
	queue   Enqueuer
	limiter Limiter
	now     func() time.Time
}

// New constructs the API server. limiter may be nil (throttling disabled).
func New(cfg config.Config, st Store, q Enqueuer, limiter Limiter) *Server {
	return &Server{
		cfg:     cfg,
		store:   st,
		queue:   q,
		limiter: limiter,
		now:     time.Now,
	}
}

// Router builds the HTTP router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Mount("/metrics", telemetry.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Post("/plans/generate", s.handleGenerate)
			r.Get("/plans/generate/{jobID}/status", s.handleJobStatus)

			r.Get("/plans", s.handleListPlans)
			r.Get("/plans/{planID}", s.handleGetPlan)
			r.Patch("/plans/{planID}", s.handleUpdatePlan)
			r.Delete("/plans/{planID}", s.handleDeletePlan)
			r.Patch("/plans/{planID}/activities/{activityID}", s.handleUpdateActivity)
		})
	})

	return r
}
