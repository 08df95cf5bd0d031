package routes

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	handlers "github.com/Nenad034/olympichub-search/internal/http"
	mid "github.com/Nenad034/olympichub-search/internal/middleware"
	"github.com/Nenad034/olympichub-search/internal/obs"
)

func GetRoutes(h *handlers.Handler, metrics *obs.Metrics, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()
	// Useful built-in middlewares
	r.Use(middleware.RealIP)    // proper client IP extraction
	r.Use(middleware.RequestID) // sets request ID header
	r.Use(middleware.Recoverer) // built-in recoverer to avoid panics taking server down

	// our custom middlewares: logging & timeout
	r.Use(mid.MetricsMiddleware(metrics))
	r.Use(mid.LoggingMiddleware(logger))
	r.Use(mid.TimeoutMiddleware(30 * time.Second))

	// endpoints
	r.Post("/search", h.Search)
	r.Post("/flexdates", h.FlexDates)
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", h.CreateSession)
		r.Post("/{id}/schedule", h.Schedule)
		r.Post("/{id}/search", h.SessionSearch)
		r.Delete("/{id}", h.DeleteSession)
	})
	r.Get("/healthz", h.Healthz)
	r.Get("/metrics", metrics.Handler().ServeHTTP)

	return r
}
