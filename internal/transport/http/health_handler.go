package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/AleksandrZin/google-election/internal/services"
)

// HealthHandler serves the orchestration endpoints under /api/health and
// the build description at /api/version.
type HealthHandler struct {
	service *services.HealthService
	logger  *slog.Logger
}

func NewHealthHandler(service *services.HealthService, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{service: service, logger: logger.With(slog.String("handler", "health"))}
}

// Routes mounts /, /ready and /live. Responses are never cached.
func (h *HealthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(noStore)
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, h.service.HealthCheck(r.Context()))
	})
	r.Get("/live", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, h.service.LivenessCheck(r.Context()))
	})
	r.Get("/ready", h.ReadinessCheck)
	return r
}

// ReadinessCheck answers 503 until the fused tables are loaded
func (h *HealthHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	status := h.service.ReadinessCheck(r.Context())
	if status.Tables == nil || !status.Tables.Ready {
		render.Status(r, http.StatusServiceUnavailable)
	}
	render.JSON(w, r, status)
}

// Version handles GET /api/version
func (h *HealthHandler) Version(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Version())
}

func noStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
