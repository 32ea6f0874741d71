package handlers

import (
	"context"
	"net/http"
	"time"

	pkghttp "github.com/BradenHooton/revue/pkg/http"
)

// Pinger reports whether the database is reachable.
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

type HealthHandler struct {
	db          Pinger
	environment string
}

func NewHealthHandler(db Pinger, environment string) *HealthHandler {
	return &HealthHandler{db: db, environment: environment}
}

type HealthResponse struct {
	Status      string    `json:"status"`
	Database    string    `json:"database"`
	Environment string    `json:"environment"`
	Timestamp   time.Time `json:"timestamp"`
}

// Health handles GET /health. It answers 503 when the database is down.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:      "OK",
		Database:    "connected",
		Environment: h.environment,
		Timestamp:   time.Now().UTC(),
	}
	status := http.StatusOK

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if h.db == nil || h.db.HealthCheck(ctx) != nil {
		resp.Status = "DEGRADED"
		resp.Database = "disconnected"
		status = http.StatusServiceUnavailable
	}

	pkghttp.WriteJSON(w, status, resp)
}

// NotFound answers unknown routes with a JSON 404.
func NotFound(w http.ResponseWriter, r *http.Request) {
	pkghttp.WriteNotFound(w, "Route not found")
}

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	pkghttp.WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
}
