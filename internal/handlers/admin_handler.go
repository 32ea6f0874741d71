package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/BradenHooton/revue/internal/services"
	pkghttp "github.com/BradenHooton/revue/pkg/http"
)

// AdminServiceInterface defines the dashboard service contract.
type AdminServiceInterface interface {
	GetDashboardStats(ctx context.Context) (*services.DashboardStats, error)
	GetSystemMetrics(ctx context.Context) (*services.SystemMetrics, error)
}

// AdminHandler handles admin dashboard HTTP requests.
type AdminHandler struct {
	service AdminServiceInterface
	logger  *slog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(service AdminServiceInterface, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{service: service, logger: logger}
}

type DashboardResponse struct {
	Success bool                     `json:"success"`
	Stats   *services.DashboardStats `json:"stats"`
}

type MetricsResponse struct {
	Success bool                    `json:"success"`
	Metrics *services.SystemMetrics `json:"metrics"`
}

// GetDashboardStats handles GET /api/admin/dashboard
func (h *AdminHandler) GetDashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetDashboardStats(r.Context())
	if err != nil {
		h.logger.Error("failed to build dashboard", slog.Any("error", err))
		pkghttp.WriteInternalError(w, "Error fetching dashboard statistics")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, DashboardResponse{Success: true, Stats: stats})
}

// GetSystemMetrics handles GET /api/admin/metrics
func (h *AdminHandler) GetSystemMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.service.GetSystemMetrics(r.Context())
	if err != nil {
		h.logger.Error("failed to collect system metrics", slog.Any("error", err))
		pkghttp.WriteInternalError(w, "Error fetching system metrics")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, MetricsResponse{Success: true, Metrics: metrics})
}
