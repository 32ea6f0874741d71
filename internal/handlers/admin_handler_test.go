package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BradenHooton/revue/internal/handlers"
	"github.com/BradenHooton/revue/internal/models"
	"github.com/BradenHooton/revue/internal/services"
)

func TestGetDashboardStats_Success_Returns200(t *testing.T) {
	mock := &handlers.MockAdminService{
		GetDashboardStatsFunc: func(ctx context.Context) (*services.DashboardStats, error) {
			return &services.DashboardStats{
				UserStats:   models.UserStats{TotalUsers: 100, ActiveUsers: 80, AdminUsers: 3, RegularUsers: 97},
				RecentUsers: []services.RecentUser{{ID: testUserID, Name: "A", Email: "a@example.com", Role: "user", CreatedAt: time.Now()}},
				SystemHealth: services.SystemHealth{
					Database:  "connected",
					AIService: "configured",
				},
			}, nil
		},
	}
	h := handlers.NewAdminHandler(mock, handlers.DiscardLogger())

	w := httptest.NewRecorder()
	h.GetDashboardStats(w, httptest.NewRequest("GET", "/api/admin/dashboard", nil))

	var resp map[string]any
	handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
	assert.Equal(t, true, resp["success"])
	stats, ok := resp["stats"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(100), stats["totalUsers"])
	assert.Equal(t, float64(80), stats["activeUsers"])
	assert.Equal(t, float64(3), stats["adminUsers"])
	assert.Equal(t, float64(97), stats["regularUsers"])
	assert.Len(t, stats["recentUsers"], 1)
	health, ok := stats["systemHealth"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "connected", health["database"])
}

func TestGetDashboardStats_ServiceError_Returns500(t *testing.T) {
	mock := &handlers.MockAdminService{
		GetDashboardStatsFunc: func(ctx context.Context) (*services.DashboardStats, error) {
			return nil, errors.New("db down")
		},
	}
	h := handlers.NewAdminHandler(mock, handlers.DiscardLogger())

	w := httptest.NewRecorder()
	h.GetDashboardStats(w, httptest.NewRequest("GET", "/api/admin/dashboard", nil))

	resp := handlers.AssertErrorResponse(t, w, http.StatusInternalServerError, "internal_error")
	assert.Equal(t, "Error fetching dashboard statistics", resp.Message)
}

func TestGetSystemMetrics_Success(t *testing.T) {
	mock := &handlers.MockAdminService{
		GetSystemMetricsFunc: func(ctx context.Context) (*services.SystemMetrics, error) {
			m := &services.SystemMetrics{}
			m.Database.Status = "connected"
			m.Application.Version = "1.0.0"
			return m, nil
		},
	}
	h := handlers.NewAdminHandler(mock, handlers.DiscardLogger())

	w := httptest.NewRecorder()
	h.GetSystemMetrics(w, httptest.NewRequest("GET", "/api/admin/metrics", nil))

	var resp handlers.MetricsResponse
	handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
	assert.True(t, resp.Success)
	assert.Equal(t, "connected", resp.Metrics.Database.Status)
	assert.Equal(t, "1.0.0", resp.Metrics.Application.Version)
}

func TestGetSystemMetrics_ServiceError(t *testing.T) {
	mock := &handlers.MockAdminService{
		GetSystemMetricsFunc: func(ctx context.Context) (*services.SystemMetrics, error) {
			return nil, errors.New("boom")
		},
	}
	h := handlers.NewAdminHandler(mock, handlers.DiscardLogger())

	w := httptest.NewRecorder()
	h.GetSystemMetrics(w, httptest.NewRequest("GET", "/api/admin/metrics", nil))

	handlers.AssertErrorResponse(t, w, http.StatusInternalServerError, "internal_error")
}
