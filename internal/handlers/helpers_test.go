package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/BradenHooton/revue/internal/auth"
	"github.com/BradenHooton/revue/internal/models"
	"github.com/BradenHooton/revue/internal/services"
	pkghttp "github.com/BradenHooton/revue/pkg/http"
)

// DiscardLogger drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// NewRawRequest creates a request with a literal body.
func NewRawRequest(method, url, body string) *http.Request {
	req := httptest.NewRequest(method, url, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithAuthContext attaches a regular-user identity to the request
func WithAuthContext(req *http.Request, userID, email string) *http.Request {
	return req.WithContext(auth.WithIdentity(req.Context(), &models.Identity{
		ID: userID, Name: "Test User", Email: email, Role: models.RoleUser,
	}))
}

// WithAdminContext attaches an admin identity to the request
func WithAdminContext(req *http.Request, userID, email string) *http.Request {
	return req.WithContext(auth.WithIdentity(req.Context(), &models.Identity{
		ID: userID, Name: "Admin", Email: email, Role: models.RoleAdmin,
	}))
}

// WithURLParam sets a chi route parameter on the request
func WithURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target any) {
	t.Helper()
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"), "Content-Type should be application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) pkghttp.ErrorResponse {
	t.Helper()
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
	return resp
}

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	SignupFunc         func(ctx context.Context, name, email, password, ip string) (*services.AuthResult, error)
	LoginFunc          func(ctx context.Context, email, password, ip string) (*services.AuthResult, error)
	GetProfileFunc     func(ctx context.Context, userID string) (*models.User, error)
	UpdateProfileFunc  func(ctx context.Context, userID string, name, email *string) (*models.User, error)
	ChangePasswordFunc func(ctx context.Context, userID, currentPassword, newPassword, ip string) error
}

func (m *MockAuthService) Signup(ctx context.Context, name, email, password, ip string) (*services.AuthResult, error) {
	if m.SignupFunc == nil {
		return nil, models.ErrConflict
	}
	return m.SignupFunc(ctx, name, email, password, ip)
}

func (m *MockAuthService) Login(ctx context.Context, email, password, ip string) (*services.AuthResult, error) {
	if m.LoginFunc == nil {
		return nil, models.ErrInvalidCredentials
	}
	return m.LoginFunc(ctx, email, password, ip)
}

func (m *MockAuthService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	if m.GetProfileFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.GetProfileFunc(ctx, userID)
}

func (m *MockAuthService) UpdateProfile(ctx context.Context, userID string, name, email *string) (*models.User, error) {
	if m.UpdateProfileFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.UpdateProfileFunc(ctx, userID, name, email)
}

func (m *MockAuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword, ip string) error {
	if m.ChangePasswordFunc == nil {
		return nil
	}
	return m.ChangePasswordFunc(ctx, userID, currentPassword, newPassword, ip)
}

// MockUserService implements UserServiceInterface for testing
type MockUserService struct {
	ListUsersFunc  func(ctx context.Context, filter models.UserFilter, page, limit int) (*models.UserPage, error)
	GetUserFunc    func(ctx context.Context, id string) (*models.User, error)
	UpdateUserFunc func(ctx context.Context, actorID, targetID string, fields models.UserUpdate) (*models.User, error)
	DeleteUserFunc func(ctx context.Context, actorID, targetID string) error
	BulkUpdateFunc func(ctx context.Context, actorID string, targetIDs []string, action, value string) (int64, error)
}

func (m *MockUserService) ListUsers(ctx context.Context, filter models.UserFilter, page, limit int) (*models.UserPage, error) {
	if m.ListUsersFunc == nil {
		return &models.UserPage{}, nil
	}
	return m.ListUsersFunc(ctx, filter, page, limit)
}

func (m *MockUserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	if m.GetUserFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.GetUserFunc(ctx, id)
}

func (m *MockUserService) UpdateUser(ctx context.Context, actorID, targetID string, fields models.UserUpdate) (*models.User, error) {
	if m.UpdateUserFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.UpdateUserFunc(ctx, actorID, targetID, fields)
}

func (m *MockUserService) DeleteUser(ctx context.Context, actorID, targetID string) error {
	if m.DeleteUserFunc == nil {
		return nil
	}
	return m.DeleteUserFunc(ctx, actorID, targetID)
}

func (m *MockUserService) BulkUpdate(ctx context.Context, actorID string, targetIDs []string, action, value string) (int64, error) {
	if m.BulkUpdateFunc == nil {
		return 0, nil
	}
	return m.BulkUpdateFunc(ctx, actorID, targetIDs, action, value)
}

// MockAdminService implements AdminServiceInterface for testing
type MockAdminService struct {
	GetDashboardStatsFunc func(ctx context.Context) (*services.DashboardStats, error)
	GetSystemMetricsFunc  func(ctx context.Context) (*services.SystemMetrics, error)
}

func (m *MockAdminService) GetDashboardStats(ctx context.Context) (*services.DashboardStats, error) {
	if m.GetDashboardStatsFunc == nil {
		return &services.DashboardStats{}, nil
	}
	return m.GetDashboardStatsFunc(ctx)
}

func (m *MockAdminService) GetSystemMetrics(ctx context.Context) (*services.SystemMetrics, error) {
	if m.GetSystemMetricsFunc == nil {
		return &services.SystemMetrics{}, nil
	}
	return m.GetSystemMetricsFunc(ctx)
}

// MockReviewService implements ReviewServiceInterface for testing
type MockReviewService struct {
	ReviewFunc func(ctx context.Context, identity *models.Identity, code string) (string, error)
}

func (m *MockReviewService) Review(ctx context.Context, identity *models.Identity, code string) (string, error) {
	if m.ReviewFunc == nil {
		return "ok", nil
	}
	return m.ReviewFunc(ctx, identity, code)
}

// MockPinger implements Pinger for testing
type MockPinger struct {
	Err error
}

func (m *MockPinger) HealthCheck(ctx context.Context) error {
	return m.Err
}

// NewTestUser creates an active regular user for handler tests
func NewTestUser(id, email, name string) *models.User {
	return &models.User{
		ID:           id,
		Name:         name,
		Email:        email,
		PasswordHash: "$2a$04$should.never.be.serialized",
		Role:         models.RoleUser,
		IsActive:     true,
	}
}
