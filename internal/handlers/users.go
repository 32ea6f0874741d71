package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/BradenHooton/revue/internal/auth"
	"github.com/BradenHooton/revue/internal/models"
	"github.com/BradenHooton/revue/internal/services"
	pkghttp "github.com/BradenHooton/revue/pkg/http"
)

// UserServiceInterface defines the interface for directory management
type UserServiceInterface interface {
	ListUsers(ctx context.Context, filter models.UserFilter, page, limit int) (*models.UserPage, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	UpdateUser(ctx context.Context, actorID, targetID string, fields models.UserUpdate) (*models.User, error)
	DeleteUser(ctx context.Context, actorID, targetID string) error
	BulkUpdate(ctx context.Context, actorID string, targetIDs []string, action, value string) (int64, error)
}

// UserHandler serves the admin user directory.
type UserHandler struct {
	service UserServiceInterface
	logger  *slog.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(service UserServiceInterface, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		logger:  logger,
	}
}

// Request/Response DTOs

// UpdateUserRequest is an admin edit. Fields not listed here, such as the
// password, cannot be set through this endpoint.
type UpdateUserRequest struct {
	Name     *string `json:"name" validate:"omitempty,max=100"`
	Email    *string `json:"email" validate:"omitempty,email,max=254"`
	Role     *string `json:"role"`
	IsActive *bool   `json:"isActive"`
}

type BulkUpdateRequest struct {
	UserIDs []string `json:"userIds" validate:"max=1000"`
	Action  string   `json:"action"`
	Value   string   `json:"value"`
}

type ListUsersResponse struct {
	Success    bool              `json:"success"`
	Users      []UserResponse    `json:"users"`
	Pagination models.Pagination `json:"pagination"`
}

type UserEnvelope struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	User    UserResponse `json:"user"`
}

type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type BulkUpdateResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	UpdatedCount int64  `json:"updatedCount"`
}

// RegisterRoutes registers all user routes with the chi router
func (h *UserHandler) RegisterRoutes(router chi.Router) {
	router.Route("/users", func(r chi.Router) {
		r.Get("/", h.ListUsers)
		r.Post("/bulk", h.BulkUpdate)
		r.Get("/{id}", h.GetUser)
		r.Put("/{id}", h.UpdateUser)
		r.Delete("/{id}", h.DeleteUser)
	})
}

// ListUsers handles GET /api/admin/users?search&role&status&page&limit.
// Unparseable page/limit values fall back to their defaults.
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	filter := models.UserFilter{
		Search: q.Get("search"),
		Role:   q.Get("role"),
	}
	switch q.Get("status") {
	case "active":
		active := true
		filter.IsActive = &active
	case "inactive":
		active := false
		filter.IsActive = &active
	}

	result, err := h.service.ListUsers(r.Context(), filter, page, limit)
	if err != nil {
		writeServiceError(w, h.logger, err, "Error fetching users")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, ListUsersResponse{
		Success:    true,
		Users:      toUserResponses(result.Users),
		Pagination: result.Pagination,
	})
}

// GetUser handles GET /api/admin/users/{id}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.logger, err, "Error fetching user")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, UserEnvelope{Success: true, User: toUserResponse(user)})
}

// UpdateUser handles PUT /api/admin/users/{id}
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	actor := auth.GetIdentity(r.Context())
	if actor == nil {
		pkghttp.WriteUnauthorized(w, "Not authorized")
		return
	}

	var req UpdateUserRequest
	if err := pkghttp.DecodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteValidationError(w, err.Error())
		return
	}

	user, err := h.service.UpdateUser(r.Context(), actor.ID, chi.URLParam(r, "id"), models.UserUpdate{
		Name:     req.Name,
		Email:    req.Email,
		Role:     req.Role,
		IsActive: req.IsActive,
	})
	if err != nil {
		if errors.Is(err, models.ErrSelfModification) {
			pkghttp.WriteBadRequest(w, "Cannot deactivate your own account")
			return
		}
		writeServiceError(w, h.logger, err, "Error updating user")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, UserEnvelope{
		Success: true,
		Message: "User updated successfully",
		User:    toUserResponse(user),
	})
}

// DeleteUser handles DELETE /api/admin/users/{id}
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actor := auth.GetIdentity(r.Context())
	if actor == nil {
		pkghttp.WriteUnauthorized(w, "Not authorized")
		return
	}

	if err := h.service.DeleteUser(r.Context(), actor.ID, chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, models.ErrSelfModification) {
			pkghttp.WriteBadRequest(w, "Cannot delete your own account")
			return
		}
		writeServiceError(w, h.logger, err, "Error deleting user")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, SuccessResponse{Success: true, Message: "User deleted successfully"})
}

// BulkUpdate handles POST /api/admin/users/bulk
func (h *UserHandler) BulkUpdate(w http.ResponseWriter, r *http.Request) {
	actor := auth.GetIdentity(r.Context())
	if actor == nil {
		pkghttp.WriteUnauthorized(w, "Not authorized")
		return
	}

	var req BulkUpdateRequest
	if err := pkghttp.DecodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteValidationError(w, err.Error())
		return
	}

	count, err := h.service.BulkUpdate(r.Context(), actor.ID, req.UserIDs, req.Action, req.Value)
	if err != nil {
		writeServiceError(w, h.logger, err, "Error performing bulk operation")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, BulkUpdateResponse{
		Success:      true,
		Message:      bulkMessage(req.Action, req.Value),
		UpdatedCount: count,
	})
}

func bulkMessage(action, value string) string {
	switch action {
	case services.BulkActivate:
		return "Users activated successfully"
	case services.BulkDeactivate:
		return "Users deactivated successfully"
	default:
		return fmt.Sprintf("Users role changed to %s successfully", value)
	}
}
