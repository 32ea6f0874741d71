package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/BradenHooton/revue/internal/auth"
	"github.com/BradenHooton/revue/internal/models"
	"github.com/BradenHooton/revue/internal/services"
	pkghttp "github.com/BradenHooton/revue/pkg/http"
)

// AuthServiceInterface defines the interface for auth business logic
type AuthServiceInterface interface {
	Signup(ctx context.Context, name, email, password, ip string) (*services.AuthResult, error)
	Login(ctx context.Context, email, password, ip string) (*services.AuthResult, error)
	GetProfile(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, name, email *string) (*models.User, error)
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword, ip string) error
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	service  AuthServiceInterface
	ipConfig *pkghttp.IPConfig
	logger   *slog.Logger
}

func NewAuthHandler(service AuthServiceInterface, ipConfig *pkghttp.IPConfig, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		service:  service,
		ipConfig: ipConfig,
		logger:   logger,
	}
}

// Request DTOs

type SignupRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileRequest carries optional fields; blank values are ignored.
type UpdateProfileRequest struct {
	Name  *string `json:"name" validate:"omitempty,max=100"`
	Email *string `json:"email" validate:"omitempty,max=254"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
}

// AuthResponse is returned by signup and login.
type AuthResponse struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    UserSummary `json:"user"`
}

type ProfileResponse struct {
	Message string       `json:"message,omitempty"`
	User    UserResponse `json:"user"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// RegisterRoutes mounts the public auth endpoints. Protected endpoints are
// registered by RegisterProtectedRoutes behind the auth guard.
func (h *AuthHandler) RegisterRoutes(router chi.Router) {
	router.Post("/signup", h.Signup)
	router.Post("/login", h.Login)
}

func (h *AuthHandler) RegisterProtectedRoutes(router chi.Router) {
	router.Get("/profile", h.GetProfile)
	router.Put("/profile", h.UpdateProfile)
	router.Put("/change-password", h.ChangePassword)
}

// Signup registers a new account and signs it in.
// @Router /api/auth/signup [post]
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := pkghttp.DecodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteValidationError(w, err.Error())
		return
	}

	ip := pkghttp.ExtractClientIP(r, h.ipConfig)
	result, err := h.service.Signup(r.Context(), req.Name, req.Email, req.Password, ip)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			pkghttp.WriteConflict(w, "User with this email already exists")
			return
		}
		writeServiceError(w, h.logger, err, "Server error during signup")
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, AuthResponse{
		Message: "Signup successful",
		Token:   result.Token,
		User:    toUserSummary(result.User),
	})
}

// Login exchanges credentials for a token.
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := pkghttp.DecodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteValidationError(w, err.Error())
		return
	}

	ip := pkghttp.ExtractClientIP(r, h.ipConfig)
	result, err := h.service.Login(r.Context(), req.Email, req.Password, ip)
	if err != nil {
		if errors.Is(err, models.ErrInvalidCredentials) {
			// Unknown, inactive and wrong-password logins are indistinguishable.
			pkghttp.WriteUnauthorized(w, "Invalid credentials")
			return
		}
		writeServiceError(w, h.logger, err, "Server error during login")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, AuthResponse{
		Message: "Login successful",
		Token:   result.Token,
		User:    toUserSummary(result.User),
	})
}

// @Router /api/auth/profile [get]
func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	identity := auth.GetIdentity(r.Context())
	if identity == nil {
		pkghttp.WriteUnauthorized(w, "Not authorized")
		return
	}

	user, err := h.service.GetProfile(r.Context(), identity.ID)
	if err != nil {
		writeServiceError(w, h.logger, err, "Server error while fetching profile")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, ProfileResponse{User: toUserResponse(user)})
}

// @Router /api/auth/profile [put]
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	identity := auth.GetIdentity(r.Context())
	if identity == nil {
		pkghttp.WriteUnauthorized(w, "Not authorized")
		return
	}

	var req UpdateProfileRequest
	if err := pkghttp.DecodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteValidationError(w, err.Error())
		return
	}
	if req.Email != nil && *req.Email != "" {
		if err := validate.Var(*req.Email, "email"); err != nil {
			pkghttp.WriteValidationError(w, "email must be a valid email address")
			return
		}
	}

	user, err := h.service.UpdateProfile(r.Context(), identity.ID, req.Name, req.Email)
	if err != nil {
		writeServiceError(w, h.logger, err, "Server error while updating profile")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, ProfileResponse{
		Message: "Profile updated successfully",
		User:    toUserResponse(user),
	})
}

// @Router /api/auth/change-password [put]
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	identity := auth.GetIdentity(r.Context())
	if identity == nil {
		pkghttp.WriteUnauthorized(w, "Not authorized")
		return
	}

	var req ChangePasswordRequest
	if err := pkghttp.DecodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteValidationError(w, err.Error())
		return
	}

	ip := pkghttp.ExtractClientIP(r, h.ipConfig)
	if err := h.service.ChangePassword(r.Context(), identity.ID, req.CurrentPassword, req.NewPassword, ip); err != nil {
		if errors.Is(err, models.ErrInvalidCredentials) {
			pkghttp.WriteBadRequest(w, "Current password is incorrect")
			return
		}
		writeServiceError(w, h.logger, err, "Server error while changing password")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Password changed successfully"})
}
