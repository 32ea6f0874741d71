package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/BradenHooton/revue/internal/models"
	pkghttp "github.com/BradenHooton/revue/pkg/http"
)

// UserSummary is the user shape returned with a token.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// UserResponse represents a user in the HTTP response. The password hash has
// no field here.
type UserResponse struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	IsActive  bool       `json:"isActive"`
	LastLogin *time.Time `json:"lastLogin"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func toUserSummary(u *models.User) UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

func toUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		IsActive:  u.IsActive,
		LastLogin: u.LastLogin,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func toUserResponses(users []*models.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return out
}

// writeServiceError maps service sentinels to HTTP responses. fallback is the
// message for unexpected failures, which are logged and never echoed.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, err error, fallback string) {
	var ve *models.ValidationError
	switch {
	case errors.As(err, &ve):
		pkghttp.WriteError(w, http.StatusBadRequest, "validation_error", ve.Message)
	case errors.Is(err, models.ErrValidation):
		pkghttp.WriteValidationError(w, err.Error())
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, "User not found")
	case errors.Is(err, models.ErrConflict):
		pkghttp.WriteConflict(w, "Email already in use")
	case errors.Is(err, models.ErrUnauthorized):
		pkghttp.WriteUnauthorized(w, "Not authorized")
	case errors.Is(err, models.ErrForbidden):
		pkghttp.WriteForbidden(w, "Not authorized for this resource")
	default:
		if logger != nil && !errors.Is(err, models.ErrInternalServer) {
			logger.Error(fallback, slog.Any("error", err))
		}
		pkghttp.WriteInternalError(w, fallback)
	}
}
