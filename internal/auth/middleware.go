package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/BradenHooton/revue/internal/models"
	pkghttp "github.com/BradenHooton/revue/pkg/http"
)

type contextKey string

const IdentityContextKey contextKey = "identity"

// UserLookup loads the token subject.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// TokenValidator verifies bearer tokens.
type TokenValidator interface {
	ValidateToken(tokenString string) (*models.TokenClaims, error)
}

// Authenticate requires a valid bearer token whose subject still exists and
// is active, and attaches the caller's Identity to the request context.
func Authenticate(tv TokenValidator, users UserLookup, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok {
				pkghttp.WriteUnauthorized(w, "Not authorized, no token")
				return
			}

			claims, err := tv.ValidateToken(tokenString)
			if err != nil {
				pkghttp.WriteUnauthorized(w, "Not authorized, token failed")
				return
			}

			user, err := users.GetByID(r.Context(), claims.UserID)
			if err != nil {
				if errors.Is(err, models.ErrNotFound) {
					pkghttp.WriteUnauthorized(w, "Not authorized, user not found")
					return
				}
				logger.Error("failed to load token subject", slog.String("user_id", claims.UserID), slog.Any("error", err))
				pkghttp.WriteInternalError(w, "Internal server error")
				return
			}
			if !user.IsActive {
				pkghttp.WriteUnauthorized(w, "Not authorized, account inactive")
				return
			}

			identity := &models.Identity{ID: user.ID, Name: user.Name, Email: user.Email, Role: user.Role}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// RequireRole admits only callers whose role is in roles. It must run after
// Authenticate.
func RequireRole(roles ...string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := GetIdentity(r.Context())
			if identity == nil {
				pkghttp.WriteUnauthorized(w, "Not authorized")
				return
			}
			if !slices.Contains(roles, identity.Role) {
				pkghttp.WriteForbidden(w, "Not authorized for this resource")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func WithIdentity(ctx context.Context, identity *models.Identity) context.Context {
	return context.WithValue(ctx, IdentityContextKey, identity)
}

// GetIdentity returns the authenticated caller, or nil.
func GetIdentity(ctx context.Context) *models.Identity {
	identity, _ := ctx.Value(IdentityContextKey).(*models.Identity)
	return identity
}
