package services

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/BradenHooton/revue/internal/models"
	pkgauth "github.com/BradenHooton/revue/pkg/auth"
	pkglogger "github.com/BradenHooton/revue/pkg/logger"
	"github.com/google/uuid"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Bulk actions
const (
	BulkActivate   = "activate"
	BulkDeactivate = "deactivate"
	BulkChangeRole = "changeRole"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetWithPasswordByID(ctx context.Context, id string) (*models.User, error)
	GetWithPasswordByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter, limit, offset int) ([]*models.User, error)
	Count(ctx context.Context, filter models.UserFilter) (int64, error)
	Update(ctx context.Context, id string, u models.UserUpdate) (*models.User, error)
	BulkUpdate(ctx context.Context, ids []string, u models.UserUpdate) (int64, error)
	Delete(ctx context.Context, id string) error
	EmailTaken(ctx context.Context, email, excludeID string) (bool, error)
}

// StatsInvalidator is told when directory counts may have changed.
type StatsInvalidator interface {
	InvalidateStats(ctx context.Context)
}

// UserService is the administrative side of the user directory.
type UserService struct {
	repo   UserRepository
	stats  StatsInvalidator
	audit  *pkglogger.AuditLogger
	logger *slog.Logger
}

func NewUserService(repo UserRepository, stats StatsInvalidator, audit *pkglogger.AuditLogger, logger *slog.Logger) *UserService {
	return &UserService{
		repo:   repo,
		stats:  stats,
		audit:  audit,
		logger: logger,
	}
}

// NormalizeEmail is the canonical stored form of an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// normalizeID returns the canonical form of a user id so that differently
// cased spellings of the same UUID compare equal.
func normalizeID(id string) (string, bool) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return "", false
	}
	return parsed.String(), true
}

// HashNewPassword is the explicit pre-write step for every plaintext
// password: it enforces the password policy and returns the bcrypt hash.
func HashNewPassword(plaintext string) (string, error) {
	if err := pkgauth.ValidatePassword(plaintext); err != nil {
		return "", models.NewValidationError(err.Error())
	}
	hash, err := pkgauth.HashPassword(plaintext)
	if err != nil {
		return "", err
	}
	return hash, nil
}

func (s *UserService) invalidateStats(ctx context.Context) {
	if s.stats != nil {
		s.stats.InvalidateStats(ctx)
	}
}

// ListUsers returns one page of the directory, newest first.
func (s *UserService) ListUsers(ctx context.Context, filter models.UserFilter, page, limit int) (*models.UserPage, error) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	filter.Search = strings.TrimSpace(filter.Search)

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		s.logger.Error("failed to count users", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	users, err := s.repo.List(ctx, filter, limit, (page-1)*limit)
	if err != nil {
		s.logger.Error("failed to list users", slog.Int("page", page), slog.Int("limit", limit), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return &models.UserPage{
		Users:      users,
		Pagination: models.NewPagination(page, limit, total),
	}, nil
}

// GetUser retrieves a user by ID
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	id, ok := normalizeID(id)
	if !ok {
		return nil, models.ErrNotFound
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user", slog.String("user_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return user, nil
}

// UpdateUser applies an administrator's edit. Only name, email, role and
// isActive are writable here, and an actor can never deactivate themselves.
func (s *UserService) UpdateUser(ctx context.Context, actorID, targetID string, fields models.UserUpdate) (*models.User, error) {
	targetID, ok := normalizeID(targetID)
	if !ok {
		return nil, models.ErrNotFound
	}
	actorID, _ = normalizeID(actorID)

	update := models.UserUpdate{
		Name:     fields.Name,
		Email:    fields.Email,
		Role:     fields.Role,
		IsActive: fields.IsActive,
	}

	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, models.NewValidationError("Name cannot be empty")
		}
		update.Name = &name
	}
	if update.Email != nil {
		email := NormalizeEmail(*update.Email)
		update.Email = &email
	}
	if update.Role != nil && !models.IsValidRole(*update.Role) {
		return nil, models.NewValidationError("Valid role (user/admin) is required")
	}

	existing, err := s.repo.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to load user for update", slog.String("user_id", targetID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if targetID == actorID && update.IsActive != nil && !*update.IsActive {
		return nil, models.ErrSelfModification
	}

	if update.Email != nil && *update.Email != existing.Email {
		taken, err := s.repo.EmailTaken(ctx, *update.Email, targetID)
		if err != nil {
			s.logger.Error("failed to check email", slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
		if taken {
			return nil, models.ErrConflict
		}
	}

	updated, err := s.repo.Update(ctx, targetID, update)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			return nil, models.ErrNotFound
		case errors.Is(err, models.ErrConflict):
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to update user", slog.String("user_id", targetID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.invalidateStats(ctx)
	s.audit.LogAdminAction(ctx, pkglogger.EventAdminUpdate, actorID, targetID, updateMetadata(update))

	return updated, nil
}

// DeleteUser permanently removes a user other than the actor.
func (s *UserService) DeleteUser(ctx context.Context, actorID, targetID string) error {
	targetID, ok := normalizeID(targetID)
	if !ok {
		return models.ErrNotFound
	}
	actorID, _ = normalizeID(actorID)

	if targetID == actorID {
		return models.ErrSelfModification
	}

	if err := s.repo.Delete(ctx, targetID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to delete user", slog.String("user_id", targetID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.invalidateStats(ctx)
	s.audit.LogAdminAction(ctx, pkglogger.EventAdminDelete, actorID, targetID, nil)
	return nil
}

// BulkUpdate applies action to every target except the actor and returns how
// many records actually changed.
func (s *UserService) BulkUpdate(ctx context.Context, actorID string, targetIDs []string, action, value string) (int64, error) {
	if len(targetIDs) == 0 {
		return 0, models.NewValidationError("User IDs array is required")
	}

	var update models.UserUpdate
	switch action {
	case BulkActivate:
		active := true
		update.IsActive = &active
	case BulkDeactivate:
		active := false
		update.IsActive = &active
	case BulkChangeRole:
		if !models.IsValidRole(value) {
			return 0, models.NewValidationError("Valid role (user/admin) is required")
		}
		role := value
		update.Role = &role
	default:
		return 0, models.NewValidationError("Invalid action")
	}

	actorID, _ = normalizeID(actorID)
	ids := make([]string, 0, len(targetIDs))
	seen := make(map[string]bool, len(targetIDs))
	for _, raw := range targetIDs {
		id, ok := normalizeID(raw)
		if !ok || id == actorID || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}

	if len(ids) == 0 {
		return 0, nil
	}

	modified, err := s.repo.BulkUpdate(ctx, ids, update)
	if err != nil {
		s.logger.Error("bulk update failed", slog.String("action", action), slog.Int("targets", len(ids)), slog.Any("error", err))
		return 0, models.ErrInternalServer
	}

	s.invalidateStats(ctx)
	s.audit.LogAdminAction(ctx, pkglogger.EventAdminBulk, actorID, "", map[string]string{
		"action":   action,
		"targets":  strconv.Itoa(len(ids)),
		"modified": strconv.FormatInt(modified, 10),
	})

	return modified, nil
}

// BootstrapAdmin creates an active administrator unless the email is already
// registered. It reports whether a record was created.
func (s *UserService) BootstrapAdmin(ctx context.Context, name, email, password string) (*models.User, bool, error) {
	email = NormalizeEmail(email)

	existing, err := s.repo.GetByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, false, err
	}

	hash, err := HashNewPassword(password)
	if err != nil {
		return nil, false, err
	}

	created, err := s.repo.Create(ctx, &models.User{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		IsActive:     true,
	})
	if err != nil {
		return nil, false, err
	}

	s.invalidateStats(ctx)
	s.audit.LogAdminAction(ctx, pkglogger.EventAdminBootstrap, "", created.ID, nil)
	return created, true, nil
}

func updateMetadata(u models.UserUpdate) map[string]string {
	fields := make([]string, 0, 4)
	if u.Name != nil {
		fields = append(fields, "name")
	}
	if u.Email != nil {
		fields = append(fields, "email")
	}
	if u.Role != nil {
		fields = append(fields, "role")
	}
	if u.IsActive != nil {
		fields = append(fields, "isActive")
	}
	return map[string]string{"fields": strings.Join(fields, ",")}
}
