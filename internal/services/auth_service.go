package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/BradenHooton/revue/internal/auth"
	"github.com/BradenHooton/revue/internal/metrics"
	"github.com/BradenHooton/revue/internal/models"
	pkgauth "github.com/BradenHooton/revue/pkg/auth"
	pkglogger "github.com/BradenHooton/revue/pkg/logger"
)

// TokenIssuer mints session tokens.
type TokenIssuer interface {
	GenerateToken(userID string) (string, error)
}

// AuthResult is returned by signup and login.
type AuthResult struct {
	Token string
	User  *models.User
}

// AuthService is the self-service side of the user directory.
type AuthService struct {
	repo   UserRepository
	tokens TokenIssuer
	email  EmailService
	timing *auth.TimingDelay
	stats  StatsInvalidator
	audit  *pkglogger.AuditLogger
	logger *slog.Logger
	now    func() time.Time
}

func NewAuthService(
	repo UserRepository,
	tokens TokenIssuer,
	email EmailService,
	timing *auth.TimingDelay,
	stats StatsInvalidator,
	audit *pkglogger.AuditLogger,
	logger *slog.Logger,
) *AuthService {
	if email == nil {
		email = NoopEmailService{}
	}
	return &AuthService{
		repo:   repo,
		tokens: tokens,
		email:  email,
		timing: timing,
		stats:  stats,
		audit:  audit,
		logger: logger,
		now:    time.Now,
	}
}

// Login verifies credentials. Unknown email, inactive account and wrong
// password all return ErrInvalidCredentials after the same padded delay.
func (s *AuthService) Login(ctx context.Context, email, password, ip string) (*AuthResult, error) {
	start := time.Now()
	email = NormalizeEmail(email)

	fail := func(reason string) (*AuthResult, error) {
		s.audit.LogAuthAttempt(ctx, pkglogger.EventLogin, email, "", ip, false, reason)
		metrics.IncAuthAttempt(pkglogger.EventLogin, false)
		s.timing.WaitFrom(ctx, start)
		return nil, models.ErrInvalidCredentials
	}

	user, err := s.repo.GetWithPasswordByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkgauth.CompareDummy(password)
			return fail("unknown_email")
		}
		s.logger.Error("login lookup failed", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	passwordErr := pkgauth.ComparePassword(user.PasswordHash, password)
	if !user.IsActive {
		return fail("inactive")
	}
	if passwordErr != nil {
		return fail("bad_password")
	}

	now := s.now().UTC()
	updated, err := s.repo.Update(ctx, user.ID, models.UserUpdate{LastLogin: &now})
	if err != nil {
		s.logger.Error("failed to record last login", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	token, err := s.tokens.GenerateToken(updated.ID)
	if err != nil {
		s.logger.Error("failed to issue token", slog.String("user_id", updated.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.audit.LogAuthAttempt(ctx, pkglogger.EventLogin, email, updated.ID, ip, true, "")
	metrics.IncAuthAttempt(pkglogger.EventLogin, true)
	return &AuthResult{Token: token, User: updated}, nil
}

// Signup registers a regular, active user and signs them in.
func (s *AuthService) Signup(ctx context.Context, name, email, password, ip string) (*AuthResult, error) {
	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)

	hash, err := HashNewPassword(password)
	if err != nil {
		if errors.Is(err, models.ErrValidation) {
			return nil, err
		}
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	taken, err := s.repo.EmailTaken(ctx, email, "")
	if err != nil {
		s.logger.Error("failed to check email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if taken {
		s.audit.LogAuthAttempt(ctx, pkglogger.EventSignup, email, "", ip, false, "email_taken")
		metrics.IncAuthAttempt(pkglogger.EventSignup, false)
		return nil, models.ErrConflict
	}

	created, err := s.repo.Create(ctx, &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleUser,
		IsActive:     true,
	})
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	token, err := s.tokens.GenerateToken(created.ID)
	if err != nil {
		s.logger.Error("failed to issue token", slog.String("user_id", created.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if s.stats != nil {
		s.stats.InvalidateStats(ctx)
	}
	s.audit.LogAuthAttempt(ctx, pkglogger.EventSignup, email, created.ID, ip, true, "")
	metrics.IncAuthAttempt(pkglogger.EventSignup, true)

	if err := s.email.SendWelcomeEmail(ctx, created.Email, created.Name); err != nil {
		s.logger.Warn("welcome email not sent", slog.String("user_id", created.ID), slog.Any("error", err))
	}

	return &AuthResult{Token: token, User: created}, nil
}

func (s *AuthService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to load profile", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return user, nil
}

// UpdateProfile changes the caller's own name and/or email. Blank values are
// ignored.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, name, email *string) (*models.User, error) {
	current, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	var update models.UserUpdate
	if name != nil {
		if trimmed := strings.TrimSpace(*name); trimmed != "" {
			update.Name = &trimmed
		}
	}
	if email != nil {
		if normalized := NormalizeEmail(*email); normalized != "" && normalized != current.Email {
			taken, err := s.repo.EmailTaken(ctx, normalized, current.ID)
			if err != nil {
				s.logger.Error("failed to check email", slog.Any("error", err))
				return nil, models.ErrInternalServer
			}
			if taken {
				return nil, models.ErrConflict
			}
			update.Email = &normalized
		}
	}

	if update.IsEmpty() {
		return current, nil
	}

	updated, err := s.repo.Update(ctx, current.ID, update)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrConflict):
			return nil, models.ErrConflict
		case errors.Is(err, models.ErrNotFound):
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to update profile", slog.String("user_id", current.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.audit.Log(ctx, pkglogger.AuditEvent{EventType: pkglogger.EventProfileUpdate, ActorID: current.ID, Success: true})
	return updated, nil
}

// ChangePassword replaces the caller's password after verifying the current
// one. A wrong current password leaves the stored hash untouched.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword, ip string) error {
	user, err := s.repo.GetWithPasswordByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to load user for password change", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		s.audit.Log(ctx, pkglogger.AuditEvent{
			EventType: pkglogger.EventPasswordChange, ActorID: user.ID, IPAddress: ip, FailureReason: "bad_current_password",
		})
		return models.ErrInvalidCredentials
	}

	hash, err := HashNewPassword(newPassword)
	if err != nil {
		if errors.Is(err, models.ErrValidation) {
			return err
		}
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if _, err := s.repo.Update(ctx, user.ID, models.UserUpdate{PasswordHash: &hash}); err != nil {
		s.logger.Error("failed to store password", slog.String("user_id", user.ID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.audit.Log(ctx, pkglogger.AuditEvent{EventType: pkglogger.EventPasswordChange, ActorID: user.ID, IPAddress: ip, Success: true})

	if err := s.email.SendPasswordChangedEmail(ctx, user.Email, user.Name); err != nil {
		s.logger.Warn("password change email not sent", slog.String("user_id", user.ID), slog.Any("error", err))
	}
	return nil
}
