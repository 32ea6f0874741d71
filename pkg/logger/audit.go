package logger

import (
	"context"
	"log/slog"
	"time"
)

// Audit event types
const (
	EventLogin          = "login"
	EventSignup         = "signup"
	EventPasswordChange = "password_change"
	EventProfileUpdate  = "profile_update"
	EventAdminUpdate    = "admin_user_update"
	EventAdminDelete    = "admin_user_delete"
	EventAdminBulk      = "admin_user_bulk"
	EventAdminBootstrap = "admin_bootstrap"
)

// AuditEvent is a security-relevant action taken by or against an account.
type AuditEvent struct {
	EventType     string
	ActorID       string
	TargetID      string
	Email         string // masked before logging
	IPAddress     string
	Success       bool
	FailureReason string
	Metadata      map[string]string
}

// AuditLogger writes audit events through the application logger with a
// fixed "audit" message so they can be filtered downstream.
type AuditLogger struct {
	logger *slog.Logger
}

func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{logger: logger}
}

// Log records event. Failures are logged at warn level.
func (al *AuditLogger) Log(ctx context.Context, event AuditEvent) {
	if al == nil || al.logger == nil {
		return
	}

	attrs := []slog.Attr{
		slog.String("event_type", event.EventType),
		slog.Bool("success", event.Success),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}
	if event.ActorID != "" {
		attrs = append(attrs, slog.String("actor_id", event.ActorID))
	}
	if event.TargetID != "" {
		attrs = append(attrs, slog.String("target_id", event.TargetID))
	}
	if event.Email != "" {
		attrs = append(attrs, slog.String("email", SanitizedEmail(event.Email)))
	}
	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", event.IPAddress))
	}
	if event.FailureReason != "" {
		attrs = append(attrs, slog.String("failure_reason", event.FailureReason))
	}
	for key, val := range event.Metadata {
		attrs = append(attrs, slog.String(key, val))
	}

	level := slog.LevelInfo
	if !event.Success {
		level = slog.LevelWarn
	}
	al.logger.LogAttrs(ctx, level, "audit", attrs...)
}

// LogAuthAttempt records a login or signup attempt.
func (al *AuditLogger) LogAuthAttempt(ctx context.Context, eventType, email, userID, ip string, success bool, reason string) {
	al.Log(ctx, AuditEvent{
		EventType:     eventType,
		ActorID:       userID,
		Email:         email,
		IPAddress:     ip,
		Success:       success,
		FailureReason: reason,
	})
}

// LogAdminAction records a directory mutation performed by an administrator.
func (al *AuditLogger) LogAdminAction(ctx context.Context, eventType, actorID, targetID string, metadata map[string]string) {
	al.Log(ctx, AuditEvent{
		EventType: eventType,
		ActorID:   actorID,
		TargetID:  targetID,
		Success:   true,
		Metadata:  metadata,
	})
}
