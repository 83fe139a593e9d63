package services

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ServiceLogger tags every line with the service name.
type ServiceLogger struct {
	logger *slog.Logger
}

func NewServiceLogger(logger *slog.Logger, service string) *ServiceLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &ServiceLogger{logger: logger.With("service", service)}
}

func (l *ServiceLogger) Logger() *slog.Logger {
	return l.logger
}

// outcome picks the level and status of a finished operation. Client mistakes
// are warnings and a missing row is only info.
func outcome(err error) (slog.Level, string) {
	switch {
	case err == nil:
		return slog.LevelInfo, "success"
	case IsNotFound(err):
		return slog.LevelInfo, "not_found"
	case IsValidation(err), IsBusinessRule(err), IsConflict(err):
		return slog.LevelWarn, "rejected"
	case IsUnauthorized(err), IsForbidden(err):
		return slog.LevelWarn, "denied"
	default:
		return slog.LevelError, "error"
	}
}

// failureAttrs describes typed failures: the bad fields or the broken rule.
func failureAttrs(err error) []slog.Attr {
	var validation ValidationErrors
	if errors.As(err, &validation) {
		fields := make([]string, len(validation))
		for i, e := range validation {
			fields[i] = e.Field
		}
		return []slog.Attr{slog.Any("invalid_fields", fields)}
	}
	var rule *BusinessRuleError
	if errors.As(err, &rule) {
		return []slog.Attr{slog.String("business_rule", rule.Rule), slog.Any("rule_context", rule.Context)}
	}
	var perm *PermissionError
	if errors.As(err, &perm) {
		return []slog.Attr{slog.String("permission", perm.Resource+":"+perm.Action)}
	}
	return nil
}

// Operation times one mutation. Call Done with its result, usually deferred.
type Operation struct {
	log     *ServiceLogger
	ctx     context.Context
	name    string
	actorID string
	started time.Time
}

func (l *ServiceLogger) WithOperation(ctx context.Context, name string, actorID string) *Operation {
	return &Operation{log: l, ctx: ctx, name: name, actorID: actorID, started: time.Now()}
}

// LogResult logs the operation on resourceType/resourceID with err's outcome.
func (o *Operation) LogResult(resourceID string, resourceType string, err error) {
	level, status := outcome(err)
	attrs := []slog.Attr{
		slog.String("operation", o.name),
		slog.String("actor_id", o.actorID),
		slog.String("resource_type", resourceType),
		slog.String("resource_id", resourceID),
		slog.String("status", status),
		slog.Duration("duration", time.Since(o.started)),
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		attrs = append(attrs, failureAttrs(err)...)
	}
	o.log.logger.LogAttrs(o.ctx, level, o.name+" "+status, attrs...)
}

type SecurityEventType string

const (
	SecurityEventFailedLogin  SecurityEventType = "failed_login"
	SecurityEventInvalidToken SecurityEventType = "invalid_token"
	SecurityEventSessionKill  SecurityEventType = "session_killed"
	SecurityEventRoleChange   SecurityEventType = "role_changed"
)

// Security logs an account or authentication event at warn level. who is the
// caller as far as it is known.
func (l *ServiceLogger) Security(ctx context.Context, event SecurityEventType, who Actor, description string, args ...any) {
	attrs := []any{"security_event", string(event)}
	if who.UserID != "" {
		attrs = append(attrs, "actor_id", who.UserID)
	}
	if who.IPAddress != "" {
		attrs = append(attrs, "ip_address", who.IPAddress)
	}
	if who.UserAgent != "" {
		attrs = append(attrs, "user_agent", who.UserAgent)
	}
	l.logger.WarnContext(ctx, "Security: "+description, append(attrs, args...)...)
}
