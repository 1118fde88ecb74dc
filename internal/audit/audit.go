package audit

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// EventType defines the type of auditable event
type EventType string

const (
	EventCodeIssued           EventType = "CODE_ISSUED"
	EventCodeRedeemed         EventType = "CODE_REDEEMED"
	EventCodeRejected         EventType = "CODE_REJECTED"
	EventTokenRevoked         EventType = "TOKEN_REVOKED"
	EventLoginSucceeded       EventType = "LOGIN_SUCCEEDED"
	EventLoginFailed          EventType = "LOGIN_FAILED"
	EventTemplateEnrolled     EventType = "TEMPLATE_ENROLLED"
	EventApplicationValidated EventType = "APPLICATION_VALIDATED"
)

// Event represents an audit event for LGPD compliance
type Event struct {
	ID            uuid.UUID         `json:"id"`
	Timestamp     time.Time         `json:"timestamp"`
	EventType     EventType         `json:"event_type"`
	UserID        uuid.UUID         `json:"user_id,omitempty"`
	ApplicationID uuid.UUID         `json:"application_id,omitempty"`
	Success       bool              `json:"success"`
	Error         string            `json:"error,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	IPAddress     string            `json:"ip_address,omitempty"`
	UserAgent     string            `json:"user_agent,omitempty"`
}

// Logger defines the interface for audit logging
type Logger interface {
	Log(ctx context.Context, event Event) error
}

func prepare(event *Event) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
}

// SlogLogger implements Logger using slog
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger creates a new audit logger using slog
func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	return &SlogLogger{
		logger: logger.With("component", "audit"),
	}
}

// Log records an audit event
func (l *SlogLogger) Log(ctx context.Context, event Event) error {
	prepare(&event)

	eventJSON, err := json.Marshal(event)
	if err != nil {
		l.logger.ErrorContext(ctx, "failed to marshal audit event",
			slog.String("error", err.Error()),
			slog.String("event_type", string(event.EventType)),
		)
		return err
	}

	l.logger.InfoContext(ctx, "audit_event",
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", string(event.EventType)),
		slog.String("user_id", event.UserID.String()),
		slog.String("application_id", event.ApplicationID.String()),
		slog.Bool("success", event.Success),
		slog.String("event_data", string(eventJSON)),
	)

	return nil
}

// MultiLogger fans an event out to every logger
type MultiLogger []Logger

// Log delivers to all loggers even when one fails
func (m MultiLogger) Log(ctx context.Context, event Event) error {
	prepare(&event)

	var errs []error
	for _, l := range m {
		if err := l.Log(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NoOpLogger is a logger that does nothing (for testing or when audit is disabled)
type NoOpLogger struct{}

// Log does nothing and returns nil
func (l *NoOpLogger) Log(_ context.Context, _ Event) error {
	return nil
}
