package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/saturnino-fabrica-de-software/sorria/internal/audit"
	"github.com/saturnino-fabrica-de-software/sorria/internal/domain"
	"github.com/saturnino-fabrica-de-software/sorria/internal/handoff"
	"github.com/saturnino-fabrica-de-software/sorria/internal/ratelimit"
)

// ValidatedApplication is returned to a relying application that proved its
// credentials
type ValidatedApplication struct {
	Application      *domain.Application `json:"application"`
	HandOff          string              `json:"hand_off"`
	HandOffExpiresAt time.Time           `json:"hand_off_expires_at"`
}

type ApplicationService struct {
	apps    ApplicationRepositoryInterface
	signer  *handoff.Signer
	limiter RateLimiter
	limit   int
	audit   audit.Logger
}

// NewApplicationService wires credential validation. limiter may be nil.
func NewApplicationService(apps ApplicationRepositoryInterface, signer *handoff.Signer, limiter RateLimiter, limit int, auditLogger audit.Logger) *ApplicationService {
	if auditLogger == nil {
		auditLogger = &audit.NoOpLogger{}
	}
	return &ApplicationService{
		apps:    apps,
		signer:  signer,
		limiter: limiter,
		limit:   limit,
		audit:   auditLogger,
	}
}

// Validate checks clientSecret against the application's stored bcrypt hash.
// Unknown applications and wrong secrets are both ErrInvalidClientCredentials.
func (s *ApplicationService) Validate(ctx context.Context, appID, clientSecret string) (*ValidatedApplication, error) {
	id, err := uuid.Parse(appID)
	if err != nil || clientSecret == "" {
		return nil, domain.ErrInvalidClientCredentials
	}

	if s.limiter != nil {
		if err := s.limiter.Check(ctx, ratelimit.ValidateKey(id.String()), s.limit); err != nil {
			if errors.Is(err, domain.ErrRateLimitExceeded) {
				return nil, domain.ErrRateLimitExceeded.WithError(err)
			}
			return nil, err
		}
	}

	app, err := s.apps.GetByID(ctx, id)
	if errors.Is(err, domain.ErrApplicationNotFound) {
		s.logAttempt(ctx, id, false, "unknown application")
		return nil, domain.ErrInvalidClientCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("app %s: lookup: %w", id, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(app.SecretHash), []byte(clientSecret)); err != nil {
		s.logAttempt(ctx, id, false, "secret mismatch")
		return nil, domain.ErrInvalidClientCredentials
	}

	ticket, expires, err := s.signer.Issue(app.ID, app.RedirectURL)
	if err != nil {
		return nil, fmt.Errorf("app %s: sign hand-off: %w", id, err)
	}

	s.logAttempt(ctx, id, true, "")

	return &ValidatedApplication{
		Application:      app,
		HandOff:          ticket,
		HandOffExpiresAt: expires,
	}, nil
}

// ResolveHandOff returns the application a hand-off ticket was issued for.
// The ticket is rejected when the application changed its redirect since.
func (s *ApplicationService) ResolveHandOff(ctx context.Context, ticket string) (*domain.Application, error) {
	claims, err := s.signer.Validate(ticket)
	if err != nil {
		return nil, domain.ErrInvalidHandOff.WithError(err)
	}

	app, err := s.apps.GetByID(ctx, claims.ApplicationID)
	if errors.Is(err, domain.ErrApplicationNotFound) {
		return nil, domain.ErrInvalidHandOff
	}
	if err != nil {
		return nil, fmt.Errorf("app %s: lookup: %w", claims.ApplicationID, err)
	}

	if app.RedirectURL != claims.RedirectURL {
		return nil, domain.ErrInvalidHandOff.WithError(fmt.Errorf("redirect changed"))
	}

	return app, nil
}

func (s *ApplicationService) logAttempt(ctx context.Context, appID uuid.UUID, ok bool, reason string) {
	_ = s.audit.Log(ctx, audit.Event{
		EventType:     audit.EventApplicationValidated,
		ApplicationID: appID,
		Success:       ok,
		Error:         reason,
	})
}

// HashClientSecret returns the bcrypt hash stored for a client secret
func HashClientSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash client secret: %w", err)
	}
	return string(hash), nil
}
