package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/sorria/internal/audit"
	"github.com/saturnino-fabrica-de-software/sorria/internal/domain"
	"github.com/saturnino-fabrica-de-software/sorria/internal/liveness"
	"github.com/saturnino-fabrica-de-software/sorria/internal/matcher"
)

// CaptureService prepares liveness sessions and persists their outcome
type CaptureService struct {
	templates      TemplateRepositoryInterface
	authz          *AuthorizationService
	audit          audit.Logger
	requireCaptcha bool
}

func NewCaptureService(templates TemplateRepositoryInterface, authz *AuthorizationService, auditLogger audit.Logger, requireCaptcha bool) *CaptureService {
	if auditLogger == nil {
		auditLogger = &audit.NoOpLogger{}
	}
	return &CaptureService{
		templates:      templates,
		authz:          authz,
		audit:          auditLogger,
		requireCaptcha: requireCaptcha,
	}
}

// RequiresCaptcha reports whether new sessions start behind the captcha gate
func (s *CaptureService) RequiresCaptcha() bool {
	return s.requireCaptcha
}

// NewLoginSession snapshots the enrolled templates into a login matcher
func (s *CaptureService) NewLoginSession(ctx context.Context) (*liveness.Session, error) {
	m, err := s.loadMatcher(ctx, matcher.LoginThreshold)
	if err != nil {
		return nil, err
	}
	return liveness.NewSession(liveness.LoginPolicy(), m, s.requireCaptcha), nil
}

// NewRegistrationSession refuses users that already have templates
func (s *CaptureService) NewRegistrationSession(ctx context.Context, userID uuid.UUID) (*liveness.Session, error) {
	exists, err := s.templates.ExistsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user %s: check templates: %w", userID, err)
	}
	if exists {
		return nil, domain.ErrTemplateExists
	}

	m, err := s.loadMatcher(ctx, matcher.RegistrationThreshold)
	if err != nil {
		return nil, err
	}
	return liveness.NewSession(liveness.RegistrationPolicy(), m, s.requireCaptcha), nil
}

// CompleteLogin issues the authorization code for a succeeded login session
func (s *CaptureService) CompleteLogin(ctx context.Context, sess *liveness.Session, app *domain.Application, originalRedirect string) (*IssuedCode, error) {
	if sess.Status != liveness.StatusSucceeded || sess.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: session is %s", domain.ErrBadRequest, sess.Status)
	}

	issued, err := s.authz.Issue(ctx, sess.UserID, app, originalRedirect)
	if err != nil {
		return nil, err
	}

	_ = s.audit.Log(ctx, audit.Event{
		EventType:     audit.EventLoginSucceeded,
		UserID:        sess.UserID,
		ApplicationID: app.ID,
		Success:       true,
		Metadata: map[string]string{
			"distance": fmt.Sprintf("%.4f", sess.Distance),
			"restarts": fmt.Sprintf("%d", sess.Restarts),
		},
	})

	return issued, nil
}

// CompleteRegistration stores the smile samples of a succeeded registration
func (s *CaptureService) CompleteRegistration(ctx context.Context, userID uuid.UUID, sess *liveness.Session) error {
	if sess.Status != liveness.StatusSucceeded {
		return fmt.Errorf("%w: session is %s", domain.ErrBadRequest, sess.Status)
	}

	tpl := &domain.EnrolledTemplate{
		UserID:      userID,
		Descriptors: sess.Samples,
	}
	if err := s.templates.Create(ctx, tpl); err != nil {
		return err
	}

	_ = s.audit.Log(ctx, audit.Event{
		EventType: audit.EventTemplateEnrolled,
		UserID:    userID,
		Success:   true,
		Metadata:  map[string]string{"samples": fmt.Sprintf("%d", len(tpl.Descriptors))},
	})

	return nil
}

// RecordFailure audits a session that ended with err
func (s *CaptureService) RecordFailure(ctx context.Context, flow liveness.Flow, appID uuid.UUID, err error) {
	_ = s.audit.Log(ctx, audit.Event{
		EventType:     audit.EventLoginFailed,
		ApplicationID: appID,
		Success:       false,
		Error:         err.Error(),
		Metadata: map[string]string{
			"flow":     string(flow),
			"category": string(liveness.Classify(err)),
		},
	})
}

func (s *CaptureService) loadMatcher(ctx context.Context, threshold float64) (*matcher.Matcher, error) {
	templates, err := s.templates.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	return matcher.FromTemplates(templates, threshold), nil
}
