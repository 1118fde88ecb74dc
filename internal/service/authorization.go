package service

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/sorria/internal/audit"
	"github.com/saturnino-fabrica-de-software/sorria/internal/domain"
)

// DefaultCodeTTL is the stored validity of an authorization code. Redemption
// is only accepted during the first quarter of it.
const DefaultCodeTTL = time.Hour

// IssuedCode is the result of a successful login
type IssuedCode struct {
	Code        string    `json:"-"`
	RedirectURL string    `json:"redirect_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type AuthorizationService struct {
	codes AuthorizationCodeRepositoryInterface
	audit audit.Logger
	ttl   time.Duration
	now   func() time.Time
}

func NewAuthorizationService(codes AuthorizationCodeRepositoryInterface, auditLogger audit.Logger, ttl time.Duration) *AuthorizationService {
	if ttl <= 0 {
		ttl = DefaultCodeTTL
	}
	if auditLogger == nil {
		auditLogger = &audit.NoOpLogger{}
	}
	return &AuthorizationService{
		codes: codes,
		audit: auditLogger,
		ttl:   ttl,
		now:   time.Now,
	}
}

// Issue mints a code for a user identified by a capture session.
// originalRedirect is where the user wanted to go on the relying application;
// empty means the application's registered redirect.
func (s *AuthorizationService) Issue(ctx context.Context, userID uuid.UUID, app *domain.Application, originalRedirect string) (*IssuedCode, error) {
	if userID == uuid.Nil || app == nil {
		return nil, domain.ErrValidationFailed.WithError(fmt.Errorf("user and application are required"))
	}

	if originalRedirect == "" {
		originalRedirect = app.RedirectURL
	}
	if !app.AllowsRedirect(originalRedirect) {
		return nil, domain.ErrRedirectNotAllowed
	}

	base, err := parseRedirectBase(app.RedirectURL)
	if err != nil {
		return nil, domain.ErrRedirectNotAllowed.WithError(err)
	}

	plain, hash, err := domain.GenerateAuthorizationCode()
	if err != nil {
		return nil, fmt.Errorf("generate authorization code: %w", err)
	}

	now := s.now().UTC()
	code := &domain.AuthorizationCode{
		CodeHash:      hash,
		UserID:        userID,
		ApplicationID: app.ID,
		RedirectTo:    app.RedirectURL,
		CreatedAt:     now,
		ExpiresAt:     now.Add(s.ttl),
	}

	if err := s.codes.Create(ctx, code); err != nil {
		return nil, fmt.Errorf("app %s: store authorization code: %w", app.ID, err)
	}

	// Audit failures never block the login
	_ = s.audit.Log(ctx, audit.Event{
		EventType:     audit.EventCodeIssued,
		UserID:        userID,
		ApplicationID: app.ID,
		Success:       true,
	})

	return &IssuedCode{
		Code:        plain,
		RedirectURL: withCode(base, plain, originalRedirect),
		ExpiresAt:   code.ExpiresAt,
	}, nil
}

func parseRedirectBase(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse redirect %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("redirect %q is not http(s)", raw)
	}
	return u, nil
}

// withCode appends authorizationCode and redirectUrl to base, keeping any
// query the application registered
func withCode(base *url.URL, code, original string) string {
	u := *base
	q := u.Query()
	q.Set("authorizationCode", code)
	q.Set("redirectUrl", original)
	u.RawQuery = q.Encode()
	return u.String()
}
