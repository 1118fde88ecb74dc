package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/saturnino-fabrica-de-software/sorria/internal/audit"
	"github.com/saturnino-fabrica-de-software/sorria/internal/domain"
	"github.com/saturnino-fabrica-de-software/sorria/internal/revocation"
)

// TokenService exchanges authorization codes for access tokens and resolves
// tokens to profiles
type TokenService struct {
	tokens  AccessTokenRepositoryInterface
	users   UserRepositoryInterface
	revoked revocation.List
	audit   audit.Logger
	logger  *slog.Logger
	ttl     time.Duration // 0 means tokens never expire
	now     func() time.Time
}

func NewTokenService(
	tokens AccessTokenRepositoryInterface,
	users UserRepositoryInterface,
	revoked revocation.List,
	auditLogger audit.Logger,
	logger *slog.Logger,
	ttl time.Duration,
) *TokenService {
	if revoked == nil {
		revoked = revocation.NewMemoryList()
	}
	if auditLogger == nil {
		auditLogger = &audit.NoOpLogger{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenService{
		tokens:  tokens,
		users:   users,
		revoked: revoked,
		audit:   auditLogger,
		logger:  logger,
		ttl:     ttl,
		now:     time.Now,
	}
}

// ExchangeCode redeems code once for a new opaque access token.
//
// Errors: ErrMissingAuthorizationCode for an empty code,
// ErrAuthorizationCodeNotFound for unknown or already redeemed codes,
// ErrAuthorizationCodeExpired past a quarter of the code validity.
func (s *TokenService) ExchangeCode(ctx context.Context, code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", domain.ErrMissingAuthorizationCode
	}

	plain, hash, err := domain.GenerateAccessToken()
	if err != nil {
		return "", fmt.Errorf("generate access token: %w", err)
	}

	now := s.now().UTC()
	token := &domain.AccessToken{TokenHash: hash}
	if s.ttl > 0 {
		expires := now.Add(s.ttl)
		token.ExpiresAt = &expires
	}

	if err := s.tokens.ExchangeCode(ctx, domain.HashToken(code), token, now); err != nil {
		if errors.Is(err, domain.ErrAuthorizationCodeNotFound) || errors.Is(err, domain.ErrAuthorizationCodeExpired) {
			_ = s.audit.Log(ctx, audit.Event{
				EventType: audit.EventCodeRejected,
				Success:   false,
				Error:     err.Error(),
			})
			return "", err
		}
		return "", fmt.Errorf("exchange authorization code: %w", err)
	}

	_ = s.audit.Log(ctx, audit.Event{
		EventType:     audit.EventCodeRedeemed,
		UserID:        token.UserID,
		ApplicationID: token.ApplicationID,
		Success:       true,
	})

	return plain, nil
}

// FetchProfile returns the profile of the user bound to bearer. Any missing,
// unknown, revoked or expired token is ErrUnauthorized.
func (s *TokenService) FetchProfile(ctx context.Context, bearer string) (*domain.Profile, error) {
	token, err := s.activeToken(ctx, bearer)
	if err != nil {
		return nil, err
	}

	profile, err := s.users.GetProfile(ctx, token.UserID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("user %s: get profile: %w", token.UserID, err)
	}

	return profile, nil
}

// Revoke disables bearer for good. Revoking an already revoked token succeeds.
func (s *TokenService) Revoke(ctx context.Context, bearer string) error {
	bearer = strings.TrimSpace(bearer)
	if bearer == "" {
		return domain.ErrUnauthorized
	}

	hash := domain.HashToken(bearer)
	now := s.now().UTC()

	token, err := s.tokens.Revoke(ctx, hash, now)
	if errors.Is(err, domain.ErrAccessTokenNotFound) {
		return domain.ErrUnauthorized
	}
	if err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}

	var ttl time.Duration
	if token.ExpiresAt != nil {
		ttl = token.ExpiresAt.Sub(now)
	}
	if err := s.revoked.Revoke(ctx, hash, ttl); err != nil {
		// Postgres already holds the revocation
		s.logger.WarnContext(ctx, "failed to update revocation list", "error", err)
	}

	_ = s.audit.Log(ctx, audit.Event{
		EventType:     audit.EventTokenRevoked,
		UserID:        token.UserID,
		ApplicationID: token.ApplicationID,
		Success:       true,
	})

	return nil
}

func (s *TokenService) activeToken(ctx context.Context, bearer string) (*domain.AccessToken, error) {
	bearer = strings.TrimSpace(bearer)
	if bearer == "" {
		return nil, domain.ErrUnauthorized
	}

	hash := domain.HashToken(bearer)

	revoked, err := s.revoked.IsRevoked(ctx, hash)
	if err != nil {
		s.logger.WarnContext(ctx, "revocation list unavailable, falling back to database", "error", err)
	}
	if revoked {
		return nil, domain.ErrUnauthorized
	}

	token, err := s.tokens.GetByHash(ctx, hash)
	if errors.Is(err, domain.ErrAccessTokenNotFound) {
		return nil, domain.ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("lookup access token: %w", err)
	}

	if !token.IsActiveAt(s.now()) {
		return nil, domain.ErrUnauthorized
	}

	return token, nil
}
