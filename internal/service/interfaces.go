package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/sorria/internal/domain"
)

type AuthorizationCodeRepositoryInterface interface {
	Create(ctx context.Context, code *domain.AuthorizationCode) error
}

type AccessTokenRepositoryInterface interface {
	ExchangeCode(ctx context.Context, codeHash string, token *domain.AccessToken, now time.Time) error
	GetByHash(ctx context.Context, tokenHash string) (*domain.AccessToken, error)
	Revoke(ctx context.Context, tokenHash string, at time.Time) (*domain.AccessToken, error)
}

type UserRepositoryInterface interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*domain.Profile, error)
}

type ApplicationRepositoryInterface interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Application, error)
}

type TemplateRepositoryInterface interface {
	ListAll(ctx context.Context) ([]domain.EnrolledTemplate, error)
	ExistsForUser(ctx context.Context, userID uuid.UUID) (bool, error)
	Create(ctx context.Context, tpl *domain.EnrolledTemplate) error
}

// RateLimiter is satisfied by *ratelimit.RateLimiter
type RateLimiter interface {
	Check(ctx context.Context, key string, limit int) error
}
