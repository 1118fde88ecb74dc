package handler

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/sorria/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/sorria/internal/domain"
)

// TokenService is implemented by *service.TokenService
type TokenService interface {
	ExchangeCode(ctx context.Context, code string) (string, error)
	FetchProfile(ctx context.Context, bearer string) (*domain.Profile, error)
	Revoke(ctx context.Context, bearer string) error
}

// ExchangeObserver counts exchange outcomes. *metrics.Metrics satisfies it.
type ExchangeObserver interface {
	ObserveExchange(result string)
}

// OAuthHandler serves the relying-application side of the login flow
type OAuthHandler struct {
	tokens   TokenService
	observer ExchangeObserver
	logger   *slog.Logger
}

func NewOAuthHandler(tokens TokenService, observer ExchangeObserver, logger *slog.Logger) *OAuthHandler {
	return &OAuthHandler{
		tokens:   tokens,
		observer: observer,
		logger:   logger,
	}
}

type TokenRequest struct {
	AuthorizationCode string `json:"authorizationCode"`
}

type TokenResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

// Token POST /v1/oauth/token - exchange an authorization code
func (h *OAuthHandler) Token(c *fiber.Ctx) error {
	var req TokenRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrMissingAuthorizationCode.WithError(err)
	}

	token, err := h.tokens.ExchangeCode(c.UserContext(), req.AuthorizationCode)
	h.observe(err)
	if err != nil {
		return err
	}

	return c.JSON(TokenResponse{
		Success: true,
		Token:   token,
	})
}

// Profile GET /v1/oauth/profile - profile of the bearer token's user
func (h *OAuthHandler) Profile(c *fiber.Ctx) error {
	bearer, err := middleware.GetBearerToken(c)
	if err != nil {
		return err
	}

	profile, err := h.tokens.FetchProfile(c.UserContext(), bearer)
	if err != nil {
		return err
	}

	return c.JSON(profile)
}

// Revoke POST /v1/oauth/revoke - revoke the bearer token
func (h *OAuthHandler) Revoke(c *fiber.Ctx) error {
	bearer, err := middleware.GetBearerToken(c)
	if err != nil {
		return err
	}

	if err := h.tokens.Revoke(c.UserContext(), bearer); err != nil {
		return err
	}

	return c.JSON(SuccessResponse{Success: true})
}

func (h *OAuthHandler) observe(err error) {
	if h.observer == nil {
		return
	}
	h.observer.ObserveExchange(exchangeResult(err))
}

func exchangeResult(err error) string {
	switch {
	case err == nil:
		return "redeemed"
	case errors.Is(err, domain.ErrAuthorizationCodeExpired):
		return "expired"
	case errors.Is(err, domain.ErrAuthorizationCodeNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrMissingAuthorizationCode):
		return "missing"
	default:
		return "error"
	}
}
