package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/sorria/internal/domain"
)

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"app error", domain.ErrAuthorizationCodeExpired, 401, "AUTHORIZATION_CODE_EXPIRED"},
		{"wrapped app error", fmt.Errorf("exchange: %w", domain.ErrAuthorizationCodeNotFound), 404, "AUTHORIZATION_CODE_NOT_FOUND"},
		{"internal app error", domain.ErrInternal.WithError(errors.New("db down")), 500, "INTERNAL_ERROR"},
		{"fiber error", fiber.ErrUpgradeRequired, 426, "HTTP_ERROR"},
		{"unknown error", errors.New("boom"), 500, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New(fiber.Config{
				ErrorHandler: ErrorHandler(slog.New(slog.NewTextHandler(io.Discard, nil))),
			})
			app.Get("/", func(c *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			var body ErrorBody
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.False(t, body.Success)
			assert.Equal(t, tt.wantCode, body.Code)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestRecover(t *testing.T) {
	app := fiber.New()
	app.Use(Recover(slog.New(slog.NewTextHandler(io.Discard, nil))))
	app.Get("/", func(c *fiber.Ctx) error { panic("boom") })

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, 500, resp.StatusCode)
}

type recordingObserver struct {
	route  string
	status int
}

func (r *recordingObserver) ObserveRequest(_ string, route string, status int, _ time.Duration) {
	r.route = route
	r.status = status
}

func TestLogger_ObservesFinalStatus(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	observer := &recordingObserver{}

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logger)})
	app.Use(Logger(logger, observer))
	app.Get("/v1/oauth/profile", func(c *fiber.Ctx) error { return domain.ErrUnauthorized })

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/oauth/profile", nil))
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
	assert.Equal(t, 401, observer.status)
	assert.Equal(t, "/v1/oauth/profile", observer.route)
}
