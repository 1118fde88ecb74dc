package handler

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/sorria/internal/domain"
	"github.com/saturnino-fabrica-de-software/sorria/internal/service"
)

// ApplicationService is implemented by *service.ApplicationService
type ApplicationService interface {
	Validate(ctx context.Context, appID, clientSecret string) (*service.ValidatedApplication, error)
}

type ApplicationHandler struct {
	apps   ApplicationService
	logger *slog.Logger
}

func NewApplicationHandler(apps ApplicationService, logger *slog.Logger) *ApplicationHandler {
	return &ApplicationHandler{
		apps:   apps,
		logger: logger,
	}
}

type ValidateApplicationRequest struct {
	AppID        string `json:"appId"`
	ClientSecret string `json:"clientSecret"`
}

type ApplicationData struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Domain      string `json:"domain"`
	RedirectURL string `json:"redirect_url"`
}

type ValidateApplicationResponse struct {
	Success          bool            `json:"success"`
	Application      ApplicationData `json:"application"`
	HandOff          string          `json:"hand_off"`
	HandOffExpiresAt string          `json:"hand_off_expires_at"`
}

// Validate POST /v1/applications/validate - check client credentials
func (h *ApplicationHandler) Validate(c *fiber.Ctx) error {
	var req ValidateApplicationRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}

	validated, err := h.apps.Validate(c.UserContext(), req.AppID, req.ClientSecret)
	if err != nil {
		return err
	}

	app := validated.Application
	return c.JSON(ValidateApplicationResponse{
		Success: true,
		Application: ApplicationData{
			ID:          app.ID.String(),
			Name:        app.Name,
			Domain:      app.Domain,
			RedirectURL: app.RedirectURL,
		},
		HandOff:          validated.HandOff,
		HandOffExpiresAt: validated.HandOffExpiresAt.UTC().Format(time.RFC3339),
	})
}
