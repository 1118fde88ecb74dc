package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/sorria/internal/domain"
)

// LocalBearerToken is the key to retrieve the presented access token from context
const LocalBearerToken = "bearer_token"

// BearerAuth requires an "Authorization: Bearer <token>" header. The token
// itself is checked by the handler's service.
func BearerAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := extractBearerToken(c)
		if token == "" {
			return domain.ErrUnauthorized
		}

		c.Locals(LocalBearerToken, token)
		return c.Next()
	}
}

// GetBearerToken returns the token stored by BearerAuth
func GetBearerToken(c *fiber.Ctx) (string, error) {
	token, ok := c.Locals(LocalBearerToken).(string)
	if !ok || token == "" {
		return "", domain.ErrUnauthorized
	}
	return token, nil
}

// extractBearerToken extracts token from Authorization header
func extractBearerToken(c *fiber.Ctx) string {
	auth := c.Get("Authorization")
	if auth == "" {
		return ""
	}

	// Expected format: "Bearer <token>"
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
