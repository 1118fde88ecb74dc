package middleware

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/sorria/internal/domain"
	"github.com/saturnino-fabrica-de-software/sorria/internal/ratelimit"
)

// Limiter is implemented by *ratelimit.RateLimiter
type Limiter interface {
	Check(ctx context.Context, key string, limit int) error
	Window() time.Duration
}

// RateLimiterConfig holds configuration for rate limiting
type RateLimiterConfig struct {
	// Max requests per window
	Max int
	// KeyGenerator returns the counter key for a request
	KeyGenerator func(c *fiber.Ctx) string
	Logger       *slog.Logger
}

// ByClientIP keys the exchange endpoint by caller address
func ByClientIP(c *fiber.Ctx) string {
	return ratelimit.ExchangeKey(c.IP())
}

// RateLimit rejects requests over cfg.Max per limiter window. Limiter
// failures let the request through.
func RateLimit(limiter Limiter, cfg RateLimiterConfig) fiber.Handler {
	if cfg.KeyGenerator == nil {
		cfg.KeyGenerator = ByClientIP
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return func(c *fiber.Ctx) error {
		if limiter == nil || cfg.Max <= 0 {
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Max))

		err := limiter.Check(c.UserContext(), cfg.KeyGenerator(c), cfg.Max)
		var limitErr *ratelimit.LimitError
		switch {
		case err == nil:
			return c.Next()
		case errors.As(err, &limitErr):
			c.Set("X-RateLimit-Remaining", "0")
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(limiter.Window().Seconds())))
			return domain.ErrRateLimitExceeded
		default:
			cfg.Logger.Warn("rate limiter unavailable, allowing request",
				slog.Any("error", err),
				slog.String("path", c.Path()),
			)
			return c.Next()
		}
	}
}
