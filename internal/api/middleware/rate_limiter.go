package middleware

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/facefinder/internal/domain"
)

// Allower is satisfied by *ratelimit.RateLimiter.
type Allower interface {
	Allow(ctx context.Context, client string, limit int) error
}

// RateLimit limits requests per client IP. Counter storage failures let the
// request through and are logged.
func RateLimit(limiter Allower, limit int, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if limiter == nil || limit <= 0 {
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(limit))

		err := limiter.Allow(c.UserContext(), c.IP(), limit)
		if errors.Is(err, domain.ErrRateLimitExceeded) {
			c.Set(fiber.HeaderRetryAfter, "60")
			return err
		}
		if err != nil {
			logger.Warn("rate limit check failed",
				slog.String("ip", c.IP()),
				slog.Any("error", err),
			)
		}

		return c.Next()
	}
}
