package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

const (
	authFailureLimit  = 20
	authFailureWindow = 15 * time.Minute
)

// AuthRequired resolves the profile from the bearer token. Clients that keep
// presenting bad tokens are throttled per IP.
func (handler *Handler) AuthRequired(c *fiber.Ctx) error {
	key := requestLimiterKey(c)
	now := time.Now()
	if handler.authLimiter.blocked(key, now) {
		return apiError(c, fiber.StatusTooManyRequests, "too many failed authentication attempts")
	}

	profile, err := handler.profileFromToken(bearerToken(c))
	if err != nil {
		if err != errMissingToken {
			handler.authLimiter.recordFailure(key, now)
		}
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	handler.authLimiter.reset(key)
	c.Locals(contextProfileKey, profile)
	return c.Next()
}
