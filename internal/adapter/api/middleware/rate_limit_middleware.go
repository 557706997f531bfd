package middleware

import (
	"github.com/labstack/echo/v4"

	"aeroclassifieds/internal/infrastructure/ratelimit"
	"aeroclassifieds/pkg/errors"
	"aeroclassifieds/pkg/logger"
	"aeroclassifieds/pkg/response"
)

// RateLimit throttles action per authenticated user, or per client IP when
// the request carries no uid.
func RateLimit(limiter *ratelimit.RateLimiter, action string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key, ok := c.Get("uid").(string)
			if !ok || key == "" {
				key = c.RealIP()
			}

			if allowed, wait := limiter.Allow(key, action); !allowed {
				logger.Warn("RATE LIMIT: %s blocked for %s (retry in %v)", action, key, wait)
				return response.Error(c, errors.TooManyRequests("Rate limit exceeded", wait))
			}

			return next(c)
		}
	}
}
