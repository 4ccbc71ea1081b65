package middleware

import (
	"dongnezip/internal/infrastructure/ratelimit"
	"dongnezip/pkg/logger"
	"dongnezip/pkg/response"

	"github.com/labstack/echo/v4"
)

// RateLimit throttles gateway requests per remote address, so a runaway UI
// loop cannot hammer the backend through us.
func RateLimit(limiter *ratelimit.RateLimiter) echo.MiddlewareFunc {
	log := logger.With("gateway")
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			if err := limiter.Check(ip, ratelimit.ActionGateway); err != nil {
				log.Warn("rate limit hit for %s %s from %s", c.Request().Method, c.Path(), ip)
				return response.Error(c, err)
			}
			return next(c)
		}
	}
}
