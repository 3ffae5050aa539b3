package middleware

import (
	"fmt"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"rikoadmin/pkg/errors"
	"rikoadmin/pkg/logger"
)

type Limiter interface {
	Allow(key, action string) (bool, time.Duration)
}

// RateLimit applies the limiter's bucket for action, keyed by restaurant when
// authenticated and by client IP otherwise.
func RateLimit(limiter Limiter, action string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key, _ := c.Get(ContextUID).(string)
			if key == "" {
				key = c.RealIP()
			}

			allowed, retryIn := limiter.Allow(key, action)
			if !allowed {
				seconds := int(retryIn.Seconds()) + 1
				logger.Warn("RATE LIMIT: %s blocked for %s (retry in %ds)", key, action, seconds)
				c.Response().Header().Set("Retry-After", strconv.Itoa(seconds))
				return errors.TooManyRequests(fmt.Sprintf("Rate limit exceeded, retry in %d seconds", seconds))
			}

			return next(c)
		}
	}
}
