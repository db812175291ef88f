package middleware

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/core/ports"
	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/infrastructure/httpserver/helpers"
)

type RateLimitMiddleware struct {
	rateLimiter ports.RateLimiterService
	logger      *logrus.Logger
}

func NewRateLimitMiddleware(rateLimiter ports.RateLimiterService, logger *logrus.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{rateLimiter: rateLimiter, logger: logger}
}

// InsightRequests limits page requests that may reach the LLM. Fast-mode requests are never
// limited. Limiter errors let the request through.
func (r *RateLimitMiddleware) InsightRequests() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if r.rateLimiter == nil || !helpers.ReachesLLM(c) {
				return next(c)
			}

			key := helpers.LimiterKey(c)
			allowed, remaining, limit, reset, rlErr := r.rateLimiter.Allow(c.Request().Context(), key)
			if rlErr != nil {
				if r.logger != nil {
					r.logger.WithError(rlErr).WithField("key", key).Warn("rate limiter error; allowing request (fail-open)")
				}
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))

			if !allowed {
				if r.logger != nil {
					r.logger.WithFields(logrus.Fields{"key": key, "path": c.Request().URL.Path}).Info("insight request rate limited")
				}
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded; retry with mode=fast or wait for the window to reset")
			}
			return next(c)
		}
	}
}
