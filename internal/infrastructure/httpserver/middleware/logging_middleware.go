package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/infrastructure/httpserver/helpers"
)

type LoggingMiddleware struct {
	logger *logrus.Logger
}

func NewLoggingMiddleware(logger *logrus.Logger) *LoggingMiddleware {
	return &LoggingMiddleware{logger: logger}
}

// RequestLogging logs one line per request once the handler has returned.
func (m *LoggingMiddleware) RequestLogging() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if m.logger == nil {
				return err
			}
			fields := logrus.Fields{
				"method":     c.Request().Method,
				"path":       c.Path(),
				"uri":        c.Request().RequestURI,
				"status":     c.Response().Status,
				"latency_ms": time.Since(start).Milliseconds(),
				"request_id": helpers.RequestID(c),
			}
			if err != nil {
				m.logger.WithFields(fields).WithError(err).Debug("request failed")
				return err
			}
			m.logger.WithFields(fields).Debug("request served")
			return nil
		}
	}
}
