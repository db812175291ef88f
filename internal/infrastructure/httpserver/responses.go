package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/infrastructure/httpserver/helpers"
)

// Envelope wraps every JSON response, successful or not.
type Envelope struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	Details   string `json:"details,omitempty"`
	Timestamp string `json:"timestamp"`
}

func (s *Server) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

func (s *Server) respond(c echo.Context, code int, data any, message string) error {
	return c.JSON(code, Envelope{
		Success:   true,
		Data:      data,
		Message:   message,
		Timestamp: s.timestamp(),
	})
}

// handleError renders handler errors, router errors and recovered panics as failure envelopes.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := http.StatusText(code)
	details := ""

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		message = fmt.Sprint(he.Message)
		if he.Internal != nil {
			details = he.Internal.Error()
		}
	}

	if s.logger != nil && code >= http.StatusInternalServerError {
		s.logger.WithFields(logrus.Fields{
			"method":     c.Request().Method,
			"path":       c.Request().URL.Path,
			"status":     code,
			"request_id": helpers.RequestID(c),
		}).WithError(err).Error("request failed")
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, Envelope{
			Success:   false,
			Error:     message,
			Details:   details,
			Timestamp: s.timestamp(),
		})
	}
	if err != nil && s.logger != nil {
		s.logger.WithError(err).Warn("failed to write error response")
	}
}
