package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/core/ports"
)

type cacheManagementQuery struct {
	Action    string `query:"action" validate:"max=32"`
	Namespace string `query:"namespace" validate:"max=64"`
}

type removedResult struct {
	Removed   int    `json:"removed"`
	Namespace string `json:"namespace,omitempty"`
}

// cacheManagement dispatches the operator endpoint by verb.
func (s *Server) cacheManagement(c echo.Context) error {
	var q cacheManagementQuery
	// query parameters only; POST bodies are ignored
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query parameters")
	}
	if err := c.Validate(&q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	q.Action = strings.ToLower(strings.TrimSpace(q.Action))
	q.Namespace = strings.TrimSpace(q.Namespace)

	switch c.Request().Method {
	case http.MethodGet:
		return s.readCache(c, q)
	case http.MethodPost:
		return s.mutateCache(c, q)
	case http.MethodDelete:
		return s.deleteCache(c, q)
	default:
		c.Response().Header().Set(echo.HeaderAllow, "GET, POST, DELETE")
		return echo.NewHTTPError(http.StatusMethodNotAllowed, fmt.Sprintf("method %s not allowed", c.Request().Method))
	}
}

func (s *Server) readCache(c echo.Context, q cacheManagementQuery) error {
	switch q.Action {
	case "stats":
		return s.respond(c, http.StatusOK, s.cacheMgmtSvc.Stats(), "cache statistics")
	case "health":
		report := s.cacheMgmtSvc.Health()
		msg := "cache is healthy"
		if !report.Healthy {
			msg = fmt.Sprintf("cache has %d issue(s)", len(report.Issues))
		}
		return s.respond(c, http.StatusOK, report, msg)
	case "performance":
		return s.respond(c, http.StatusOK, s.cacheMgmtSvc.Performance(), "cache performance")
	default:
		return s.respond(c, http.StatusOK, s.cacheMgmtSvc.Overview(), "cache overview")
	}
}

func (s *Server) mutateCache(c echo.Context, q cacheManagementQuery) error {
	switch q.Action {
	case "cleanup":
		removed := s.cacheMgmtSvc.Cleanup()
		return s.respond(c, http.StatusOK, removedResult{Removed: removed}, fmt.Sprintf("removed %d expired entries", removed))
	case "reset-stats":
		s.cacheMgmtSvc.ResetStats()
		return s.respond(c, http.StatusOK, s.cacheMgmtSvc.Stats(), "cache statistics reset")
	case "invalidate":
		return s.invalidate(c, q.Namespace)
	case "":
		return echo.NewHTTPError(http.StatusBadRequest, "action is required: cleanup, reset-stats or invalidate")
	default:
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("unknown action %q", q.Action))
	}
}

func (s *Server) deleteCache(c echo.Context, q cacheManagementQuery) error {
	if q.Namespace != "" {
		return s.invalidate(c, q.Namespace)
	}
	removed := s.cacheMgmtSvc.Clear()
	if s.logger != nil {
		s.logger.WithField("removed", removed).Info("insight cache cleared by operator")
	}
	return s.respond(c, http.StatusOK, removedResult{Removed: removed}, fmt.Sprintf("cleared %d entries", removed))
}

func (s *Server) invalidate(c echo.Context, namespace string) error {
	removed, err := s.cacheMgmtSvc.Invalidate(namespace)
	if errors.Is(err, ports.ErrNamespaceRequired) {
		return echo.NewHTTPError(http.StatusBadRequest, "namespace is required for invalidate")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "invalidation failed").SetInternal(err)
	}
	return s.respond(c, http.StatusOK, removedResult{Removed: removed, Namespace: namespace},
		fmt.Sprintf("invalidated %d entries in %s", removed, namespace))
}
