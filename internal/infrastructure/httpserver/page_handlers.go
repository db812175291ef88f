package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/core/domain/dashboard"
	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/core/domain/insight"
	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/core/ports"
)

type pageQuery struct {
	Page  string `param:"page" validate:"required,max=32"`
	Mode  string `query:"mode" validate:"max=16"`
	Brand string `query:"brand" validate:"max=128"`
}

func (s *Server) getPage(c echo.Context) error {
	var q pageQuery
	if err := c.Bind(&q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query parameters")
	}
	if err := c.Validate(&q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	resp, err := s.dashboardSvc.Page(c.Request().Context(), &dashboard.PageRequest{Page: q.Page, Mode: q.Mode, Brand: q.Brand})
	if err != nil {
		return pageError(err)
	}
	recordPage(resp)
	return s.respond(c, http.StatusOK, resp, pageMessage(resp))
}

func (s *Server) listPages(c echo.Context) error {
	return s.respond(c, http.StatusOK, map[string]any{"pages": s.dashboardSvc.Pages()}, "available pages")
}

func pageError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, dashboard.ErrUnknownPage):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, dashboard.ErrInvalidMode):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ports.ErrUpstreamFetch):
		return echo.NewHTTPError(http.StatusBadGateway, "failed to load data from upstream").SetInternal(err)
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load page").SetInternal(err)
	}
}

func pageMessage(resp *dashboard.PageResponse) string {
	switch resp.InsightsStatus {
	case insight.StatusSkipped:
		return fmt.Sprintf("%s data loaded", resp.Page)
	case insight.StatusFailed:
		return fmt.Sprintf("%s loaded without insights", resp.Page)
	default:
		return fmt.Sprintf("%s loaded with %d %s insights", resp.Page, len(resp.Insights), resp.InsightsStatus)
	}
}
