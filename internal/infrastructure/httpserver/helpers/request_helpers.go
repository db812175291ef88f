package helpers

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// RequestID returns the id assigned by the RequestID middleware, or the one the client sent.
func RequestID(c echo.Context) string {
	if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	return c.Request().Header.Get(echo.HeaderXRequestID)
}

// Brand returns the normalized brand filter of a page request; empty means all brands.
func Brand(c echo.Context) string {
	return strings.ToLower(strings.TrimSpace(c.QueryParam("brand")))
}

// LimiterKey identifies who a request is charged to: the brand when one is selected,
// otherwise the client IP.
func LimiterKey(c echo.Context) string {
	if b := Brand(c); b != "" {
		return "brand:" + b
	}
	return "ip:" + c.RealIP()
}

// ReachesLLM reports whether the page request's mode may trigger insight generation.
// An absent mode means full.
func ReachesLLM(c echo.Context) bool {
	switch strings.ToLower(strings.TrimSpace(c.QueryParam("mode"))) {
	case "", "full", "insights":
		return true
	}
	return false
}
