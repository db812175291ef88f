package httpserver

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/core/ports"
	customMiddleware "github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/infrastructure/httpserver/middleware"
)

type ServerConfig struct {
	Host           string
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	TLSCertFile    string
	TLSKeyFile     string
	AllowedOrigins []string
}

type ServerDeps struct {
	DashboardService       ports.DashboardService
	CacheManagementService ports.CacheManagementService
	// RateLimiterService is optional; nil disables insight rate limiting.
	RateLimiterService ports.RateLimiterService
	HealthCheckers     []ports.HealthChecker
}

type Server struct {
	echo           *echo.Echo
	config         *ServerConfig
	logger         *logrus.Logger
	dashboardSvc   ports.DashboardService
	cacheMgmtSvc   ports.CacheManagementService
	middleware     *customMiddleware.MiddlewareCollection
	healthCheckers []ports.HealthChecker
	now            func() time.Time
}

func NewServer(serverConfig *ServerConfig, logger *logrus.Logger, deps ServerDeps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = newRequestValidator()

	server := &Server{
		echo:           e,
		config:         serverConfig,
		logger:         logger,
		dashboardSvc:   deps.DashboardService,
		cacheMgmtSvc:   deps.CacheManagementService,
		healthCheckers: deps.HealthCheckers,
		now:            time.Now,
		middleware: customMiddleware.NewMiddlewareCollection(
			deps.RateLimiterService,
			logger,
			GetRequestsTotal(),
			GetRequestDuration(),
		),
	}
	e.HTTPErrorHandler = server.handleError

	server.setupMiddleware()
	server.setupRoutes()

	return server
}
