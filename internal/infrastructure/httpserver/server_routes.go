package httpserver

func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/metrics", s.metricsEndpoint)

	api := s.echo.Group("/api")
	api.Any("/cache-management", s.cacheManagement)
	api.GET("/pages", s.listPages)
	api.GET("/:page", s.getPage, s.middleware.RateLimit.InsightRequests())
}
