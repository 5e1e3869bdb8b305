package httpserver

func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/metrics", s.metricsEndpoint)

	api := s.echo.Group("/api/v1")
	cache := api.Group("/cache")
	cache.GET("/status", s.cacheStatus)
	cache.GET("/stats", s.cacheStats)

	healthData := api.Group("/health-data")
	healthData.POST("/:user_id/:data_type", s.cacheHealthData)
	healthData.GET("/:user_id/:data_type", s.getHealthData)

	families := api.Group("/families")
	families.PUT("/:family_id/summary", s.cacheFamilyData)
	families.GET("/:family_id/summary", s.getFamilyData)

	analyses := api.Group("/analyses")
	analyses.GET("/:user_id", s.listAnalyses)
	analyses.PUT("/:user_id/:analysis_id", s.cacheAnalysis)
	analyses.GET("/:user_id/:analysis_id", s.getAnalysis)
}
