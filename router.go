package main

import (
	"github.com/gin-gonic/gin"

	"eventstream/api/config"
	"eventstream/api/handlers"
	"eventstream/api/metrics"
	"eventstream/api/middleware"
)

type routerDeps struct {
	auth      *handlers.AuthHandlers
	analytics *handlers.AnalyticsHandlers
	tokens    middleware.TokenValidator
	health    map[string]handlers.Pinger
}

func newRouter(cfg config.Config, deps routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(), middleware.CORS(cfg.FrontendOrigin))

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck(deps.health))

		// Authentication endpoints (no authentication required)
		api.POST("/signup", deps.auth.Signup)
		api.POST("/login", deps.auth.Login)
		api.POST("/logout", deps.auth.Logout)

		protected := api.Group("/")
		protected.Use(middleware.AuthRequired(deps.tokens, cfg.APIKey))
		{
			protected.POST("/track", deps.analytics.TrackEvent)
			protected.GET("/profile", deps.auth.Profile)

			events := protected.Group("/events")
			{
				events.GET("/recent", deps.analytics.GetRecentEvents)
				events.GET("/sessions", deps.analytics.GetRecentSessions)
			}

			stats := protected.Group("/stats")
			{
				stats.GET("/event-counts", deps.analytics.GetEventCountsOverTime)
				stats.GET("/average-event-duration", deps.analytics.GetAverageEventDuration)
				stats.GET("/average-custom-param", deps.analytics.GetAverageCustomEventParameter)
				stats.GET("/unique-users", deps.analytics.GetUniqueUsersOverTime)
				stats.GET("/top-paths", deps.analytics.GetTopNPagePaths)
			}
		}
	}

	return r
}
