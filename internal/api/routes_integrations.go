package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/termfolio/internal/app"
	"github.com/charlesng35/termfolio/internal/handlers"
	"github.com/charlesng35/termfolio/internal/middleware"
)

type integrationRouteDeps struct {
	Handler   *handlers.IntegrationsHandler
	AIHandler *handlers.AIHandler
	RateStore middleware.RateStore
	Limits    app.RateLimitings
}

func registerIntegrationRoutes(r *gin.Engine, deps integrationRouteDeps) {
	r.GET("/api/spotify/now-playing", deps.Handler.NowPlaying)
	r.GET("/api/github/profile", deps.Handler.GitHubProfile)
	r.GET("/api/github/repos", deps.Handler.GitHubRepositories)

	ai := r.Group("/api/ai")
	if deps.Limits.Enabled && deps.RateStore != nil {
		ai.Use(middleware.RateLimit(deps.RateStore, middleware.RateLimitConfig{
			Scope:       "ai",
			MaxRequests: deps.Limits.AI,
			Window:      deps.Limits.Window,
		}))
	}
	ai.POST("/chat", deps.AIHandler.Chat)
}
