package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/termfolio/internal/app"
	iauth "github.com/charlesng35/termfolio/internal/auth"
	"github.com/charlesng35/termfolio/internal/handlers"
	"github.com/charlesng35/termfolio/internal/middleware"
)

type authRouteDeps struct {
	Handler   *handlers.AuthHandler
	JWT       *iauth.JWTService
	RateStore middleware.RateStore
	Limits    app.RateLimitings
}

func registerAuthRoutes(r *gin.Engine, deps authRouteDeps) {
	public := r.Group("/api/auth")
	if deps.Limits.Enabled && deps.RateStore != nil {
		public.Use(middleware.RateLimit(deps.RateStore, middleware.RateLimitConfig{
			Scope:       "auth",
			MaxRequests: deps.Limits.Auth,
			Window:      deps.Limits.Window,
		}))
	}
	{
		public.POST("/login", deps.Handler.Login)
		public.POST("/refresh", deps.Handler.Refresh)
	}

	private := r.Group("/api/auth", middleware.Auth(deps.JWT))
	{
		private.GET("/me", deps.Handler.Me)
		private.POST("/logout", deps.Handler.Logout)
		private.GET("/sessions", deps.Handler.Sessions)
		private.POST("/change-password", deps.Handler.ChangePassword)
		private.POST("/mfa/setup", deps.Handler.MFASetup)
		private.POST("/mfa/confirm", deps.Handler.MFAConfirm)
		private.POST("/mfa/disable", deps.Handler.MFADisable)
	}
}
