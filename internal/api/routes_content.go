package api

import (
	"github.com/gin-gonic/gin"

	iauth "github.com/charlesng35/termfolio/internal/auth"
	"github.com/charlesng35/termfolio/internal/handlers"
	"github.com/charlesng35/termfolio/internal/middleware"
)

type contentRouteDeps struct {
	Projects  *handlers.ProjectsHandler
	Posts     *handlers.PostsHandler
	Settings  *handlers.SettingsHandler
	Dashboard *handlers.DashboardHandler
	JWT       *iauth.JWTService
}

func registerContentRoutes(r *gin.Engine, deps contentRouteDeps) {
	public := r.Group("/api")
	{
		public.GET("/projects", deps.Projects.ListPublished)
		public.GET("/projects/:slug", deps.Projects.GetPublished)
		public.GET("/blog", deps.Posts.ListPublished)
		public.GET("/blog/:slug", deps.Posts.GetPublished)
	}

	admin := r.Group("/api/admin", middleware.Auth(deps.JWT), middleware.RequireAdmin())
	{
		admin.GET("/projects", deps.Projects.List)
		admin.POST("/projects", deps.Projects.Create)
		admin.PUT("/projects/:id", deps.Projects.Update)
		admin.DELETE("/projects/:id", deps.Projects.Delete)

		admin.GET("/posts", deps.Posts.List)
		admin.POST("/posts", deps.Posts.Create)
		admin.PUT("/posts/:id", deps.Posts.Update)
		admin.DELETE("/posts/:id", deps.Posts.Delete)

		admin.GET("/settings", deps.Settings.List)
		admin.GET("/settings/:key", deps.Settings.Get)
		admin.PUT("/settings/:key", deps.Settings.Set)

		admin.GET("/dashboard/stats", deps.Dashboard.Stats)
	}
}
