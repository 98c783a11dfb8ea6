package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/termfolio/internal/handlers"
)

type terminalRouteDeps struct {
	Handler       *handlers.TerminalHandler
	StreamEnabled bool
}

func registerTerminalRoutes(r *gin.Engine, deps terminalRouteDeps) {
	group := r.Group("/api/terminal")
	{
		group.GET("/commands", deps.Handler.Catalog)
		group.POST("/execute", deps.Handler.Execute)
		if deps.StreamEnabled {
			group.GET("/stream", deps.Handler.Stream)
		}
	}
}
