package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/termfolio/internal/services"
	"github.com/charlesng35/termfolio/pkg/errors"
	"github.com/charlesng35/termfolio/pkg/response"
)

// DashboardHandler serves the admin overview counters.
type DashboardHandler struct {
	dashboard *services.DashboardService
}

func NewDashboardHandler(dashboard *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// GET /api/admin/dashboard
func (h *DashboardHandler) Stats(c *gin.Context) {
	stats, err := h.dashboard.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, errors.FromError(err))
		return
	}
	response.Success(c, http.StatusOK, stats)
}
