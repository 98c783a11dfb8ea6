package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/termfolio/internal/services"
	"github.com/charlesng35/termfolio/pkg/errors"
	"github.com/charlesng35/termfolio/pkg/response"
)

// SettingsHandler manages the admin-editable content fragments.
type SettingsHandler struct {
	settings *services.SettingsService
}

func NewSettingsHandler(settings *services.SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// GET /api/admin/settings
func (h *SettingsHandler) List(c *gin.Context) {
	settings, err := h.settings.All(c.Request.Context())
	if err != nil {
		response.Error(c, errors.FromError(err))
		return
	}
	response.Success(c, http.StatusOK, settings)
}

// GET /api/admin/settings/:key
func (h *SettingsHandler) Get(c *gin.Context) {
	setting, err := h.settings.Get(c.Request.Context(), c.Param("key"))
	if err != nil {
		response.Error(c, errors.FromError(err))
		return
	}
	response.Success(c, http.StatusOK, setting)
}

type setSettingRequest struct {
	Value string `json:"value" validate:"max=8192"`
}

// PUT /api/admin/settings/:key
func (h *SettingsHandler) Set(c *gin.Context) {
	var req setSettingRequest
	if !bindAndValidate(c, &req) {
		return
	}

	setting, err := h.settings.Set(c.Request.Context(), c.Param("key"), req.Value)
	if err != nil {
		response.Error(c, errors.FromError(err))
		return
	}
	response.Success(c, http.StatusOK, setting)
}
