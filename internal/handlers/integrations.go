package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/termfolio/internal/integrations/github"
	"github.com/charlesng35/termfolio/internal/integrations/spotify"
	"github.com/charlesng35/termfolio/pkg/errors"
	"github.com/charlesng35/termfolio/pkg/response"
)

// IntegrationsHandler exposes the public Spotify and GitHub read endpoints.
// Either client may be nil when the integration is not configured.
type IntegrationsHandler struct {
	spotify *spotify.Client
	github  *github.Client
}

func NewIntegrationsHandler(spotifyClient *spotify.Client, githubClient *github.Client) *IntegrationsHandler {
	return &IntegrationsHandler{spotify: spotifyClient, github: githubClient}
}

// GET /api/spotify/now-playing
func (h *IntegrationsHandler) NowPlaying(c *gin.Context) {
	if h.spotify == nil {
		response.Error(c, errors.ErrFeatureDisabled)
		return
	}

	playing, err := h.spotify.NowPlaying(c.Request.Context())
	if err != nil {
		response.Error(c, errors.FromError(err))
		return
	}
	response.Success(c, http.StatusOK, playing)
}

// GET /api/github/profile
func (h *IntegrationsHandler) GitHubProfile(c *gin.Context) {
	if h.github == nil {
		response.Error(c, errors.ErrFeatureDisabled)
		return
	}

	profile, err := h.github.Profile(c.Request.Context())
	if err != nil {
		response.Error(c, errors.FromError(err))
		return
	}
	response.Success(c, http.StatusOK, profile)
}

// GET /api/github/repos
func (h *IntegrationsHandler) GitHubRepositories(c *gin.Context) {
	if h.github == nil {
		response.Error(c, errors.ErrFeatureDisabled)
		return
	}

	limit := parseIntQuery(c, "limit", 6)
	repos, err := h.github.Repositories(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, errors.FromError(err))
		return
	}
	response.Success(c, http.StatusOK, repos)
}
