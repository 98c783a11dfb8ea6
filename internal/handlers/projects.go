package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/termfolio/internal/services"
	"github.com/charlesng35/termfolio/pkg/errors"
	"github.com/charlesng35/termfolio/pkg/response"
)

// ProjectsHandler exposes public project reads and admin CRUD.
type ProjectsHandler struct {
	projects *services.ProjectService
}

func NewProjectsHandler(projects *services.ProjectService) *ProjectsHandler {
	return &ProjectsHandler{projects: projects}
}

// GET /api/projects
func (h *ProjectsHandler) ListPublished(c *gin.Context) {
	projects, err := h.projects.ListPublished(c.Request.Context())
	if err != nil {
		response.Error(c, errors.FromError(err))
		return
	}
	response.Success(c, http.StatusOK, projects)
}

// GET /api/projects/:slug
func (h *ProjectsHandler) GetPublished(c *gin.Context) {
	project, err := h.projects.GetPublishedBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.Error(c, errors.FromError(err))
		return
	}
	response.Success(c, http.StatusOK, project)
}

// GET /api/admin/projects
func (h *ProjectsHandler) List(c *gin.Context) {
	projects, err := h.projects.List(c.Request.Context())
	if err != nil {
		response.Error(c, errors.FromError(err))
		return
	}
	response.Success(c, http.StatusOK, projects)
}

type createProjectRequest struct {
	Slug         string   `json:"slug" validate:"required,slug,max=64"`
	Name         string   `json:"name" validate:"required,max=128"`
	Description  string   `json:"description" validate:"max=4096"`
	Technologies []string `json:"technologies"`
	RepoURL      string   `json:"repo_url" validate:"omitempty,url"`
	LiveURL      string   `json:"live_url" validate:"omitempty,url"`
	Status       string   `json:"status" validate:"omitempty,oneof=active archived wip"`
	Featured     bool     `json:"featured"`
	SortOrder    int      `json:"sort_order"`
	Published    bool     `json:"published"`
}

// POST /api/admin/projects
func (h *ProjectsHandler) Create(c *gin.Context) {
	var req createProjectRequest
	if !bindAndValidate(c, &req) {
		return
	}

	project, err := h.projects.Create(c.Request.Context(), services.CreateProjectInput{
		Slug:         req.Slug,
		Name:         req.Name,
		Description:  req.Description,
		Technologies: req.Technologies,
		RepoURL:      req.RepoURL,
		LiveURL:      req.LiveURL,
		Status:       req.Status,
		Featured:     req.Featured,
		SortOrder:    req.SortOrder,
		Published:    req.Published,
	})
	if err != nil {
		response.Error(c, errors.FromError(err))
		return
	}
	response.Success(c, http.StatusCreated, project)
}

type updateProjectRequest struct {
	Name         *string   `json:"name" validate:"omitempty,max=128"`
	Description  *string   `json:"description" validate:"omitempty,max=4096"`
	Technologies *[]string `json:"technologies"`
	RepoURL      *string   `json:"repo_url" validate:"omitempty,url"`
	LiveURL      *string   `json:"live_url" validate:"omitempty,url"`
	Status       *string   `json:"status" validate:"omitempty,oneof=active archived wip"`
	Featured     *bool     `json:"featured"`
	SortOrder    *int      `json:"sort_order"`
	Published    *bool     `json:"published"`
}

// PUT /api/admin/projects/:id
func (h *ProjectsHandler) Update(c *gin.Context) {
	var req updateProjectRequest
	if !bindAndValidate(c, &req) {
		return
	}

	project, err := h.projects.Update(c.Request.Context(), c.Param("id"), services.UpdateProjectInput{
		Name:         req.Name,
		Description:  req.Description,
		Technologies: req.Technologies,
		RepoURL:      req.RepoURL,
		LiveURL:      req.LiveURL,
		Status:       req.Status,
		Featured:     req.Featured,
		SortOrder:    req.SortOrder,
		Published:    req.Published,
	})
	if err != nil {
		response.Error(c, errors.FromError(err))
		return
	}
	response.Success(c, http.StatusOK, project)
}

// DELETE /api/admin/projects/:id
func (h *ProjectsHandler) Delete(c *gin.Context) {
	if err := h.projects.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, errors.FromError(err))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
