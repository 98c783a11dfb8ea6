package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/termfolio/internal/services"
	"github.com/charlesng35/termfolio/pkg/errors"
	"github.com/charlesng35/termfolio/pkg/response"
)

// PostsHandler exposes public blog reads and admin CRUD.
type PostsHandler struct {
	posts *services.PostService
}

func NewPostsHandler(posts *services.PostService) *PostsHandler {
	return &PostsHandler{posts: posts}
}

// GET /api/posts
func (h *PostsHandler) ListPublished(c *gin.Context) {
	posts, err := h.posts.ListPublished(c.Request.Context())
	if err != nil {
		response.Error(c, errors.FromError(err))
		return
	}
	response.Success(c, http.StatusOK, posts)
}

// GET /api/posts/:slug
func (h *PostsHandler) GetPublished(c *gin.Context) {
	post, err := h.posts.GetPublishedBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.Error(c, errors.FromError(err))
		return
	}
	response.Success(c, http.StatusOK, post)
}

// GET /api/admin/posts
func (h *PostsHandler) List(c *gin.Context) {
	posts, err := h.posts.List(c.Request.Context())
	if err != nil {
		response.Error(c, errors.FromError(err))
		return
	}
	response.Success(c, http.StatusOK, posts)
}

type createPostRequest struct {
	Slug    string   `json:"slug" validate:"required,slug,max=64"`
	Title   string   `json:"title" validate:"required,max=256"`
	Summary string   `json:"summary" validate:"max=1024"`
	Body    string   `json:"body"`
	Tags    []string `json:"tags"`
	Publish bool     `json:"publish"`
}

// POST /api/admin/posts
func (h *PostsHandler) Create(c *gin.Context) {
	var req createPostRequest
	if !bindAndValidate(c, &req) {
		return
	}

	post, err := h.posts.Create(c.Request.Context(), services.CreatePostInput{
		Slug:    req.Slug,
		Title:   req.Title,
		Summary: req.Summary,
		Body:    req.Body,
		Tags:    req.Tags,
		Publish: req.Publish,
	})
	if err != nil {
		response.Error(c, errors.FromError(err))
		return
	}
	response.Success(c, http.StatusCreated, post)
}

type updatePostRequest struct {
	Title   *string   `json:"title" validate:"omitempty,max=256"`
	Summary *string   `json:"summary" validate:"omitempty,max=1024"`
	Body    *string   `json:"body"`
	Tags    *[]string `json:"tags"`
	Publish *bool     `json:"publish"`
}

// PUT /api/admin/posts/:id
func (h *PostsHandler) Update(c *gin.Context) {
	var req updatePostRequest
	if !bindAndValidate(c, &req) {
		return
	}

	post, err := h.posts.Update(c.Request.Context(), c.Param("id"), services.UpdatePostInput{
		Title:   req.Title,
		Summary: req.Summary,
		Body:    req.Body,
		Tags:    req.Tags,
		Publish: req.Publish,
	})
	if err != nil {
		response.Error(c, errors.FromError(err))
		return
	}
	response.Success(c, http.StatusOK, post)
}

// DELETE /api/admin/posts/:id
func (h *PostsHandler) Delete(c *gin.Context) {
	if err := h.posts.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, errors.FromError(err))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
