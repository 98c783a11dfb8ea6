package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/termfolio/internal/database/testutil"
	"github.com/charlesng35/termfolio/internal/models"
	"github.com/charlesng35/termfolio/internal/services"
)

type contentTestEnv struct {
	db     *gorm.DB
	router *gin.Engine
}

func setupContentTestEnv(t *testing.T) contentTestEnv {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())

	projectSvc, err := services.NewProjectService(db)
	require.NoError(t, err)
	postSvc, err := services.NewPostService(db)
	require.NoError(t, err)
	settingsSvc, err := services.NewSettingsService(db)
	require.NoError(t, err)
	commandLogs, err := services.NewCommandLogService(db)
	require.NoError(t, err)
	dashboardSvc, err := services.NewDashboardService(db, commandLogs)
	require.NoError(t, err)

	projects := NewProjectsHandler(projectSvc)
	posts := NewPostsHandler(postSvc)
	settings := NewSettingsHandler(settingsSvc)
	dashboard := NewDashboardHandler(dashboardSvc)

	router := gin.New()
	router.GET("/api/projects", projects.ListPublished)
	router.GET("/api/projects/:slug", projects.GetPublished)
	router.GET("/api/blog", posts.ListPublished)
	router.GET("/api/blog/:slug", posts.GetPublished)

	admin := router.Group("/api/admin")
	admin.GET("/projects", projects.List)
	admin.POST("/projects", projects.Create)
	admin.PUT("/projects/:id", projects.Update)
	admin.DELETE("/projects/:id", projects.Delete)
	admin.GET("/posts", posts.List)
	admin.POST("/posts", posts.Create)
	admin.PUT("/posts/:id", posts.Update)
	admin.DELETE("/posts/:id", posts.Delete)
	admin.GET("/settings", settings.List)
	admin.GET("/settings/:key", settings.Get)
	admin.PUT("/settings/:key", settings.Set)
	admin.GET("/dashboard/stats", dashboard.Stats)

	return contentTestEnv{db: db, router: router}
}

func TestCreateProjectAndPublicListing(t *testing.T) {
	env := setupContentTestEnv(t)

	rec := doJSON(t, env.router, http.MethodPost, "/api/admin/projects", gin.H{
		"slug":         "termfolio",
		"name":         "Termfolio",
		"description":  "Terminal-themed portfolio backend",
		"technologies": []string{"Go", "PostgreSQL"},
		"repo_url":     "https://github.com/charlesng35/termfolio",
		"published":    true,
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	data := decodeEnvelope(t, rec)["data"].(map[string]any)
	require.Equal(t, "termfolio", data["slug"])
	require.NotEmpty(t, data["id"])

	rec = doJSON(t, env.router, http.MethodGet, "/api/projects", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decodeEnvelope(t, rec)["data"].([]any), 1)

	rec = doJSON(t, env.router, http.MethodGet, "/api/projects/termfolio", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateProjectRejectsInvalidSlug(t *testing.T) {
	env := setupContentTestEnv(t)

	rec := doJSON(t, env.router, http.MethodPost, "/api/admin/projects", gin.H{
		"slug": "Not A Slug!",
		"name": "Broken",
	}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateProjectConflictOnDuplicateSlug(t *testing.T) {
	env := setupContentTestEnv(t)

	payload := gin.H{"slug": "dup", "name": "First"}
	rec := doJSON(t, env.router, http.MethodPost, "/api/admin/projects", payload, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, env.router, http.MethodPost, "/api/admin/projects", payload, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestUnpublishedProjectHiddenFromPublicAPI(t *testing.T) {
	env := setupContentTestEnv(t)

	rec := doJSON(t, env.router, http.MethodPost, "/api/admin/projects", gin.H{
		"slug": "draft-project",
		"name": "Draft",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, env.router, http.MethodGet, "/api/projects/draft-project", nil, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, env.router, http.MethodGet, "/api/admin/projects", nil, nil)
	require.Len(t, decodeEnvelope(t, rec)["data"].([]any), 1)
}

func TestUpdateProjectPartialFields(t *testing.T) {
	env := setupContentTestEnv(t)

	rec := doJSON(t, env.router, http.MethodPost, "/api/admin/projects", gin.H{
		"slug":        "evolving",
		"name":        "Evolving",
		"description": "v1",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeEnvelope(t, rec)["data"].(map[string]any)["id"].(string)

	rec = doJSON(t, env.router, http.MethodPut, "/api/admin/projects/"+id, gin.H{
		"description": "v2",
		"featured":    true,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeEnvelope(t, rec)["data"].(map[string]any)
	require.Equal(t, "v2", data["description"])
	require.Equal(t, true, data["featured"])
	require.Equal(t, "Evolving", data["name"])
}

func TestDeleteProject(t *testing.T) {
	env := setupContentTestEnv(t)

	rec := doJSON(t, env.router, http.MethodPost, "/api/admin/projects", gin.H{
		"slug": "gone", "name": "Gone", "published": true,
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeEnvelope(t, rec)["data"].(map[string]any)["id"].(string)

	rec = doJSON(t, env.router, http.MethodDelete, "/api/admin/projects/"+id, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, env.router, http.MethodDelete, "/api/admin/projects/"+id, nil, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, env.router, http.MethodGet, "/api/projects", nil, nil)
	require.Empty(t, decodeEnvelope(t, rec)["data"])
}

func TestBlogPublishFlow(t *testing.T) {
	env := setupContentTestEnv(t)

	rec := doJSON(t, env.router, http.MethodPost, "/api/admin/posts", gin.H{
		"slug":  "hello-world",
		"title": "Hello World",
		"body":  "First post.",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeEnvelope(t, rec)["data"].(map[string]any)["id"].(string)

	// Drafts stay off the public surface.
	rec = doJSON(t, env.router, http.MethodGet, "/api/blog", nil, nil)
	require.Empty(t, decodeEnvelope(t, rec)["data"])

	rec = doJSON(t, env.router, http.MethodPut, "/api/admin/posts/"+id, gin.H{
		"publish": true,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, decodeEnvelope(t, rec)["data"].(map[string]any)["published_at"])

	rec = doJSON(t, env.router, http.MethodGet, "/api/blog/hello-world", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestSettingsRoundTrip(t *testing.T) {
	env := setupContentTestEnv(t)

	rec := doJSON(t, env.router, http.MethodGet, "/api/admin/settings", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	seeded := decodeEnvelope(t, rec)["data"].(map[string]any)
	require.Contains(t, seeded, models.SettingLocation)

	rec = doJSON(t, env.router, http.MethodPut, "/api/admin/settings/"+models.SettingLocation, gin.H{
		"value": "Lisbon, Portugal (UTC+1)",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, env.router, http.MethodGet, "/api/admin/settings/"+models.SettingLocation, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeEnvelope(t, rec)["data"].(map[string]any)
	require.Equal(t, "Lisbon, Portugal (UTC+1)", data["value"])
}

func TestSettingsGetUnknownKey(t *testing.T) {
	env := setupContentTestEnv(t)

	rec := doJSON(t, env.router, http.MethodGet, "/api/admin/settings/no-such-key", nil, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDashboardStatsCountsContent(t *testing.T) {
	env := setupContentTestEnv(t)

	rec := doJSON(t, env.router, http.MethodPost, "/api/admin/projects", gin.H{
		"slug": "counted", "name": "Counted", "published": true,
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, env.router, http.MethodPost, "/api/admin/posts", gin.H{
		"slug": "counted-post", "title": "Counted Post",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, env.router, http.MethodGet, "/api/admin/dashboard/stats", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeEnvelope(t, rec)["data"].(map[string]any)
	require.EqualValues(t, 1, data["projects"])
	require.EqualValues(t, 1, data["published_projects"])
	require.EqualValues(t, 1, data["posts"])
	require.EqualValues(t, 0, data["published_posts"])
}
