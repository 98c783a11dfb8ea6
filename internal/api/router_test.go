package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/charlesng35/termfolio/internal/app"
	iauth "github.com/charlesng35/termfolio/internal/auth"
	"github.com/charlesng35/termfolio/internal/auth/mfa"
	"github.com/charlesng35/termfolio/internal/cache"
	"github.com/charlesng35/termfolio/internal/database"
	"github.com/charlesng35/termfolio/internal/database/testutil"
	"github.com/charlesng35/termfolio/internal/middleware"
	"github.com/charlesng35/termfolio/internal/monitoring"
	"github.com/charlesng35/termfolio/internal/terminal"
)

func testConfig() *app.Config {
	cfg := &app.Config{}
	cfg.Server.Port = 8000
	cfg.Server.RateLimit = app.RateLimitings{
		Enabled: true,
		Window:  time.Minute,
		General: 1000,
		Auth:    1000,
		AI:      1000,
	}
	cfg.Monitoring.Health.Enabled = true
	cfg.Monitoring.Prometheus.Enabled = true
	cfg.Monitoring.Prometheus.Endpoint = "/metrics"
	cfg.Terminal.StreamEnabled = true
	return cfg
}

func setupRouter(t *testing.T, cfg *app.Config) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	require.NoError(t, database.EnsureRootUser(db, "admin@example.com", "correct horse battery"))

	jwtSvc, err := iauth.NewJWTService(iauth.JWTConfig{Secret: "router-secret"})
	require.NoError(t, err)

	sessions, err := iauth.NewSessionService(db, jwtSvc, iauth.SessionConfig{
		RefreshTokenTTL: time.Hour,
		Cache:           iauth.NewDatabaseSessionCache(cache.NewDatabaseStore(db)),
	})
	require.NoError(t, err)

	authenticator, err := iauth.NewLocalAuthenticator(db, iauth.LocalConfig{})
	require.NoError(t, err)

	totp, err := mfa.NewTOTPService(db, []byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	registry := terminal.NewRegistry()
	terminal.RegisterBuiltins(registry, terminal.Providers{})
	dispatcher, err := terminal.NewDispatcher(registry, nil)
	require.NoError(t, err)

	health := monitoring.NewHealthManager()
	health.RegisterReadiness(monitoring.DatabaseCheck(db, time.Second))

	router, err := NewRouter(Dependencies{
		DB:            db,
		Config:        cfg,
		JWT:           jwtSvc,
		Sessions:      sessions,
		Authenticator: authenticator,
		TOTP:          totp,
		RateStore:     middleware.NewMemoryRateStore(),
		Dispatcher:    dispatcher,
		Health:        health,
	})
	require.NoError(t, err)
	return router
}

func perform(router *gin.Engine, method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRouterRequiresCoreDependencies(t *testing.T) {
	_, err := NewRouter(Dependencies{})
	require.Error(t, err)
}

func TestHealthEndpoints(t *testing.T) {
	router := setupRouter(t, testConfig())

	rec := perform(router, http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = perform(router, http.MethodGet, "/health/live", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = perform(router, http.MethodGet, "/health/ready", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var report struct {
		Success bool `json:"success"`
		Checks  []struct {
			Component string `json:"component"`
		} `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	require.True(t, report.Success)
	require.Len(t, report.Checks, 1)
	require.Equal(t, "database", report.Checks[0].Component)
}

func TestHealthDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Monitoring.Health.Enabled = false
	router := setupRouter(t, cfg)

	rec := perform(router, http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	router := setupRouter(t, testConfig())

	rec := perform(router, http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestPublicTerminalSurface(t *testing.T) {
	router := setupRouter(t, testConfig())

	rec := perform(router, http.MethodGet, "/api/terminal/commands", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := json.Marshal(gin.H{"input": "help"})
	require.NoError(t, err)
	rec = perform(router, http.MethodPost, "/api/terminal/execute", body, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminSurfaceRequiresAuth(t *testing.T) {
	router := setupRouter(t, testConfig())

	rec := perform(router, http.MethodGet, "/api/admin/projects", nil, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginThroughRouterGrantsAdminAccess(t *testing.T) {
	router := setupRouter(t, testConfig())

	body, err := json.Marshal(gin.H{
		"email":    "admin@example.com",
		"password": "correct horse battery",
	})
	require.NoError(t, err)

	rec := perform(router, http.MethodPost, "/api/auth/login", body, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data struct {
			Tokens struct {
				AccessToken string `json:"access_token"`
			} `json:"tokens"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NotEmpty(t, envelope.Data.Tokens.AccessToken)

	rec = perform(router, http.MethodGet, "/api/admin/projects", nil, map[string]string{
		"Authorization": "Bearer " + envelope.Data.Tokens.AccessToken,
	})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCSRFBlocksCookielessMutations(t *testing.T) {
	cfg := testConfig()
	cfg.Server.CSRF.Enabled = true
	router := setupRouter(t, cfg)

	// Safe requests pass and receive the token cookie.
	rec := perform(router, http.MethodGet, "/api/projects", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get("Set-Cookie"))

	// Unsafe requests without the header are rejected.
	body, _ := json.Marshal(gin.H{"email": "a@b.c", "password": "x"})
	rec = perform(router, http.MethodPost, "/api/auth/login", body, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAuthRateLimitThroughRouter(t *testing.T) {
	cfg := testConfig()
	cfg.Server.RateLimit.Auth = 2
	router := setupRouter(t, cfg)

	body, _ := json.Marshal(gin.H{"email": "admin@example.com", "password": "wrong"})

	for i := 0; i < 2; i++ {
		rec := perform(router, http.MethodPost, "/api/auth/login", body, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	rec := perform(router, http.MethodPost, "/api/auth/login", body, nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestDisabledIntegrationsReturnFeatureError(t *testing.T) {
	router := setupRouter(t, testConfig())

	rec := perform(router, http.MethodGet, "/api/spotify/now-playing", nil, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = perform(router, http.MethodGet, "/api/github/profile", nil, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	body, _ := json.Marshal(gin.H{"messages": []gin.H{{"role": "user", "content": "hi"}}})
	rec = perform(router, http.MethodPost, "/api/ai/chat", body, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnknownRouteEnvelope(t *testing.T) {
	router := setupRouter(t, testConfig())

	rec := perform(router, http.MethodGet, "/api/nope", nil, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	var envelope struct {
		Success bool `json:"success"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.False(t, envelope.Success)
}
