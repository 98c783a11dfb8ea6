package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/charlesng35/termfolio/internal/app"
	iauth "github.com/charlesng35/termfolio/internal/auth"
	"github.com/charlesng35/termfolio/internal/auth/mfa"
	"github.com/charlesng35/termfolio/internal/handlers"
	"github.com/charlesng35/termfolio/internal/integrations/github"
	"github.com/charlesng35/termfolio/internal/integrations/spotify"
	"github.com/charlesng35/termfolio/internal/middleware"
	"github.com/charlesng35/termfolio/internal/monitoring"
	"github.com/charlesng35/termfolio/internal/services"
	"github.com/charlesng35/termfolio/internal/terminal"
)

// Dependencies bundles everything the router needs. The server entrypoint
// constructs these once and hands them over.
type Dependencies struct {
	DB            *gorm.DB
	Config        *app.Config
	JWT           *iauth.JWTService
	Sessions      *iauth.SessionService
	Authenticator *iauth.LocalAuthenticator
	TOTP          *mfa.TOTPService
	RateStore     middleware.RateStore
	Dispatcher    *terminal.Dispatcher
	Spotify       *spotify.Client
	GitHub        *github.Client
	Health        *monitoring.HealthManager
}

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	if deps.DB == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if deps.Config == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if deps.JWT == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if deps.Sessions == nil {
		return nil, fmt.Errorf("session service must be provided")
	}
	if deps.Dispatcher == nil {
		return nil, fmt.Errorf("terminal dispatcher must be provided")
	}

	cfg := deps.Config

	r := gin.New()

	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowedOrigins...))
	if cfg.Server.CSRF.Enabled {
		r.Use(middleware.CSRF())
	}

	limits := cfg.Server.RateLimit
	if limits.Enabled && deps.RateStore != nil {
		r.Use(middleware.RateLimit(deps.RateStore, middleware.RateLimitConfig{
			Scope:       "general",
			MaxRequests: limits.General,
			Window:      limits.Window,
		}))
	}

	registerHealthRoutes(r, cfg, deps.Health)

	// Content services back both the JSON API and the terminal commands.
	projectSvc, err := services.NewProjectService(deps.DB)
	if err != nil {
		return nil, err
	}
	postSvc, err := services.NewPostService(deps.DB)
	if err != nil {
		return nil, err
	}
	settingsSvc, err := services.NewSettingsService(deps.DB)
	if err != nil {
		return nil, err
	}
	commandLogSvc, err := services.NewCommandLogService(deps.DB)
	if err != nil {
		return nil, err
	}
	dashboardSvc, err := services.NewDashboardService(deps.DB, commandLogSvc)
	if err != nil {
		return nil, err
	}

	authHandler := handlers.NewAuthHandler(deps.DB, deps.Sessions, deps.Authenticator, deps.TOTP)
	registerAuthRoutes(r, authRouteDeps{
		Handler:   authHandler,
		JWT:       deps.JWT,
		RateStore: deps.RateStore,
		Limits:    limits,
	})

	registerTerminalRoutes(r, terminalRouteDeps{
		Handler:       handlers.NewTerminalHandler(deps.Dispatcher),
		StreamEnabled: cfg.Terminal.StreamEnabled,
	})

	registerContentRoutes(r, contentRouteDeps{
		Projects:  handlers.NewProjectsHandler(projectSvc),
		Posts:     handlers.NewPostsHandler(postSvc),
		Settings:  handlers.NewSettingsHandler(settingsSvc),
		Dashboard: handlers.NewDashboardHandler(dashboardSvc),
		JWT:       deps.JWT,
	})

	registerIntegrationRoutes(r, integrationRouteDeps{
		Handler:   handlers.NewIntegrationsHandler(deps.Spotify, deps.GitHub),
		AIHandler: handlers.NewAIHandler(cfg.AI.HandlerConfig()),
		RateStore: deps.RateStore,
		Limits:    limits,
	})

	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
