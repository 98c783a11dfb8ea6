package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/termfolio/internal/api"
	"github.com/charlesng35/termfolio/internal/app"
	"github.com/charlesng35/termfolio/internal/app/maintenance"
	iauth "github.com/charlesng35/termfolio/internal/auth"
	"github.com/charlesng35/termfolio/internal/auth/mfa"
	"github.com/charlesng35/termfolio/internal/cache"
	"github.com/charlesng35/termfolio/internal/database"
	"github.com/charlesng35/termfolio/internal/integrations/github"
	"github.com/charlesng35/termfolio/internal/integrations/spotify"
	"github.com/charlesng35/termfolio/internal/middleware"
	"github.com/charlesng35/termfolio/internal/monitoring"
	"github.com/charlesng35/termfolio/internal/services"
	"github.com/charlesng35/termfolio/internal/terminal"
	"github.com/charlesng35/termfolio/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("termfolio-server", flag.ContinueOnError)
	fs.SetOutput(os.Stdout)

	var configPath string
	fs.StringVar(&configPath, "config", "", "Path to configuration directory or file")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadApplicationConfig(configPath)
	if err != nil {
		return err
	}

	generated, rootPassword, err := app.ApplyRuntimeDefaults(cfg)
	if err != nil {
		return err
	}

	if err := app.ConfigureLogging(cfg.Server); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer logger.Sync() // best effort

	log := logger.WithModule("bootstrap")
	for key := range generated {
		log.Info("generated runtime secret", zap.String("key", key))
	}

	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := initialiseDatabase(cfg)
	if err != nil {
		return err
	}
	defer closeDatabase(db, log)

	if err := database.EnsureRootUser(db, cfg.Auth.RootEmail, cfg.Auth.RootPassword); err != nil {
		return fmt.Errorf("ensure root user: %w", err)
	}
	if rootPassword != "" {
		// Printed once on first boot; the password is bcrypt-hashed at rest.
		log.Info("root account created",
			zap.String("email", cfg.Auth.RootEmail),
			zap.String("password", rootPassword))
	}

	dbStore := cache.NewDatabaseStore(db)

	var redisClient cache.Store
	if cfg.Cache.Redis.Enabled {
		client, redisErr := cache.NewRedisClient(cfg.Cache.RedisClientConfig())
		if redisErr != nil {
			log.Warn("redis unavailable; falling back to database cache", zap.Error(redisErr))
		} else {
			redisClient = client
			log.Info("redis connected", zap.String("addr", cfg.Cache.Redis.Address))
		}
	}
	defer func() {
		if rc, ok := redisClient.(*cache.RedisClient); ok && rc != nil {
			_ = rc.Close()
		}
	}()

	cacheStore := cache.Store(dbStore)
	if redisClient != nil {
		cacheStore = redisClient
	}

	jwtService, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	if err != nil {
		return fmt.Errorf("initialise jwt service: %w", err)
	}

	sessionCfg := cfg.Auth.SessionServiceConfig()
	if redisClient != nil {
		sessionCfg.Cache = iauth.NewRedisSessionCache(redisClient)
	} else {
		sessionCfg.Cache = iauth.NewDatabaseSessionCache(dbStore)
	}

	sessionSvc, err := iauth.NewSessionService(db, jwtService, sessionCfg)
	if err != nil {
		return fmt.Errorf("initialise session service: %w", err)
	}

	authenticator, err := iauth.NewLocalAuthenticator(db, cfg.Auth.LocalAuthConfig())
	if err != nil {
		return fmt.Errorf("initialise authenticator: %w", err)
	}

	encryptionKey, err := app.DecodeKey(cfg.Auth.EncryptionKey)
	if err != nil {
		return fmt.Errorf("decode encryption key: %w", err)
	}
	totpSvc, err := mfa.NewTOTPService(db, encryptionKey)
	if err != nil {
		return fmt.Errorf("initialise totp service: %w", err)
	}

	projectSvc, err := services.NewProjectService(db)
	if err != nil {
		return fmt.Errorf("initialise project service: %w", err)
	}
	postSvc, err := services.NewPostService(db)
	if err != nil {
		return fmt.Errorf("initialise post service: %w", err)
	}
	settingsSvc, err := services.NewSettingsService(db)
	if err != nil {
		return fmt.Errorf("initialise settings service: %w", err)
	}
	commandLogSvc, err := services.NewCommandLogService(db)
	if err != nil {
		return fmt.Errorf("initialise command log service: %w", err)
	}

	var spotifyClient *spotify.Client
	if cfg.Integrations.Spotify.Enabled {
		spotifyClient, err = spotify.New(cfg.Integrations.SpotifyClientConfig(), cacheStore)
		if err != nil {
			log.Warn("spotify integration disabled", zap.Error(err))
			spotifyClient = nil
		}
	}

	var githubClient *github.Client
	if cfg.Integrations.GitHub.Enabled {
		githubClient, err = github.New(cfg.Integrations.GitHubClientConfig(), cacheStore)
		if err != nil {
			log.Warn("github integration disabled", zap.Error(err))
			githubClient = nil
		}
	}

	providers := terminal.Providers{
		Projects:     projectSvc,
		Posts:        postSvc,
		Settings:     settingsSvc,
		History:      commandLogSvc,
		HistoryLimit: cfg.Terminal.HistoryLimit,
	}
	if spotifyClient != nil {
		providers.NowPlaying = nowPlayingAdapter{client: spotifyClient}
	}

	registry := terminal.NewRegistry()
	terminal.RegisterBuiltins(registry, providers)

	dispatcher, err := terminal.NewDispatcher(registry, commandLogSvc)
	if err != nil {
		return fmt.Errorf("initialise terminal dispatcher: %w", err)
	}

	var cleaner *maintenance.Cleaner
	if cfg.Maintenance.Enabled {
		cleaner = maintenance.NewCleaner(sessionSvc, dbStore, commandLogSvc,
			maintenance.WithSessionSchedule(cfg.Maintenance.SessionSchedule),
			maintenance.WithCacheSchedule(cfg.Maintenance.CacheSchedule),
			maintenance.WithLogSchedule(cfg.Maintenance.LogSchedule),
			maintenance.WithLogRetention(cfg.Terminal.LogRetention),
		)
		if err := cleaner.Start(); err != nil {
			return fmt.Errorf("start maintenance jobs: %w", err)
		}
		defer func() {
			stopCtx := cleaner.Stop()
			if err := cleaner.RunOnce(stopCtx); err != nil {
				log.Warn("maintenance shutdown cleanup failed", zap.Error(err))
			}
		}()
	}

	var rateStore middleware.RateStore
	if redisClient != nil {
		rateStore = middleware.NewRedisRateStore(redisClient)
	} else {
		rateStore = middleware.NewDatabaseRateStore(dbStore)
	}

	health := monitoring.NewHealthManager()
	health.RegisterReadiness(monitoring.DatabaseCheck(db, 0))
	var redisPinger monitoring.Pinger
	if rc, ok := redisClient.(*cache.RedisClient); ok {
		redisPinger = rc
	}
	health.RegisterReadiness(monitoring.RedisCheck(redisPinger, 0))

	router, err := api.NewRouter(api.Dependencies{
		DB:            db,
		Config:        cfg,
		JWT:           jwtService,
		Sessions:      sessionSvc,
		Authenticator: authenticator,
		TOTP:          totpSvc,
		RateStore:     rateStore,
		Dispatcher:    dispatcher,
		Spotify:       spotifyClient,
		GitHub:        githubClient,
		Health:        health,
	})
	if err != nil {
		return fmt.Errorf("build api router: %w", err)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	if err, ok := <-serverErr; ok && err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	log.Info("server stopped gracefully")
	return nil
}

// nowPlayingAdapter bridges the Spotify client to the terminal command set.
type nowPlayingAdapter struct {
	client *spotify.Client
}

func (a nowPlayingAdapter) NowPlaying(ctx context.Context) (*terminal.Track, error) {
	if a.client == nil {
		return nil, nil
	}
	np, err := a.client.NowPlaying(ctx)
	if err != nil {
		return nil, err
	}
	if np == nil || !np.Playing {
		return nil, nil
	}
	return &terminal.Track{
		Title:   np.Title,
		Artist:  np.Artist,
		Album:   np.Album,
		URL:     np.URL,
		Playing: np.Playing,
	}, nil
}

func loadApplicationConfig(path string) (*app.Config, error) {
	switch {
	case strings.TrimSpace(path) == "":
		return app.LoadConfig()
	default:
		info, err := os.Stat(path)
		if err == nil {
			if info.IsDir() {
				return app.LoadConfig(path)
			}
			return app.LoadConfig(filepath.Dir(path))
		}
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config path %q does not exist", path)
		}
		return nil, fmt.Errorf("stat config path: %w", err)
	}
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	db, err := database.Open(cfg.Database.OpenConfig())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrateAndSeed(db); err != nil {
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	logger.WithModule("database").Info("database connected",
		zap.String("driver", strings.ToLower(strings.TrimSpace(cfg.Database.Driver))))

	return db, nil
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	if db == nil {
		return
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("fetch underlying sql db", zap.Error(err))
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Warn("close database", zap.Error(err))
	}
}
