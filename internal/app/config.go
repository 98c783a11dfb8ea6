package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config represents the runtime configuration for the termfolio backend.
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Cache        CacheConfig        `mapstructure:"cache"`
	Auth         AuthConfig         `mapstructure:"auth"`
	Terminal     TerminalConfig     `mapstructure:"terminal"`
	Integrations IntegrationsConfig `mapstructure:"integrations"`
	AI           AIConfig           `mapstructure:"ai"`
	Monitoring   MonitoringConfig   `mapstructure:"monitoring"`
	Maintenance  MaintenanceConfig  `mapstructure:"maintenance"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port       int           `mapstructure:"port"`
	LogLevel   string        `mapstructure:"log_level"`
	PrettyLogs bool          `mapstructure:"pretty_logs"`
	CORS       CORSConfig    `mapstructure:"cors"`
	CSRF       CSRFConfig    `mapstructure:"csrf"`
	RateLimit  RateLimitings `mapstructure:"rate_limit"`
}

// CORSConfig holds the allowed browser origins. Empty means allow all.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// CSRFConfig controls CSRF protection middleware.
type CSRFConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// RateLimitings groups per-scope request budgets.
type RateLimitings struct {
	Enabled bool          `mapstructure:"enabled"`
	Window  time.Duration `mapstructure:"window"`
	General int           `mapstructure:"general"`
	Auth    int           `mapstructure:"auth"`
	AI      int           `mapstructure:"ai"`
}

// DatabaseConfig describes connection options for the supported databases.
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Path     string `mapstructure:"path"`
	DSN      string `mapstructure:"dsn"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// CacheConfig describes cache backends. Redis is optional; the database cache
// table serves as the fallback.
type CacheConfig struct {
	Redis RedisCacheConfig `mapstructure:"redis"`
}

// RedisCacheConfig holds Redis connection options.
type RedisCacheConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Address  string        `mapstructure:"address"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TLS      bool          `mapstructure:"tls"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// AuthConfig captures all authentication-related settings.
type AuthConfig struct {
	JWT           JWTSettings       `mapstructure:"jwt"`
	Session       SessionSettings   `mapstructure:"session"`
	Local         LocalAuthSettings `mapstructure:"local"`
	EncryptionKey string            `mapstructure:"encryption_key"`
	RootEmail     string            `mapstructure:"root_email"`
	RootPassword  string            `mapstructure:"root_password"`
}

// JWTSettings configures JWT access tokens.
type JWTSettings struct {
	Secret string        `mapstructure:"secret"`
	Issuer string        `mapstructure:"issuer"`
	TTL    time.Duration `mapstructure:"access_token_ttl"`
}

// SessionSettings configures refresh tokens and session lifetimes.
type SessionSettings struct {
	RefreshTTL    time.Duration `mapstructure:"refresh_token_ttl"`
	RefreshLength int           `mapstructure:"refresh_token_length"`
}

// LocalAuthSettings defines controls for the local auth provider.
type LocalAuthSettings struct {
	LockoutThreshold int           `mapstructure:"lockout_threshold"`
	LockoutDuration  time.Duration `mapstructure:"lockout_duration"`
}

// TerminalConfig tunes the public command surface.
type TerminalConfig struct {
	HistoryLimit  int           `mapstructure:"history_limit"`
	LogRetention  time.Duration `mapstructure:"log_retention"`
	StreamEnabled bool          `mapstructure:"stream_enabled"`
}

// IntegrationsConfig groups upstream API settings.
type IntegrationsConfig struct {
	Spotify SpotifyConfig `mapstructure:"spotify"`
	GitHub  GitHubConfig  `mapstructure:"github"`
}

// SpotifyConfig holds credentials for the now-playing integration.
type SpotifyConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	ClientID     string        `mapstructure:"client_id"`
	ClientSecret string        `mapstructure:"client_secret"`
	RefreshToken string        `mapstructure:"refresh_token"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
}

// GitHubConfig holds settings for the profile and repository integration.
type GitHubConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Username string        `mapstructure:"username"`
	Token    string        `mapstructure:"token"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// AIConfig configures the streaming chat proxy.
type AIConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	BaseURL      string `mapstructure:"base_url"`
	APIKey       string `mapstructure:"api_key"`
	Model        string `mapstructure:"model"`
	SystemPrompt string `mapstructure:"system_prompt"`
}

// MonitoringConfig enables health checks and metrics.
type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
	Health     HealthConfig     `mapstructure:"health_check"`
}

// PrometheusConfig toggles metrics endpoints.
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// HealthConfig toggles health endpoints.
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// MaintenanceConfig controls the background cleanup jobs.
type MaintenanceConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	SessionSchedule string `mapstructure:"session_schedule"`
	CacheSchedule   string `mapstructure:"cache_schedule"`
	LogSchedule     string `mapstructure:"log_schedule"`
}

// LoadConfig initialises application configuration using Viper with sensible defaults.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.NewWithOptions(viper.ExperimentalBindStruct())
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	v.SetEnvPrefix("TERMFOLIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.pretty_logs", false)
	v.SetDefault("server.csrf.enabled", true)
	v.SetDefault("server.rate_limit.enabled", true)
	v.SetDefault("server.rate_limit.window", "1m")
	v.SetDefault("server.rate_limit.general", 120)
	v.SetDefault("server.rate_limit.auth", 10)
	v.SetDefault("server.rate_limit.ai", 5)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/termfolio.sqlite")

	v.SetDefault("cache.redis.enabled", false)
	v.SetDefault("cache.redis.address", "127.0.0.1:6379")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.tls", false)
	v.SetDefault("cache.redis.timeout", "5s")

	v.SetDefault("auth.jwt.access_token_ttl", "15m")
	v.SetDefault("auth.jwt.issuer", "termfolio")
	v.SetDefault("auth.session.refresh_token_ttl", "720h") // 30 days
	v.SetDefault("auth.session.refresh_token_length", 48)
	v.SetDefault("auth.local.lockout_threshold", 5)
	v.SetDefault("auth.local.lockout_duration", "15m")
	v.SetDefault("auth.root_email", "admin@localhost")

	v.SetDefault("terminal.history_limit", 20)
	v.SetDefault("terminal.log_retention", "2160h") // 90 days
	v.SetDefault("terminal.stream_enabled", true)

	v.SetDefault("integrations.spotify.enabled", false)
	v.SetDefault("integrations.spotify.cache_ttl", "30s")
	v.SetDefault("integrations.github.enabled", false)
	v.SetDefault("integrations.github.cache_ttl", "10m")

	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.base_url", "https://api.openai.com/v1")
	v.SetDefault("ai.model", "gpt-4o-mini")

	v.SetDefault("monitoring.prometheus.enabled", true)
	v.SetDefault("monitoring.prometheus.endpoint", "/metrics")
	v.SetDefault("monitoring.health_check.enabled", true)

	v.SetDefault("maintenance.enabled", true)
	v.SetDefault("maintenance.session_schedule", "@every 1h")
	v.SetDefault("maintenance.cache_schedule", "@every 24h")
	v.SetDefault("maintenance.log_schedule", "@every 24h")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
