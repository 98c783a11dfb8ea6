package app

import (
	"github.com/charlesng35/termfolio/internal/cache"
	"github.com/charlesng35/termfolio/internal/handlers"
	"github.com/charlesng35/termfolio/internal/integrations/github"
	"github.com/charlesng35/termfolio/internal/integrations/spotify"
)

// SpotifyClientConfig converts the integration settings for the Spotify client.
func (c IntegrationsConfig) SpotifyClientConfig() spotify.Config {
	return spotify.Config{
		ClientID:     c.Spotify.ClientID,
		ClientSecret: c.Spotify.ClientSecret,
		RefreshToken: c.Spotify.RefreshToken,
		CacheTTL:     c.Spotify.CacheTTL,
	}
}

// GitHubClientConfig converts the integration settings for the GitHub client.
func (c IntegrationsConfig) GitHubClientConfig() github.Config {
	return github.Config{
		Username: c.GitHub.Username,
		Token:    c.GitHub.Token,
		CacheTTL: c.GitHub.CacheTTL,
	}
}

// RedisClientConfig converts the cache settings for the Redis client.
func (c CacheConfig) RedisClientConfig() cache.RedisConfig {
	return cache.RedisConfig{
		Address:  c.Redis.Address,
		Username: c.Redis.Username,
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
		TLS:      c.Redis.TLS,
		Timeout:  c.Redis.Timeout,
	}
}

// HandlerConfig converts the chat settings for the AI handler.
func (c AIConfig) HandlerConfig() handlers.AIConfig {
	return handlers.AIConfig{
		Enabled:      c.Enabled,
		BaseURL:      c.BaseURL,
		APIKey:       c.APIKey,
		Model:        c.Model,
		SystemPrompt: c.SystemPrompt,
	}
}
