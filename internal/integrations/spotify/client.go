package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/charlesng35/termfolio/internal/cache"
	"github.com/charlesng35/termfolio/pkg/errors"
	"github.com/charlesng35/termfolio/pkg/metrics"
)

const (
	defaultBaseURL  = "https://api.spotify.com/v1"
	tokenURL        = "https://accounts.spotify.com/api/token"
	authURL         = "https://accounts.spotify.com/authorize"
	defaultCacheTTL = 30 * time.Second

	nowPlayingCacheKey = "integrations:spotify:now_playing"
	metricsService     = "spotify"
)

// Config holds Spotify application credentials. The refresh token comes from a
// one-time authorization-code grant by the site owner; without it the client
// falls back to client-credentials, which cannot read playback state.
type Config struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	CacheTTL     time.Duration
}

// NowPlaying is the playback snapshot returned to the terminal and REST API.
type NowPlaying struct {
	Playing   bool      `json:"playing"`
	Title     string    `json:"title,omitempty"`
	Artist    string    `json:"artist,omitempty"`
	Album     string    `json:"album,omitempty"`
	URL       string    `json:"url,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Option customises the client, primarily for tests.
type Option func(*Client)

// WithBaseURL points the client at a different API host.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient replaces the OAuth-wrapped HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.http = httpClient
	}
}

// WithClock injects a custom clock.
func WithClock(clock func() time.Time) Option {
	return func(c *Client) {
		c.now = clock
	}
}

// Client fetches the owner's current playback with short-lived caching so a
// burst of terminal visitors does not hammer the Spotify API.
type Client struct {
	http    *http.Client
	store   cache.Store
	ttl     time.Duration
	baseURL string
	now     func() time.Time
}

// New constructs a Spotify client. The cache store is optional.
func New(cfg Config, store cache.Store, opts ...Option) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("spotify: client id and secret are required")
	}

	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}

	client := &Client{
		store:   store,
		ttl:     ttl,
		baseURL: defaultBaseURL,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.http == nil {
		client.http = newOAuthClient(cfg)
	}

	return client, nil
}

func newOAuthClient(cfg Config) *http.Client {
	ctx := context.Background()

	if cfg.RefreshToken != "" {
		conf := &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:  authURL,
				TokenURL: tokenURL,
			},
		}
		source := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})
		return oauth2.NewClient(ctx, source)
	}

	conf := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     tokenURL,
	}
	return conf.Client(ctx)
}

// NowPlaying returns the current playback, served from cache while fresh.
// A nil Playing=false result is the normal idle state, not an error.
func (c *Client) NowPlaying(ctx context.Context) (*NowPlaying, error) {
	if cached, ok := c.cachedNowPlaying(ctx); ok {
		return cached, nil
	}

	playing, err := c.fetchNowPlaying(ctx)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(metricsService, "error").Inc()
		return nil, err
	}

	metrics.UpstreamRequests.WithLabelValues(metricsService, "ok").Inc()
	c.storeNowPlaying(ctx, playing)
	return playing, nil
}

func (c *Client) cachedNowPlaying(ctx context.Context) (*NowPlaying, bool) {
	if c.store == nil {
		return nil, false
	}

	raw, found, err := c.store.Get(ctx, nowPlayingCacheKey)
	if err != nil || !found {
		return nil, false
	}

	var playing NowPlaying
	if err := json.Unmarshal(raw, &playing); err != nil {
		return nil, false
	}
	return &playing, true
}

func (c *Client) storeNowPlaying(ctx context.Context, playing *NowPlaying) {
	if c.store == nil || playing == nil {
		return
	}

	raw, err := json.Marshal(playing)
	if err != nil {
		return
	}
	// Cache write failures only cost us an extra upstream call.
	_ = c.store.Set(ctx, nowPlayingCacheKey, raw, c.ttl)
}

type currentlyPlayingResponse struct {
	IsPlaying bool `json:"is_playing"`
	Item      struct {
		Name    string `json:"name"`
		Artists []struct {
			Name string `json:"name"`
		} `json:"artists"`
		Album struct {
			Name string `json:"name"`
		} `json:"album"`
		ExternalURLs struct {
			Spotify string `json:"spotify"`
		} `json:"external_urls"`
	} `json:"item"`
}

func (c *Client) fetchNowPlaying(ctx context.Context) (*NowPlaying, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/me/player/currently-playing", nil)
	if err != nil {
		return nil, fmt.Errorf("spotify: build request: %w", err)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, errors.NewExternalService("Spotify is unreachable").WithInternal(err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNoContent:
		// Nothing playing.
		return &NowPlaying{Playing: false, FetchedAt: c.now()}, nil
	case res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden:
		return nil, errors.NewExternalService("Spotify authorization failed")
	case res.StatusCode != http.StatusOK:
		return nil, errors.NewExternalService(fmt.Sprintf("Spotify returned status %d", res.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, errors.NewExternalService("Spotify response unreadable").WithInternal(err)
	}

	var payload currentlyPlayingResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, errors.NewExternalService("Spotify response malformed").WithInternal(err)
	}

	playing := &NowPlaying{
		Playing:   payload.IsPlaying,
		Title:     payload.Item.Name,
		Album:     payload.Item.Album.Name,
		URL:       payload.Item.ExternalURLs.Spotify,
		FetchedAt: c.now(),
	}

	artists := make([]string, 0, len(payload.Item.Artists))
	for _, artist := range payload.Item.Artists {
		artists = append(artists, artist.Name)
	}
	playing.Artist = strings.Join(artists, ", ")

	return playing, nil
}
