package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charlesng35/termfolio/internal/cache"
	"github.com/charlesng35/termfolio/pkg/errors"
	"github.com/charlesng35/termfolio/pkg/metrics"
)

const (
	defaultBaseURL  = "https://api.github.com"
	defaultCacheTTL = 10 * time.Minute
	// staleTTL keeps the last good payload around so rate limited windows can
	// still serve data.
	staleTTL = 24 * time.Hour

	defaultRepoLimit = 6
	maxRepoLimit     = 30

	profileCacheKey = "integrations:github:profile"
	reposCacheKey   = "integrations:github:repos"
	metricsService  = "github"
)

// Config identifies the GitHub account to surface. The token is optional and
// only raises the API rate limit.
type Config struct {
	Username string
	Token    string
	CacheTTL time.Duration
}

// Profile is a trimmed GitHub user profile.
type Profile struct {
	Login       string `json:"login"`
	Name        string `json:"name"`
	Bio         string `json:"bio"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Blog        string `json:"blog"`
	AvatarURL   string `json:"avatar_url"`
	HTMLURL     string `json:"html_url"`
	PublicRepos int    `json:"public_repos"`
	Followers   int    `json:"followers"`
}

// Repository is a trimmed GitHub repository entry.
type Repository struct {
	Name        string `json:"name"`
	FullName    string `json:"full_name"`
	Description string `json:"description"`
	HTMLURL     string `json:"html_url"`
	Language    string `json:"language"`
	Stars       int    `json:"stargazers_count"`
	Forks       int    `json:"forks_count"`
	Archived    bool   `json:"archived"`
	Fork        bool   `json:"fork"`
	PushedAt    string `json:"pushed_at"`
}

// Option customises the client, primarily for tests.
type Option func(*Client)

// WithBaseURL points the client at a different API host.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient replaces the underlying HTTP client.
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

// Client fetches the owner's public GitHub presence with TTL caching. When
// GitHub rate limits the client, the last cached payload is served instead.
type Client struct {
	http     *http.Client
	store    cache.Store
	ttl      time.Duration
	baseURL  string
	username string
	token    string
	now      func() time.Time
}

type cachedPayload struct {
	FetchedAt time.Time       `json:"fetched_at"`
	ETag      string          `json:"etag,omitempty"`
	Data      json.RawMessage `json:"data"`
}

type fetchResult struct {
	data        json.RawMessage
	etag        string
	notModified bool
}

// New constructs a GitHub client. The cache store is optional.
func New(cfg Config, store cache.Store, opts ...Option) (*Client, error) {
	username := strings.TrimSpace(cfg.Username)
	if username == "" {
		return nil, fmt.Errorf("github: username is required")
	}

	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}

	client := &Client{
		http:     &http.Client{Timeout: 10 * time.Second},
		store:    store,
		ttl:      ttl,
		baseURL:  defaultBaseURL,
		username: username,
		token:    strings.TrimSpace(cfg.Token),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Profile returns the owner's GitHub profile.
func (c *Client) Profile(ctx context.Context) (*Profile, error) {
	var profile Profile
	err := c.cachedFetch(ctx, profileCacheKey, "/users/"+c.username, &profile)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// Repositories returns the owner's most recently pushed public repositories,
// skipping forks and archived repos.
func (c *Client) Repositories(ctx context.Context, limit int) ([]Repository, error) {
	if limit <= 0 {
		limit = defaultRepoLimit
	}
	if limit > maxRepoLimit {
		limit = maxRepoLimit
	}

	var all []Repository
	path := "/users/" + c.username + "/repos?sort=pushed&per_page=" + strconv.Itoa(maxRepoLimit)
	if err := c.cachedFetch(ctx, reposCacheKey, path, &all); err != nil {
		return nil, err
	}

	repos := make([]Repository, 0, limit)
	for _, repo := range all {
		if repo.Fork || repo.Archived {
			continue
		}
		repos = append(repos, repo)
		if len(repos) == limit {
			break
		}
	}
	return repos, nil
}

// cachedFetch serves the cached payload while fresh, revalidates it with a
// conditional request on expiry, and falls back to the stale copy when the
// upstream is down or rate limited.
func (c *Client) cachedFetch(ctx context.Context, cacheKey, path string, out any) error {
	cached, found := c.loadCache(ctx, cacheKey)
	if found && c.now().Sub(cached.FetchedAt) < c.ttl {
		return json.Unmarshal(cached.Data, out)
	}

	etag := ""
	if found {
		etag = cached.ETag
	}

	res, err := c.fetch(ctx, path, etag)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(metricsService, "error").Inc()
		if found {
			// Serve stale data instead of surfacing the upstream failure.
			return json.Unmarshal(cached.Data, out)
		}
		return err
	}

	if res.notModified {
		// A 304 does not count against the GitHub rate limit. Re-stamp the
		// cached payload so it stays fresh for another TTL.
		metrics.UpstreamRequests.WithLabelValues(metricsService, "revalidated").Inc()
		c.storeCache(ctx, cacheKey, cached.Data, cached.ETag)
		return json.Unmarshal(cached.Data, out)
	}

	metrics.UpstreamRequests.WithLabelValues(metricsService, "ok").Inc()
	c.storeCache(ctx, cacheKey, res.data, res.etag)
	return json.Unmarshal(res.data, out)
}

func (c *Client) loadCache(ctx context.Context, key string) (*cachedPayload, bool) {
	if c.store == nil {
		return nil, false
	}

	raw, found, err := c.store.Get(ctx, key)
	if err != nil || !found {
		return nil, false
	}

	var payload cachedPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, false
	}
	return &payload, true
}

func (c *Client) storeCache(ctx context.Context, key string, data json.RawMessage, etag string) {
	if c.store == nil {
		return
	}

	raw, err := json.Marshal(cachedPayload{FetchedAt: c.now(), ETag: etag, Data: data})
	if err != nil {
		return
	}
	_ = c.store.Set(ctx, key, raw, staleTTL)
}

func (c *Client) fetch(ctx context.Context, path, etag string) (fetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fetchResult{}, fmt.Errorf("github: build request: %w", err)
	}

	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fetchResult{}, errors.NewExternalService("GitHub is unreachable").WithInternal(err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotModified:
		return fetchResult{notModified: true}, nil
	case res.StatusCode == http.StatusForbidden || res.StatusCode == http.StatusTooManyRequests:
		return fetchResult{}, errors.NewExternalService("GitHub rate limit exceeded")
	case res.StatusCode == http.StatusNotFound:
		return fetchResult{}, errors.NewNotFound("GitHub user not found")
	case res.StatusCode != http.StatusOK:
		return fetchResult{}, errors.NewExternalService(fmt.Sprintf("GitHub returned status %d", res.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, 4<<20))
	if err != nil {
		return fetchResult{}, errors.NewExternalService("GitHub response unreadable").WithInternal(err)
	}

	return fetchResult{data: body, etag: res.Header.Get("ETag")}, nil
}
