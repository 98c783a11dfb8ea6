package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	iauth "github.com/charlesng35/termfolio/internal/auth"
	"github.com/charlesng35/termfolio/internal/cache"
	"github.com/charlesng35/termfolio/internal/services"
	"github.com/charlesng35/termfolio/pkg/logger"
)

const (
	defaultLogRetention = 90 * 24 * time.Hour
	defaultSessionSpec  = "@hourly"
	defaultCacheSpec    = "@daily"
	defaultLogSpec      = "@daily"
)

// Cleaner coordinates the background maintenance jobs: purging expired
// sessions, evicting stale database cache entries, and enforcing command log
// retention.
type Cleaner struct {
	sessions    *iauth.SessionService
	cacheStore  *cache.DatabaseStore
	commandLogs *services.CommandLogService

	cron      *cron.Cron
	now       func() time.Time
	log       *zap.Logger
	retention time.Duration

	sessionSchedule string
	cacheSchedule   string
	logSchedule     string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithNow overrides the clock used for cleanup comparisons.
func WithNow(now func() time.Time) Option {
	return func(cleaner *Cleaner) {
		if now != nil {
			cleaner.now = now
		}
	}
}

// WithLogRetention adjusts how long command logs are retained.
func WithLogRetention(retention time.Duration) Option {
	return func(cleaner *Cleaner) {
		if retention > 0 {
			cleaner.retention = retention
		}
	}
}

// WithSessionSchedule overrides the cron specification for session cleanup.
func WithSessionSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.sessionSchedule = spec
		}
	}
}

// WithCacheSchedule overrides the cron specification for cache eviction.
func WithCacheSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.cacheSchedule = spec
		}
	}
}

// WithLogSchedule overrides the cron specification for command log retention.
func WithLogSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.logSchedule = spec
		}
	}
}

// NewCleaner wires the maintenance jobs. Nil dependencies disable the
// corresponding job rather than erroring so partial deployments still work.
func NewCleaner(sessions *iauth.SessionService, cacheStore *cache.DatabaseStore, commandLogs *services.CommandLogService, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		sessions:        sessions,
		cacheStore:      cacheStore,
		commandLogs:     commandLogs,
		now:             time.Now,
		retention:       defaultLogRetention,
		sessionSchedule: defaultSessionSpec,
		cacheSchedule:   defaultCacheSpec,
		logSchedule:     defaultLogSpec,
		log:             logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return cleaner
}

// Start registers the cleanup jobs and launches the scheduler.
func (c *Cleaner) Start() error {
	if c.sessions == nil && c.cacheStore == nil && c.commandLogs == nil {
		return nil
	}

	if c.sessions != nil {
		if _, err := c.cron.AddFunc(c.sessionSchedule, func() {
			if _, err := c.sessions.CleanupExpired(context.Background()); err != nil {
				c.log.Warn("session cleanup failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	if c.cacheStore != nil {
		if _, err := c.cron.AddFunc(c.cacheSchedule, func() {
			if _, err := c.cacheStore.PurgeExpired(context.Background(), c.now()); err != nil {
				c.log.Warn("cache eviction failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	if c.commandLogs != nil && c.retention > 0 {
		if _, err := c.cron.AddFunc(c.logSchedule, func() {
			if _, err := c.commandLogs.PurgeOlderThan(context.Background(), c.retention); err != nil {
				c.log.Warn("command log retention failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	c.cron.Start()
	return nil
}

// Stop halts the scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes all configured cleanup routines sequentially. Used in tests
// and during graceful shutdown.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error

	if c.sessions != nil {
		if _, err := c.sessions.CleanupExpired(ctx); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	if c.cacheStore != nil {
		if _, err := c.cacheStore.PurgeExpired(ctx, c.now()); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	if c.commandLogs != nil && c.retention > 0 {
		if _, err := c.commandLogs.PurgeOlderThan(ctx, c.retention); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	return errs
}
