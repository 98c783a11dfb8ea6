package monitoring

import (
	"context"
	"time"

	"gorm.io/gorm"
)

const defaultProbeTimeout = 2 * time.Second

// Pinger is the minimal surface needed to probe a cache backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DatabaseCheck returns a readiness probe that pings the database handle.
func DatabaseCheck(db *gorm.DB, timeout time.Duration) Check {
	return Check{Name: "database", Run: func(ctx context.Context) ProbeResult {
		start := time.Now()
		if db == nil {
			return ProbeResult{Status: StatusDown, Details: "database not configured"}
		}

		sqlDB, err := db.DB()
		if err != nil {
			return ResultFromError("database", err, time.Since(start))
		}

		probeCtx, cancel := context.WithTimeout(ctx, probeTimeout(timeout))
		defer cancel()

		if err := sqlDB.PingContext(probeCtx); err != nil {
			return ResultFromError("database", err, time.Since(start))
		}
		return ProbeResult{Status: StatusUp, Duration: time.Since(start)}
	}}
}

// RedisCheck returns a readiness probe for the Redis cache. A deployment
// without Redis reports up with a note so operators can tell the two apart.
func RedisCheck(client Pinger, timeout time.Duration) Check {
	return Check{Name: "redis", Run: func(ctx context.Context) ProbeResult {
		start := time.Now()
		if client == nil {
			return ProbeResult{Status: StatusUp, Details: "redis not configured, using database cache"}
		}

		probeCtx, cancel := context.WithTimeout(ctx, probeTimeout(timeout))
		defer cancel()

		if err := client.Ping(probeCtx); err != nil {
			return ResultFromError("redis", err, time.Since(start))
		}
		return ProbeResult{Status: StatusUp, Duration: time.Since(start)}
	}}
}

func probeTimeout(provided time.Duration) time.Duration {
	if provided <= 0 {
		return defaultProbeTimeout
	}
	return provided
}
