package monitoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/termfolio/internal/database/testutil"
)

func TestEmptyManagerReportsUp(t *testing.T) {
	manager := NewHealthManager()

	report := manager.EvaluateReadiness(context.Background())
	require.True(t, report.Success)
	require.Equal(t, StatusUp, report.Status)
	require.Empty(t, report.Checks)
}

func TestDownCheckFailsReadiness(t *testing.T) {
	manager := NewHealthManager()
	manager.RegisterReadiness(Check{Name: "broken", Run: func(ctx context.Context) ProbeResult {
		return ProbeResult{Status: StatusDown, Details: "boom"}
	}})
	manager.RegisterReadiness(Check{Name: "fine", Run: func(ctx context.Context) ProbeResult {
		return ProbeResult{Status: StatusUp}
	}})

	report := manager.EvaluateReadiness(context.Background())
	require.False(t, report.Success)
	require.Equal(t, StatusDown, report.Status)
	require.Len(t, report.Checks, 2)
	require.Equal(t, "broken", report.Checks[0].Component)
}

func TestDegradedDoesNotMaskDown(t *testing.T) {
	manager := NewHealthManager()
	manager.RegisterReadiness(Check{Name: "slow", Run: func(ctx context.Context) ProbeResult {
		return ProbeResult{Status: StatusDown}
	}})
	manager.RegisterReadiness(Check{Name: "flaky", Run: func(ctx context.Context) ProbeResult {
		return ProbeResult{Status: StatusDegraded}
	}})

	report := manager.EvaluateReadiness(context.Background())
	require.Equal(t, StatusDown, report.Status)
}

func TestLivenessIndependentOfReadiness(t *testing.T) {
	manager := NewHealthManager()
	manager.RegisterReadiness(Check{Name: "dep", Run: func(ctx context.Context) ProbeResult {
		return ProbeResult{Status: StatusDown}
	}})

	require.True(t, manager.EvaluateLiveness(context.Background()).Success)
	require.False(t, manager.EvaluateReadiness(context.Background()).Success)
}

func TestResultFromErrorMapsCancellationToDegraded(t *testing.T) {
	result := ResultFromError("upstream", context.DeadlineExceeded, time.Millisecond)
	require.Equal(t, StatusDegraded, result.Status)

	result = ResultFromError("upstream", errors.New("connection refused"), time.Millisecond)
	require.Equal(t, StatusDown, result.Status)

	result = ResultFromError("upstream", nil, time.Millisecond)
	require.Equal(t, StatusUp, result.Status)
}

func TestDatabaseCheckAgainstLiveHandle(t *testing.T) {
	db := testutil.MustOpenTestDB(t)

	result := DatabaseCheck(db, time.Second).Run(context.Background())
	require.Equal(t, StatusUp, result.Status)
}

func TestDatabaseCheckNilHandle(t *testing.T) {
	result := DatabaseCheck(nil, time.Second).Run(context.Background())
	require.Equal(t, StatusDown, result.Status)
}

func TestRedisCheckWithoutClientReportsUp(t *testing.T) {
	result := RedisCheck(nil, time.Second).Run(context.Background())
	require.Equal(t, StatusUp, result.Status)
	require.Contains(t, result.Details, "not configured")
}

type failingPinger struct{}

func (failingPinger) Ping(ctx context.Context) error { return errors.New("no route to host") }

func TestRedisCheckSurfacesPingFailure(t *testing.T) {
	result := RedisCheck(failingPinger{}, time.Second).Run(context.Background())
	require.Equal(t, StatusDown, result.Status)
}
