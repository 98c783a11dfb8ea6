package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	iauth "github.com/charlesng35/termfolio/internal/auth"
	"github.com/charlesng35/termfolio/internal/cache"
	testutil "github.com/charlesng35/termfolio/internal/database/testutil"
	"github.com/charlesng35/termfolio/internal/models"
	"github.com/charlesng35/termfolio/internal/services"
	"github.com/charlesng35/termfolio/pkg/crypto"
)

type fixedClock struct {
	current time.Time
}

func (c fixedClock) Now() time.Time { return c.current }

func seedUser(t *testing.T, db *gorm.DB, email string) models.User {
	t.Helper()

	hash, err := crypto.HashPassword("strong test password")
	require.NoError(t, err)

	user := models.User{
		Email:    email + "@example.com",
		Password: hash,
		Role:     models.RoleAdmin,
		IsActive: true,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func TestCleanerRunOnce(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	jwtSvc, err := iauth.NewJWTService(iauth.JWTConfig{
		Secret:         "cleanup-secret",
		AccessTokenTTL: time.Hour,
	})
	require.NoError(t, err)

	clock := fixedClock{current: time.Date(2026, 5, 20, 9, 0, 0, 0, time.UTC)}

	sessionSvc, err := iauth.NewSessionService(db, jwtSvc, iauth.SessionConfig{
		RefreshTokenTTL: time.Hour,
		RefreshLength:   16,
		Clock:           clock.Now,
	})
	require.NoError(t, err)

	user := seedUser(t, db, "cleanup-user")

	_, expiredSession, err := sessionSvc.CreateSession(user.ID, iauth.SessionMetadata{})
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.Session{}).Where("id = ?", expiredSession.ID).
		Update("expires_at", clock.Now().Add(-2*time.Hour)).Error)

	_, activeSession, err := sessionSvc.CreateSession(user.ID, iauth.SessionMetadata{})
	require.NoError(t, err)

	// Stale cache entry next to a live one.
	store := cache.NewDatabaseStore(db)
	require.NoError(t, store.Set(context.Background(), "stale", []byte("x"), time.Nanosecond))
	require.NoError(t, store.Set(context.Background(), "live", []byte("y"), time.Hour))

	commandLogs, err := services.NewCommandLogService(db)
	require.NoError(t, err)
	require.NoError(t, commandLogs.Record(context.Background(), models.CommandLog{
		Command: "help",
		Outcome: models.CommandOutcomeOK,
	}))
	require.NoError(t, db.Model(&models.CommandLog{}).
		Where("command = ?", "help").
		Update("created_at", clock.Now().Add(-100*24*time.Hour)).Error)
	require.NoError(t, commandLogs.Record(context.Background(), models.CommandLog{
		Command: "projects",
		Outcome: models.CommandOutcomeOK,
	}))

	cleaner := NewCleaner(sessionSvc, store, commandLogs,
		WithNow(func() time.Time { return clock.Now().Add(time.Minute) }),
		WithLogRetention(90*24*time.Hour),
	)

	require.NoError(t, cleaner.RunOnce(context.Background()))

	var sessionCount int64
	require.NoError(t, db.Model(&models.Session{}).Count(&sessionCount).Error)
	require.Equal(t, int64(1), sessionCount)

	var remaining models.Session
	require.NoError(t, db.Take(&remaining, "id = ?", activeSession.ID).Error)

	_, found, err := store.Get(context.Background(), "stale")
	require.NoError(t, err)
	require.False(t, found)
	_, found, err = store.Get(context.Background(), "live")
	require.NoError(t, err)
	require.True(t, found)

	var logCount int64
	require.NoError(t, db.Model(&models.CommandLog{}).Count(&logCount).Error)
	require.Equal(t, int64(1), logCount)
}

func TestCleanerRunOnceWithNilDependencies(t *testing.T) {
	cleaner := NewCleaner(nil, nil, nil)
	require.NoError(t, cleaner.RunOnce(context.Background()))
	require.NoError(t, cleaner.Start())
}

func TestCleanerStartRegistersJobs(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	commandLogs, err := services.NewCommandLogService(db)
	require.NoError(t, err)

	cleaner := NewCleaner(nil, cache.NewDatabaseStore(db), commandLogs,
		WithCacheSchedule("@every 1m"),
		WithLogSchedule("@every 1m"),
	)
	require.NoError(t, cleaner.Start())

	stopped := cleaner.Stop()
	select {
	case <-stopped.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("cleaner did not stop in time")
	}
}

func TestCleanerRejectsInvalidSchedule(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	commandLogs, err := services.NewCommandLogService(db)
	require.NoError(t, err)

	cleaner := NewCleaner(nil, nil, commandLogs, WithLogSchedule("not-a-spec"))
	require.Error(t, cleaner.Start())
}
