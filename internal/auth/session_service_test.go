package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/termfolio/internal/database/testutil"
	"github.com/charlesng35/termfolio/internal/models"
	"github.com/charlesng35/termfolio/pkg/crypto"
)

type fakeSessionCache struct {
	mu       sync.Mutex
	entries  map[string]models.Session
	sets     int
	deletes  int
	getCalls int
}

func newFakeSessionCache() *fakeSessionCache {
	return &fakeSessionCache{entries: map[string]models.Session{}}
}

func (c *fakeSessionCache) Get(_ context.Context, refreshToken string) (*models.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.getCalls++
	session, ok := c.entries[refreshToken]
	if !ok {
		return nil, errSessionCacheMiss
	}
	cpy := session
	return &cpy, nil
}

func (c *fakeSessionCache) Set(_ context.Context, session *models.Session, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.entries[session.RefreshToken] = *session
	return nil
}

func (c *fakeSessionCache) Delete(_ context.Context, refreshToken string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deletes++
	delete(c.entries, refreshToken)
	return nil
}

func newSessionTestService(t *testing.T, cfg SessionConfig) (*SessionService, *gorm.DB, *models.User) {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	hashed, err := crypto.HashPassword("correct-horse")
	require.NoError(t, err)

	user := &models.User{
		Email:       "admin@example.com",
		Password:    hashed,
		DisplayName: "Admin",
		IsActive:    true,
	}
	require.NoError(t, db.Create(user).Error)

	jwtSvc, err := NewJWTService(JWTConfig{Secret: "session-test-secret"})
	require.NoError(t, err)

	svc, err := NewSessionService(db, jwtSvc, cfg)
	require.NoError(t, err)

	return svc, db, user
}

func TestCreateSessionPersistsAndIssuesTokens(t *testing.T) {
	svc, db, user := newSessionTestService(t, SessionConfig{})

	pair, session, err := svc.CreateSession(user.ID, SessionMetadata{
		IPAddress: "203.0.113.7",
		UserAgent: "test-agent",
	})
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Equal(t, user.ID, session.UserID)
	require.Equal(t, "203.0.113.7", session.IPAddress)

	var stored models.Session
	require.NoError(t, db.Take(&stored, "id = ?", session.ID).Error)
	require.Equal(t, pair.RefreshToken, stored.RefreshToken)
	require.True(t, stored.ExpiresAt.After(time.Now()))
}

func TestCreateSessionRequiresUserID(t *testing.T) {
	svc, _, _ := newSessionTestService(t, SessionConfig{})

	_, _, err := svc.CreateSession("  ", SessionMetadata{})
	require.Error(t, err)
}

func TestRefreshSessionRotatesToken(t *testing.T) {
	svc, db, user := newSessionTestService(t, SessionConfig{})

	pair, session, err := svc.CreateSession(user.ID, SessionMetadata{})
	require.NoError(t, err)

	newPair, refreshed, err := svc.RefreshSession(pair.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, session.ID, refreshed.ID)
	require.NotEqual(t, pair.RefreshToken, newPair.RefreshToken)

	// The old token must no longer be usable.
	_, _, err = svc.RefreshSession(pair.RefreshToken)
	require.ErrorIs(t, err, ErrSessionNotFound)

	var stored models.Session
	require.NoError(t, db.Take(&stored, "id = ?", session.ID).Error)
	require.Equal(t, newPair.RefreshToken, stored.RefreshToken)
}

func TestRefreshSessionPreservesRoleClaim(t *testing.T) {
	svc, _, user := newSessionTestService(t, SessionConfig{})

	pair, session, err := svc.CreateSession(user.ID, SessionMetadata{
		Claims: map[string]any{"role": "admin"},
	})
	require.NoError(t, err)
	require.Equal(t, "admin", session.Role)

	newPair, refreshed, err := svc.RefreshSession(pair.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, "admin", refreshed.Role)

	claims, err := svc.jwt.ValidateAccessToken(newPair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "admin", claims.Role())
}

func TestRefreshSessionRejectsRevoked(t *testing.T) {
	svc, _, user := newSessionTestService(t, SessionConfig{})

	pair, session, err := svc.CreateSession(user.ID, SessionMetadata{})
	require.NoError(t, err)

	require.NoError(t, svc.RevokeSession(session.ID))

	_, _, err = svc.RefreshSession(pair.RefreshToken)
	require.ErrorIs(t, err, ErrSessionRevoked)
}

func TestRefreshSessionRejectsExpired(t *testing.T) {
	base := time.Now()
	clock := base

	svc, _, user := newSessionTestService(t, SessionConfig{
		RefreshTokenTTL: time.Hour,
		Clock:           func() time.Time { return clock },
	})

	pair, _, err := svc.CreateSession(user.ID, SessionMetadata{})
	require.NoError(t, err)

	clock = base.Add(2 * time.Hour)

	_, _, err = svc.RefreshSession(pair.RefreshToken)
	require.ErrorIs(t, err, ErrSessionExpired)
}

func TestRefreshSessionUsesCache(t *testing.T) {
	cache := newFakeSessionCache()
	svc, _, user := newSessionTestService(t, SessionConfig{Cache: cache})

	pair, _, err := svc.CreateSession(user.ID, SessionMetadata{})
	require.NoError(t, err)
	require.Equal(t, 1, cache.sets)

	newPair, _, err := svc.RefreshSession(pair.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, pair.RefreshToken, newPair.RefreshToken)

	// The rotated token replaces the old cache entry.
	_, ok := cache.entries[pair.RefreshToken]
	require.False(t, ok)
	_, ok = cache.entries[newPair.RefreshToken]
	require.True(t, ok)
}

func TestRevokeSessionIsIdempotentError(t *testing.T) {
	svc, _, user := newSessionTestService(t, SessionConfig{})

	_, session, err := svc.CreateSession(user.ID, SessionMetadata{})
	require.NoError(t, err)

	require.NoError(t, svc.RevokeSession(session.ID))
	require.ErrorIs(t, svc.RevokeSession(session.ID), ErrSessionNotFound)
}

func TestRevokeUserSessionsRevokesAll(t *testing.T) {
	cache := newFakeSessionCache()
	svc, db, user := newSessionTestService(t, SessionConfig{Cache: cache})

	for i := 0; i < 3; i++ {
		_, _, err := svc.CreateSession(user.ID, SessionMetadata{})
		require.NoError(t, err)
	}

	require.NoError(t, svc.RevokeUserSessions(user.ID))

	var remaining int64
	require.NoError(t, db.Model(&models.Session{}).
		Where("user_id = ? AND revoked_at IS NULL", user.ID).
		Count(&remaining).Error)
	require.Zero(t, remaining)
	require.Empty(t, cache.entries)
}

func TestListUserSessionsOrdersNewestFirst(t *testing.T) {
	svc, _, user := newSessionTestService(t, SessionConfig{})

	for i := 0; i < 2; i++ {
		_, _, err := svc.CreateSession(user.ID, SessionMetadata{})
		require.NoError(t, err)
	}

	sessions, err := svc.ListUserSessions(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
}

func TestCleanupExpiredRemovesStaleSessions(t *testing.T) {
	base := time.Now()
	clock := base

	svc, db, user := newSessionTestService(t, SessionConfig{
		RefreshTokenTTL: time.Hour,
		Clock:           func() time.Time { return clock },
	})

	_, expired, err := svc.CreateSession(user.ID, SessionMetadata{})
	require.NoError(t, err)

	clock = base.Add(30 * time.Minute)

	_, fresh, err := svc.CreateSession(user.ID, SessionMetadata{})
	require.NoError(t, err)

	clock = base.Add(90 * time.Minute)

	removed, err := svc.CleanupExpired(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	var sessions []models.Session
	require.NoError(t, db.Find(&sessions).Error)
	require.Len(t, sessions, 1)
	require.Equal(t, fresh.ID, sessions[0].ID)
	require.NotEqual(t, expired.ID, sessions[0].ID)
}
