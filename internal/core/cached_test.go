package core

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetgrid/backend/internal/status"
)

// fakeCache is an in-process Cache with operation counters so tests can tell
// hits from primary reads.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string]fakeEntry
	gets    int
	sets    int
	dels    int
	failAll bool
}

type fakeEntry struct {
	value    string
	expireAt time.Time
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]fakeEntry)}
}

func (c *fakeCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.failAll {
		return "", status.Unavailable("cache down").Err()
	}
	e, ok := c.entries[key]
	if !ok {
		return "", status.NotFound("key not found").Err()
	}
	if !e.expireAt.IsZero() && time.Now().After(e.expireAt) {
		delete(c.entries, key)
		return "", status.NotFound("key not found").Err()
	}
	return e.value, nil
}

func (c *fakeCache) SetEx(_ context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	if c.failAll {
		return status.Unavailable("cache down").Err()
	}
	e := fakeEntry{value: value}
	if ttl > 0 {
		e.expireAt = time.Now().Add(ttl)
	}
	c.entries[key] = e
	return nil
}

func (c *fakeCache) Del(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dels++
	if c.failAll {
		return status.Unavailable("cache down").Err()
	}
	delete(c.entries, key)
	return nil
}

func (c *fakeCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

func TestCachedUserRepositoryReadThrough(t *testing.T) {
	primary := NewMemoryUserRepository()
	cache := newFakeCache()
	repo := NewCachedUserRepository(primary, cache, time.Hour)
	ctx := context.Background()

	user := UserData{UserID: "user_aa", UserName: "alice", Email: "a@x.io"}
	require.NoError(t, repo.CreateUser(ctx, user))

	// Create refreshed the cache under both keys.
	assert.True(t, cache.has(userIDKeyPrefix+"user_aa"))
	assert.True(t, cache.has(userNameKeyPrefix+"alice"))

	got, err := repo.FindByUserName(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.UserName)
	assert.NotZero(t, got.NumericID, "cached copy carries the assigned numeric id")

	got, err = repo.FindByID(ctx, "user_aa")
	require.NoError(t, err)
	assert.Equal(t, "user_aa", got.UserID)
}

func TestCachedUserRepositoryMissBackfills(t *testing.T) {
	primary := NewMemoryUserRepository()
	cache := newFakeCache()
	ctx := context.Background()

	require.NoError(t, primary.CreateUser(ctx, UserData{UserID: "user_bb", UserName: "bob"}))

	repo := NewCachedUserRepository(primary, cache, time.Hour)
	_, err := repo.FindByUserName(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, cache.has(userNameKeyPrefix+"bob"))

	// Second read is served from the cache.
	getsBefore := cache.gets
	_, err = repo.FindByUserName(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, getsBefore+1, cache.gets)
}

func TestCachedUserRepositorySurvivesCacheOutage(t *testing.T) {
	primary := NewMemoryUserRepository()
	cache := newFakeCache()
	cache.failAll = true
	repo := NewCachedUserRepository(primary, cache, time.Hour)
	ctx := context.Background()

	require.NoError(t, repo.CreateUser(ctx, UserData{UserID: "user_cc", UserName: "carol"}))

	got, err := repo.FindByUserName(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, "carol", got.UserName)
}

func TestCachedUserRepositoryUpdateRefreshes(t *testing.T) {
	primary := NewMemoryUserRepository()
	cache := newFakeCache()
	repo := NewCachedUserRepository(primary, cache, time.Hour)
	ctx := context.Background()

	require.NoError(t, repo.CreateUser(ctx, UserData{UserID: "user_dd", UserName: "dora"}))
	require.NoError(t, repo.UpdateLastLogin(ctx, "user_dd", 12345))

	got, err := repo.FindByID(ctx, "user_dd")
	require.NoError(t, err)
	assert.Equal(t, int64(12345), got.LastLogin)
}

func TestCachedSessionRepository(t *testing.T) {
	primary := NewMemorySessionRepository()
	cache := newFakeCache()
	repo := NewCachedSessionRepository(primary, cache)
	ctx := context.Background()

	rec := SessionRecord{Token: "tok1", UserID: 1, UserUUID: "user_aa",
		ExpiresAt: time.Now().Add(time.Hour).Unix()}
	require.NoError(t, repo.CreateSession(ctx, rec))
	assert.True(t, cache.has(sessionKeyPrefix+"tok1"))

	got, err := repo.ValidateSession(ctx, "tok1")
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	require.NoError(t, repo.DeleteSession(ctx, "tok1"))
	assert.False(t, cache.has(sessionKeyPrefix+"tok1"))

	_, err = repo.ValidateSession(ctx, "tok1")
	assert.Equal(t, status.CodeUnauthenticated, status.CodeOf(err))
}

func TestCachedSessionRepositorySkipsExpiredPut(t *testing.T) {
	primary := NewMemorySessionRepository()
	cache := newFakeCache()
	repo := NewCachedSessionRepository(primary, cache)
	ctx := context.Background()

	rec := SessionRecord{Token: "tok2", UserID: 1, ExpiresAt: time.Now().Unix() - 5}
	require.NoError(t, repo.CreateSession(ctx, rec))
	assert.False(t, cache.has(sessionKeyPrefix+"tok2"), "expired sessions are not cached")
}

func TestCachedSessionRepositoryStaleHitEvicts(t *testing.T) {
	primary := NewMemorySessionRepository()
	cache := newFakeCache()
	repo := NewCachedSessionRepository(primary, cache)
	ctx := context.Background()

	// Plant a stale cached payload directly.
	stale := SessionRecord{Token: "tok3", UserID: 1, ExpiresAt: time.Now().Unix() - 5}
	require.NoError(t, cache.SetEx(ctx, sessionKeyPrefix+"tok3",
		`{"token":"tok3","user_id":1,"expires_at":`+strconv.FormatInt(stale.ExpiresAt, 10)+`}`, time.Hour))

	_, err := repo.ValidateSession(ctx, "tok3")
	require.Error(t, err)
	assert.Equal(t, status.CodeUnauthenticated, status.CodeOf(err))
	assert.False(t, cache.has(sessionKeyPrefix+"tok3"), "stale entry is evicted")
}

func TestCachedMeetingRepository(t *testing.T) {
	primary := NewMemoryMeetingRepository()
	cache := newFakeCache()
	repo := NewCachedMeetingRepository(primary, cache, time.Hour)
	ctx := context.Background()

	data := MeetingData{MeetingID: "meeting_-abc", MeetingCode: "CODE1234",
		OrganizerID: 1, Topic: "Daily", Participants: []uint64{1}}
	created, err := repo.CreateMeeting(ctx, data)
	require.NoError(t, err)
	assert.True(t, cache.has(meetingKeyPrefix+"meeting_-abc"))

	got, err := repo.GetMeeting(ctx, "meeting_-abc")
	require.NoError(t, err)
	assert.Equal(t, created, got)

	// Membership writes invalidate the cached record.
	require.NoError(t, repo.AddParticipant(ctx, "meeting_-abc", 2, false))
	assert.False(t, cache.has(meetingKeyPrefix+"meeting_-abc"))

	got, err = repo.GetMeeting(ctx, "meeting_-abc")
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2}, got.Participants)
	assert.True(t, cache.has(meetingKeyPrefix+"meeting_-abc"), "read backfills")

	require.NoError(t, repo.UpdateMeetingState(ctx, "meeting_-abc", MeetingEnded, time.Now().Unix()))
	assert.False(t, cache.has(meetingKeyPrefix+"meeting_-abc"))

	require.NoError(t, repo.RemoveParticipant(ctx, "meeting_-abc", 2))
	ids, err := repo.ListParticipants(ctx, "meeting_-abc")
	require.NoError(t, err)
	assert.Equal(t, []uint64{1}, ids)
}
