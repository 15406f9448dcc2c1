package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetgrid/backend/internal/status"
)

func TestSessionCreateAndValidate(t *testing.T) {
	m := NewSessionManager(NewMemorySessionRepository(), time.Hour)
	ctx := context.Background()

	rec, err := m.CreateSession(ctx, 7, "user_abc")
	require.NoError(t, err)
	assert.Len(t, rec.Token, 32)
	assert.Equal(t, uint64(7), rec.UserID)
	assert.Equal(t, "user_abc", rec.UserUUID)
	assert.Greater(t, rec.ExpiresAt, time.Now().Unix())

	got, err := m.ValidateSession(ctx, rec.Token)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestSessionValidateUnknownToken(t *testing.T) {
	m := NewSessionManager(NewMemorySessionRepository(), time.Hour)

	_, err := m.ValidateSession(context.Background(), "nope")
	require.Error(t, err)
	assert.Equal(t, status.CodeUnauthenticated, status.CodeOf(err))
	assert.Contains(t, err.Error(), "Invalid session token.")
}

func TestSessionExpiryEvicts(t *testing.T) {
	repo := NewMemorySessionRepository()
	ctx := context.Background()

	expired := SessionRecord{Token: "tok", UserID: 1, ExpiresAt: time.Now().Unix() - 10}
	require.NoError(t, repo.CreateSession(ctx, expired))

	_, err := repo.ValidateSession(ctx, "tok")
	require.Error(t, err)
	assert.Equal(t, status.CodeUnauthenticated, status.CodeOf(err))
	assert.Contains(t, err.Error(), "Session expired.")

	// The expired record was evicted; a second lookup reports unknown.
	_, err = repo.ValidateSession(ctx, "tok")
	assert.Contains(t, err.Error(), "Invalid session token.")
}

func TestSessionDelete(t *testing.T) {
	m := NewSessionManager(NewMemorySessionRepository(), time.Hour)
	ctx := context.Background()

	rec, err := m.CreateSession(ctx, 1, "user_x")
	require.NoError(t, err)

	require.NoError(t, m.DeleteSession(ctx, rec.Token))

	err = m.DeleteSession(ctx, rec.Token)
	require.Error(t, err)
	assert.Equal(t, status.CodeNotFound, status.CodeOf(err))

	_, err = m.ValidateSession(ctx, rec.Token)
	assert.Error(t, err)
}

func TestSessionZeroTTLNeverExpires(t *testing.T) {
	m := NewSessionManager(NewMemorySessionRepository(), 0)

	rec, err := m.CreateSession(context.Background(), 1, "user_x")
	require.NoError(t, err)
	assert.Zero(t, rec.ExpiresAt)

	_, err = m.ValidateSession(context.Background(), rec.Token)
	assert.NoError(t, err)
}
