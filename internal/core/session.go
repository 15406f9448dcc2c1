package core

import (
	"context"
	"time"
)

const sessionTokenLength = 32

// SessionManager issues and validates session tokens, delegating storage to
// a SessionRepository.
type SessionManager struct {
	repo SessionRepository
	ttl  time.Duration
}

func NewSessionManager(repo SessionRepository, ttl time.Duration) *SessionManager {
	return &SessionManager{repo: repo, ttl: ttl}
}

// CreateSession issues a fresh token for the user. A zero ttl produces a
// session that never expires.
func (m *SessionManager) CreateSession(ctx context.Context, userID uint64, userUUID string) (SessionRecord, error) {
	rec := SessionRecord{
		Token:    randomAlnum(sessionTokenLength),
		UserID:   userID,
		UserUUID: userUUID,
	}
	if m.ttl > 0 {
		rec.ExpiresAt = time.Now().Add(m.ttl).Unix()
	}
	if err := m.repo.CreateSession(ctx, rec); err != nil {
		return SessionRecord{}, err
	}
	return rec, nil
}

func (m *SessionManager) ValidateSession(ctx context.Context, token string) (SessionRecord, error) {
	return m.repo.ValidateSession(ctx, token)
}

func (m *SessionManager) DeleteSession(ctx context.Context, token string) error {
	return m.repo.DeleteSession(ctx, token)
}
