package core

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/meetgrid/backend/internal/status"
)

const sessionKeyPrefix = "meeting:session:"

// CachedSessionRepository caches session records under their remaining
// lifetime so cache expiry and session expiry coincide.
type CachedSessionRepository struct {
	primary SessionRepository
	cache   Cache
}

func NewCachedSessionRepository(primary SessionRepository, cache Cache) *CachedSessionRepository {
	return &CachedSessionRepository{primary: primary, cache: cache}
}

func (r *CachedSessionRepository) CreateSession(ctx context.Context, record SessionRecord) error {
	if err := r.primary.CreateSession(ctx, record); err != nil {
		return err
	}
	if err := r.cachePut(ctx, record); err != nil {
		slog.Warn("session cache put failed", "err", err)
	}
	return nil
}

func (r *CachedSessionRepository) ValidateSession(ctx context.Context, token string) (SessionRecord, error) {
	rec, err := r.cacheGet(ctx, token)
	switch {
	case err == nil:
		return rec, nil
	case status.CodeOf(err) == status.CodeUnauthenticated:
		// The cached copy was stale; fall through to the primary, which
		// performs its own expiry check.
	case status.CodeOf(err) != status.CodeNotFound:
		slog.Warn("session cache get failed", "err", err)
	}

	rec, err = r.primary.ValidateSession(ctx, token)
	if err != nil {
		return SessionRecord{}, err
	}
	if err := r.cachePut(ctx, rec); err != nil {
		slog.Warn("session cache backfill failed", "err", err)
	}
	return rec, nil
}

func (r *CachedSessionRepository) DeleteSession(ctx context.Context, token string) error {
	err := r.primary.DeleteSession(ctx, token)
	if derr := r.cacheDelete(ctx, token); derr != nil {
		slog.Warn("session cache delete failed", "err", derr)
	}
	return err
}

func (r *CachedSessionRepository) cachePut(ctx context.Context, record SessionRecord) error {
	if record.ExpiresAt <= 0 {
		return nil
	}
	ttl := time.Until(time.Unix(record.ExpiresAt, 0))
	if ttl <= 0 {
		return nil
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return r.cache.SetEx(ctx, sessionKeyPrefix+record.Token, string(payload), ttl)
}

func (r *CachedSessionRepository) cacheGet(ctx context.Context, token string) (SessionRecord, error) {
	payload, err := r.cache.Get(ctx, sessionKeyPrefix+token)
	if err != nil {
		return SessionRecord{}, err
	}
	var rec SessionRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return SessionRecord{}, status.Unavailable("invalid cache payload").Err()
	}
	if rec.Token == "" {
		rec.Token = token
	}
	if rec.ExpiresAt != 0 && rec.ExpiresAt < time.Now().Unix() {
		if derr := r.cacheDelete(ctx, token); derr != nil {
			slog.Warn("session cache delete failed", "err", derr)
		}
		return SessionRecord{}, status.Unauthenticated("Session expired.").Err()
	}
	return rec, nil
}

func (r *CachedSessionRepository) cacheDelete(ctx context.Context, token string) error {
	err := r.cache.Del(ctx, sessionKeyPrefix+token)
	if err != nil && status.CodeOf(err) != status.CodeNotFound {
		return err
	}
	return nil
}
