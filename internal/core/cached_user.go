package core

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/meetgrid/backend/internal/status"
)

// Cache is the subset of the redis adapter the cached repositories need.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	SetEx(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

const (
	userIDKeyPrefix   = "meeting:user:id:"
	userNameKeyPrefix = "meeting:user:name:"
)

// CachedUserRepository layers a read-through / write-through cache over a
// primary UserRepository. Cache failures other than misses are logged and
// swallowed; the primary is authoritative.
type CachedUserRepository struct {
	primary UserRepository
	cache   Cache
	ttl     time.Duration
}

func NewCachedUserRepository(primary UserRepository, cache Cache, ttl time.Duration) *CachedUserRepository {
	return &CachedUserRepository{primary: primary, cache: cache, ttl: ttl}
}

func (r *CachedUserRepository) CreateUser(ctx context.Context, data UserData) error {
	if err := r.primary.CreateUser(ctx, data); err != nil {
		return err
	}
	// Re-read to pick up the storage-assigned numeric id before caching.
	stored, err := r.primary.FindByUserName(ctx, data.UserName)
	if err != nil {
		return nil
	}
	if err := r.cachePut(ctx, stored); err != nil {
		slog.Warn("user cache put failed", "err", err)
	}
	return nil
}

func (r *CachedUserRepository) FindByUserName(ctx context.Context, userName string) (UserData, error) {
	if data, err := r.cacheGet(ctx, userNameKeyPrefix+userName); err == nil {
		return data, nil
	} else if status.CodeOf(err) != status.CodeNotFound {
		slog.Warn("user cache get by name failed", "err", err)
	}

	data, err := r.primary.FindByUserName(ctx, userName)
	if err != nil {
		return UserData{}, err
	}
	if err := r.cachePut(ctx, data); err != nil {
		slog.Warn("user cache put failed", "err", err)
	}
	return data, nil
}

func (r *CachedUserRepository) FindByID(ctx context.Context, userID string) (UserData, error) {
	if data, err := r.cacheGet(ctx, userIDKeyPrefix+userID); err == nil {
		return data, nil
	} else if status.CodeOf(err) != status.CodeNotFound {
		slog.Warn("user cache get by id failed", "err", err)
	}

	data, err := r.primary.FindByID(ctx, userID)
	if err != nil {
		return UserData{}, err
	}
	if err := r.cachePut(ctx, data); err != nil {
		slog.Warn("user cache put failed", "err", err)
	}
	return data, nil
}

func (r *CachedUserRepository) UpdateLastLogin(ctx context.Context, userID string, lastLogin int64) error {
	if err := r.primary.UpdateLastLogin(ctx, userID, lastLogin); err != nil {
		return err
	}
	latest, err := r.primary.FindByID(ctx, userID)
	if err != nil {
		// Cannot refresh; drop whatever is cached under the id key.
		if derr := r.cache.Del(ctx, userIDKeyPrefix+userID); derr != nil && status.CodeOf(derr) != status.CodeNotFound {
			slog.Warn("user cache delete failed", "err", derr)
		}
		return nil
	}
	if err := r.cachePut(ctx, latest); err != nil {
		slog.Warn("user cache put failed", "err", err)
	}
	return nil
}

func (r *CachedUserRepository) cachePut(ctx context.Context, data UserData) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if err := r.cache.SetEx(ctx, userIDKeyPrefix+data.UserID, string(payload), r.ttl); err != nil {
		return err
	}
	return r.cache.SetEx(ctx, userNameKeyPrefix+data.UserName, string(payload), r.ttl)
}

func (r *CachedUserRepository) cacheGet(ctx context.Context, key string) (UserData, error) {
	payload, err := r.cache.Get(ctx, key)
	if err != nil {
		return UserData{}, err
	}
	var data UserData
	if err := json.Unmarshal([]byte(payload), &data); err != nil {
		return UserData{}, status.Unavailable("invalid cache payload").Err()
	}
	return data, nil
}
