package core

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/meetgrid/backend/internal/status"
)

const meetingKeyPrefix = "meeting:info:"

// CachedMeetingRepository caches whole meeting records, participants
// included. Membership and state mutations invalidate rather than refresh
// because the list lives inside the cached payload.
type CachedMeetingRepository struct {
	primary MeetingRepository
	cache   Cache
	ttl     time.Duration
}

func NewCachedMeetingRepository(primary MeetingRepository, cache Cache, ttl time.Duration) *CachedMeetingRepository {
	return &CachedMeetingRepository{primary: primary, cache: cache, ttl: ttl}
}

func (r *CachedMeetingRepository) CreateMeeting(ctx context.Context, data MeetingData) (MeetingData, error) {
	created, err := r.primary.CreateMeeting(ctx, data)
	if err != nil {
		return MeetingData{}, err
	}
	if cerr := r.cachePut(ctx, created); cerr != nil {
		slog.Warn("meeting cache put failed", "err", cerr)
	}
	return created, nil
}

func (r *CachedMeetingRepository) GetMeeting(ctx context.Context, meetingID string) (MeetingData, error) {
	if data, err := r.cacheGet(ctx, meetingID); err == nil {
		return data, nil
	} else if status.CodeOf(err) != status.CodeNotFound {
		slog.Warn("meeting cache get failed", "err", err)
	}

	data, err := r.primary.GetMeeting(ctx, meetingID)
	if err != nil {
		return MeetingData{}, err
	}
	if cerr := r.cachePut(ctx, data); cerr != nil {
		slog.Warn("meeting cache put failed", "err", cerr)
	}
	return data, nil
}

func (r *CachedMeetingRepository) UpdateMeetingState(ctx context.Context, meetingID string, state MeetingState, updatedAt int64) error {
	err := r.primary.UpdateMeetingState(ctx, meetingID, state, updatedAt)
	if cerr := r.cacheDelete(ctx, meetingID); cerr != nil {
		slog.Warn("meeting cache invalidate failed", "err", cerr)
	}
	return err
}

func (r *CachedMeetingRepository) AddParticipant(ctx context.Context, meetingID string, participantID uint64, isOrganizer bool) error {
	err := r.primary.AddParticipant(ctx, meetingID, participantID, isOrganizer)
	if cerr := r.cacheDelete(ctx, meetingID); cerr != nil {
		slog.Warn("meeting cache invalidate failed", "err", cerr)
	}
	return err
}

func (r *CachedMeetingRepository) RemoveParticipant(ctx context.Context, meetingID string, participantID uint64) error {
	err := r.primary.RemoveParticipant(ctx, meetingID, participantID)
	if cerr := r.cacheDelete(ctx, meetingID); cerr != nil {
		slog.Warn("meeting cache invalidate failed", "err", cerr)
	}
	return err
}

// ListParticipants always reads the primary; the list is not cached on its
// own.
func (r *CachedMeetingRepository) ListParticipants(ctx context.Context, meetingID string) ([]uint64, error) {
	return r.primary.ListParticipants(ctx, meetingID)
}

func (r *CachedMeetingRepository) cachePut(ctx context.Context, data MeetingData) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return r.cache.SetEx(ctx, meetingKeyPrefix+data.MeetingID, string(payload), r.ttl)
}

func (r *CachedMeetingRepository) cacheGet(ctx context.Context, meetingID string) (MeetingData, error) {
	payload, err := r.cache.Get(ctx, meetingKeyPrefix+meetingID)
	if err != nil {
		return MeetingData{}, err
	}
	var data MeetingData
	if err := json.Unmarshal([]byte(payload), &data); err != nil {
		return MeetingData{}, status.Unavailable("invalid cache payload").Err()
	}
	return data, nil
}

func (r *CachedMeetingRepository) cacheDelete(ctx context.Context, meetingID string) error {
	err := r.cache.Del(ctx, meetingKeyPrefix+meetingID)
	if err != nil && status.CodeOf(err) != status.CodeNotFound {
		return err
	}
	return nil
}
