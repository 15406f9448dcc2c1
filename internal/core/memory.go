package core

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/meetgrid/backend/internal/status"
)

// MemoryUserRepository is the map-backed user store used when no database is
// configured and by the test suites.
type MemoryUserRepository struct {
	mu            sync.RWMutex
	byName        map[string]UserData
	byID          map[string]UserData
	nextNumericID uint64
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byName:        make(map[string]UserData),
		byID:          make(map[string]UserData),
		nextNumericID: 1,
	}
}

func (r *MemoryUserRepository) CreateUser(_ context.Context, data UserData) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[data.UserName]; ok {
		return status.AlreadyExists("User name already exists.").Err()
	}
	if data.NumericID == 0 {
		data.NumericID = r.nextNumericID
		r.nextNumericID++
	}
	r.byName[data.UserName] = data
	r.byID[data.UserID] = data
	return nil
}

func (r *MemoryUserRepository) FindByUserName(_ context.Context, userName string) (UserData, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	data, ok := r.byName[userName]
	if !ok {
		return UserData{}, status.NotFound("User not found.").Err()
	}
	return data, nil
}

func (r *MemoryUserRepository) FindByID(_ context.Context, userID string) (UserData, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	data, ok := r.byID[userID]
	if !ok {
		return UserData{}, status.NotFound("User not found.").Err()
	}
	return data, nil
}

func (r *MemoryUserRepository) UpdateLastLogin(_ context.Context, userID string, lastLogin int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	data, ok := r.byID[userID]
	if !ok {
		return status.NotFound("User not found.").Err()
	}
	data.LastLogin = lastLogin
	r.byID[userID] = data
	r.byName[data.UserName] = data
	return nil
}

// MemorySessionRepository is the map-backed session store.
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]SessionRecord
}

func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{sessions: make(map[string]SessionRecord)}
}

func (r *MemorySessionRepository) CreateSession(_ context.Context, record SessionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[record.Token] = record
	return nil
}

func (r *MemorySessionRepository) ValidateSession(_ context.Context, token string) (SessionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.sessions[token]
	if !ok {
		return SessionRecord{}, status.Unauthenticated("Invalid session token.").Err()
	}
	if rec.ExpiresAt != 0 && rec.ExpiresAt < time.Now().Unix() {
		delete(r.sessions, token)
		return SessionRecord{}, status.Unauthenticated("Session expired.").Err()
	}
	return rec, nil
}

func (r *MemorySessionRepository) DeleteSession(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[token]; !ok {
		return status.NotFound("Session token not found.").Err()
	}
	delete(r.sessions, token)
	return nil
}

// MemoryMeetingRepository is the map-backed meeting store.
type MemoryMeetingRepository struct {
	mu       sync.RWMutex
	meetings map[string]MeetingData
}

func NewMemoryMeetingRepository() *MemoryMeetingRepository {
	return &MemoryMeetingRepository{meetings: make(map[string]MeetingData)}
}

func (r *MemoryMeetingRepository) CreateMeeting(_ context.Context, data MeetingData) (MeetingData, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.meetings[data.MeetingID]; ok {
		return MeetingData{}, status.AlreadyExists("meeting already exists").Err()
	}
	data.Participants = slices.Clone(data.Participants)
	r.meetings[data.MeetingID] = data
	return data, nil
}

func (r *MemoryMeetingRepository) GetMeeting(_ context.Context, meetingID string) (MeetingData, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	data, ok := r.meetings[meetingID]
	if !ok {
		return MeetingData{}, status.NotFound("meeting not found").Err()
	}
	data.Participants = slices.Clone(data.Participants)
	return data, nil
}

func (r *MemoryMeetingRepository) UpdateMeetingState(_ context.Context, meetingID string, state MeetingState, updatedAt int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	data, ok := r.meetings[meetingID]
	if !ok {
		return status.NotFound("meeting not found").Err()
	}
	data.State = state
	data.UpdatedAt = updatedAt
	r.meetings[meetingID] = data
	return nil
}

func (r *MemoryMeetingRepository) AddParticipant(_ context.Context, meetingID string, participantID uint64, _ bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	data, ok := r.meetings[meetingID]
	if !ok {
		return status.NotFound("meeting not found").Err()
	}
	if slices.Contains(data.Participants, participantID) {
		return status.AlreadyExists("participant already in meeting").Err()
	}
	data.Participants = append(data.Participants, participantID)
	r.meetings[meetingID] = data
	return nil
}

func (r *MemoryMeetingRepository) RemoveParticipant(_ context.Context, meetingID string, participantID uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	data, ok := r.meetings[meetingID]
	if !ok {
		return status.NotFound("meeting not found").Err()
	}
	idx := slices.Index(data.Participants, participantID)
	if idx < 0 {
		return status.NotFound("participant not in meeting").Err()
	}
	data.Participants = slices.Delete(slices.Clone(data.Participants), idx, idx+1)
	r.meetings[meetingID] = data
	return nil
}

func (r *MemoryMeetingRepository) ListParticipants(_ context.Context, meetingID string) ([]uint64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	data, ok := r.meetings[meetingID]
	if !ok {
		return nil, status.NotFound("meeting not found").Err()
	}
	return slices.Clone(data.Participants), nil
}
