package core

import "context"

// UserRepository persists user records. Implementations return statuses from
// the internal/status package so callers can branch on codes.
type UserRepository interface {
	CreateUser(ctx context.Context, data UserData) error
	FindByUserName(ctx context.Context, userName string) (UserData, error)
	FindByID(ctx context.Context, userID string) (UserData, error)
	UpdateLastLogin(ctx context.Context, userID string, lastLogin int64) error
}

// SessionRepository persists session records keyed by token.
type SessionRepository interface {
	CreateSession(ctx context.Context, record SessionRecord) error
	ValidateSession(ctx context.Context, token string) (SessionRecord, error)
	DeleteSession(ctx context.Context, token string) error
}

// MeetingRepository persists meeting records and their membership.
type MeetingRepository interface {
	CreateMeeting(ctx context.Context, data MeetingData) (MeetingData, error)
	GetMeeting(ctx context.Context, meetingID string) (MeetingData, error)
	UpdateMeetingState(ctx context.Context, meetingID string, state MeetingState, updatedAt int64) error
	AddParticipant(ctx context.Context, meetingID string, participantID uint64, isOrganizer bool) error
	RemoveParticipant(ctx context.Context, meetingID string, participantID uint64) error
	ListParticipants(ctx context.Context, meetingID string) ([]uint64, error)
}
