// Package core holds the domain model: users, sessions and meetings, the
// managers that implement their business rules, and the repository
// abstractions the managers persist through.
package core

// UserData is the canonical user record. UserID is the public identifier
// ("user_" + 16 hex chars); NumericID is the storage-assigned row id used by
// session and meeting membership records.
type UserData struct {
	UserID       string `json:"user_id"`
	NumericID    uint64 `json:"numeric_id"`
	UserName     string `json:"user_name"`
	DisplayName  string `json:"display_name"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
	Salt         string `json:"salt"`
	CreatedAt    int64  `json:"created_at"`
	LastLogin    int64  `json:"last_login"`
}

// SessionRecord binds an opaque token to a user until ExpiresAt (unix
// seconds). ExpiresAt == 0 means the session never expires.
type SessionRecord struct {
	Token     string `json:"token"`
	UserID    uint64 `json:"user_id"`
	UserUUID  string `json:"user_uuid"`
	ExpiresAt int64  `json:"expires_at"`
}

// MeetingState is the lifecycle of a meeting. Ended is terminal.
type MeetingState int

const (
	MeetingScheduled MeetingState = iota
	MeetingRunning
	MeetingEnded
)

func (s MeetingState) String() string {
	switch s {
	case MeetingScheduled:
		return "SCHEDULED"
	case MeetingRunning:
		return "RUNNING"
	case MeetingEnded:
		return "ENDED"
	}
	return "UNKNOWN"
}

// MeetingData is the canonical meeting record. Participants holds numeric
// user ids in join order; the organizer is always a member.
type MeetingData struct {
	MeetingID    string       `json:"meeting_id"`
	MeetingCode  string       `json:"meeting_code"`
	OrganizerID  uint64       `json:"organizer_id"`
	Topic        string       `json:"topic"`
	State        MeetingState `json:"state"`
	Participants []uint64     `json:"participants"`
	CreatedAt    int64        `json:"created_at"`
	UpdatedAt    int64        `json:"updated_at"`
}

// MeetingOptions tunes the meeting manager.
type MeetingOptions struct {
	MaxParticipants        int
	EndWhenEmpty           bool
	EndWhenOrganizerLeaves bool
	CodeLength             int
}

// DefaultMeetingOptions mirrors the production defaults.
func DefaultMeetingOptions() MeetingOptions {
	return MeetingOptions{
		MaxParticipants:        100,
		EndWhenEmpty:           true,
		EndWhenOrganizerLeaves: true,
		CodeLength:             8,
	}
}

type RegisterCommand struct {
	UserName    string
	Password    string
	Email       string
	DisplayName string
}

type LoginCommand struct {
	UserName  string
	Password  string
	ClientIP  string
	UserAgent string
}

type CreateMeetingCommand struct {
	OrganizerID uint64
	Topic       string
}

type JoinMeetingCommand struct {
	MeetingID     string
	ParticipantID uint64
}

type LeaveMeetingCommand struct {
	MeetingID     string
	ParticipantID uint64
}

type EndMeetingCommand struct {
	MeetingID   string
	RequesterID uint64
}
