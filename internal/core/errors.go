package core

import "github.com/meetgrid/backend/internal/status"

// UserErrorCode is the service-level error payload carried in user RPC
// responses alongside the transport status.
type UserErrorCode int32

const (
	UserOK UserErrorCode = iota
	UserNameExists
	UserInvalidPassword
	UserInvalidCredentials
	UserSessionExpired
	UserNotFound
)

// UserErrorFromStatus maps a domain status onto the user service error code.
func UserErrorFromStatus(err error) UserErrorCode {
	switch status.CodeOf(err) {
	case status.CodeOK:
		return UserOK
	case status.CodeAlreadyExists:
		return UserNameExists
	case status.CodeInvalidArgument:
		return UserInvalidPassword
	case status.CodeUnauthenticated:
		return UserInvalidCredentials
	case status.CodeNotFound:
		return UserNotFound
	}
	return UserInvalidCredentials
}

// MeetingErrorCode is the service-level error payload carried in meeting RPC
// responses alongside the transport status.
type MeetingErrorCode int32

const (
	MeetingOK MeetingErrorCode = iota
	MeetingNotFoundErr
	MeetingEndedErr
	MeetingParticipantExists
	MeetingFull
	MeetingPermissionDenied
	MeetingInvalidState
)

// MeetingErrorFromStatus maps a domain status onto the meeting service error
// code.
func MeetingErrorFromStatus(err error) MeetingErrorCode {
	switch status.CodeOf(err) {
	case status.CodeOK:
		return MeetingOK
	case status.CodeNotFound:
		return MeetingNotFoundErr
	case status.CodeAlreadyExists:
		return MeetingParticipantExists
	case status.CodeUnavailable:
		return MeetingFull
	case status.CodeUnauthenticated:
		return MeetingPermissionDenied
	}
	return MeetingInvalidState
}
