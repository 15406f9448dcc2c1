// Package pb carries the wire messages and service surfaces for the user and
// meeting RPCs. The types are maintained by hand and kept field-compatible
// with the proto definitions served to clients.
package pb

import (
	"google.golang.org/protobuf/types/known/timestamppb"
)

// Error is the in-payload error every response embeds. Code carries the
// service-level enum, which is finer grained than the transport status and is
// the source of truth for clients.
type Error struct {
	Code    int32
	Message string
}

type UserInfo struct {
	UserId      string
	UserName    string
	DisplayName string
	Email       string
	CreatedAt   *timestamppb.Timestamp
	LastLogin   *timestamppb.Timestamp
}

type MeetingInfo struct {
	MeetingId      string
	MeetingCode    string
	OrganizerId    string
	Topic          string
	State          string
	StartTime      *timestamppb.Timestamp
	EndTime        *timestamppb.Timestamp
	ParticipantIds []string
}

// Endpoint is the media node handed to a joining client.
type Endpoint struct {
	Ip     string
	Port   int32
	Region string
}
