package server

import (
	"context"
	"log/slog"
	"strconv"

	"google.golang.org/grpc/codes"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/meetgrid/backend/internal/core"
	"github.com/meetgrid/backend/internal/geo"
	"github.com/meetgrid/backend/internal/pool"
	"github.com/meetgrid/backend/internal/scheduler"
	"github.com/meetgrid/backend/internal/status"
	"github.com/meetgrid/backend/pb"
)

// MeetingService implements pb.MeetingServiceServer. Meeting RPCs resolve the
// caller through the session manager; a failed lookup reports
// PermissionDenied on the transport.
type MeetingService struct {
	pb.UnimplementedMeetingServiceServer

	meetings *core.MeetingManager
	sessions *core.SessionManager
	geo      *geo.Service
	balancer *scheduler.LoadBalancer
	pool     *pool.Pool
}

func NewMeetingService(meetings *core.MeetingManager, sessions *core.SessionManager,
	geoSvc *geo.Service, balancer *scheduler.LoadBalancer, p *pool.Pool) *MeetingService {
	return &MeetingService{
		meetings: meetings,
		sessions: sessions,
		geo:      geoSvc,
		balancer: balancer,
		pool:     p,
	}
}

func (s *MeetingService) CreateMeeting(ctx context.Context, req *pb.CreateMeetingRequest) (*pb.CreateMeetingResponse, error) {
	resp := &pb.CreateMeetingResponse{}
	session, err := s.authenticate(ctx, req.SessionToken)
	if err != nil {
		resp.Error = meetingError(err)
		return resp, toGRPCError(err, codes.PermissionDenied)
	}

	cmd := core.CreateMeetingCommand{OrganizerID: session.UserID, Topic: req.Topic}
	slog.Info("create meeting", "topic", cmd.Topic, "organizer", cmd.OrganizerID)

	data, err := runOn(ctx, s.pool, func() (core.MeetingData, error) {
		return s.meetings.CreateMeeting(ctx, cmd)
	})
	if err != nil {
		resp.Error = meetingError(err)
		return resp, toGRPCError(err, codes.PermissionDenied)
	}

	resp.Meeting = fillMeetingInfo(data)
	resp.Error = meetingError(nil)
	return resp, nil
}

func (s *MeetingService) JoinMeeting(ctx context.Context, req *pb.JoinMeetingRequest) (*pb.JoinMeetingResponse, error) {
	resp := &pb.JoinMeetingResponse{}
	session, err := s.authenticate(ctx, req.SessionToken)
	if err != nil {
		resp.Error = meetingError(err)
		return resp, toGRPCError(err, codes.PermissionDenied)
	}

	cmd := core.JoinMeetingCommand{MeetingID: req.MeetingId, ParticipantID: session.UserID}
	slog.Info("join meeting", "meeting", cmd.MeetingID, "participant", cmd.ParticipantID)

	data, err := runOn(ctx, s.pool, func() (core.MeetingData, error) {
		return s.meetings.JoinMeeting(ctx, cmd)
	})
	if err != nil {
		resp.Error = meetingError(err)
		return resp, toGRPCError(err, codes.PermissionDenied)
	}

	resp.Meeting = fillMeetingInfo(data)
	resp.Endpoint = s.selectEndpoint(req.ClientIp)
	resp.Error = meetingError(nil)
	return resp, nil
}

func (s *MeetingService) LeaveMeeting(ctx context.Context, req *pb.LeaveMeetingRequest) (*pb.LeaveMeetingResponse, error) {
	resp := &pb.LeaveMeetingResponse{}
	session, err := s.authenticate(ctx, req.SessionToken)
	if err != nil {
		resp.Error = meetingError(err)
		return resp, toGRPCError(err, codes.PermissionDenied)
	}

	cmd := core.LeaveMeetingCommand{MeetingID: req.MeetingId, ParticipantID: session.UserID}
	slog.Info("leave meeting", "meeting", cmd.MeetingID, "participant", cmd.ParticipantID)

	_, err = runOn(ctx, s.pool, func() (struct{}, error) {
		return struct{}{}, s.meetings.LeaveMeeting(ctx, cmd)
	})
	if err != nil {
		resp.Error = meetingError(err)
		return resp, toGRPCError(err, codes.PermissionDenied)
	}
	resp.Error = meetingError(nil)
	return resp, nil
}

func (s *MeetingService) EndMeeting(ctx context.Context, req *pb.EndMeetingRequest) (*pb.EndMeetingResponse, error) {
	resp := &pb.EndMeetingResponse{}
	session, err := s.authenticate(ctx, req.SessionToken)
	if err != nil {
		resp.Error = meetingError(err)
		return resp, toGRPCError(err, codes.PermissionDenied)
	}

	cmd := core.EndMeetingCommand{MeetingID: req.MeetingId, RequesterID: session.UserID}
	slog.Info("end meeting", "meeting", cmd.MeetingID, "requester", cmd.RequesterID)

	_, err = runOn(ctx, s.pool, func() (struct{}, error) {
		return struct{}{}, s.meetings.EndMeeting(ctx, cmd)
	})
	if err != nil {
		resp.Error = meetingError(err)
		return resp, toGRPCError(err, codes.PermissionDenied)
	}
	resp.Error = meetingError(nil)
	return resp, nil
}

func (s *MeetingService) GetMeeting(ctx context.Context, req *pb.GetMeetingRequest) (*pb.GetMeetingResponse, error) {
	resp := &pb.GetMeetingResponse{}
	slog.Info("get meeting", "meeting", req.MeetingId)

	data, err := runOn(ctx, s.pool, func() (core.MeetingData, error) {
		return s.meetings.GetMeeting(ctx, req.MeetingId)
	})
	if err != nil {
		resp.Error = meetingError(err)
		return resp, toGRPCError(err, codes.PermissionDenied)
	}

	resp.Meeting = fillMeetingInfo(data)
	resp.Error = meetingError(nil)
	return resp, nil
}

// authenticate resolves a session token to its record. Any failure comes back
// Unauthenticated so callers map it uniformly.
func (s *MeetingService) authenticate(ctx context.Context, token string) (core.SessionRecord, error) {
	session, err := runOn(ctx, s.pool, func() (core.SessionRecord, error) {
		return s.sessions.ValidateSession(ctx, token)
	})
	if err != nil {
		st := status.FromError(err)
		if st.Code() != status.CodeUnauthenticated {
			return core.SessionRecord{}, status.Unauthenticated(st.Message()).Err()
		}
		return core.SessionRecord{}, err
	}
	return session, nil
}

// selectEndpoint picks the media node for a joining client. Lookup failures
// and an empty registry degrade to the local placeholder endpoint.
func (s *MeetingService) selectEndpoint(clientIP string) *pb.Endpoint {
	fallback := &pb.Endpoint{Ip: "0.0.0.0", Port: 0, Region: "default"}
	if s.balancer == nil {
		return fallback
	}
	var info geo.Info
	if s.geo != nil && clientIP != "" {
		resolved, err := s.geo.Lookup(clientIP)
		if err != nil {
			slog.Warn("geo lookup failed", "ip", clientIP, "err", err)
		} else {
			info = resolved
		}
	}
	node, ok := s.balancer.Select(info)
	if !ok {
		return fallback
	}
	return &pb.Endpoint{Ip: node.Host, Port: int32(node.Port), Region: node.Region}
}

// meetingError builds the in-payload error for meeting responses. nil means
// success.
func meetingError(err error) *pb.Error {
	if err == nil {
		return &pb.Error{Code: int32(core.MeetingOK)}
	}
	return &pb.Error{
		Code:    int32(core.MeetingErrorFromStatus(err)),
		Message: status.FromError(err).Message(),
	}
}

func fillMeetingInfo(data core.MeetingData) *pb.MeetingInfo {
	info := &pb.MeetingInfo{
		MeetingId:   data.MeetingID,
		MeetingCode: data.MeetingCode,
		OrganizerId: strconv.FormatUint(data.OrganizerID, 10),
		Topic:       data.Topic,
		State:       data.State.String(),
		StartTime:   &timestamppb.Timestamp{Seconds: data.CreatedAt},
		EndTime:     &timestamppb.Timestamp{Seconds: data.UpdatedAt},
	}
	for _, participant := range data.Participants {
		info.ParticipantIds = append(info.ParticipantIds, strconv.FormatUint(participant, 10))
	}
	return info
}
