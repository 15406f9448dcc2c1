package pb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
)

type CreateMeetingRequest struct {
	SessionToken string
	Topic        string
}

type CreateMeetingResponse struct {
	Meeting *MeetingInfo
	Error   *Error
}

type JoinMeetingRequest struct {
	SessionToken string
	MeetingId    string
	ClientIp     string
}

type JoinMeetingResponse struct {
	Meeting  *MeetingInfo
	Endpoint *Endpoint
	Error    *Error
}

type LeaveMeetingRequest struct {
	SessionToken string
	MeetingId    string
}

type LeaveMeetingResponse struct {
	Error *Error
}

type EndMeetingRequest struct {
	SessionToken string
	MeetingId    string
}

type EndMeetingResponse struct {
	Error *Error
}

type GetMeetingRequest struct {
	MeetingId string
}

type GetMeetingResponse struct {
	Meeting *MeetingInfo
	Error   *Error
}

type MeetingServiceClient interface {
	CreateMeeting(ctx context.Context, in *CreateMeetingRequest, opts ...grpc.CallOption) (*CreateMeetingResponse, error)
	JoinMeeting(ctx context.Context, in *JoinMeetingRequest, opts ...grpc.CallOption) (*JoinMeetingResponse, error)
	LeaveMeeting(ctx context.Context, in *LeaveMeetingRequest, opts ...grpc.CallOption) (*LeaveMeetingResponse, error)
	EndMeeting(ctx context.Context, in *EndMeetingRequest, opts ...grpc.CallOption) (*EndMeetingResponse, error)
	GetMeeting(ctx context.Context, in *GetMeetingRequest, opts ...grpc.CallOption) (*GetMeetingResponse, error)
}

type meetingServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewMeetingServiceClient(cc grpc.ClientConnInterface) MeetingServiceClient {
	return &meetingServiceClient{cc}
}

func (c *meetingServiceClient) CreateMeeting(ctx context.Context, in *CreateMeetingRequest, opts ...grpc.CallOption) (*CreateMeetingResponse, error) {
	out := new(CreateMeetingResponse)
	if err := c.cc.Invoke(ctx, MeetingService_CreateMeeting_FullMethodName, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *meetingServiceClient) JoinMeeting(ctx context.Context, in *JoinMeetingRequest, opts ...grpc.CallOption) (*JoinMeetingResponse, error) {
	out := new(JoinMeetingResponse)
	if err := c.cc.Invoke(ctx, MeetingService_JoinMeeting_FullMethodName, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *meetingServiceClient) LeaveMeeting(ctx context.Context, in *LeaveMeetingRequest, opts ...grpc.CallOption) (*LeaveMeetingResponse, error) {
	out := new(LeaveMeetingResponse)
	if err := c.cc.Invoke(ctx, MeetingService_LeaveMeeting_FullMethodName, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *meetingServiceClient) EndMeeting(ctx context.Context, in *EndMeetingRequest, opts ...grpc.CallOption) (*EndMeetingResponse, error) {
	out := new(EndMeetingResponse)
	if err := c.cc.Invoke(ctx, MeetingService_EndMeeting_FullMethodName, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *meetingServiceClient) GetMeeting(ctx context.Context, in *GetMeetingRequest, opts ...grpc.CallOption) (*GetMeetingResponse, error) {
	out := new(GetMeetingResponse)
	if err := c.cc.Invoke(ctx, MeetingService_GetMeeting_FullMethodName, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

type MeetingServiceServer interface {
	CreateMeeting(context.Context, *CreateMeetingRequest) (*CreateMeetingResponse, error)
	JoinMeeting(context.Context, *JoinMeetingRequest) (*JoinMeetingResponse, error)
	LeaveMeeting(context.Context, *LeaveMeetingRequest) (*LeaveMeetingResponse, error)
	EndMeeting(context.Context, *EndMeetingRequest) (*EndMeetingResponse, error)
	GetMeeting(context.Context, *GetMeetingRequest) (*GetMeetingResponse, error)
}

type UnimplementedMeetingServiceServer struct{}

func (UnimplementedMeetingServiceServer) CreateMeeting(context.Context, *CreateMeetingRequest) (*CreateMeetingResponse, error) {
	return nil, grpcstatus.Errorf(codes.Unimplemented, "method CreateMeeting not implemented")
}

func (UnimplementedMeetingServiceServer) JoinMeeting(context.Context, *JoinMeetingRequest) (*JoinMeetingResponse, error) {
	return nil, grpcstatus.Errorf(codes.Unimplemented, "method JoinMeeting not implemented")
}

func (UnimplementedMeetingServiceServer) LeaveMeeting(context.Context, *LeaveMeetingRequest) (*LeaveMeetingResponse, error) {
	return nil, grpcstatus.Errorf(codes.Unimplemented, "method LeaveMeeting not implemented")
}

func (UnimplementedMeetingServiceServer) EndMeeting(context.Context, *EndMeetingRequest) (*EndMeetingResponse, error) {
	return nil, grpcstatus.Errorf(codes.Unimplemented, "method EndMeeting not implemented")
}

func (UnimplementedMeetingServiceServer) GetMeeting(context.Context, *GetMeetingRequest) (*GetMeetingResponse, error) {
	return nil, grpcstatus.Errorf(codes.Unimplemented, "method GetMeeting not implemented")
}

const (
	MeetingService_CreateMeeting_FullMethodName = "/meeting.meeting.MeetingService/CreateMeeting"
	MeetingService_JoinMeeting_FullMethodName   = "/meeting.meeting.MeetingService/JoinMeeting"
	MeetingService_LeaveMeeting_FullMethodName  = "/meeting.meeting.MeetingService/LeaveMeeting"
	MeetingService_EndMeeting_FullMethodName    = "/meeting.meeting.MeetingService/EndMeeting"
	MeetingService_GetMeeting_FullMethodName    = "/meeting.meeting.MeetingService/GetMeeting"
)

func RegisterMeetingServiceServer(s grpc.ServiceRegistrar, srv MeetingServiceServer) {
	s.RegisterService(&MeetingService_ServiceDesc, srv)
}

func _MeetingService_CreateMeeting_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(CreateMeetingRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MeetingServiceServer).CreateMeeting(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MeetingService_CreateMeeting_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(MeetingServiceServer).CreateMeeting(ctx, req.(*CreateMeetingRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _MeetingService_JoinMeeting_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(JoinMeetingRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MeetingServiceServer).JoinMeeting(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MeetingService_JoinMeeting_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(MeetingServiceServer).JoinMeeting(ctx, req.(*JoinMeetingRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _MeetingService_LeaveMeeting_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(LeaveMeetingRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MeetingServiceServer).LeaveMeeting(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MeetingService_LeaveMeeting_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(MeetingServiceServer).LeaveMeeting(ctx, req.(*LeaveMeetingRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _MeetingService_EndMeeting_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(EndMeetingRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MeetingServiceServer).EndMeeting(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MeetingService_EndMeeting_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(MeetingServiceServer).EndMeeting(ctx, req.(*EndMeetingRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _MeetingService_GetMeeting_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetMeetingRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MeetingServiceServer).GetMeeting(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MeetingService_GetMeeting_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(MeetingServiceServer).GetMeeting(ctx, req.(*GetMeetingRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var MeetingService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "meeting.meeting.MeetingService",
	HandlerType: (*MeetingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateMeeting", Handler: _MeetingService_CreateMeeting_Handler},
		{MethodName: "JoinMeeting", Handler: _MeetingService_JoinMeeting_Handler},
		{MethodName: "LeaveMeeting", Handler: _MeetingService_LeaveMeeting_Handler},
		{MethodName: "EndMeeting", Handler: _MeetingService_EndMeeting_Handler},
		{MethodName: "GetMeeting", Handler: _MeetingService_GetMeeting_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "proto/meeting_service.proto",
}
