package server

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	grpcstatus "google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/meetgrid/backend/pb"
)

// dialWire serves the fixture's services on an in-memory listener and returns
// a real client connection, exercising the full marshal/unmarshal path.
func dialWire(t *testing.T, f *fixture) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)

	srv := grpc.NewServer()
	pb.RegisterUserServiceServer(srv, f.users)
	pb.RegisterMeetingServiceServer(srv, f.meetings)
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestUserServiceOverWire(t *testing.T) {
	f := newFixture(t)
	conn := dialWire(t, f)
	client := pb.NewUserServiceClient(conn)
	ctx := context.Background()

	registered, err := client.Register(ctx, &pb.RegisterRequest{
		UserName: "alice",
		Password: "hunter2hunter2",
		Email:    "alice@example.com",
	})
	require.NoError(t, err)
	require.NotNil(t, registered.User)
	assert.Equal(t, "alice", registered.User.UserName)
	assert.NotEmpty(t, registered.User.UserId)

	logged, err := client.Login(ctx, &pb.LoginRequest{
		UserName: "alice",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)
	require.NotEmpty(t, logged.SessionToken)

	profile, err := client.GetProfile(ctx, &pb.GetProfileRequest{SessionToken: logged.SessionToken})
	require.NoError(t, err)
	require.NotNil(t, profile.User)
	assert.Equal(t, "alice", profile.User.UserName)

	_, err = client.Login(ctx, &pb.LoginRequest{UserName: "alice", Password: "wrong-password"})
	require.Error(t, err)
	assert.Equal(t, codes.Unauthenticated, grpcstatus.Code(err))

	_, err = client.Logout(ctx, &pb.LogoutRequest{SessionToken: logged.SessionToken})
	require.NoError(t, err)
}

func TestMeetingServiceOverWire(t *testing.T) {
	f := newFixture(t)
	conn := dialWire(t, f)
	users := pb.NewUserServiceClient(conn)
	meetings := pb.NewMeetingServiceClient(conn)
	ctx := context.Background()

	for _, name := range []string{"organizer", "guest"} {
		_, err := users.Register(ctx, &pb.RegisterRequest{
			UserName: name,
			Password: "hunter2hunter2",
			Email:    name + "@example.com",
		})
		require.NoError(t, err)
	}
	organizer, err := users.Login(ctx, &pb.LoginRequest{UserName: "organizer", Password: "hunter2hunter2"})
	require.NoError(t, err)
	guest, err := users.Login(ctx, &pb.LoginRequest{UserName: "guest", Password: "hunter2hunter2"})
	require.NoError(t, err)

	created, err := meetings.CreateMeeting(ctx, &pb.CreateMeetingRequest{
		SessionToken: organizer.SessionToken,
		Topic:        "standup",
	})
	require.NoError(t, err)
	require.NotNil(t, created.Meeting)
	assert.Equal(t, "SCHEDULED", created.Meeting.State)

	joined, err := meetings.JoinMeeting(ctx, &pb.JoinMeetingRequest{
		SessionToken: guest.SessionToken,
		MeetingId:    created.Meeting.MeetingId,
	})
	require.NoError(t, err)
	assert.Equal(t, "RUNNING", joined.Meeting.State)
	require.NotNil(t, joined.Endpoint)
	assert.Equal(t, "0.0.0.0", joined.Endpoint.Ip)

	_, err = meetings.EndMeeting(ctx, &pb.EndMeetingRequest{
		SessionToken: guest.SessionToken,
		MeetingId:    created.Meeting.MeetingId,
	})
	require.Error(t, err)
	assert.Equal(t, codes.PermissionDenied, grpcstatus.Code(err))

	_, err = meetings.EndMeeting(ctx, &pb.EndMeetingRequest{
		SessionToken: organizer.SessionToken,
		MeetingId:    created.Meeting.MeetingId,
	})
	require.NoError(t, err)

	got, err := meetings.GetMeeting(ctx, &pb.GetMeetingRequest{MeetingId: created.Meeting.MeetingId})
	require.NoError(t, err)
	assert.Equal(t, "ENDED", got.Meeting.State)
	assert.Len(t, got.Meeting.ParticipantIds, 2)
}
