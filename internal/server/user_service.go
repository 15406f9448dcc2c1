package server

import (
	"context"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/meetgrid/backend/internal/core"
	"github.com/meetgrid/backend/internal/pool"
	"github.com/meetgrid/backend/internal/status"
	"github.com/meetgrid/backend/pb"
)

// UserService implements pb.UserServiceServer on top of the user and session
// managers.
type UserService struct {
	pb.UnimplementedUserServiceServer

	users    *core.UserManager
	sessions *core.SessionManager
	pool     *pool.Pool
}

func NewUserService(users *core.UserManager, sessions *core.SessionManager, p *pool.Pool) *UserService {
	return &UserService{users: users, sessions: sessions, pool: p}
}

func (s *UserService) Register(ctx context.Context, req *pb.RegisterRequest) (*pb.RegisterResponse, error) {
	resp := &pb.RegisterResponse{}
	cmd := core.RegisterCommand{
		UserName:    req.UserName,
		Password:    req.Password,
		Email:       req.Email,
		DisplayName: req.DisplayName,
	}
	slog.Info("register", "user", cmd.UserName)

	data, err := runOn(ctx, s.pool, func() (core.UserData, error) {
		return s.users.RegisterUser(ctx, cmd)
	})
	if err != nil {
		resp.Error = userError(err)
		return resp, toGRPCError(err, codes.Unauthenticated)
	}

	resp.User = fillUserInfo(data)
	resp.Error = userError(nil)
	return resp, nil
}

func (s *UserService) Login(ctx context.Context, req *pb.LoginRequest) (*pb.LoginResponse, error) {
	resp := &pb.LoginResponse{}
	cmd := core.LoginCommand{UserName: req.UserName, Password: req.Password}
	slog.Info("login", "user", cmd.UserName)

	data, err := runOn(ctx, s.pool, func() (core.UserData, error) {
		return s.users.LoginUser(ctx, cmd)
	})
	if err != nil {
		resp.Error = userError(err)
		return resp, toGRPCError(err, codes.Unauthenticated)
	}
	resp.User = fillUserInfo(data)

	session, err := runOn(ctx, s.pool, func() (core.SessionRecord, error) {
		return s.sessions.CreateSession(ctx, data.NumericID, data.UserID)
	})
	if err != nil {
		resp.Error = &pb.Error{Code: int32(core.UserSessionExpired), Message: status.FromError(err).Message()}
		return resp, toGRPCError(err, codes.Unauthenticated)
	}

	resp.SessionToken = session.Token
	resp.Error = userError(nil)
	return resp, nil
}

func (s *UserService) Logout(ctx context.Context, req *pb.LogoutRequest) (*pb.LogoutResponse, error) {
	resp := &pb.LogoutResponse{}
	slog.Info("logout", "token", truncateToken(req.SessionToken))

	_, err := runOn(ctx, s.pool, func() (struct{}, error) {
		return struct{}{}, s.sessions.DeleteSession(ctx, req.SessionToken)
	})
	if err != nil {
		// An unknown token is an authentication failure from the caller's
		// point of view.
		err = status.Unauthenticated(status.FromError(err).Message()).Err()
		resp.Error = &pb.Error{Code: int32(core.UserSessionExpired), Message: status.FromError(err).Message()}
		return resp, toGRPCError(err, codes.Unauthenticated)
	}
	resp.Error = userError(nil)
	return resp, nil
}

func (s *UserService) GetProfile(ctx context.Context, req *pb.GetProfileRequest) (*pb.GetProfileResponse, error) {
	resp := &pb.GetProfileResponse{}

	session, err := runOn(ctx, s.pool, func() (core.SessionRecord, error) {
		return s.sessions.ValidateSession(ctx, req.SessionToken)
	})
	if err != nil {
		resp.Error = &pb.Error{Code: int32(core.UserSessionExpired), Message: status.FromError(err).Message()}
		return resp, toGRPCError(err, codes.Unauthenticated)
	}

	data, err := runOn(ctx, s.pool, func() (core.UserData, error) {
		return s.users.GetUserByID(ctx, session.UserUUID)
	})
	if err != nil {
		resp.Error = &pb.Error{Code: int32(core.UserNotFound), Message: status.FromError(err).Message()}
		return resp, toGRPCError(err, codes.Unauthenticated)
	}

	resp.User = fillUserInfo(data)
	resp.Error = userError(nil)
	return resp, nil
}

// runOn executes fn on the pool and waits for its future. A rejected
// submission surfaces as Unavailable.
func runOn[T any](ctx context.Context, p *pool.Pool, fn func() (T, error)) (T, error) {
	fut, err := pool.Submit(p, fn)
	if err != nil {
		var zero T
		return zero, status.Unavailable(err.Error()).Err()
	}
	return fut.Wait(ctx)
}

// userError builds the in-payload error for user responses. nil means success.
func userError(err error) *pb.Error {
	if err == nil {
		return &pb.Error{Code: int32(core.UserOK)}
	}
	return &pb.Error{
		Code:    int32(core.UserErrorFromStatus(err)),
		Message: status.FromError(err).Message(),
	}
}

func fillUserInfo(data core.UserData) *pb.UserInfo {
	return &pb.UserInfo{
		UserId:      data.UserID,
		UserName:    data.UserName,
		DisplayName: data.DisplayName,
		Email:       data.Email,
		CreatedAt:   &timestamppb.Timestamp{Seconds: data.CreatedAt},
		LastLogin:   &timestamppb.Timestamp{Seconds: data.LastLogin},
	}
}

// truncateToken keeps log lines from leaking whole session tokens.
func truncateToken(token string) string {
	if len(token) <= 6 {
		return token
	}
	return token[:6] + "..."
}
