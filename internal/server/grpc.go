// Package server exposes the user and meeting managers over gRPC and serves
// the operational HTTP endpoints. Handlers run the domain work on the shared
// worker pool and wait on the returned future, so RPC concurrency is bounded
// by the pool rather than by the transport.
package server

import (
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"

	"github.com/meetgrid/backend/internal/status"
)

// toGRPCError translates a domain status into the transport status.
// unauthenticated varies per service: the user service reports it as-is, the
// meeting service reports PermissionDenied.
func toGRPCError(err error, unauthenticated codes.Code) error {
	if err == nil {
		return nil
	}
	st := status.FromError(err)
	var code codes.Code
	switch st.Code() {
	case status.CodeOK:
		return nil
	case status.CodeInvalidArgument:
		code = codes.InvalidArgument
	case status.CodeNotFound:
		code = codes.NotFound
	case status.CodeAlreadyExists:
		code = codes.AlreadyExists
	case status.CodeUnauthenticated:
		code = unauthenticated
	case status.CodeInternal:
		code = codes.Internal
	case status.CodeUnavailable:
		code = codes.Unavailable
	default:
		code = codes.Unknown
	}
	return grpcstatus.Error(code, st.Message())
}
