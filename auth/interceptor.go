// Package auth resolves the caller-supplied identity token on inbound calls.
// Nothing is verified beyond presence: identity is opaque and trusted.
package auth

import (
	"context"
	"pair-chat/domain"
	"pair-chat/errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// IdentityHeader carries the identity token, on gRPC metadata and HTTP alike.
const IdentityHeader = "x-user-id"

type contextKey string

const UserIDKey contextKey = "user_id"

// WithUserID stores the identity in ctx.
func WithUserID(ctx context.Context, userID domain.UserID) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// UserIDFromContext returns the identity injected by the interceptors.
func UserIDFromContext(ctx context.Context) (domain.UserID, bool) {
	userID, ok := ctx.Value(UserIDKey).(domain.UserID)
	return userID, ok && userID != ""
}

// identityFromMetadata extracts the identity header of an incoming gRPC call.
func identityFromMetadata(ctx context.Context) (domain.UserID, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "metadata is missing")
	}
	values := md.Get(IdentityHeader)
	if len(values) == 0 {
		return "", status.Error(codes.Unauthenticated, "identity token is missing")
	}
	userID, err := domain.ParseUserID(values[0])
	switch {
	case errors.Is(err, errors.ErrEmptyIdentity):
		return "", status.Error(codes.Unauthenticated, "identity token is missing")
	case err != nil:
		return "", status.Error(codes.InvalidArgument, err.Error())
	}
	return userID, nil
}

// IdentityInterceptor injects the caller identity into the context of unary calls.
func IdentityInterceptor(ctx context.Context, req any,
	_ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	userID, err := identityFromMetadata(ctx)
	if err != nil {
		return nil, err
	}
	return handler(WithUserID(ctx, userID), req)
}

// IdentityStreamInterceptor does the same for streaming calls.
func IdentityStreamInterceptor(srv any, ss grpc.ServerStream,
	_ *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	userID, err := identityFromMetadata(ss.Context())
	if err != nil {
		return err
	}
	return handler(srv, &identityStream{ServerStream: ss, ctx: WithUserID(ss.Context(), userID)})
}

type identityStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *identityStream) Context() context.Context {
	return s.ctx
}
