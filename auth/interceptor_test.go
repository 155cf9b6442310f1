package auth

import (
	"context"
	"pair-chat/domain"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func TestIdentityInterceptor(t *testing.T) {
	// The handler hands back the context it received
	echo := func(ctx context.Context, _ any) (any, error) {
		return ctx, nil
	}
	info := &grpc.UnaryServerInfo{FullMethod: "/pairchat.v1.ChatService/Find"}

	t.Run("should inject the identity", func(t *testing.T) {
		req := require.New(t)
		ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(IdentityHeader, " u1 "))

		res, err := IdentityInterceptor(ctx, nil, info, echo)

		req.NoError(err)
		userID, ok := UserIDFromContext(res.(context.Context))
		req.True(ok)
		req.Equal(domain.UserID("u1"), userID)
	})

	t.Run("should fail when metadata is missing", func(t *testing.T) {
		req := require.New(t)

		_, err := IdentityInterceptor(context.Background(), nil, info, echo)

		st, ok := status.FromError(err)
		req.True(ok)
		req.Equal(codes.Unauthenticated, st.Code())
	})

	t.Run("should fail when identity is blank", func(t *testing.T) {
		req := require.New(t)
		ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(IdentityHeader, "  "))

		_, err := IdentityInterceptor(ctx, nil, info, echo)

		req.Equal(codes.Unauthenticated, status.Code(err))
	})

	t.Run("should reject an identity containing the conversation separator", func(t *testing.T) {
		req := require.New(t)
		ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(IdentityHeader, "a_b"))

		_, err := IdentityInterceptor(ctx, nil, info, echo)

		req.Equal(codes.InvalidArgument, status.Code(err))
	})
}

type fakeStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (f fakeStream) Context() context.Context { return f.ctx }

func TestIdentityStreamInterceptor(t *testing.T) {
	req := require.New(t)
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(IdentityHeader, "u2"))

	var seen domain.UserID
	err := IdentityStreamInterceptor(nil, fakeStream{ctx: ctx}, &grpc.StreamServerInfo{},
		func(_ any, stream grpc.ServerStream) error {
			seen, _ = UserIDFromContext(stream.Context())
			return nil
		})

	req.NoError(err)
	req.Equal(domain.UserID("u2"), seen)
}
