// Package client is a thin gRPC client of the chat service bound to one identity.
package client

import (
	"context"
	"fmt"
	"pair-chat/auth"
	"pair-chat/domain"
	"pair-chat/domain/event"
	"pair-chat/infrastructure/grpc/chatv1"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

type ChatClient struct {
	conn   *grpc.ClientConn
	api    chatv1.ChatServiceClient
	userID domain.UserID
}

// NewChatClient dials addr. Every call carries userID as identity token.
func NewChatClient(addr string, userID domain.UserID, opts ...grpc.DialOption) (*ChatClient, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(func(ctx context.Context, method string, req, reply any,
			cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
			return invoker(withIdentity(ctx, userID), method, req, reply, cc, opts...)
		}),
		grpc.WithStreamInterceptor(func(ctx context.Context, desc *grpc.StreamDesc, cc *grpc.ClientConn,
			method string, streamer grpc.Streamer, opts ...grpc.CallOption) (grpc.ClientStream, error) {
			return streamer(withIdentity(ctx, userID), desc, cc, method, opts...)
		}),
	}, opts...)

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("could not connect to server at %s: %w", addr, err)
	}
	return &ChatClient{conn: conn, api: chatv1.NewChatServiceClient(conn), userID: userID}, nil
}

func withIdentity(ctx context.Context, userID domain.UserID) context.Context {
	return metadata.AppendToOutgoingContext(ctx, auth.IdentityHeader, string(userID))
}

func (c *ChatClient) UserID() domain.UserID {
	return c.userID
}

// Connect opens the event stream and returns once the server registered it.
func (c *ChatClient) Connect(ctx context.Context) (grpc.ServerStreamingClient[event.Frame], error) {
	stream, err := c.api.Connect(ctx, &chatv1.ConnectRequest{})
	if err != nil {
		return nil, fmt.Errorf("failed to open stream: %w", err)
	}
	if _, err := stream.Header(); err != nil {
		return nil, fmt.Errorf("stream was refused: %w", err)
	}
	return stream, nil
}

func (c *ChatClient) Find(ctx context.Context) error {
	_, err := c.api.Find(ctx, &chatv1.Empty{})
	return err
}

func (c *ChatClient) Cancel(ctx context.Context) error {
	_, err := c.api.Cancel(ctx, &chatv1.Empty{})
	return err
}

func (c *ChatClient) Skip(ctx context.Context) error {
	_, err := c.api.Skip(ctx, &chatv1.Empty{})
	return err
}

func (c *ChatClient) End(ctx context.Context) error {
	_, err := c.api.End(ctx, &chatv1.Empty{})
	return err
}

func (c *ChatClient) Send(ctx context.Context, content string) (*chatv1.SendResponse, error) {
	return c.api.Send(ctx, &chatv1.SendRequest{Content: content})
}

func (c *ChatClient) History(ctx context.Context, cursor string) (*chatv1.HistoryResponse, error) {
	return c.api.History(ctx, &chatv1.HistoryRequest{Cursor: cursor})
}

func (c *ChatClient) State(ctx context.Context) (*chatv1.StateResponse, error) {
	return c.api.State(ctx, &chatv1.Empty{})
}

func (c *ChatClient) Close() error {
	return c.conn.Close()
}
