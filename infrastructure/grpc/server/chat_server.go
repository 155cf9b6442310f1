package server

import (
	"context"
	"log/slog"
	"pair-chat/auth"
	"pair-chat/domain"
	"pair-chat/domain/event"
	"pair-chat/errors"
	"pair-chat/infrastructure/grpc/chatv1"
	"pair-chat/services"
	"pair-chat/sink"

	"github.com/samber/lo"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const ConnectionIDHeader = "x-connection-id"

type ChatServer struct {
	chatService          services.IChatService
	connectionBufferSize int
	log                  *slog.Logger
}

var _ chatv1.ChatServiceServer = (*ChatServer)(nil)

func NewChatServer(log *slog.Logger, chatService services.IChatService, connectionBufferSize int) *ChatServer {
	return &ChatServer{
		chatService:          chatService,
		connectionBufferSize: connectionBufferSize,
		log:                  log,
	}
}

func (s *ChatServer) Find(ctx context.Context, _ *chatv1.Empty) (*chatv1.Ack, error) {
	return s.ack(ctx, s.chatService.Find)
}

func (s *ChatServer) Cancel(ctx context.Context, _ *chatv1.Empty) (*chatv1.Ack, error) {
	return s.ack(ctx, s.chatService.Cancel)
}

func (s *ChatServer) Skip(ctx context.Context, _ *chatv1.Empty) (*chatv1.Ack, error) {
	return s.ack(ctx, s.chatService.Skip)
}

func (s *ChatServer) End(ctx context.Context, _ *chatv1.Empty) (*chatv1.Ack, error) {
	return s.ack(ctx, s.chatService.End)
}

func (s *ChatServer) Send(ctx context.Context, req *chatv1.SendRequest) (*chatv1.SendResponse, error) {
	userID, err := identity(ctx)
	if err != nil {
		return nil, err
	}
	receipt, err := s.chatService.Send(ctx, userID, req.Content)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &chatv1.SendResponse{
		MessageID:      receipt.Message.ID.String(),
		ConversationID: receipt.Message.ConversationID,
		Timestamp:      receipt.Message.CreatedAt,
		Delivered:      receipt.Delivered,
	}, nil
}

func (s *ChatServer) History(ctx context.Context, req *chatv1.HistoryRequest) (*chatv1.HistoryResponse, error) {
	userID, err := identity(ctx)
	if err != nil {
		return nil, err
	}
	page, err := s.chatService.History(ctx, userID, req.Cursor)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &chatv1.HistoryResponse{
		ConversationID: page.ConversationID,
		Messages:       toMessages(page.Messages),
		Cursor:         page.Cursor,
	}, nil
}

func (s *ChatServer) State(ctx context.Context, _ *chatv1.Empty) (*chatv1.StateResponse, error) {
	userID, err := identity(ctx)
	if err != nil {
		return nil, err
	}
	state := s.chatService.State(userID)
	return &chatv1.StateResponse{Status: state.Status(), PartnerID: state.Partner()}, nil
}

// Connect binds the stream to the caller identity and forwards every pushed
// event until the client leaves or the handle is closed by the server.
// A newer connection for the same identity closes this one.
func (s *ChatServer) Connect(_ *chatv1.ConnectRequest, stream grpc.ServerStreamingServer[event.Frame]) error {
	ctx := stream.Context()
	userID, err := identity(ctx)
	if err != nil {
		return err
	}
	conn := sink.NewChannelConnection(s.connectionBufferSize)
	h, err := s.chatService.Connect(userID, conn)
	if err != nil {
		return errors.MapToGRPCError(err)
	}
	defer s.chatService.Release(h)

	// Headers tell the client it is registered and may start issuing calls.
	if err := stream.SendHeader(metadata.Pairs(ConnectionIDHeader, h.ID.String())); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Client disconnected", "user_id", userID)
			return nil
		case <-conn.Done():
			s.flush(stream, conn)
			return status.Error(codes.Aborted, conn.Reason())
		case evt := <-conn.Events():
			if err := stream.Send(lo.ToPtr(event.ToFrame(evt))); err != nil {
				s.log.Error("Failed to push event to stream",
					"user_id", userID,
					"kind", evt.Kind(),
					"error", err)
				return err
			}
		}
	}
}

// flush sends what is still buffered once the handle has been closed.
func (s *ChatServer) flush(stream grpc.ServerStreamingServer[event.Frame], conn *sink.ChannelConnection) {
	for {
		select {
		case evt := <-conn.Events():
			if err := stream.Send(lo.ToPtr(event.ToFrame(evt))); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (s *ChatServer) ack(ctx context.Context, op func(domain.UserID) error) (*chatv1.Ack, error) {
	userID, err := identity(ctx)
	if err != nil {
		return nil, err
	}
	if err := op(userID); err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &chatv1.Ack{OK: true}, nil
}

func identity(ctx context.Context) (domain.UserID, error) {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "identity token is missing")
	}
	return userID, nil
}

func toMessages(messages []domain.Message) []chatv1.Message {
	return lo.Map(messages, func(m domain.Message, _ int) chatv1.Message {
		return chatv1.Message{
			ID:        m.ID.String(),
			SenderID:  m.SenderID,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		}
	})
}
