package services

import (
	"context"
	"pair-chat/contract"
	"pair-chat/domain"
	"pair-chat/runtime"
)

// IChatService is what the gRPC and HTTP transports talk to.
type IChatService interface {
	Connect(userID domain.UserID, conn contract.Connection) (*runtime.Handle, error)
	Release(h *runtime.Handle)
	Find(userID domain.UserID) error
	Cancel(userID domain.UserID) error
	Skip(userID domain.UserID) error
	End(userID domain.UserID) error
	Send(ctx context.Context, userID domain.UserID, content string) (domain.Receipt, error)
	History(ctx context.Context, userID domain.UserID, cursor string) (domain.HistoryPage, error)
	State(userID domain.UserID) domain.UserState
}

type ChatService struct {
	orchestrator *runtime.Orchestrator
}

func NewChatService(o *runtime.Orchestrator) *ChatService {
	return &ChatService{orchestrator: o}
}

func (s *ChatService) Connect(userID domain.UserID, conn contract.Connection) (*runtime.Handle, error) {
	return s.orchestrator.Connect(userID, conn)
}

func (s *ChatService) Release(h *runtime.Handle) {
	s.orchestrator.Release(h)
}

func (s *ChatService) Find(userID domain.UserID) error {
	return s.orchestrator.Find(userID)
}

func (s *ChatService) Cancel(userID domain.UserID) error {
	return s.orchestrator.Cancel(userID)
}

func (s *ChatService) Skip(userID domain.UserID) error {
	return s.orchestrator.Skip(userID)
}

func (s *ChatService) End(userID domain.UserID) error {
	return s.orchestrator.End(userID)
}

func (s *ChatService) Send(ctx context.Context, userID domain.UserID, content string) (domain.Receipt, error) {
	return s.orchestrator.Send(ctx, userID, content)
}

func (s *ChatService) History(ctx context.Context, userID domain.UserID, cursor string) (domain.HistoryPage, error) {
	return s.orchestrator.History(ctx, userID, cursor)
}

func (s *ChatService) State(userID domain.UserID) domain.UserState {
	return s.orchestrator.State(userID)
}
