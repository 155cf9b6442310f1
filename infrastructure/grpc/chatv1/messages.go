package chatv1

import (
	"pair-chat/domain"
	"time"
)

type Empty struct{}

type Ack struct {
	OK bool `json:"ok"`
}

type ConnectRequest struct{}

type SendRequest struct {
	Content string `json:"content"`
}

type SendResponse struct {
	MessageID      string                `json:"messageId"`
	ConversationID domain.ConversationID `json:"conversationId"`
	Timestamp      time.Time             `json:"timestamp"`
	Delivered      bool                  `json:"delivered"`
}

type HistoryRequest struct {
	Cursor string `json:"cursor,omitempty"`
}

type Message struct {
	ID        string        `json:"id"`
	SenderID  domain.UserID `json:"senderId"`
	Content   string        `json:"content"`
	CreatedAt time.Time     `json:"createdAt"`
}

type HistoryResponse struct {
	ConversationID domain.ConversationID `json:"conversationId"`
	Messages       []Message             `json:"messages"`
	Cursor         string                `json:"cursor"`
}

type StateResponse struct {
	Status    domain.Status `json:"status"`
	PartnerID domain.UserID `json:"partnerId,omitempty"`
}
