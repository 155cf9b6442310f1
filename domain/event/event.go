// Package event defines the outbound events pushed to a connection handle.
// Each event is a concrete type; Kind is the wire tag.
package event

import (
	"pair-chat/domain"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	SearchingKind      Kind = "searching"
	PartnerFoundKind   Kind = "partner-found"
	ChatEndedKind      Kind = "chat-ended"
	PartnerOnlineKind  Kind = "partner-online"
	PartnerOfflineKind Kind = "partner-offline"
	ReceiveMessageKind Kind = "receive-message"
	MessageSentKind    Kind = "message-sent"
	ErrorKind          Kind = "error"
)

type Event interface {
	Kind() Kind
}

type EndReason string

const (
	EndedBySelf    EndReason = "ended"
	PartnerLeft    EndReason = "partner-left"
	PartnerSkipped EndReason = "partner-skipped"
	Abandoned      EndReason = "abandoned"
)

type Searching struct {
	Message string
}

func (Searching) Kind() Kind { return SearchingKind }

type PartnerFound struct {
	PartnerID       domain.UserID
	PartnerNickname string
	ConversationID  domain.ConversationID
	// Resumed is set when a reconnecting user is reminded of an existing pairing.
	Resumed bool
}

func (PartnerFound) Kind() Kind { return PartnerFoundKind }

type ChatEnded struct {
	Reason  EndReason
	Message string
}

func (ChatEnded) Kind() Kind { return ChatEndedKind }

type PartnerOnline struct {
	PartnerID domain.UserID
}

func (PartnerOnline) Kind() Kind { return PartnerOnlineKind }

type PartnerOffline struct {
	PartnerID domain.UserID
}

func (PartnerOffline) Kind() Kind { return PartnerOfflineKind }

type ReceiveMessage struct {
	ID             uuid.UUID
	ConversationID domain.ConversationID
	SenderID       domain.UserID
	Content        string
	Timestamp      time.Time
}

func (ReceiveMessage) Kind() Kind { return ReceiveMessageKind }

type MessageSent struct {
	ID             uuid.UUID
	ConversationID domain.ConversationID
	Timestamp      time.Time
}

func (MessageSent) Kind() Kind { return MessageSentKind }

type Error struct {
	Code    string
	Message string
}

func (Error) Kind() Kind { return ErrorKind }

// Envelope records one push attempt towards an identity.
// It is what the telemetry pipeline observes.
type Envelope struct {
	To        domain.UserID
	Event     Event
	Delivered bool
	At        time.Time
}

func FromMessage(m domain.Message) ReceiveMessage {
	return ReceiveMessage{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Content:        m.Content,
		Timestamp:      m.CreatedAt,
	}
}
