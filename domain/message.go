// Package domain contains core concepts of the chat system.
// This file defines Message events and related rules.
// Messages are immutable once appended to a conversation history.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message represents an immutable chat event.
type Message struct {
	ID             uuid.UUID // unique identifier
	ConversationID ConversationID
	SenderID       UserID
	Content        string
	CreatedAt      time.Time
}

// Receipt is the outcome of relaying a message.
// Delivered is false when the partner had no live connection.
type Receipt struct {
	Message   Message
	Delivered bool
}

// HistoryPage is a finite slice of a conversation, restartable by Cursor.
type HistoryPage struct {
	ConversationID ConversationID
	Messages       []Message
	Cursor         string
}
