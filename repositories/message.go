package repositories

import (
	"context"
	"fmt"
	"log/slog"
	"pair-chat/contract"
	"pair-chat/domain"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const defaultPageSize = 50

// HistoryRepository is the append-only conversation log.
type HistoryRepository struct {
	db       *badger.DB
	log      *slog.Logger
	pageSize int
	now      func() time.Time
}

var _ contract.IHistoryRepository = (*HistoryRepository)(nil)

func NewHistoryRepository(db *badger.DB, log *slog.Logger, pageSize int) *HistoryRepository {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &HistoryRepository{
		db:       db,
		log:      log,
		pageSize: pageSize,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func conversationPrefix(conversationID domain.ConversationID) string {
	return fmt.Sprintf("%s%s:", messagePrefix, conversationID)
}

// Append persists a message in BadgerDB.
// The key is formatted as "msg:{conversation_id}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Prevent data loss by using UUID as a collision disconnector if two messages
//     arrive at the same nanosecond.
func (r *HistoryRepository) Append(ctx context.Context, conversationID domain.ConversationID,
	senderID domain.UserID, content string) (domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return domain.Message{}, err
	}
	message := domain.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		CreatedAt:      r.now(),
	}
	key := fmt.Sprintf("%s%019d:%s",
		conversationPrefix(conversationID),
		message.CreatedAt.UnixNano(),
		message.ID,
	)
	err := r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), encodeMessage(message))
	})
	if err != nil {
		return domain.Message{}, err
	}
	return message, nil
}

// ListSince returns at most pageSize messages of the conversation, oldest
// first, strictly after cursor. An empty cursor starts from the beginning.
// The returned cursor is the suffix of the last key read; it is the input
// cursor when nothing new was found so callers can poll with it.
func (r *HistoryRepository) ListSince(ctx context.Context, conversationID domain.ConversationID,
	cursor string) ([]domain.Message, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	var values [][]byte
	next := cursor
	err := r.db.View(func(txn *badger.Txn) error {
		prefixStr := conversationPrefix(conversationID)
		prefix := []byte(prefixStr)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		seekKey := append([]byte(prefixStr), cursor...)
		it.Seek(seekKey)
		// The cursor itself was already returned by the previous page
		if cursor != "" && it.ValidForPrefix(prefix) && string(it.Item().Key()[len(prefix):]) == cursor {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if len(values) == r.pageSize {
				r.log.Debug("History page full", "conversation_id", conversationID, "size", r.pageSize)
				break
			}
			item := it.Item()
			next = string(item.Key()[len(prefix):])
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			values = append(values, value)
		}
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	messages := make([]domain.Message, 0, len(values))
	for _, value := range values {
		message, err := decodeMessage(value)
		if err != nil {
			return nil, "", err
		}
		messages = append(messages, message)
	}
	return messages, next, nil
}
