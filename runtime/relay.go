package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"pair-chat/contract"
	"pair-chat/domain"
	"pair-chat/domain/event"
	"pair-chat/errors"
	"strings"
	"unicode/utf8"

	"github.com/abadojack/whatlanggo"
)

// Censor masks forbidden words. Implemented by moderation.Moderator.
type Censor interface {
	Censor(text string) (string, []string)
}

// Relay forwards a message to the partner of its sender.
// History is written before any delivery attempt and without the pairing lock.
type Relay struct {
	log              *slog.Logger
	presence         *Presence
	matchmaker       *Matchmaker
	history          contract.IHistoryRepository
	censor           Censor
	maxContentLength int
}

// NewRelay builds a relay. censor may be nil, maxContentLength <= 0 disables the limit.
func NewRelay(log *slog.Logger, presence *Presence, matchmaker *Matchmaker,
	history contract.IHistoryRepository, censor Censor, maxContentLength int) *Relay {
	return &Relay{
		log:              log,
		presence:         presence,
		matchmaker:       matchmaker,
		history:          history,
		censor:           censor,
		maxContentLength: maxContentLength,
	}
}

// RelayMessage persists content then pushes it to the partner and acknowledges
// the sender. An unreachable partner is not an error: Delivered is false.
func (r *Relay) RelayMessage(ctx context.Context, sender domain.UserID, content string) (domain.Receipt, error) {
	if !r.presence.Online(sender) {
		return domain.Receipt{}, errors.ErrUnknownIdentity
	}
	// Content is validated before the pairing: an empty message is a
	// validation error whatever the state of its sender.
	text := strings.TrimSpace(content)
	if text == "" {
		return domain.Receipt{}, errors.ErrEmptyMessage
	}
	if r.maxContentLength > 0 && utf8.RuneCountInString(text) > r.maxContentLength {
		return domain.Receipt{}, fmt.Errorf("%w: %d characters max", errors.ErrMessageTooLong, r.maxContentLength)
	}
	session, err := r.matchmaker.Conversation(sender)
	if err != nil {
		return domain.Receipt{}, err
	}

	if r.censor != nil {
		censored, words := r.censor.Censor(text)
		if len(words) > 0 {
			r.log.Info("Message censored",
				"conversation_id", session.ConversationID,
				"lang", whatlanggo.Detect(text).Lang.Iso6391(),
				"count", len(words))
		}
		text = censored
	}

	msg, err := r.history.Append(ctx, session.ConversationID, sender, text)
	if err != nil {
		r.log.Error("History append failed", "conversation_id", session.ConversationID, "error", err)
		return domain.Receipt{}, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}

	partner := session.Other(sender)
	delivered := r.presence.Send(partner, event.FromMessage(msg))
	r.presence.Send(sender, event.MessageSent{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		Timestamp:      msg.CreatedAt,
	})
	if !delivered {
		r.log.Debug("Partner unreachable, message kept in history", "conversation_id", msg.ConversationID)
	}
	return domain.Receipt{Message: msg, Delivered: delivered}, nil
}
