// Package projection builds local timelines from observed events.
// Handles ordering, deduplication, and projections.
// Does not emit events or interact with UI directly.
package projection

import (
	"pair-chat/domain"
	"pair-chat/domain/event"
	"sort"
	"sync"
	"time"
)

type Entry struct {
	ID        string
	SenderID  domain.UserID
	Content   string
	CreatedAt time.Time
}

// Timeline is the client-side view of the current conversation. Live
// messages and history pages overlap; each message id is kept once.
type Timeline struct {
	mu             sync.Mutex
	ConversationID domain.ConversationID
	entries        []Entry
	seen           map[string]struct{}
}

func NewTimeline() *Timeline {
	return &Timeline{seen: make(map[string]struct{})}
}

// Consume applies a pushed event. A new pairing starts a fresh timeline.
func (t *Timeline) Consume(f event.Frame) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch f.Kind {
	case event.PartnerFoundKind:
		if f.ConversationID != t.ConversationID {
			t.reset(f.ConversationID)
		}
	case event.ReceiveMessageKind:
		if f.ConversationID != t.ConversationID || f.Timestamp == nil {
			return
		}
		t.add(Entry{ID: f.MessageID, SenderID: f.SenderID, Content: f.Content, CreatedAt: *f.Timestamp})
	}
}

// Merge adds messages fetched from the history, own messages included.
func (t *Timeline) Merge(conversationID domain.ConversationID, entries ...Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if conversationID != t.ConversationID {
		t.reset(conversationID)
	}
	for _, e := range entries {
		t.add(e)
	}
}

// Entries returns the messages ordered by creation time.
func (t *Timeline) Entries() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

func (t *Timeline) add(e Entry) {
	if _, ok := t.seen[e.ID]; ok {
		return
	}
	t.seen[e.ID] = struct{}{}
	t.entries = append(t.entries, e)
	sort.SliceStable(t.entries, func(i, j int) bool {
		return t.entries[i].CreatedAt.Before(t.entries[j].CreatedAt)
	})
}

func (t *Timeline) reset(conversationID domain.ConversationID) {
	t.ConversationID = conversationID
	t.entries = nil
	t.seen = make(map[string]struct{})
}
