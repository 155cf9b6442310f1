package runtime

import (
	"pair-chat/domain"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// QueueEntry is one waiting identity and the time it (re)joined the queue.
type QueueEntry struct {
	UserID     domain.UserID
	EnqueuedAt time.Time
}

// Queue is the FIFO of identities waiting for a partner.
// Each identity appears at most once. It is not synchronized: the
// matchmaker owns it and guards it with its own lock.
type Queue struct {
	entries *orderedmap.OrderedMap[domain.UserID, time.Time]
}

func NewQueue() *Queue {
	return &Queue{entries: orderedmap.New[domain.UserID, time.Time]()}
}

// Push appends userID at the tail. An identity already queued is moved
// to the tail with a refreshed timestamp.
func (q *Queue) Push(userID domain.UserID, at time.Time) {
	if _, present := q.entries.Set(userID, at); present {
		_ = q.entries.MoveToBack(userID)
	}
}

func (q *Queue) Remove(userID domain.UserID) bool {
	_, present := q.entries.Delete(userID)
	return present
}

func (q *Queue) Contains(userID domain.UserID) bool {
	_, present := q.entries.Get(userID)
	return present
}

func (q *Queue) Len() int {
	return q.entries.Len()
}

// PopFront removes and returns the oldest entry.
func (q *Queue) PopFront() (QueueEntry, bool) {
	oldest := q.entries.Oldest()
	if oldest == nil {
		return QueueEntry{}, false
	}
	entry := QueueEntry{UserID: oldest.Key, EnqueuedAt: oldest.Value}
	q.entries.Delete(oldest.Key)
	return entry, true
}

// Entries returns the queue content in FIFO order.
func (q *Queue) Entries() []QueueEntry {
	out := make([]QueueEntry, 0, q.entries.Len())
	for pair := q.entries.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, QueueEntry{UserID: pair.Key, EnqueuedAt: pair.Value})
	}
	return out
}

// ExpireBefore removes every entry enqueued before the given instant and
// returns the removed identities in FIFO order.
func (q *Queue) ExpireBefore(before time.Time) []domain.UserID {
	var expired []domain.UserID
	for pair := q.entries.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.Before(before) {
			expired = append(expired, pair.Key)
		}
	}
	for _, id := range expired {
		q.entries.Delete(id)
	}
	return expired
}
