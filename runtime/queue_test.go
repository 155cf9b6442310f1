package runtime

import (
	"pair-chat/domain"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func queuedIDs(q *Queue) []domain.UserID {
	return lo.Map(q.Entries(), func(e QueueEntry, _ int) domain.UserID { return e.UserID })
}

func TestQueue_Push_Keeps_FIFO_Order(t *testing.T) {
	req := require.New(t)
	q := NewQueue()
	now := time.Now()

	q.Push("A", now)
	q.Push("B", now.Add(time.Second))
	q.Push("C", now.Add(2*time.Second))

	req.Equal([]domain.UserID{"A", "B", "C"}, queuedIDs(q))
	req.Equal(3, q.Len())
}

func TestQueue_Push_Twice_Moves_To_Tail(t *testing.T) {
	req := require.New(t)
	q := NewQueue()
	now := time.Now()

	// Given A then B waiting
	q.Push("A", now)
	q.Push("B", now)

	// When A searches again
	later := now.Add(time.Minute)
	q.Push("A", later)

	// Then A appears once, at the tail, with a fresh timestamp
	req.Equal([]domain.UserID{"B", "A"}, queuedIDs(q))
	entries := q.Entries()
	req.Equal(later, entries[1].EnqueuedAt)
}

func TestQueue_PopFront_And_Remove(t *testing.T) {
	req := require.New(t)
	q := NewQueue()
	now := time.Now()
	q.Push("A", now)
	q.Push("B", now)

	head, ok := q.PopFront()
	req.True(ok)
	req.Equal(domain.UserID("A"), head.UserID)

	req.True(q.Remove("B"))
	req.False(q.Remove("B"))
	req.False(q.Contains("B"))

	_, ok = q.PopFront()
	req.False(ok)
}

func TestQueue_ExpireBefore(t *testing.T) {
	req := require.New(t)
	q := NewQueue()
	now := time.Now()
	q.Push("old", now.Add(-time.Hour))
	q.Push("fresh", now)
	q.Push("older", now.Add(-2*time.Hour))

	expired := q.ExpireBefore(now.Add(-time.Minute))

	req.Equal([]domain.UserID{"old", "older"}, expired)
	req.Equal([]domain.UserID{"fresh"}, queuedIDs(q))
}
