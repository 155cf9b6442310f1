//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"pair-chat/domain"
	"pair-chat/domain/event"
	"reflect"
	"time"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// Connection is the transport side of a connection handle.
// Push must never block: it returns false when the event could not be buffered.
type Connection interface {
	Push(evt event.Event) bool
	Close(reason string)
}

// EventSink observes every envelope pushed by the presence registry.
type EventSink interface {
	Consume(ctx context.Context, e event.Envelope) error
}

// Notifier is the outbound half of the presence registry as seen by the pairing core.
type Notifier interface {
	Send(userID domain.UserID, evt event.Event) bool
}

// IHistoryRepository is the durable conversation log.
type IHistoryRepository interface {
	Append(ctx context.Context, conversationID domain.ConversationID, senderID domain.UserID, content string) (domain.Message, error)
	ListSince(ctx context.Context, conversationID domain.ConversationID, cursor string) ([]domain.Message, string, error)
}

// IProfileRepository resolves display names. A missing profile is not an error.
type IProfileRepository interface {
	GetProfile(userID domain.UserID) (domain.Profile, bool, error)
	SaveProfile(profile domain.Profile) error
	CreateProfile(profile domain.Profile) error
}

// IPairingRepository snapshots active pairings across clean restarts.
type IPairingRepository interface {
	SaveAll(sessions []domain.PairingSession) error
	LoadAll() ([]domain.PairingSession, error)
}

// Reaper applies the optional timeout policies.
type Reaper interface {
	ExpireSearches(before time.Time) int
	AbandonSessions(before time.Time) int
}

// Snapshotter persists the in-memory pairing state.
type Snapshotter interface {
	Snapshot() error
}
