package runtime

import (
	"log/slog"
	"pair-chat/contract"
	"pair-chat/domain"
	"pair-chat/domain/event"
	"sync"
	"time"

	"github.com/google/uuid"
)

const replacedReason = "session replaced"

// Handle binds one live connection to one identity.
type Handle struct {
	ID          uuid.UUID
	UserID      domain.UserID
	ConnectedAt time.Time
	conn        contract.Connection
}

// Presence is the source of truth for "is this user currently reachable".
// It holds at most one handle per identity and never touches pairing state.
type Presence struct {
	mu        sync.RWMutex
	log       *slog.Logger
	handles   map[domain.UserID]*Handle
	telemetry chan<- event.Envelope
	now       func() time.Time
}

var _ contract.Notifier = (*Presence)(nil)

func NewPresence(log *slog.Logger, telemetry chan<- event.Envelope) *Presence {
	return &Presence{
		log:       log,
		handles:   make(map[domain.UserID]*Handle),
		telemetry: telemetry,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Connect registers conn as the only handle of userID.
// A superseded handle is unregistered and closed before Connect returns,
// replaced reports whether that happened.
func (p *Presence) Connect(userID domain.UserID, conn contract.Connection) (h *Handle, replaced bool) {
	h = &Handle{
		ID:          uuid.New(),
		UserID:      userID,
		ConnectedAt: p.now(),
		conn:        conn,
	}

	p.mu.Lock()
	previous, ok := p.handles[userID]
	p.handles[userID] = h
	p.mu.Unlock()

	if ok {
		p.log.Debug("Closing superseded handle", "user_id", userID, "handle", previous.ID)
		previous.conn.Close(replacedReason)
	}
	return h, ok
}

// Disconnect removes and closes the current handle of userID.
// Calling it for an identity without a handle is a no-op.
func (p *Presence) Disconnect(userID domain.UserID) (*Handle, bool) {
	p.mu.Lock()
	h, ok := p.handles[userID]
	if ok {
		delete(p.handles, userID)
	}
	p.mu.Unlock()

	if ok {
		h.conn.Close("disconnected")
	}
	return h, ok
}

// Release removes h only if it is still the current handle of its identity.
// Transports call it when their connection ends so that a late close of a
// replaced connection cannot evict its successor.
func (p *Presence) Release(h *Handle) bool {
	if h == nil {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	current, ok := p.handles[h.UserID]
	if !ok || current.ID != h.ID {
		return false
	}
	delete(p.handles, h.UserID)
	return true
}

func (p *Presence) Lookup(userID domain.UserID) (*Handle, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	h, ok := p.handles[userID]
	return h, ok
}

func (p *Presence) Online(userID domain.UserID) bool {
	_, ok := p.Lookup(userID)
	return ok
}

func (p *Presence) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.handles)
}

// Send pushes evt to the live handle of userID without blocking.
// It returns false when the user has no handle or its buffer is full;
// the event is dropped, never queued.
func (p *Presence) Send(userID domain.UserID, evt event.Event) bool {
	h, ok := p.Lookup(userID)
	delivered := ok && h.conn.Push(evt)
	if ok && !delivered {
		p.log.Warn("Connection buffer full, event dropped", "user_id", userID, "kind", evt.Kind())
	}
	p.observe(event.Envelope{To: userID, Event: evt, Delivered: delivered, At: p.now()})
	return delivered
}

// CloseAll closes every handle, used on shutdown.
func (p *Presence) CloseAll(reason string) {
	p.mu.Lock()
	handles := make([]*Handle, 0, len(p.handles))
	for _, h := range p.handles {
		handles = append(handles, h)
	}
	p.handles = make(map[domain.UserID]*Handle)
	p.mu.Unlock()

	for _, h := range handles {
		h.conn.Close(reason)
	}
}

func (p *Presence) observe(envelope event.Envelope) {
	if p.telemetry == nil {
		return
	}
	select {
	case p.telemetry <- envelope:
	default:
		p.log.Debug("Observability telemetry event lost", "kind", envelope.Event.Kind())
	}
}
