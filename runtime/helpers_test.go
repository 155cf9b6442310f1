package runtime

import (
	"log/slog"
	"pair-chat/domain"
	"pair-chat/domain/event"
	"sync"
	"time"
)

// recorder is an unbounded in-memory connection.
type recorder struct {
	mu     sync.Mutex
	events []event.Event
	closed string
}

func (r *recorder) Push(evt event.Event) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed != "" {
		return false
	}
	r.events = append(r.events, evt)
	return true
}

func (r *recorder) Close(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed == "" {
		r.closed = reason
	}
}

func (r *recorder) Events() []event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]event.Event(nil), r.events...)
}

func (r *recorder) Kinds() []event.Kind {
	var kinds []event.Kind
	for _, e := range r.Events() {
		kinds = append(kinds, e.Kind())
	}
	return kinds
}

// Last returns the last event of the given kind.
func (r *recorder) Last(kind event.Kind) (event.Event, bool) {
	events := r.Events()
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Kind() == kind {
			return events[i], true
		}
	}
	return nil, false
}

func (r *recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

type fixture struct {
	presence   *Presence
	matchmaker *Matchmaker
	conns      map[domain.UserID]*recorder
	clock      time.Time
}

func newFixture() *fixture {
	log := slog.New(slog.DiscardHandler)
	presence := NewPresence(log, nil)
	f := &fixture{
		presence:   presence,
		matchmaker: NewMatchmaker(log, presence, nil, nil),
		conns:      make(map[domain.UserID]*recorder),
		clock:      time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	f.matchmaker.now = func() time.Time { return f.clock }
	return f
}

func (f *fixture) connect(ids ...domain.UserID) {
	for _, id := range ids {
		conn := &recorder{}
		f.conns[id] = conn
		_, replaced := f.presence.Connect(id, conn)
		f.matchmaker.OnConnect(id, replaced)
	}
}

func (f *fixture) disconnect(id domain.UserID) {
	if _, ok := f.presence.Disconnect(id); ok {
		f.matchmaker.OnDisconnect(id)
	}
}

func (f *fixture) advance(d time.Duration) {
	f.clock = f.clock.Add(d)
}
