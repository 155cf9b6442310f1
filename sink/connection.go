package sink

import (
	"pair-chat/contract"
	"pair-chat/domain/event"
	"sync"
)

// ChannelConnection is the transport side of a connection handle: a bounded
// buffer drained by one writer goroutine (a gRPC stream or a websocket).
type ChannelConnection struct {
	events    chan event.Event
	done      chan struct{}
	closeOnce sync.Once
	mu        sync.RWMutex
	reason    string
}

var _ contract.Connection = (*ChannelConnection)(nil)

func NewChannelConnection(bufferSize int) *ChannelConnection {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &ChannelConnection{
		events: make(chan event.Event, bufferSize),
		done:   make(chan struct{}),
	}
}

// Push never blocks. It returns false once closed or when the buffer is full.
func (c *ChannelConnection) Push(evt event.Event) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.events <- evt:
		return true
	default:
		return false
	}
}

func (c *ChannelConnection) Close(reason string) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.reason = reason
		c.mu.Unlock()
		close(c.done)
	})
}

// Events is read by the writer goroutine. It is never closed: select on Done too.
func (c *ChannelConnection) Events() <-chan event.Event {
	return c.events
}

func (c *ChannelConnection) Done() <-chan struct{} {
	return c.done
}

// Reason returns why the connection was closed, empty while open.
func (c *ChannelConnection) Reason() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.reason
}
