package workers

import (
	"context"
	"log/slog"
	"pair-chat/contract"
	"pair-chat/domain/event"
	"sync"
	"time"
)

// EventFanout broadcasts the envelopes observed by the presence registry to
// in-process sinks (metrics, logs).
//
// It provides best-effort fan-out with no guarantees regarding delivery,
// ordering, durability, or retries. It never feeds the connections themselves:
// those are pushed to directly by the presence registry.
type EventFanout struct {
	log         *slog.Logger
	envelopes   <-chan event.Envelope
	sinks       []contract.EventSink
	sinkTimeout time.Duration
}

var _ contract.Worker = (*EventFanout)(nil)

func NewEventFanout(log *slog.Logger, envelopes <-chan event.Envelope,
	sinkTimeout time.Duration, sinks ...contract.EventSink) *EventFanout {
	return &EventFanout{log: log, envelopes: envelopes, sinks: sinks, sinkTimeout: sinkTimeout}
}

func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case envelope, ok := <-w.envelopes:
			if !ok {
				return nil
			}
			w.Fanout(ctx, envelope)
		case <-ctx.Done():
			w.log.Debug("Context done, stopping event fanout")
			return nil
		}
	}
}

// Fanout hands the envelope to every sink, each bounded by sinkTimeout.
// It waits for all sinks so a slow sink slows the pipeline instead of piling goroutines up.
func (w *EventFanout) Fanout(ctx context.Context, envelope event.Envelope) {
	var wg sync.WaitGroup
	for _, sink := range w.sinks {
		wg.Add(1)
		go func(s contract.EventSink) {
			defer wg.Done()
			sinkCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
			defer cancel()
			if err := s.Consume(sinkCtx, envelope); err != nil {
				w.log.Warn("Sink failed", "kind", envelope.Event.Kind(), "error", err)
			}
		}(sink)
	}
	wg.Wait()
}
