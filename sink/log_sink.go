package sink

import (
	"context"
	"log/slog"
	"pair-chat/contract"
	"pair-chat/domain/event"
)

// LogSink writes every envelope at debug level and every missed delivery at info level.
type LogSink struct {
	log *slog.Logger
}

var _ contract.EventSink = LogSink{}

func NewLogSink(log *slog.Logger) LogSink {
	return LogSink{log: log}
}

func (s LogSink) Consume(ctx context.Context, e event.Envelope) error {
	if e.Event == nil {
		return nil
	}
	level := slog.LevelDebug
	if !e.Delivered {
		level = slog.LevelInfo
	}
	s.log.Log(ctx, level, "Event pushed",
		"to", e.To,
		"kind", e.Event.Kind(),
		"delivered", e.Delivered,
		"at", e.At)
	return nil
}
