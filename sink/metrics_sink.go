package sink

import (
	"context"
	"pair-chat/contract"
	"pair-chat/domain/event"
	"pair-chat/observability"
	"strconv"
)

// MetricsSink turns observed envelopes into Prometheus samples.
type MetricsSink struct {
	metrics *observability.Metrics
}

var _ contract.EventSink = MetricsSink{}

func NewMetricsSink(metrics *observability.Metrics) MetricsSink {
	return MetricsSink{metrics: metrics}
}

func (s MetricsSink) Consume(_ context.Context, e event.Envelope) error {
	if e.Event == nil {
		return nil
	}
	s.metrics.EventsPushed.WithLabelValues(string(e.Event.Kind()), strconv.FormatBool(e.Delivered)).Inc()
	switch evt := e.Event.(type) {
	case event.PartnerFound:
		if !evt.Resumed {
			s.metrics.PairsFormed.Inc()
		}
	case event.ChatEnded:
		s.metrics.ChatsEnded.WithLabelValues(string(evt.Reason)).Inc()
	}
	return nil
}
