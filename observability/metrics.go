package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the Prometheus collectors of the chat server.
// Collectors are registered on their own registry so tests can build as many as they need.
type Metrics struct {
	registry *prometheus.Registry

	// EventsPushed counts pushes towards connection handles.
	// Labels: kind, delivered (true|false)
	EventsPushed *prometheus.CounterVec

	// MessagesRelayed counts relayed messages by outcome.
	// Labels: outcome (delivered|missed|failed)
	MessagesRelayed *prometheus.CounterVec

	// PairsFormed counts partner-found events, two per pairing.
	PairsFormed prometheus.Counter

	// ChatsEnded counts chat-ended events.
	// Labels: reason
	ChatsEnded *prometheus.CounterVec

	OnlineUsers    prometheus.Gauge
	QueueLength    prometheus.Gauge
	ActivePairings prometheus.Gauge

	ProcessRSSBytes   prometheus.Gauge
	ProcessCPUPercent prometheus.Gauge

	// ChannelLength and ChannelCapacity sample internal buffers.
	// Labels: channel
	ChannelLength   *prometheus.GaugeVec
	ChannelCapacity *prometheus.GaugeVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &Metrics{
		registry: registry,
		EventsPushed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pairchat_events_pushed_total",
				Help: "Events pushed to connection handles by kind and delivery outcome",
			},
			[]string{"kind", "delivered"},
		),
		MessagesRelayed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pairchat_messages_relayed_total",
				Help: "Relayed messages by outcome",
			},
			[]string{"outcome"},
		),
		PairsFormed: factory.NewCounter(prometheus.CounterOpts{
			Name: "pairchat_partner_found_total",
			Help: "partner-found events pushed",
		}),
		ChatsEnded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pairchat_chat_ended_total",
				Help: "chat-ended events pushed by reason",
			},
			[]string{"reason"},
		),
		OnlineUsers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "pairchat_online_users",
			Help: "Identities holding a live connection handle",
		}),
		QueueLength: factory.NewGauge(prometheus.GaugeOpts{
			Name: "pairchat_queue_length",
			Help: "Identities waiting for a partner",
		}),
		ActivePairings: factory.NewGauge(prometheus.GaugeOpts{
			Name: "pairchat_active_pairings",
			Help: "Active pairing sessions",
		}),
		ProcessRSSBytes: factory.NewGauge(prometheus.GaugeOpts{
			Name: "pairchat_process_rss_bytes",
			Help: "Resident memory of the server process",
		}),
		ProcessCPUPercent: factory.NewGauge(prometheus.GaugeOpts{
			Name: "pairchat_process_cpu_percent",
			Help: "CPU usage of the server process",
		}),
		ChannelLength: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pairchat_channel_length",
			Help: "Items waiting in an internal channel",
		}, []string{"channel"}),
		ChannelCapacity: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pairchat_channel_capacity",
			Help: "Capacity of an internal channel",
		}, []string{"channel"}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RelayOutcome(delivered bool, err error) {
	switch {
	case err != nil:
		m.MessagesRelayed.WithLabelValues("failed").Inc()
	case delivered:
		m.MessagesRelayed.WithLabelValues("delivered").Inc()
	default:
		m.MessagesRelayed.WithLabelValues("missed").Inc()
	}
}
