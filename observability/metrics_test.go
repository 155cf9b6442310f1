package observability

import (
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics_RelayOutcome(t *testing.T) {
	req := require.New(t)
	metrics := NewMetrics()

	metrics.RelayOutcome(true, nil)
	metrics.RelayOutcome(true, nil)
	metrics.RelayOutcome(false, nil)
	metrics.RelayOutcome(false, errors.New("disk full"))

	expected := `
		# HELP pairchat_messages_relayed_total Relayed messages by outcome
		# TYPE pairchat_messages_relayed_total counter
		pairchat_messages_relayed_total{outcome="delivered"} 2
		pairchat_messages_relayed_total{outcome="failed"} 1
		pairchat_messages_relayed_total{outcome="missed"} 1
	`
	req.NoError(testutil.CollectAndCompare(metrics.MessagesRelayed, strings.NewReader(expected)))
}

func TestMetrics_Two_Instances_Do_Not_Collide(t *testing.T) {
	req := require.New(t)

	first := NewMetrics()
	second := NewMetrics()
	first.PairsFormed.Inc()

	req.Equal(float64(1), testutil.ToFloat64(first.PairsFormed))
	req.Equal(float64(0), testutil.ToFloat64(second.PairsFormed))
}

func TestMonitoringManager_Refresh(t *testing.T) {
	req := require.New(t)
	metrics := NewMetrics()
	mm, err := NewMonitoringManager(slog.Default(), metrics)
	req.NoError(err)

	stats := mm.Refresh(Counts{OnlineUsers: 3, QueueLength: 1, ActivePairings: 1})

	req.Equal(3, stats.OnlineUsers)
	req.Positive(stats.Goroutines)
	req.Equal(stats, mm.GetLatest())
	req.Equal(float64(3), testutil.ToFloat64(metrics.OnlineUsers))
	req.Equal(float64(1), testutil.ToFloat64(metrics.QueueLength))
}
