package workers

import (
	"context"
	"log/slog"
	"pair-chat/contract"
	"pair-chat/observability"
	"time"
)

// MonitoringWorker refreshes the process and occupancy snapshot on a fixed interval.
type MonitoringWorker struct {
	log        *slog.Logger
	monitoring *observability.MonitoringManager
	counts     func() observability.Counts
	interval   time.Duration
}

var _ contract.Worker = (*MonitoringWorker)(nil)

func NewMonitoringWorker(log *slog.Logger, monitoring *observability.MonitoringManager,
	counts func() observability.Counts, interval time.Duration) *MonitoringWorker {
	return &MonitoringWorker{log: log, monitoring: monitoring, counts: counts, interval: interval}
}

func (w *MonitoringWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.monitoring.Refresh(w.counts())
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			stats := w.monitoring.Refresh(w.counts())
			w.log.Debug("Stats refreshed",
				"online", stats.OnlineUsers,
				"queue", stats.QueueLength,
				"pairings", stats.ActivePairings,
				"rss", stats.RSSBytes)
		}
	}
}
