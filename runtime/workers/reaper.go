package workers

import (
	"context"
	"log/slog"
	"pair-chat/contract"
	"time"
)

// ReaperWorker applies the idle-search and abandonment timeouts.
// A zero timeout disables the matching policy.
type ReaperWorker struct {
	log            *slog.Logger
	reaper         contract.Reaper
	interval       time.Duration
	queueTimeout   time.Duration
	abandonTimeout time.Duration
	now            func() time.Time
}

var _ contract.Worker = (*ReaperWorker)(nil)

func NewReaperWorker(log *slog.Logger, reaper contract.Reaper,
	interval, queueTimeout, abandonTimeout time.Duration) *ReaperWorker {
	return &ReaperWorker{
		log:            log,
		reaper:         reaper,
		interval:       interval,
		queueTimeout:   queueTimeout,
		abandonTimeout: abandonTimeout,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func (w *ReaperWorker) Run(ctx context.Context) error {
	if w.queueTimeout <= 0 && w.abandonTimeout <= 0 {
		w.log.Info("No timeout policy configured, reaper idle")
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.Reap()
		}
	}
}

// Reap runs both policies once.
func (w *ReaperWorker) Reap() {
	now := w.now()
	if w.queueTimeout > 0 {
		if n := w.reaper.ExpireSearches(now.Add(-w.queueTimeout)); n > 0 {
			w.log.Info("Searches expired", "count", n)
		}
	}
	if w.abandonTimeout > 0 {
		if n := w.reaper.AbandonSessions(now.Add(-w.abandonTimeout)); n > 0 {
			w.log.Info("Pairings abandoned", "count", n)
		}
	}
}
