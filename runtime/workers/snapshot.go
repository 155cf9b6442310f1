package workers

import (
	"context"
	"log/slog"
	"pair-chat/contract"
	"time"
)

// SnapshotWorker persists the pairing state on a fixed interval.
type SnapshotWorker struct {
	log         *slog.Logger
	snapshotter contract.Snapshotter
	interval    time.Duration
}

var _ contract.Worker = (*SnapshotWorker)(nil)

func NewSnapshotWorker(log *slog.Logger, snapshotter contract.Snapshotter, interval time.Duration) *SnapshotWorker {
	return &SnapshotWorker{log: log, snapshotter: snapshotter, interval: interval}
}

func (w *SnapshotWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := w.snapshotter.Snapshot(); err != nil {
				w.log.Error("Pairing snapshot failed", "error", err)
			}
		}
	}
}
