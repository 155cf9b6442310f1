package workers

import (
	"context"
	"errors"
	"log/slog"
	"pair-chat/mocks"
	"pair-chat/observability"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestReaperWorker_Reap(t *testing.T) {
	ctrl := gomock.NewController(t)
	reaper := mocks.NewMockReaper(ctrl)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	w := NewReaperWorker(slog.Default(), reaper, time.Second, time.Minute, time.Hour)
	w.now = func() time.Time { return now }

	// Then each policy is applied with its own deadline
	reaper.EXPECT().ExpireSearches(now.Add(-time.Minute)).Return(2).Times(1)
	reaper.EXPECT().AbandonSessions(now.Add(-time.Hour)).Return(0).Times(1)

	w.Reap()
}

func TestReaperWorker_Disabled_Policy(t *testing.T) {
	ctrl := gomock.NewController(t)
	reaper := mocks.NewMockReaper(ctrl)

	w := NewReaperWorker(slog.Default(), reaper, time.Second, 0, time.Hour)

	// Then only the abandonment policy runs
	reaper.EXPECT().AbandonSessions(gomock.Any()).Return(1).Times(1)

	w.Reap()
}

func TestReaperWorker_Run_Without_Policy_Waits_For_Context(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	reaper := mocks.NewMockReaper(ctrl)
	w := NewReaperWorker(slog.Default(), reaper, time.Millisecond, 0, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	req.NoError(w.Run(ctx))
}

func TestSnapshotWorker_Run(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	snapshotter := mocks.NewMockSnapshotter(ctrl)

	// Given a snapshot failing once then succeeding
	calls := make(chan struct{}, 10)
	snapshotter.EXPECT().Snapshot().DoAndReturn(func() error {
		calls <- struct{}{}
		return errors.New("disk full")
	}).Times(1)
	snapshotter.EXPECT().Snapshot().DoAndReturn(func() error {
		calls <- struct{}{}
		return nil
	}).MinTimes(1)

	ctx, cancel := context.WithCancel(context.Background())
	w := NewSnapshotWorker(slog.Default(), snapshotter, 5*time.Millisecond)
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Then a failure does not stop the worker
	req.Eventually(func() bool { return len(calls) >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	req.NoError(<-done)
}

func TestChannelCapacityWorker_Sample(t *testing.T) {
	req := require.New(t)
	metrics := observability.NewMetrics()
	telemetry := make(chan int, 4)
	telemetry <- 1
	telemetry <- 2

	w := NewChannelCapacityWorker(slog.Default(), []NamedChannel{
		{Name: "telemetry", Channel: telemetry},
		{Name: "not_a_channel", Channel: 42},
	}, metrics, time.Second)

	w.Sample()

	req.Equal(2.0, testutil.ToFloat64(metrics.ChannelLength.WithLabelValues("telemetry")))
	req.Equal(4.0, testutil.ToFloat64(metrics.ChannelCapacity.WithLabelValues("telemetry")))
	req.Equal(1, testutil.CollectAndCount(metrics.ChannelLength))
}
