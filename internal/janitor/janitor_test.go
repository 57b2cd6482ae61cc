package janitor

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/planview/internal/artifact"
	"github.com/mattjoyce/planview/internal/events"
	"github.com/mattjoyce/planview/internal/janitor/mocks"
)

// NewTestSlogger creates a new *slog.Logger that writes to a buffer.
func NewTestSlogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(handler), &buf
}

type trackerFunc func(string) bool

func (f trackerFunc) Tracked(id string) bool { return f(id) }

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestSweepOnceSkipsTrackedAndRecordsLedger(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sweeper := mocks.NewMockSweeper(ctrl)
	ledger := mocks.NewMockLedger(ctrl)
	slogger, logBuf := NewTestSlogger()
	hub := events.NewHub(16)

	tracker := trackerFunc(func(id string) bool { return id == "/exports/live.html" })
	j := New(Config{OlderThan: time.Hour, Clock: clockwork.NewFakeClockAt(t0)}, sweeper, tracker, ledger, hub, slogger)

	sweeper.EXPECT().Sweep(gomock.Any(), time.Hour, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ time.Duration, keep func(string) bool) (artifact.SweepReport, error) {
			assert.True(t, keep("/exports/live.html"))
			assert.False(t, keep("/exports/stale.html"))
			return artifact.SweepReport{Deleted: 1, Kept: 1, Removed: []string{"/exports/stale.html"}}, nil
		})
	ledger.EXPECT().MarkDeleted(gomock.Any(), "stale.html", t0, sweptReason).Return(nil)

	report, err := j.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Deleted)
	assert.Contains(t, logBuf.String(), "Swept stale artifact")

	evs := hub.SnapshotSince(0)
	require.Len(t, evs, 1)
	assert.Equal(t, "janitor.sweep", evs[0].Type)
	assert.JSONEq(t, `{"deleted":1,"kept":1}`, string(evs[0].Data))
}

func TestSweepOnceLedgerFailureIsLogged(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sweeper := mocks.NewMockSweeper(ctrl)
	ledger := mocks.NewMockLedger(ctrl)
	slogger, logBuf := NewTestSlogger()
	j := New(Config{OlderThan: time.Hour, Clock: clockwork.NewFakeClockAt(t0)}, sweeper, nil, ledger, nil, slogger)

	sweeper.EXPECT().Sweep(gomock.Any(), time.Hour, nil).Return(artifact.SweepReport{Deleted: 1, Removed: []string{"/exports/a.html"}}, nil)
	ledger.EXPECT().MarkDeleted(gomock.Any(), "a.html", t0, sweptReason).Return(errors.New("db locked"))

	_, err := j.SweepOnce(context.Background())
	assert.NoError(t, err)
	assert.Contains(t, logBuf.String(), "Failed to record swept artifact")
}

func TestStartSweepsImmediatelyAndOnTick(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sweeper := mocks.NewMockSweeper(ctrl)
	slogger, _ := NewTestSlogger()
	clock := clockwork.NewFakeClockAt(t0)
	j := New(Config{Interval: 10 * time.Minute, OlderThan: time.Hour, Clock: clock}, sweeper, nil, nil, nil, slogger)

	swept := make(chan struct{}, 4)
	sweeper.EXPECT().Sweep(gomock.Any(), time.Hour, gomock.Any()).DoAndReturn(
		func(context.Context, time.Duration, func(string) bool) (artifact.SweepReport, error) {
			swept <- struct{}{}
			return artifact.SweepReport{}, nil
		}).Times(2)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, j.Start(ctx))
	<-swept

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(10 * time.Minute)

	select {
	case <-swept:
	case <-ctx.Done():
		t.Fatal("tick did not trigger a sweep")
	}
	j.Stop()
}

func TestStartFailsWhenStartupSweepFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sweeper := mocks.NewMockSweeper(ctrl)
	slogger, _ := NewTestSlogger()
	j := New(Config{Interval: time.Minute, OlderThan: time.Hour}, sweeper, nil, nil, nil, slogger)

	sweeper.EXPECT().Sweep(gomock.Any(), time.Hour, gomock.Any()).Return(artifact.SweepReport{}, errors.New("permission denied"))

	err := j.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "janitor startup sweep failed: permission denied")
	j.Stop()
}

func TestStartWithoutIntervalSweepsOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sweeper := mocks.NewMockSweeper(ctrl)
	slogger, logBuf := NewTestSlogger()
	j := New(Config{OlderThan: time.Hour}, sweeper, nil, nil, nil, slogger)

	sweeper.EXPECT().Sweep(gomock.Any(), time.Hour, gomock.Any()).Return(artifact.SweepReport{}, nil).Times(1)

	require.NoError(t, j.Start(context.Background()))
	j.Stop()
	assert.Contains(t, logBuf.String(), "Janitor sweep loop disabled")
}

type forgettingTracker struct {
	trackerFunc
	horizons []time.Duration
}

func (f *forgettingTracker) ForgetRetired(olderThan time.Duration) int {
	f.horizons = append(f.horizons, olderThan)
	return 3
}

func TestSweepOnceForgetsOldTombstones(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sweeper := mocks.NewMockSweeper(ctrl)
	slogger, logBuf := NewTestSlogger()
	tracker := &forgettingTracker{trackerFunc: func(string) bool { return false }}
	j := New(Config{OlderThan: 2 * time.Hour, Clock: clockwork.NewFakeClockAt(t0)}, sweeper, tracker, nil, nil, slogger)

	sweeper.EXPECT().Sweep(gomock.Any(), 2*time.Hour, gomock.Any()).Return(artifact.SweepReport{}, nil)

	_, err := j.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{2 * time.Hour}, tracker.horizons)
	assert.Contains(t, logBuf.String(), "Forgot deleted artifacts")
}
