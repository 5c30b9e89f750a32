package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/user/dealwatch/internal/adapter/memory"
	"github.com/user/dealwatch/internal/entity"
)

func newTestScheduler(fetcher *fakeFetcher, notifier *fakeNotifier, interval, cycleTimeout time.Duration) (*Scheduler, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)
	w := NewWatcher(testSearchURL, 900, fetcher, &fakeExtractor{candidates: mixedCandidates},
		memory.NewListingRepo(), notifier, logger)
	return NewScheduler(w, notifier, interval, cycleTimeout, logger), logs
}

func runAsync(s *Scheduler, ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	return done
}

func TestSendLivenessCheck(t *testing.T) {
	notifier := &fakeNotifier{}
	s, logs := newTestScheduler(&fakeFetcher{}, notifier, time.Minute, 0)

	require.NoError(t, s.SendLivenessCheck(context.Background()))

	require.Len(t, notifier.sent, 1)
	sent := notifier.sent[0]
	assert.Equal(t, "test", sent.ID)
	assert.Equal(t, "Test Message", sent.Title)
	assert.Zero(t, sent.Price)
	assert.Equal(t, "https://www.ebay.com", sent.Link)
	assert.Len(t, logs.FilterMessage("test message sent").All(), 1)
}

func TestSendLivenessCheck_FailureIsLoggedAndReturned(t *testing.T) {
	notifier := &fakeNotifier{err: errors.New("authentication failed")}
	s, logs := newTestScheduler(&fakeFetcher{}, notifier, time.Minute, 0)

	err := s.SendLivenessCheck(context.Background())
	require.Error(t, err)

	lines := logs.FilterLevelExact(zapcore.ErrorLevel).All()
	require.Len(t, lines, 1)
	assert.Equal(t, "liveness check failed", lines[0].Message)
}

func TestRun_FirstCycleImmediatelyThenPeriodic(t *testing.T) {
	fetcher := &fakeFetcher{markup: "x"}
	s, _ := newTestScheduler(fetcher, &fakeNotifier{}, 20*time.Millisecond, 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(s, ctx)

	assert.Eventually(t, func() bool { return fetcher.calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
	assert.Equal(t, entity.StateStopped, s.watcher.Status().Snapshot().State)
}

func TestRun_CyclesNeverOverlap(t *testing.T) {
	fetcher := &fakeFetcher{markup: "x", delay: 30 * time.Millisecond}
	s, logs := newTestScheduler(fetcher, &fakeNotifier{}, 5*time.Millisecond, 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(s, ctx)

	assert.Eventually(t, func() bool { return fetcher.calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, int32(1), fetcher.maxSeen.Load())
	assert.NotEmpty(t, logs.FilterMessage("cycle overran the poll interval").All())
}

func TestRun_CycleTimeoutBoundsSlowCycle(t *testing.T) {
	fetcher := &fakeFetcher{markup: "x", delay: time.Minute}
	s, _ := newTestScheduler(fetcher, &fakeNotifier{}, time.Hour, 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(s, ctx)

	assert.Eventually(t, func() bool {
		return s.watcher.Status().Snapshot().CyclesRun >= 1
	}, 2*time.Second, 5*time.Millisecond)
	cancel()
	<-done

	last := s.watcher.Status().Snapshot().LastCycle
	require.NotNil(t, last)
	require.Len(t, last.Errors, 1)
	assert.Contains(t, last.Errors[0], "timeout")
}

func TestRun_StopsDuringInFlightCycle(t *testing.T) {
	fetcher := &fakeFetcher{markup: "x", delay: time.Minute}
	s, logs := newTestScheduler(fetcher, &fakeNotifier{}, time.Hour, 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(s, ctx)

	assert.Eventually(t, func() bool { return fetcher.calls.Load() == 1 }, 2*time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	snap := s.watcher.Status().Snapshot()
	require.NotNil(t, snap.LastCycle)
	assert.True(t, snap.LastCycle.Cancelled)
	assert.Equal(t, entity.StateStopped, snap.State)
	assert.Len(t, logs.FilterMessage("stopping scheduler").All(), 1)
}
