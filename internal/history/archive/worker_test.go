package archive

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geoatlas/internal/history"
	"geoatlas/internal/platform/metrics"
)

type fakeSink struct {
	mu      sync.Mutex
	written []history.Entry
	fail    bool
}

func (f *fakeSink) Write(_ context.Context, entry history.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("sink down")
	}
	f.written = append(f.written, entry)
	return nil
}

func (f *fakeSink) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.written)
}

func runWorker(t *testing.T, sink Sink, inbox chan history.Entry) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	worker := NewWorker(sink, inbox, logger, metrics.NewWith(prometheus.NewRegistry()))
	go func() { _ = worker.Run(ctx) }()
	return cancel
}

func TestWorkerDrainsInbox(t *testing.T) {
	sink := &fakeSink{}
	inbox := make(chan history.Entry, 4)
	cancel := runWorker(t, sink, inbox)
	defer cancel()

	inbox <- history.Entry{ID: "e-1"}
	inbox <- history.Entry{ID: "e-2"}

	require.Eventually(t, func() bool { return sink.count() == 2 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, "e-1", sink.written[0].ID)
}

func TestWorkerSurvivesSinkFailures(t *testing.T) {
	sink := &fakeSink{fail: true}
	inbox := make(chan history.Entry, 4)
	cancel := runWorker(t, sink, inbox)
	defer cancel()

	inbox <- history.Entry{ID: "e-1"}

	// Flip the sink back to healthy; the worker must still be consuming.
	time.Sleep(20 * time.Millisecond)
	sink.mu.Lock()
	sink.fail = false
	sink.mu.Unlock()

	inbox <- history.Entry{ID: "e-2"}
	require.Eventually(t, func() bool { return sink.count() == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, "e-2", sink.written[0].ID)
}

func TestWorkerStopsOnContextCancel(t *testing.T) {
	sink := &fakeSink{}
	inbox := make(chan history.Entry)
	ctx, cancel := context.WithCancel(context.Background())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	worker := NewWorker(sink, inbox, logger, metrics.NewWith(prometheus.NewRegistry()))

	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop on cancel")
	}
}
