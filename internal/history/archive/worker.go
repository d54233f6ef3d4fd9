package archive

import (
	"context"
	"log/slog"

	"geoatlas/internal/history"
	"geoatlas/internal/platform/metrics"
)

// Sink receives archived entries. Satisfied by PostgresSink.
type Sink interface {
	Write(ctx context.Context, entry history.Entry) error
}

// Worker drains the archive channel into the sink. It keeps background
// processing off the request path; a failed write is logged and counted, the
// worker keeps running.
type Worker struct {
	sink    Sink
	inbox   <-chan history.Entry
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewWorker(sink Sink, inbox <-chan history.Entry, logger *slog.Logger, m *metrics.Metrics) *Worker {
	return &Worker{sink: sink, inbox: inbox, logger: logger, metrics: m}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case entry := <-w.inbox:
			if err := w.sink.Write(ctx, entry); err != nil {
				w.logger.ErrorContext(ctx, "history archive write failed",
					"entry_id", entry.ID,
					"error", err.Error(),
				)
				w.metrics.ArchiveFailures.Inc()
			}
		}
	}
}
