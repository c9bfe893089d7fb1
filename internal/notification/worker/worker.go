// Package worker drains the notification outbox to external sinks. Losing a
// notification independent of its transition is impossible: the outbox row
// committed with the transition, and the worker retries until every sink
// accepts it.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"hopecycle/internal/notification"
	"hopecycle/internal/platform/metrics"
)

const defaultBatchSize = 50

// Sink delivers one outbox entry to an external system (Kafka, Redis fan-out).
type Sink interface {
	Publish(ctx context.Context, entry *notification.OutboxEntry) error
}

// Worker polls the outbox and fans entries out to every sink. An entry is
// marked dispatched only after all sinks accepted it; sinks must tolerate
// redelivery.
type Worker struct {
	store    notification.Store
	sinks    []Sink
	logger   *slog.Logger
	metrics  *metrics.Metrics
	interval time.Duration
}

func New(store notification.Store, sinks []Sink, logger *slog.Logger, m *metrics.Metrics, interval time.Duration) *Worker {
	if interval <= 0 {
		interval = time.Second
	}
	return &Worker{store: store, sinks: sinks, logger: logger, metrics: m, interval: interval}
}

// Run drains until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.DrainOnce(ctx); err != nil {
				w.logger.ErrorContext(ctx, "outbox drain failed", "error", err)
			}
		}
	}
}

// DrainOnce processes at most one batch. Split out so tests can drive the
// worker without the ticker.
func (w *Worker) DrainOnce(ctx context.Context) error {
	entries, err := w.store.NextOutbox(ctx, defaultBatchSize)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	dispatched := make([]uuid.UUID, 0, len(entries))
	for _, entry := range entries {
		if err := w.publish(ctx, entry); err != nil {
			if w.metrics != nil {
				w.metrics.OutboxFailed.Inc()
			}
			w.logger.WarnContext(ctx, "outbox publish failed, will retry",
				"outbox_id", entry.ID.String(),
				"error", err,
			)
			// Keep ordering per user: stop the batch at the first failure
			// rather than dispatching around it.
			break
		}
		if w.metrics != nil {
			w.metrics.OutboxPublished.Inc()
		}
		dispatched = append(dispatched, entry.ID)
	}
	if len(dispatched) == 0 {
		return nil
	}
	return w.store.MarkDispatched(ctx, dispatched)
}

func (w *Worker) publish(ctx context.Context, entry *notification.OutboxEntry) error {
	for _, sink := range w.sinks {
		if err := sink.Publish(ctx, entry); err != nil {
			return err
		}
	}
	return nil
}
