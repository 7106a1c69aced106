package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Producer publishes a raw event payload to an external broker.
type Producer interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

type Worker struct {
	store       *Store
	producer    Producer
	logger      *slog.Logger
	workerID    string
	interval    time.Duration
	baseBackoff time.Duration
	topicPrefix string
}

func NewWorker(store *Store, producer Producer, logger *slog.Logger, interval, baseBackoff time.Duration, topicPrefix string) *Worker {
	return &Worker{
		store:       store,
		producer:    producer,
		logger:      logger,
		workerID:    uuid.NewString(),
		interval:    interval,
		baseBackoff: baseBackoff,
		topicPrefix: topicPrefix,
	}
}

// Run polls the outbox until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("outbox worker started", slog.String("worker_id", w.workerID))
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("outbox worker stopped", slog.String("worker_id", w.workerID))
			return
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

func (w *Worker) drain(ctx context.Context) {
	for {
		doc, err := w.store.Claim(ctx, w.workerID)
		if err != nil {
			w.logger.Error("outbox claim failed", slog.String("error", err.Error()))
			return
		}
		if doc == nil {
			return
		}
		if err := w.dispatch(ctx, doc); err != nil {
			next := time.Now().UTC().Add(w.nextRetry(doc.Attempts))
			w.logger.Error("outbox dispatch failed",
				slog.String("event_id", doc.ID),
				slog.String("event", doc.Name),
				slog.String("error", err.Error()))
			if markErr := w.store.MarkFailed(ctx, doc.ID, next, err.Error()); markErr != nil {
				w.logger.Error("outbox mark failed", slog.String("error", markErr.Error()))
			}
			continue
		}
		if err := w.store.MarkSent(ctx, doc.ID); err != nil {
			w.logger.Error("outbox mark sent failed", slog.String("error", err.Error()))
		}
	}
}

func (w *Worker) dispatch(ctx context.Context, doc *EventDocument) error {
	payload, err := w.formatPayload(doc)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	return w.producer.Publish(ctx, w.topicFor(doc.Name), doc.Aggregate, payload, doc.Headers)
}

// formatPayload wraps the stored domain payload in a CloudEvents envelope.
func (w *Worker) formatPayload(doc *EventDocument) ([]byte, error) {
	envelope := map[string]any{
		"specversion":     "1.0",
		"id":              doc.ID,
		"type":            doc.Name,
		"source":          "tourbook",
		"subject":         doc.Aggregate,
		"time":            doc.OccurredAt.UTC().Format(time.RFC3339Nano),
		"datacontenttype": "application/json",
		"data":            json.RawMessage(doc.Payload),
	}
	return json.Marshal(envelope)
}

func (w *Worker) topicFor(eventName string) string {
	if w.topicPrefix == "" {
		return eventName
	}
	return w.topicPrefix + "." + eventName
}

func (w *Worker) nextRetry(attempts int) time.Duration {
	backoff := w.baseBackoff
	for i := 0; i < attempts && backoff < time.Minute; i++ {
		backoff *= 2
	}
	if backoff > time.Minute {
		backoff = time.Minute
	}
	return backoff
}
