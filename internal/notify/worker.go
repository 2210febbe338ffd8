// Package notify delivers outbox notifications. Services enqueue events after commit;
// the worker renders and sends them, retrying failures until they go dead.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"spa_backend/internal/models"
	"spa_backend/pkg/utils"
)

// Store is the outbox the worker drains.
type Store interface {
	ListDue(ctx context.Context, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id, lastError string) (int, error)
	MarkDead(ctx context.Context, id, reason string) error
}

type Worker struct {
	store       Store
	batchSize   int
	maxAttempts int
	providers   map[string]Provider
}

type Config struct {
	BatchSize   int
	MaxAttempts int
	Email       Provider
	SMS         Provider
}

func New(store Store, cfg Config) *Worker {
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 50
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	providers := map[string]Provider{
		models.ChannelEmail: cfg.Email,
		models.ChannelSMS:   cfg.SMS,
	}
	for ch, p := range providers {
		if p == nil {
			providers[ch] = logProvider{channel: ch}
		}
	}
	return &Worker{store: store, batchSize: batch, maxAttempts: maxAttempts, providers: providers}
}

// Run processes one batch of due events and returns the number delivered.
func (w *Worker) Run(ctx context.Context) (int, error) {
	events, err := w.store.ListDue(ctx, w.batchSize, w.maxAttempts)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, event := range events {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		ok, err := w.processEvent(ctx, event)
		if err != nil {
			utils.LogError(err, "notify: process event", map[string]interface{}{"event_id": event.ID, "kind": event.Kind})
			continue
		}
		if ok {
			sent++
		}
	}
	return sent, nil
}

func (w *Worker) processEvent(ctx context.Context, event models.OutboxEvent) (bool, error) {
	payload := payloadData{}
	if len(event.Payload) > 0 {
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return false, w.store.MarkDead(ctx, event.ID, fmt.Sprintf("invalid payload: %v", err))
		}
	}
	subject, body, ok := render(event.Kind, payload)
	if !ok {
		return false, w.store.MarkDead(ctx, event.ID, "no template for kind "+event.Kind)
	}
	if event.Subject != "" {
		subject = event.Subject
	}
	provider, ok := w.providers[event.Channel]
	if !ok {
		return false, w.store.MarkDead(ctx, event.ID, "unknown channel "+event.Channel)
	}

	sendErr := provider.Send(ctx, Message{Channel: event.Channel, Recipient: event.Recipient, Subject: subject, Body: body})
	if sendErr == nil {
		return true, w.store.MarkSent(ctx, event.ID)
	}

	attempts, err := w.store.MarkFailed(ctx, event.ID, sendErr.Error())
	if err != nil {
		return false, err
	}
	utils.LogWarn("notify: delivery failed", map[string]interface{}{
		"event_id": event.ID,
		"kind":     event.Kind,
		"attempts": attempts,
		"error":    sendErr.Error(),
	})
	if attempts >= w.maxAttempts {
		return false, w.store.MarkDead(ctx, event.ID, "max attempts reached")
	}
	return false, nil
}

// Start runs the worker every interval until ctx is cancelled.
func Start(ctx context.Context, interval time.Duration, w *Worker) {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.Run(ctx); err != nil && ctx.Err() == nil {
				utils.LogError(err, "notify worker error")
			}
		}
	}
}
