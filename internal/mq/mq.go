// Package mq publishes usage events to a message broker for
// out-of-process analytics. Publishing is best-effort: a broker
// failure never fails the request that produced the event.
package mq

import (
	"context"
	"encoding/json"
	"log"
	"time"
)

// usageChannel is the broker channel carrying usage events.
const usageChannel = "voice-usage"

// UsageEvent describes one gateway chat turn.
type UsageEvent struct {
	UserID      string    `json:"userId"`
	AssistantID string    `json:"assistantId,omitempty"`
	Source      string    `json:"source"` // "playground" or "widget"
	Model       string    `json:"model"`
	LatencyMS   int64     `json:"latencyMs"`
	At          time.Time `json:"at"`
}

// Publisher defines the broker-agnostic publish operation.
type Publisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Close() error
}

// UsageRecorder wraps a Publisher with the usage-event encoding.
type UsageRecorder struct {
	publisher Publisher
}

// NewUsageRecorder constructs a recorder; a nil publisher disables
// recording entirely.
func NewUsageRecorder(publisher Publisher) *UsageRecorder {
	return &UsageRecorder{publisher: publisher}
}

// Record publishes one usage event. Failures are logged and dropped.
func (u *UsageRecorder) Record(ctx context.Context, event UsageEvent) {
	if u == nil || u.publisher == nil {
		return
	}
	if event.At.IsZero() {
		event.At = time.Now()
	}
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("usage event encode failed: %v", err)
		return
	}
	attrs := map[string]string{"source": event.Source}
	if _, err := u.publisher.Publish(ctx, usageChannel, data, attrs); err != nil {
		log.Printf("usage event publish failed: %v", err)
	}
}

// Close closes the underlying publisher, if any.
func (u *UsageRecorder) Close() error {
	if u == nil || u.publisher == nil {
		return nil
	}
	return u.publisher.Close()
}
