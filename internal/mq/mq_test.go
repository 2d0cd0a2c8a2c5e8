package mq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

type capturePublisher struct {
	channel string
	data    []byte
	attrs   map[string]string
	calls   int
	err     error
	closed  bool
}

func (c *capturePublisher) Publish(_ context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	c.calls++
	c.channel = channel
	c.data = data
	c.attrs = attrs
	return "id-1", c.err
}

func (c *capturePublisher) Close() error {
	c.closed = true
	return nil
}

func TestUsageRecorder_Record(t *testing.T) {
	t.Parallel()

	publisher := &capturePublisher{}
	recorder := NewUsageRecorder(publisher)

	recorder.Record(context.Background(), UsageEvent{
		UserID:      "u1",
		AssistantID: "a1",
		Source:      "widget",
		Model:       "gpt-3.5-turbo",
		LatencyMS:   120,
	})

	if publisher.calls != 1 {
		t.Fatalf("publish calls %d, want 1", publisher.calls)
	}
	if publisher.channel != "voice-usage" {
		t.Fatalf("channel %q", publisher.channel)
	}
	if publisher.attrs["source"] != "widget" {
		t.Fatalf("attrs %v", publisher.attrs)
	}

	var event UsageEvent
	if err := json.Unmarshal(publisher.data, &event); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if event.UserID != "u1" || event.AssistantID != "a1" || event.LatencyMS != 120 {
		t.Fatalf("unexpected event: %+v", event)
	}
	if event.At.IsZero() {
		t.Fatalf("At was not stamped")
	}
}

func TestUsageRecorder_KeepsCallerTimestamp(t *testing.T) {
	t.Parallel()

	publisher := &capturePublisher{}
	recorder := NewUsageRecorder(publisher)

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	recorder.Record(context.Background(), UsageEvent{UserID: "u1", Source: "playground", At: at})

	var event UsageEvent
	if err := json.Unmarshal(publisher.data, &event); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if !event.At.Equal(at) {
		t.Fatalf("At %v, want %v", event.At, at)
	}
}

func TestUsageRecorder_PublishFailureIsSwallowed(t *testing.T) {
	t.Parallel()

	publisher := &capturePublisher{err: errors.New("broker down")}
	recorder := NewUsageRecorder(publisher)

	// Must not panic or propagate; the request that produced the event
	// already succeeded.
	recorder.Record(context.Background(), UsageEvent{UserID: "u1", Source: "widget"})
	if publisher.calls != 1 {
		t.Fatalf("publish calls %d, want 1", publisher.calls)
	}
}

func TestUsageRecorder_NilSafe(t *testing.T) {
	t.Parallel()

	NewUsageRecorder(nil).Record(context.Background(), UsageEvent{UserID: "u1"})

	var recorder *UsageRecorder
	recorder.Record(context.Background(), UsageEvent{UserID: "u1"})
	if err := recorder.Close(); err != nil {
		t.Fatalf("nil recorder Close: %v", err)
	}
}

func TestUsageRecorder_ClosePropagates(t *testing.T) {
	t.Parallel()

	publisher := &capturePublisher{}
	recorder := NewUsageRecorder(publisher)
	if err := recorder.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !publisher.closed {
		t.Fatalf("underlying publisher was not closed")
	}
}
