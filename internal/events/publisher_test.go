package events_test

import (
	"context"
	"testing"
	"time"

	"github.com/jonesrussell/finfeed/internal/events"
)

func TestNewPublisherRequiresClient(t *testing.T) {
	pub := events.NewPublisher(nil, nil)
	if pub != nil {
		t.Error("expected nil publisher when client is nil")
	}
}

func TestPublishNilReceiverIsNoOp(t *testing.T) {
	var pub *events.Publisher
	event := events.RefreshEvent{
		EventType: events.RecordRefreshed,
		Domain:    "stock",
		ID:        "AAPL",
	}

	if err := pub.Publish(context.Background(), event); err != nil {
		t.Errorf("expected nil error for nil receiver, got: %v", err)
	}
}

func TestPublishAsyncNilReceiverIsNoOp(t *testing.T) {
	var pub *events.Publisher
	pub.PublishAsync(events.RefreshEvent{Domain: "crypto", ID: "bitcoin"})

	// Give any stray goroutine a chance to run.
	time.Sleep(10 * time.Millisecond)
}
