package events

import (
	"context"
	"testing"
	"time"
)

func TestBusInMemoryPublishSubscribe(t *testing.T) {
	bus := NewBus(Options{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, unsubscribe, err := bus.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer unsubscribe()

	if err := bus.Publish(ctx, NewCatalogUpdatedEvent(9)); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case evt := <-ch:
		if evt.Type != EventCatalogUpdated {
			t.Fatalf("expected %s, got %s", EventCatalogUpdated, evt.Type)
		}
		if evt.ID == "" || evt.Timestamp.IsZero() {
			t.Errorf("publish must stamp id and timestamp, got %+v", evt)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestBusUnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus(Options{})
	ch, unsubscribe, err := bus.Subscribe(context.Background())
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	unsubscribe()

	if _, ok := <-ch; ok {
		t.Fatal("expected subscriber channel to be closed after unsubscribe")
	}

	// Publishing after the last subscriber left must not panic or block.
	if err := bus.Publish(context.Background(), NewRecommendationReadyEvent("run-1", []string{"image"})); err != nil {
		t.Fatalf("Publish after unsubscribe: %v", err)
	}
}
