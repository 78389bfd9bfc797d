package events

import (
	"testing"
	"time"
)

func TestBroker_DeliversToSubscribers(t *testing.T) {
	broker := NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()

	broker.Emit(EventBackendStarted, "Backend started")

	select {
	case event := <-sub:
		if event.Type != EventBackendStarted {
			t.Errorf("Expected %s, got %s", EventBackendStarted, event.Type)
		}
		if event.ID == "" {
			t.Error("Expected event ID to be assigned")
		}
		if event.Timestamp.IsZero() {
			t.Error("Expected event timestamp to be assigned")
		}
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for event")
	}
}

func TestBroker_MultipleSubscribers(t *testing.T) {
	broker := NewBroker()
	broker.Start()
	defer broker.Stop()

	sub1 := broker.Subscribe()
	sub2 := broker.Subscribe()

	if broker.SubscriberCount() != 2 {
		t.Fatalf("Expected 2 subscribers, got %d", broker.SubscriberCount())
	}

	broker.Emit(EventAttendanceReceived, "attendance records updated")

	for i, sub := range []Subscriber{sub1, sub2} {
		select {
		case event := <-sub:
			if event.Type != EventAttendanceReceived {
				t.Errorf("Subscriber %d: expected %s, got %s", i, EventAttendanceReceived, event.Type)
			}
		case <-time.After(time.Second):
			t.Fatalf("Subscriber %d timed out", i)
		}
	}
}

func TestBroker_UnsubscribeClosesChannel(t *testing.T) {
	broker := NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()
	broker.Unsubscribe(sub)

	if broker.SubscriberCount() != 0 {
		t.Errorf("Expected 0 subscribers, got %d", broker.SubscriberCount())
	}

	select {
	case _, open := <-sub:
		if open {
			t.Error("Expected closed channel after unsubscribe")
		}
	case <-time.After(time.Second):
		t.Fatal("Channel not closed after unsubscribe")
	}
}

func TestBroker_SlowSubscriberDoesNotBlock(t *testing.T) {
	broker := NewBroker()
	broker.Start()
	defer broker.Stop()

	// Never read from this subscriber; its buffer fills and further
	// events are skipped for it without blocking the broker.
	_ = broker.Subscribe()
	active := broker.Subscribe()

	for i := 0; i < 60; i++ {
		broker.Emit(EventBackendRecovered, "Backend reachable")
	}

	received := 0
	deadline := time.After(2 * time.Second)
	for received < 50 {
		select {
		case <-active:
			received++
		case <-deadline:
			t.Fatalf("Active subscriber starved, received %d events", received)
		}
	}
}
