package ws

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/rs/zerolog"
)

func testHub() *Hub {
	return NewHub(zerolog.New(os.Stderr).Level(zerolog.Disabled))
}

func newTestClient() *client {
	return &client{id: "c1", topics: make(map[string]struct{}), send: make(chan []byte, 8)}
}

func TestHub_PublishToSubscriber(t *testing.T) {
	h := testHub()
	cl := newTestClient()
	h.register(cl)
	h.subscribe(cl, []string{TopicBeds})

	ev := NewEvent(TopicBeds, "allocated", "bed", "b1")
	if err := h.Publish(context.Background(), ev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case raw := <-cl.send:
		var got Event
		if err := json.Unmarshal(raw, &got); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		if got.Action != "allocated" || got.EntityID != "b1" {
			t.Errorf("unexpected event: %+v", got)
		}
	default:
		t.Fatal("expected event delivered to subscriber")
	}
}

func TestHub_TopicIsolation(t *testing.T) {
	h := testHub()
	cl := newTestClient()
	h.register(cl)
	h.subscribe(cl, []string{TopicInventory})

	_ = h.Publish(context.Background(), NewEvent(TopicBeds, "released", "bed", "b1"))

	select {
	case <-cl.send:
		t.Fatal("client should not receive events for other topics")
	default:
	}
}

func TestHub_Unsubscribe(t *testing.T) {
	h := testHub()
	cl := newTestClient()
	h.register(cl)
	h.subscribe(cl, []string{TopicAppointments})
	if h.TopicCount(TopicAppointments) != 1 {
		t.Fatalf("expected 1 subscriber, got %d", h.TopicCount(TopicAppointments))
	}

	h.unsubscribe(cl, []string{TopicAppointments})
	if h.TopicCount(TopicAppointments) != 0 {
		t.Errorf("expected 0 subscribers after unsubscribe, got %d", h.TopicCount(TopicAppointments))
	}
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	h := testHub()
	cl := newTestClient()
	h.register(cl)
	h.unregister(cl)

	if _, open := <-cl.send; open {
		t.Error("expected send channel closed after unregister")
	}
	if h.ClientCount() != 0 {
		t.Errorf("expected 0 clients, got %d", h.ClientCount())
	}

	// Double unregister must be a no-op.
	h.unregister(cl)
}

func TestHub_NilPublisher(t *testing.T) {
	var h *Hub
	if err := h.Publish(context.Background(), NewEvent(TopicBeds, "allocated", "bed", "b1")); err != nil {
		t.Errorf("nil hub should drop events silently: %v", err)
	}
}

func TestHub_SlowClientSkipped(t *testing.T) {
	h := testHub()
	cl := &client{id: "slow", topics: make(map[string]struct{}), send: make(chan []byte)}
	h.register(cl)
	h.subscribe(cl, []string{TopicInventory})

	// Unbuffered channel with no reader: Publish must not block.
	done := make(chan struct{})
	go func() {
		_ = h.Publish(context.Background(), NewEvent(TopicInventory, "low_stock", "medicine", "m1"))
		close(done)
	}()
	<-done
}
