package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestClient(h *Hub, outletID uuid.UUID, buffer int) *Client {
	return &Client{hub: h, outletID: outletID, send: make(chan []byte, buffer)}
}

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case raw := <-c.send:
		var event Event
		if err := json.Unmarshal(raw, &event); err != nil {
			t.Fatalf("unmarshal event: %v", err)
		}
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestHub_BroadcastReachesOutletRoom(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	outletID := uuid.New()
	client := newTestClient(hub, outletID, 8)
	hub.register <- client

	hub.BroadcastToOutlet(outletID, Event{Type: EventOrderCreated, Payload: json.RawMessage(`{"code":"HQ-20260301-0001"}`)})

	event := receive(t, client)
	if event.Type != EventOrderCreated {
		t.Errorf("type: got %q, want %q", event.Type, EventOrderCreated)
	}
}

func TestHub_OtherOutletDoesNotReceive(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	a := newTestClient(hub, uuid.New(), 8)
	b := newTestClient(hub, uuid.New(), 8)
	hub.register <- a
	hub.register <- b

	hub.BroadcastToOutlet(a.outletID, Event{Type: EventOrderUpdated})
	receive(t, a)

	select {
	case raw := <-b.send:
		t.Errorf("client in another room received %s", raw)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := newTestClient(hub, uuid.New(), 8)
	hub.register <- client
	hub.unregister <- client

	select {
	case _, ok := <-client.send:
		if ok {
			t.Error("expected send channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel close")
	}
}

func TestHub_SlowConsumerDropped(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	outletID := uuid.New()
	slow := newTestClient(hub, outletID, 1)
	hub.register <- slow

	// First event fills the buffer, the second finds it full and drops the
	// client by closing its channel.
	hub.BroadcastToOutlet(outletID, Event{Type: EventOrderCreated})
	hub.BroadcastToOutlet(outletID, Event{Type: EventOrderUpdated})

	deadline := time.After(time.Second)
	got := 0
	for {
		select {
		case _, ok := <-slow.send:
			if !ok {
				if got != 1 {
					t.Errorf("delivered %d events before drop, want 1", got)
				}
				return
			}
			got++
		case <-deadline:
			t.Fatal("timed out waiting for slow consumer drop")
		}
	}
}
