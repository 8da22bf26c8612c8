package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/foodcourt/api/internal/enum"
	"github.com/foodcourt/api/internal/events"
	"github.com/foodcourt/api/internal/model"
)

// mockClient creates a client for testing without a real WebSocket connection
func mockClient(hub *Hub, room string) *Client {
	return &Client{
		hub:  hub,
		room: room,
		send: make(chan []byte, 256),
	}
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := NewHub()
	go hub.Run(ctx)
	return hub
}

func expectEvent(t *testing.T, c *Client, wantType string) events.Event {
	t.Helper()
	select {
	case msg := <-c.send:
		var received events.Event
		if err := json.Unmarshal(msg, &received); err != nil {
			t.Fatalf("failed to unmarshal message: %v", err)
		}
		if received.Type != wantType {
			t.Errorf("expected type %q, got %q", wantType, received.Type)
		}
		return received
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("client in %s did not receive message", c.room)
	}
	return events.Event{}
}

func expectNothing(t *testing.T, c *Client) {
	t.Helper()
	select {
	case <-c.send:
		t.Fatalf("client in %s should not receive message", c.room)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubRegistration(t *testing.T) {
	hub := startHub(t)
	client := mockClient(hub, UserRoom("u1"))

	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	if got := hub.ClientCount(UserRoom("u1")); got != 1 {
		t.Fatalf("expected 1 client, got %d", got)
	}
}

func TestHubCleanupEmptyRoom(t *testing.T) {
	hub := startHub(t)
	room := UserRoom("u1")
	client1 := mockClient(hub, room)
	client2 := mockClient(hub, room)

	hub.register <- client1
	hub.register <- client2
	time.Sleep(10 * time.Millisecond)
	if got := hub.ClientCount(room); got != 2 {
		t.Fatalf("expected 2 clients, got %d", got)
	}

	hub.unregister <- client1
	time.Sleep(10 * time.Millisecond)
	if got := hub.ClientCount(room); got != 1 {
		t.Fatalf("expected 1 client after first unregister, got %d", got)
	}

	hub.unregister <- client2
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()
	if hub.rooms[room] != nil {
		t.Fatal("room should be deleted when last client unregisters")
	}
}

func TestPublishRoutesToStudentAndAdmins(t *testing.T) {
	hub := startHub(t)
	owner := mockClient(hub, UserRoom("u1"))
	other := mockClient(hub, UserRoom("u2"))
	admin := mockClient(hub, AdminRoom)

	hub.register <- owner
	hub.register <- other
	hub.register <- admin
	time.Sleep(10 * time.Millisecond)

	err := hub.Publish(context.Background(), events.Event{
		Type:      enum.EventOrderStatusChanged,
		OrderID:   "o1",
		StudentID: "u1",
		Order:     model.Order{ID: "o1", OrderStatus: enum.OrderStatusReady},
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	got := expectEvent(t, owner, enum.EventOrderStatusChanged)
	if got.Order.OrderStatus != enum.OrderStatusReady {
		t.Errorf("expected ready, got %s", got.Order.OrderStatus)
	}
	expectEvent(t, admin, enum.EventOrderStatusChanged)
	expectNothing(t, other)
}

func TestBroadcastToMultipleClientsInSameRoom(t *testing.T) {
	hub := startHub(t)
	clients := []*Client{
		mockClient(hub, AdminRoom),
		mockClient(hub, AdminRoom),
		mockClient(hub, AdminRoom),
	}
	for _, c := range clients {
		hub.register <- c
	}
	time.Sleep(10 * time.Millisecond)

	if err := hub.Publish(context.Background(), events.Event{Type: enum.EventOrderPlaced}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	for _, c := range clients {
		expectEvent(t, c, enum.EventOrderPlaced)
	}
}

func TestBroadcastToEmptyRoom(t *testing.T) {
	hub := startHub(t)
	client := mockClient(hub, UserRoom("u1"))
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	if err := hub.Broadcast(context.Background(), UserRoom("nobody"), []byte(`{}`)); err != nil {
		t.Fatalf("broadcast: %v", err)
	}
	expectNothing(t, client)
}

func TestRunClosesClientsOnShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	go hub.Run(ctx)

	client := mockClient(hub, AdminRoom)
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	cancel()
	select {
	case _, ok := <-client.send:
		if ok {
			t.Fatal("expected closed send channel")
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("send channel not closed on shutdown")
	}

	select {
	case <-hub.done:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("hub did not stop")
	}
	hub.leave(client)
}
