package ws

import (
	"encoding/json"
	"testing"

	"emberhollow.gg/internal/protocol"
)

func TestHubPublishReachesOnlyUserSessions(t *testing.T) {
	h := NewHub()
	a := h.subscribe("user-a", 2)
	b := h.subscribe("user-b", 2)
	defer h.unsubscribe("user-a", a)
	defer h.unsubscribe("user-b", b)

	h.Publish("user-a", &protocol.Snapshot{TownID: "town-000001", Version: 3})

	select {
	case raw := <-a:
		var msg snapshotMsg
		if err := json.Unmarshal(raw, &msg); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if msg.Type != "snapshot" || msg.Snapshot.Version != 3 {
			t.Fatalf("message %+v", msg)
		}
	default:
		t.Fatal("user-a session missed the publish")
	}
	select {
	case <-b:
		t.Fatal("user-b received another user's snapshot")
	default:
	}
}

func TestHubDropsWhenBufferFull(t *testing.T) {
	h := NewHub()
	ch := h.subscribe("user-slow", 1)
	defer h.unsubscribe("user-slow", ch)

	h.Publish("user-slow", &protocol.Snapshot{Version: 1})
	h.Publish("user-slow", &protocol.Snapshot{Version: 2})

	if got := len(ch); got != 1 {
		t.Fatalf("buffered %d messages, want 1", got)
	}
}

func TestHubSessionCount(t *testing.T) {
	h := NewHub()
	if h.Sessions() != 0 {
		t.Fatal("fresh hub should have no sessions")
	}
	a := h.subscribe("user-a", 1)
	b := h.subscribe("user-a", 1)
	if h.Sessions() != 2 {
		t.Fatalf("sessions = %d, want 2", h.Sessions())
	}
	h.unsubscribe("user-a", a)
	h.unsubscribe("user-a", b)
	if h.Sessions() != 0 {
		t.Fatalf("sessions = %d after unsubscribe, want 0", h.Sessions())
	}
}
