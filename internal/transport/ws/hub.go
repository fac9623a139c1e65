package ws

import (
	"encoding/json"
	"sync"

	"emberhollow.gg/internal/protocol"
)

// Hub fans town snapshots out to the websocket sessions of one user.
// Slow sessions are dropped rather than allowed to block a publish.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[chan []byte]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: map[string]map[chan []byte]struct{}{}}
}

type snapshotMsg struct {
	Type     string             `json:"type"`
	Snapshot *protocol.Snapshot `json:"snapshot"`
}

// Publish sends the snapshot to every live session of userID. Sessions
// whose send buffer is full miss this update; they resynchronize from
// the next one.
func (h *Hub) Publish(userID string, snap *protocol.Snapshot) {
	b, err := json.Marshal(snapshotMsg{Type: "snapshot", Snapshot: snap})
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[userID] {
		select {
		case ch <- b:
		default:
		}
	}
}

func (h *Hub) subscribe(userID string, buf int) chan []byte {
	ch := make(chan []byte, buf)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[userID] == nil {
		h.subs[userID] = map[chan []byte]struct{}{}
	}
	h.subs[userID][ch] = struct{}{}
	return ch
}

func (h *Hub) unsubscribe(userID string, ch chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs[userID], ch)
	if len(h.subs[userID]) == 0 {
		delete(h.subs, userID)
	}
}

// Sessions reports the number of open websocket sessions.
func (h *Hub) Sessions() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, set := range h.subs {
		n += len(set)
	}
	return n
}
