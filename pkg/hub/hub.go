package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/teslashibe/go-emoscan/internal/log"
)

// Hub fans messages out to its clients. A viewer that falls behind loses
// its oldest queued messages rather than its connection; on a live feed
// only the newest frame matters.
type Hub struct {
	name string
	log  *slog.Logger

	mu      sync.RWMutex
	clients map[*Client]struct{}

	broadcast  chan Message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	dropped atomic.Uint64 // Messages discarded for slow clients
	skipped atomic.Uint64 // Broadcasts discarded before fan-out
}

// Stats is a snapshot of hub counters.
type Stats struct {
	Clients int    `json:"clients"`
	Dropped uint64 `json:"dropped"`
	Skipped uint64 `json:"skipped"`
}

// New creates a hub. name tags its log lines.
func New(name string) *Hub {
	return &Hub{
		name:       name,
		log:        log.Component("hub").With("feed", name),
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan Message, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run owns the client set until ctx is done, then disconnects everyone.
// Call it in its own goroutine.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			h.log.Info("viewer connected", "client", c.ID, "viewers", n)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			h.log.Info("viewer disconnected", "client", c.ID, "viewers", n)

		case msg := <-h.broadcast:
			h.mu.RLock()
			for c := range h.clients {
				if !c.offer(msg) {
					h.dropped.Add(1)
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
	h.log.Debug("feed closed", "dropped", h.dropped.Load(), "skipped", h.skipped.Load())
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Broadcast queues msg for every client without blocking. If the hub
// itself is backed up the message is skipped.
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		h.skipped.Add(1)
	}
}

// BroadcastJSON encodes v and broadcasts it as a text message.
func (h *Hub) BroadcastJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Broadcast(NewJSONMessage(data))
	return nil
}

// BroadcastBinary broadcasts an encoded frame.
func (h *Hub) BroadcastBinary(data []byte) {
	h.Broadcast(NewBinaryMessage(data))
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stats returns the hub counters.
func (h *Hub) Stats() Stats {
	return Stats{
		Clients: h.ClientCount(),
		Dropped: h.dropped.Load(),
		Skipped: h.skipped.Load(),
	}
}
