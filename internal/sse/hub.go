// Package sse fans reply events out to the open streams of each access code.
package sse

import (
	"context"
	"sync"

	"worry_solver/internal/model"
)

// Client listens for replies to one access code. The hub closes Ch when it
// stops, which ends the stream.
type Client struct {
	AccessCode string
	Ch         chan model.ReplyEvent
}

type Hub struct {
	register   chan *Client
	unregister chan *Client
	broadcast  chan model.ReplyEvent
	done       chan struct{}
	codes      map[string]map[*Client]struct{}
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan model.ReplyEvent, 64),
		done:       make(chan struct{}),
		codes:      make(map[string]map[*Client]struct{}),
	}
}

// Register reports false once the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast never blocks the caller: when the queue is full or the hub has
// stopped the event is dropped and Broadcast reports false. Listeners that
// reconnect get the reply through the replay of stored replies.
func (h *Hub) Broadcast(event model.ReplyEvent) bool {
	select {
	case <-h.done:
		return false
	default:
	}
	select {
	case h.broadcast <- event:
		return true
	default:
		return false
	}
}

func (h *Hub) Listeners() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, clients := range h.codes {
		n += len(clients)
	}
	return n
}

func (h *Hub) Run(ctx context.Context) {
	defer h.stop()
	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case event := <-h.broadcast:
			h.deliver(event)
		}
	}
}

func (h *Hub) stop() {
	close(h.done)
	h.mu.Lock()
	defer h.mu.Unlock()
	for code, clients := range h.codes {
		for client := range clients {
			close(client.Ch)
		}
		delete(h.codes, code)
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.codes[client.AccessCode] == nil {
		h.codes[client.AccessCode] = make(map[*Client]struct{})
	}
	h.codes[client.AccessCode][client] = struct{}{}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients := h.codes[client.AccessCode]
	if clients == nil {
		return
	}
	delete(clients, client)
	if len(clients) == 0 {
		delete(h.codes, client.AccessCode)
	}
}

func (h *Hub) deliver(event model.ReplyEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.codes[event.AccessCode] {
		select {
		case client.Ch <- event:
		default:
			// Slow stream; it catches up from the stored replies on reconnect.
		}
	}
}
