package ws

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"carburapp/internal/models"
)

// conn wraps a websocket connection with a write lock, since gorilla permits
// only one concurrent writer.
type conn struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func (c *conn) writeJSON(v interface{}, timeout time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(timeout))
	return c.ws.WriteJSON(v)
}

func (c *conn) ping(timeout time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(timeout))
}

// Hub fans accepted price events out to every subscribed client.
type Hub struct {
	mu           sync.RWMutex
	conns        map[*conn]struct{}
	pingInterval time.Duration
	writeTimeout time.Duration
}

// NewHub builds the broadcast hub.
func NewHub(pingInterval, writeTimeout time.Duration) *Hub {
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}
	return &Hub{
		conns:        make(map[*conn]struct{}),
		pingInterval: pingInterval,
		writeTimeout: writeTimeout,
	}
}

func (h *Hub) add(c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c] = struct{}{}
}

func (h *Hub) remove(c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, c)
	_ = c.ws.Close()
}

// Subscribers returns the current connection count.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Publish sends the event to all subscribers, dropping connections that fail.
func (h *Hub) Publish(event models.PriceEvent) {
	h.mu.RLock()
	targets := make([]*conn, 0, len(h.conns))
	for c := range h.conns {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if err := c.writeJSON(event, h.writeTimeout); err != nil {
			h.remove(c)
		}
	}
}

// Start begins the ping loop keeping idle connections alive.
func (h *Hub) Start(ctx context.Context) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.mu.RLock()
			targets := make([]*conn, 0, len(h.conns))
			for c := range h.conns {
				targets = append(targets, c)
			}
			h.mu.RUnlock()
			for _, c := range targets {
				if err := c.ping(h.writeTimeout); err != nil {
					h.remove(c)
				}
			}
		}
	}
}
