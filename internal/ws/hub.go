package ws

import (
	"sync"
)

// Client is a single WebSocket connection scoped to one trip's presence room.
type Client struct {
	UserID uint
	TripID uint
	Send   chan []byte

	hub    *PresenceHub
	mu     sync.Mutex
	closed bool
}

// Close unregisters the client from its room, then closes the send channel.
// Safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()
	if c.hub != nil {
		c.hub.Leave(c)
	}
	close(c.Send)
}
