package ws

import (
	"encoding/json"
	"sort"
	"sync"
	"time"
)

// Entry is one member's liveness record in a trip's presence room.
// LastActiveAt is unix milliseconds, refreshed by heartbeats.
type Entry struct {
	UserID       uint   `json:"user_id"`
	DisplayName  string `json:"display_name"`
	AvatarURL    string `json:"avatar_url,omitempty"`
	LastActiveAt int64  `json:"last_active_at"`
}

// tripRoom holds the live connections and presence entries for one trip.
// One user may hold several connections (tabs); a single entry represents
// them all and last write wins.
type tripRoom struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	entries map[uint]Entry
}

func newTripRoom() *tripRoom {
	return &tripRoom{
		clients: make(map[*Client]struct{}),
		entries: make(map[uint]Entry),
	}
}

// broadcast sends under the read lock so a concurrent Leave cannot close a
// channel mid-send; sends never block (slow clients drop frames).
func (r *tripRoom) broadcast(data []byte) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for c := range r.clients {
		select {
		case c.Send <- data:
		default:
		}
	}
}

// PresenceHub is the ephemeral presence registry: per-trip rooms, heartbeat
// refreshed entries, TTL-based soft deletion on the read path. Nothing here
// touches the database.
type PresenceHub struct {
	mu    sync.RWMutex
	rooms map[uint]*tripRoom
	ttl   time.Duration
	now   func() time.Time
}

func NewPresenceHub(ttl time.Duration) *PresenceHub {
	return &PresenceHub{
		rooms: make(map[uint]*tripRoom),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (h *PresenceHub) room(tripID uint) *tripRoom {
	h.mu.RLock()
	r := h.rooms[tripID]
	h.mu.RUnlock()
	return r
}

func (h *PresenceHub) getOrCreateRoom(tripID uint) *tripRoom {
	h.mu.Lock()
	defer h.mu.Unlock()
	if r, ok := h.rooms[tripID]; ok {
		return r
	}
	r := newTripRoom()
	h.rooms[tripID] = r
	return r
}

// Join registers the client, records (or overwrites) the user's entry and
// broadcasts the full fresh member list to the room.
func (h *PresenceHub) Join(c *Client, displayName, avatarURL string) {
	c.hub = h
	r := h.getOrCreateRoom(c.TripID)
	now := h.now()
	r.mu.Lock()
	r.clients[c] = struct{}{}
	r.entries[c.UserID] = Entry{
		UserID:       c.UserID,
		DisplayName:  displayName,
		AvatarURL:    avatarURL,
		LastActiveAt: now.UnixMilli(),
	}
	r.mu.Unlock()
	h.broadcastSync(c.TripID)
}

// Heartbeat refreshes the user's LastActiveAt. Unknown users are ignored
// (their socket already left).
func (h *PresenceHub) Heartbeat(tripID, userID uint) {
	r := h.room(tripID)
	if r == nil {
		return
	}
	r.mu.Lock()
	if e, ok := r.entries[userID]; ok {
		e.LastActiveAt = h.now().UnixMilli()
		r.entries[userID] = e
	}
	r.mu.Unlock()
}

// Leave drops the connection; when it was the user's last one the entry is
// removed and a leave event broadcast. Empty rooms are deleted.
func (h *PresenceHub) Leave(c *Client) {
	r := h.room(c.TripID)
	if r == nil {
		return
	}
	r.mu.Lock()
	delete(r.clients, c)
	last := true
	for other := range r.clients {
		if other.UserID == c.UserID {
			last = false
			break
		}
	}
	if last {
		delete(r.entries, c.UserID)
	}
	empty := len(r.clients) == 0
	r.mu.Unlock()

	if last && !empty {
		data, _ := json.Marshal(map[string]interface{}{"type": "leave", "user_id": c.UserID})
		r.broadcast(data)
	}
	if empty {
		h.mu.Lock()
		if h.rooms[c.TripID] == r {
			delete(h.rooms, c.TripID)
		}
		h.mu.Unlock()
	}
}

// ActiveEntries returns the trip's presence list with stale entries filtered
// out (now - lastActiveAt >= TTL). Entries are never deleted here; expiry is
// purely a read-side computation. Sorted by user id for a stable wire order.
func (h *PresenceHub) ActiveEntries(tripID uint) []Entry {
	r := h.room(tripID)
	if r == nil {
		return nil
	}
	cutoff := h.now().Add(-h.ttl).UnixMilli()
	r.mu.RLock()
	list := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		if e.LastActiveAt > cutoff {
			list = append(list, e)
		}
	}
	r.mu.RUnlock()
	sort.Slice(list, func(i, j int) bool { return list[i].UserID < list[j].UserID })
	return list
}

// BroadcastToTrip fans any payload out to the trip's room (focus events ride
// the presence channel). No-op when nobody is connected.
func (h *PresenceHub) BroadcastToTrip(tripID uint, payload interface{}) {
	r := h.room(tripID)
	if r == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	r.broadcast(data)
}

func (h *PresenceHub) broadcastSync(tripID uint) {
	r := h.room(tripID)
	if r == nil {
		return
	}
	data, _ := json.Marshal(map[string]interface{}{
		"type":    "sync",
		"members": h.ActiveEntries(tripID),
	})
	r.broadcast(data)
}
