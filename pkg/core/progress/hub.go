package progress

import (
	"sync"
	"time"
)

// DefaultHeartbeat is the recommended wall-clock heartbeat interval.
const DefaultHeartbeat = 30 * time.Second

// Hub indexes the broadcasters of in-flight (and recently finished)
// simulations by id, so SSE attachments and snapshot polls can find them.
type Hub struct {
	mu        sync.RWMutex
	sims      map[string]*Broadcaster
	heartbeat time.Duration
}

// NewHub creates a hub whose broadcasters heartbeat at the given
// interval (zero disables heartbeats).
func NewHub(heartbeat time.Duration) *Hub {
	return &Hub{
		sims:      make(map[string]*Broadcaster),
		heartbeat: heartbeat,
	}
}

// Create registers a new broadcaster for a simulation id, replacing any
// previous one under the same id.
func (h *Hub) Create(simID string) *Broadcaster {
	b := NewBroadcaster(simID, h.heartbeat)
	h.mu.Lock()
	h.sims[simID] = b
	h.mu.Unlock()
	return b
}

// Get looks up the broadcaster of a simulation.
func (h *Hub) Get(simID string) (*Broadcaster, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	b, ok := h.sims[simID]
	return b, ok
}

// Remove drops a broadcaster from the index. Finished broadcasters are
// kept around until removed so late pollers can still read the terminal
// snapshot.
func (h *Hub) Remove(simID string) {
	h.mu.Lock()
	delete(h.sims, simID)
	h.mu.Unlock()
}
