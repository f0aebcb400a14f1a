package ws

import (
	"sync"
)

// Hub binds account ids to live connections. A second login kicks the
// stale connection. Implements the Notifier ports of the movement
// dispatcher and the city ticker.
type Hub struct {
	mu       sync.RWMutex
	byID     map[string]*Conn
	byConn   map[*Conn]string
	watching map[*Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{
		byID:     make(map[string]*Conn),
		byConn:   make(map[*Conn]string),
		watching: make(map[*Conn]struct{}),
	}
}

func (h *Hub) Bind(accountID string, conn *Conn) {
	if conn == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	// One watcher per conn: unbind automatically when the peer goes away.
	if _, ok := h.watching[conn]; !ok {
		h.watching[conn] = struct{}{}
		go func() {
			<-conn.Done()
			h.Unbind(conn)
		}()
	}

	if old := h.byID[accountID]; old != nil && old != conn {
		old.Push("session.replaced", nil)
		old.Close()
	}
	h.byID[accountID] = conn
	h.byConn[conn] = accountID
}

func (h *Hub) Unbind(conn *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.byConn[conn]
	delete(h.watching, conn)
	delete(h.byConn, conn)
	if h.byID[id] == conn {
		delete(h.byID, id)
	}
}

func (h *Hub) AccountOf(conn *Conn) (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	id, ok := h.byConn[conn]
	return id, ok
}

// Push delivers an event to the account's live connection, if any.
// Offline players simply miss it; reports stay the durable channel.
func (h *Hub) Push(accountID, event string, payload any) {
	h.mu.RLock()
	conn := h.byID[accountID]
	h.mu.RUnlock()
	if conn != nil {
		conn.Push(event, payload)
	}
}
