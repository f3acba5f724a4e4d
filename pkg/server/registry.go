package server

import (
	"net"
	"sort"
	"sync"
	"time"
)

// ConnInfo describes a live connection.
type ConnInfo struct {
	ID        string    `json:"id"`
	Remote    string    `json:"remote"`
	Connected time.Time `json:"connected"`
}

type liveConn struct {
	info ConnInfo
	conn net.Conn
}

// ConnRegistry tracks accepted connections so shutdown can close them.
// It only holds handles; per-connection protocol state lives in the
// connection goroutine.
type ConnRegistry struct {
	mu    sync.RWMutex
	conns map[string]liveConn
}

// NewConnRegistry creates an empty registry.
func NewConnRegistry() *ConnRegistry {
	return &ConnRegistry{conns: make(map[string]liveConn)}
}

// Add registers conn under id.
func (r *ConnRegistry) Add(id string, conn net.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[id] = liveConn{
		info: ConnInfo{ID: id, Remote: conn.RemoteAddr().String(), Connected: time.Now().UTC()},
		conn: conn,
	}
}

// Remove forgets a connection.
func (r *ConnRegistry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, id)
}

// Count returns the number of live connections.
func (r *ConnRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// All returns a snapshot of live connections, oldest first.
func (r *ConnRegistry) All() []ConnInfo {
	r.mu.RLock()
	out := make([]ConnInfo, 0, len(r.conns))
	for _, c := range r.conns {
		out = append(out, c.info)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		return out[i].Connected.Before(out[j].Connected)
	})
	return out
}

// CloseAll closes every registered connection. Connection goroutines notice
// the closed socket and unregister themselves.
func (r *ConnRegistry) CloseAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.conns {
		_ = c.conn.Close()
	}
}
