package relay

import "sync"

// Conn is the server-side handle to one live client connection. The registry
// and router only ever push events through it; ownership stays with the
// transport layer.
type Conn interface {
	ID() string
	Emit(event string, payload any) error
}

// Registry maps a logical user id to its active connection. One entry per
// user: binding again replaces the previous connection (last login wins).
type Registry struct {
	mu    sync.RWMutex
	conns map[string]Conn
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]Conn)}
}

func (r *Registry) Bind(userID string, c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[userID] = c
}

func (r *Registry) Resolve(userID string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[userID]
	return c, ok
}

// ResolveMany resolves each id in input order. Unbound ids yield a nil entry
// rather than being omitted, so callers can skip offline targets positionally.
func (r *Registry) ResolveMany(userIDs []string) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conns := make([]Conn, len(userIDs))
	for i, id := range userIDs {
		conns[i] = r.conns[id]
	}
	return conns
}

// Unbind removes the user's entry. Idempotent.
func (r *Registry) Unbind(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, userID)
}
