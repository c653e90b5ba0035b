package realtime

import (
	"sync"
)

// Session is a live handle able to receive outbound payloads. *Connection
// is the websocket implementation; tests substitute their own.
type Session interface {
	SessionID() string
	Send(payload []byte) error
}

// SessionID identifies this connection among a user's live handles.
func (c *Connection) SessionID() string { return c.ID }

// Registry is the sole authority for "is this user online". It maps a user
// identity to the set of currently live sessions and is the drop-in point
// for a future broker-backed implementation.
type Registry interface {
	// Register adds the session to the user's set. The first session for a
	// user transitions them offline -> online.
	Register(userID string, s Session)

	// Unregister removes the session. Removing the last one deletes the
	// user entry entirely (online -> offline).
	Unregister(userID string, s Session)

	// IsOnline reports whether the user has at least one live session.
	IsOnline(userID string) bool

	// SessionsOf returns a snapshot of the user's live sessions.
	SessionsOf(userID string) []Session

	// Broadcast sends payload to every live session of the user and
	// returns how many accepted it.
	Broadcast(userID string, payload []byte) int
}

// MemoryRegistry is the in-process Registry. It holds state for a single
// relay instance only; presence does not survive a restart and is not
// shared across nodes.
type MemoryRegistry struct {
	mu       sync.RWMutex
	sessions map[string]map[string]Session // userID -> sessionID -> session
}

// NewMemoryRegistry constructs an empty registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{sessions: make(map[string]map[string]Session)}
}

var _ Registry = (*MemoryRegistry)(nil)

func (r *MemoryRegistry) Register(userID string, s Session) {
	if userID == "" || s == nil {
		return
	}
	r.mu.Lock()
	set := r.sessions[userID]
	if set == nil {
		set = make(map[string]Session)
		r.sessions[userID] = set
	}
	set[s.SessionID()] = s
	r.mu.Unlock()
}

func (r *MemoryRegistry) Unregister(userID string, s Session) {
	if userID == "" || s == nil {
		return
	}
	r.mu.Lock()
	if set, ok := r.sessions[userID]; ok {
		delete(set, s.SessionID())
		if len(set) == 0 {
			delete(r.sessions, userID)
		}
	}
	r.mu.Unlock()
}

func (r *MemoryRegistry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions[userID]) > 0
}

func (r *MemoryRegistry) SessionsOf(userID string) []Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := r.sessions[userID]
	if len(set) == 0 {
		return nil
	}
	out := make([]Session, 0, len(set))
	for _, s := range set {
		out = append(out, s)
	}
	return out
}

func (r *MemoryRegistry) Broadcast(userID string, payload []byte) int {
	delivered := 0
	for _, s := range r.SessionsOf(userID) {
		if err := s.Send(payload); err == nil {
			delivered++
		}
	}
	return delivered
}

// CloseAll terminates every tracked websocket connection. Used on shutdown;
// sessions that are not *Connection are simply dropped from the map.
func (r *MemoryRegistry) CloseAll(code int, reason string) {
	r.mu.Lock()
	var conns []*Connection
	for _, set := range r.sessions {
		for _, s := range set {
			if c, ok := s.(*Connection); ok {
				conns = append(conns, c)
			}
		}
	}
	r.sessions = make(map[string]map[string]Session)
	r.mu.Unlock()

	for _, c := range conns {
		c.Close(code, reason)
	}
}
