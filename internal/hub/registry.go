package hub

import (
	"log/slog"
	"sync"
)

// Registry is the single source of truth for which users are reachable
// right now. It maps a user ID to at most one live session; all access
// goes through the methods below, which never block beyond the mutex.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	logger *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		logger:   logger.With(slog.String("component", "registry")),
	}
}

// Register inserts the session, superseding any previous one for the
// same user (last writer wins). The superseded session, if any, is
// returned so the caller can close its transport; it is marked
// disconnected here so its later teardown cannot disturb the new entry.
func (r *Registry) Register(sess *Session) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.sessions[sess.UserID]
	if prev != nil {
		prev.connected.Store(false)
		r.logger.Debug("session superseded", slog.String("userID", sess.UserID))
	}
	r.sessions[sess.UserID] = sess
	r.logger.Debug("session registered", slog.String("userID", sess.UserID))
	return prev
}

// Lookup returns the live session for a user, if any.
func (r *Registry) Lookup(userID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[userID]
	return sess, ok
}

// Remove deletes the entry for the departing session. Idempotent, and
// a no-op when the map holds a newer session for the same user, so a
// superseded connection's teardown cannot evict its replacement.
// It reports whether an entry was actually removed.
func (r *Registry) Remove(sess *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.sessions[sess.UserID]
	if !ok || current != sess {
		return false
	}
	delete(r.sessions, sess.UserID)
	sess.connected.Store(false)
	r.logger.Debug("session removed", slog.String("userID", sess.UserID))
	return true
}

// Len reports how many users are currently reachable.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// All returns a snapshot of the live sessions, for shutdown sweeps.
func (r *Registry) All() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}
