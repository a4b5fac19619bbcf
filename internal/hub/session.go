package hub

import (
	"sync/atomic"
	"time"
)

// Handle is an opaque reference to a live transport: enough to push a
// frame to a peer or force the connection shut, with no knowledge of
// the transport underneath.
type Handle interface {
	Send(msg []byte)
	Close(err error)
}

// Session is the hub's view of one live connection. It is built once,
// fully populated, at handshake time; only the lifecycle flag changes
// afterwards.
type Session struct {
	UserID string
	Handle Handle
	// Friends is the friend snapshot resolved at connect time. Presence
	// fan-out is scoped to it; it is never re-fetched per event.
	Friends     []string
	ConnectedAt time.Time

	connected atomic.Bool
}

func NewSession(userID string, handle Handle, friends []string) *Session {
	s := &Session{
		UserID:      userID,
		Handle:      handle,
		Friends:     friends,
		ConnectedAt: time.Now(),
	}
	s.connected.Store(true)
	return s
}

// Connected reports whether the session is still live in the registry.
func (s *Session) Connected() bool {
	return s.connected.Load()
}
