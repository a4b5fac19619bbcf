package hub

import "log/slog"

// Notifier pushes presence changes to the subject's friends. Fan-out is
// bounded by the friend snapshot, never by the whole registry.
type Notifier struct {
	registry *Registry
	logger   *slog.Logger
}

func NewNotifier(registry *Registry, logger *slog.Logger) *Notifier {
	return &Notifier{
		registry: registry,
		logger:   logger.With(slog.String("component", "presence")),
	}
}

func (n *Notifier) OnConnect(sess *Session) {
	n.notify(sess, true)
}

func (n *Notifier) OnDisconnect(sess *Session) {
	n.notify(sess, false)
}

func (n *Notifier) notify(sess *Session, online bool) {
	frame := encode(EventPresenceUpdate, PresenceEvent{UserID: sess.UserID, IsOnline: online})
	sent := 0
	for _, friendID := range sess.Friends {
		friend, ok := n.registry.Lookup(friendID)
		if !ok {
			continue
		}
		friend.Handle.Send(frame)
		sent++
	}
	n.logger.Debug("presence fan-out",
		slog.String("userID", sess.UserID),
		slog.Bool("online", online),
		slog.Int("notified", sent),
	)
}

// CheckPresence answers an on-demand liveness question straight from
// the registry.
func (n *Notifier) CheckPresence(targetUserID string) bool {
	_, ok := n.registry.Lookup(targetUserID)
	return ok
}
