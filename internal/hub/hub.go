// Package hub is the real-time core: it tracks which users are
// reachable, fans presence out to their friends, and relays chat and
// call-signaling frames between exactly two live connections. Nothing
// here persists anything.
package hub

import (
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/tidwall/gjson"
)

const errInvalidMessage = "Invalid message format"

type handlerFunc func(sess *Session, payload json.RawMessage)

// Hub owns the registry and dispatches inbound frames by event tag.
// The dispatch table is fixed at construction, one entry per event the
// protocol knows.
type Hub struct {
	registry *Registry
	presence *Notifier
	relay    *Relay
	signaler *Signaler

	handlers map[string]handlerFunc
	logger   *slog.Logger
}

func New(logger *slog.Logger) *Hub {
	registry := NewRegistry(logger)
	h := &Hub{
		registry: registry,
		presence: NewNotifier(registry, logger),
		relay:    NewRelay(registry, logger),
		signaler: NewSignaler(registry, logger),
		logger:   logger.With(slog.String("component", "hub")),
	}
	h.handlers = map[string]handlerFunc{
		EventPrivateMessage: h.handlePrivateMessage,
		EventCheckPresence:  h.handleCheckPresence,
		EventCallOffer:      h.signaler.Offer,
		EventCallAnswer:     h.signaler.Answer,
		EventICECandidate:   h.signaler.Candidate,
		EventCallReject:     h.signaler.Reject,
		EventCallEnd:        h.signaler.End,
	}
	return h
}

func (h *Hub) Registry() *Registry {
	return h.registry
}

// Connect admits an authenticated session: it takes the registry slot
// (closing any superseded transport for the same user), acks the
// handshake, and tells the user's online friends they arrived.
func (h *Hub) Connect(sess *Session) {
	if superseded := h.registry.Register(sess); superseded != nil {
		h.logger.Info("closing superseded connection",
			slog.String("userID", sess.UserID),
			slog.Time("supersededAt", superseded.ConnectedAt),
		)
		superseded.Handle.Close(errors.New("superseded by a new connection"))
	}

	sess.Handle.Send(encode(EventConnectionStatus, ConnectionStatus{
		Status:  "connected",
		Message: "WebSocket connection established",
	}))
	h.presence.OnConnect(sess)
	h.logger.Info("user connected", slog.String("userID", sess.UserID))
}

// Disconnect runs the departure path: remove from the registry, then
// notify friends. Safe to invoke more than once for the same session,
// and a no-op for a session that was superseded (its user is still
// online through the replacement).
func (h *Hub) Disconnect(sess *Session) {
	if !h.registry.Remove(sess) {
		return
	}
	h.presence.OnDisconnect(sess)
	h.logger.Info("user disconnected", slog.String("userID", sess.UserID))
}

// HandleMessage dispatches one inbound frame. Per-connection ordering
// is the transport's: this is called from the connection's read loop.
// A failure here only ever affects the offending connection.
func (h *Hub) HandleMessage(sess *Session, raw []byte) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("handler panic",
				slog.String("userID", sess.UserID),
				slog.Any("panic", r),
			)
		}
	}()

	if !gjson.ValidBytes(raw) {
		sess.Handle.Send(encode(EventMessageError, errInvalidMessage))
		return
	}
	event := gjson.GetBytes(raw, "event").String()
	handler, ok := h.handlers[event]
	if !ok {
		h.logger.Warn("unknown event", slog.String("event", event), slog.String("userID", sess.UserID))
		sess.Handle.Send(encode(EventMessageError, errInvalidMessage))
		return
	}

	payload := json.RawMessage(gjson.GetBytes(raw, "payload").Raw)
	handler(sess, payload)
}

func (h *Hub) handlePrivateMessage(sess *Session, payload json.RawMessage) {
	var in PrivateMessageIn
	if err := json.Unmarshal(payload, &in); err != nil || in.Content == "" || in.ReceiverID == "" {
		sess.Handle.Send(encode(EventMessageError, errInvalidMessage))
		return
	}
	h.relay.Relay(sess, in)
}

func (h *Hub) handleCheckPresence(sess *Session, payload json.RawMessage) {
	var in PresenceQuery
	if err := json.Unmarshal(payload, &in); err != nil || in.UserID == "" {
		sess.Handle.Send(encode(EventMessageError, errInvalidMessage))
		return
	}
	online := h.presence.CheckPresence(in.UserID)
	sess.Handle.Send(encode(EventCheckPresence, PresenceEvent{UserID: in.UserID, IsOnline: online}))
}
