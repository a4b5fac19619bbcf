package hub

import (
	"log/slog"
	"time"
)

// DeliveryOutcome is the resolved fate of a relayed message. The echo
// carries it in the status field so the sender can tell a delivered
// message from one whose receiver was offline.
type DeliveryOutcome string

const (
	// Delivered means the receiver had a live session and the message
	// was pushed to it.
	Delivered DeliveryOutcome = "delivered"
	// SenderOnly means the receiver was unreachable; only the echo was
	// sent. The message is not queued.
	SenderOnly DeliveryOutcome = "sent"
)

// Relay forwards private messages between two live sessions.
type Relay struct {
	registry *Registry
	logger   *slog.Logger
	now      func() time.Time
}

func NewRelay(registry *Registry, logger *slog.Logger) *Relay {
	return &Relay{
		registry: registry,
		logger:   logger.With(slog.String("component", "relay")),
		now:      time.Now,
	}
}

// Relay pushes the message to the receiver if reachable and always
// echoes the final message, server timestamp and outcome included,
// back to the sender.
func (r *Relay) Relay(sender *Session, in PrivateMessageIn) DeliveryOutcome {
	createdAt := in.CreatedAt
	if createdAt == "" {
		createdAt = r.now().UTC().Format(time.RFC3339)
	}

	out := PrivateMessageOut{
		Content:    in.Content,
		SenderID:   sender.UserID,
		ReceiverID: in.ReceiverID,
		CreatedAt:  createdAt,
	}

	outcome := SenderOnly
	if receiver, ok := r.registry.Lookup(in.ReceiverID); ok {
		outcome = Delivered
		out.Status = string(outcome)
		receiver.Handle.Send(encode(EventPrivateMessage, out))
	} else {
		out.Status = string(outcome)
	}

	sender.Handle.Send(encode(EventPrivateMessage, out))
	r.logger.Debug("message relayed",
		slog.String("senderID", sender.UserID),
		slog.String("receiverID", in.ReceiverID),
		slog.String("outcome", string(outcome)),
	)
	return outcome
}
