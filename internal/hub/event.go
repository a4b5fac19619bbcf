package hub

import (
	"encoding/json"
	"fmt"
)

// Event names shared with the client. Reject and end are asymmetric:
// the client emits call-reject/call-end and listens on
// call-rejected/call-ended.
const (
	EventConnectionStatus = "connection-status"
	EventPrivateMessage   = "private-message"
	EventMessageError     = "message-error"
	EventCheckPresence    = "check-presence"
	EventPresenceUpdate   = "presence-update"
	EventCallOffer        = "call-offer"
	EventCallAnswer       = "call-answer"
	EventICECandidate     = "ice-candidate"
	EventCallReject       = "call-reject"
	EventCallRejected     = "call-rejected"
	EventCallEnd          = "call-end"
	EventCallEnded        = "call-ended"
	EventCallError        = "call-error"
)

// Envelope is the wire frame in both directions: an event tag plus an
// event-specific payload.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// encode builds an outbound frame. Marshalling can only fail on
// payloads the hub itself constructed, so failure is a programming
// error and panics.
func encode(event string, payload any) []byte {
	raw, err := json.Marshal(payload)
	if err != nil {
		panic(fmt.Sprintf("unmarshallable %s payload: %v", event, err))
	}
	frame, err := json.Marshal(Envelope{Event: event, Payload: raw})
	if err != nil {
		panic(fmt.Sprintf("unmarshallable %s envelope: %v", event, err))
	}
	return frame
}

type ConnectionStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type PresenceEvent struct {
	UserID   string `json:"userId"`
	IsOnline bool   `json:"isOnline"`
}

type PresenceQuery struct {
	UserID string `json:"userId"`
}

// PrivateMessageIn is the client's chat frame. CreatedAt is optional;
// the relay stamps server time when it is absent.
type PrivateMessageIn struct {
	Content    string `json:"content"`
	ReceiverID string `json:"receiverId"`
	CreatedAt  string `json:"createdAt,omitempty"`
}

// PrivateMessageOut is what both the receiver and the echoing sender
// get back.
type PrivateMessageOut struct {
	Content    string `json:"content"`
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
	CreatedAt  string `json:"createdAt"`
	Status     string `json:"status"`
}

// Call signaling payloads. The session descriptions and candidates are
// opaque: they are forwarded byte-for-byte, never parsed.

type CallOfferIn struct {
	CalleeID string          `json:"calleeId"`
	Offer    json.RawMessage `json:"offer"`
}

type CallOfferOut struct {
	CallerID string          `json:"callerId"`
	Offer    json.RawMessage `json:"offer"`
}

type CallAnswerIn struct {
	CallerID string          `json:"callerId"`
	Answer   json.RawMessage `json:"answer"`
}

type CallAnswerOut struct {
	CalleeID string          `json:"calleeId"`
	Answer   json.RawMessage `json:"answer"`
}

type ICECandidateIn struct {
	TargetUserID string          `json:"targetUserId"`
	Candidate    json.RawMessage `json:"candidate"`
}

type ICECandidateOut struct {
	SenderID  string          `json:"senderId"`
	Candidate json.RawMessage `json:"candidate"`
}

type CallRejectedOut struct {
	CalleeID string `json:"calleeId"`
}

type CallEndedOut struct {
	UserID string `json:"userId"`
}
