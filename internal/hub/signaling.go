package hub

import (
	"encoding/json"
	"log/slog"
)

// Signaling error strings sent back on the initiating connection.
const (
	errRecipientUnavailable = "Recipient not available"
	errCallerUnavailable    = "Caller no longer available"
	errInvalidCallPayload   = "Invalid call payload"
)

// Signaler routes WebRTC negotiation events between two sessions. It
// keeps no per-call state: every event is resolved against the registry
// at the moment it arrives, and the SDP/ICE payloads are forwarded
// byte-for-byte.
type Signaler struct {
	registry *Registry
	logger   *slog.Logger
}

func NewSignaler(registry *Registry, logger *slog.Logger) *Signaler {
	return &Signaler{
		registry: registry,
		logger:   logger.With(slog.String("component", "signaling")),
	}
}

// Offer starts a call attempt. An unreachable callee terminates the
// attempt with an error on the caller's connection only.
func (s *Signaler) Offer(caller *Session, raw json.RawMessage) {
	var in CallOfferIn
	if err := json.Unmarshal(raw, &in); err != nil || in.CalleeID == "" || len(in.Offer) == 0 {
		caller.Handle.Send(encode(EventCallError, errInvalidCallPayload))
		return
	}

	callee, ok := s.registry.Lookup(in.CalleeID)
	if !ok {
		caller.Handle.Send(encode(EventCallError, errRecipientUnavailable))
		return
	}
	callee.Handle.Send(encode(EventCallOffer, CallOfferOut{CallerID: caller.UserID, Offer: in.Offer}))
	s.logger.Debug("call offer forwarded",
		slog.String("callerID", caller.UserID),
		slog.String("calleeID", in.CalleeID),
	)
}

// Answer completes the handshake back to the caller.
func (s *Signaler) Answer(callee *Session, raw json.RawMessage) {
	var in CallAnswerIn
	if err := json.Unmarshal(raw, &in); err != nil || in.CallerID == "" || len(in.Answer) == 0 {
		callee.Handle.Send(encode(EventCallError, errInvalidCallPayload))
		return
	}

	caller, ok := s.registry.Lookup(in.CallerID)
	if !ok {
		callee.Handle.Send(encode(EventCallError, errCallerUnavailable))
		return
	}
	caller.Handle.Send(encode(EventCallAnswer, CallAnswerOut{CalleeID: callee.UserID, Answer: in.Answer}))
	s.logger.Debug("call answer forwarded",
		slog.String("calleeID", callee.UserID),
		slog.String("callerID", in.CallerID),
	)
}

// Candidate trickles an ICE candidate to the other side. Best-effort:
// an absent target drops the candidate silently.
func (s *Signaler) Candidate(sender *Session, raw json.RawMessage) {
	var in ICECandidateIn
	if err := json.Unmarshal(raw, &in); err != nil || in.TargetUserID == "" || len(in.Candidate) == 0 {
		sender.Handle.Send(encode(EventCallError, errInvalidCallPayload))
		return
	}

	target, ok := s.registry.Lookup(in.TargetUserID)
	if !ok {
		return
	}
	target.Handle.Send(encode(EventICECandidate, ICECandidateOut{SenderID: sender.UserID, Candidate: in.Candidate}))
}

// Reject tells the caller their offer was declined. No error if the
// caller already went away.
func (s *Signaler) Reject(callee *Session, raw json.RawMessage) {
	var callerID string
	if err := json.Unmarshal(raw, &callerID); err != nil || callerID == "" {
		callee.Handle.Send(encode(EventCallError, errInvalidCallPayload))
		return
	}

	caller, ok := s.registry.Lookup(callerID)
	if !ok {
		return
	}
	caller.Handle.Send(encode(EventCallRejected, CallRejectedOut{CalleeID: callee.UserID}))
	s.logger.Debug("call rejected",
		slog.String("calleeID", callee.UserID),
		slog.String("callerID", callerID),
	)
}

// End forwards a hangup to the other participant, if still reachable.
func (s *Signaler) End(sender *Session, raw json.RawMessage) {
	var targetUserID string
	if err := json.Unmarshal(raw, &targetUserID); err != nil || targetUserID == "" {
		sender.Handle.Send(encode(EventCallError, errInvalidCallPayload))
		return
	}

	target, ok := s.registry.Lookup(targetUserID)
	if !ok {
		return
	}
	target.Handle.Send(encode(EventCallEnded, CallEndedOut{UserID: sender.UserID}))
	s.logger.Debug("call ended",
		slog.String("senderID", sender.UserID),
		slog.String("targetID", targetUserID),
	)
}
