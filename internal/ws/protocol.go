package ws

import (
	"encoding/json"

	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/domain"
)

// Message types from client to gateway
const (
	TypeSubscribe   = "subscribe"
	TypeUnsubscribe = "unsubscribe"
)

// Message types from gateway to client
const (
	TypeSubscribed = "subscribed"
	TypeEvent      = "event"
	TypeDone       = "done"
	TypeError      = "error"
)

// Error codes
const (
	ErrorCodeInvalidMessage = "invalid_message"
	ErrorCodeSessionMissing = "session_required"
	ErrorCodeInternalError  = "internal_error"
	ErrorCodeStreamFailed   = "stream_failed"
)

// BaseMessage contains common fields for all messages.
type BaseMessage struct {
	Type      string `json:"type"`
	Ts        int64  `json:"ts"`
	RequestID string `json:"request_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	RunID     string `json:"run_id,omitempty"`
}

// SubscribeMessage asks to follow a stream session.
type SubscribeMessage struct {
	BaseMessage
}

// SubscribedMessage acknowledges a subscription with the current snapshot,
// if the session has run.
type SubscribedMessage struct {
	BaseMessage
	Snapshot *domain.StreamSnapshot `json:"snapshot,omitempty"`
}

// EventMessage carries one parsed stream event.
type EventMessage struct {
	BaseMessage
	Seq   int64           `json:"seq"`
	Event json.RawMessage `json:"event"`
}

// DoneMessage marks the end of a run.
type DoneMessage struct {
	BaseMessage
	Status domain.StreamStatus       `json:"status"`
	Error  string                    `json:"error,omitempty"`
	Agents map[domain.AgentID]string `json:"agents,omitempty"`
}

// ErrorMessage reports a protocol or stream error.
type ErrorMessage struct {
	BaseMessage
	Code    string `json:"code"`
	Message string `json:"message"`
}
