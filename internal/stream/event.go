package stream

import (
	"encoding/json"
	"fmt"

	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/domain"
)

// Event is one agent event decoded from the stream. The concrete type is
// one of AgentStart, AgentChunk, AgentEnd, ErrorEvent or Unknown.
type Event interface {
	// Type returns the wire discriminant the event was decoded from.
	Type() string
	// Raw returns the JSON object exactly as it appeared in the stream.
	Raw() json.RawMessage

	isEvent()
}

// AgentStart marks the beginning of an agent's work.
type AgentStart struct {
	Agent     domain.AgentID
	Timestamp string
	raw       json.RawMessage
}

// AgentChunk carries a fragment of an agent's output.
type AgentChunk struct {
	Agent     domain.AgentID
	Data      string
	Timestamp string
	raw       json.RawMessage
}

// AgentEnd marks the completion of an agent's work.
type AgentEnd struct {
	Agent     domain.AgentID
	Timestamp string
	raw       json.RawMessage
}

// ErrorEvent is an error reported in-band by the runtime.
type ErrorEvent struct {
	Agent     domain.AgentID
	Data      string
	Timestamp string
	raw       json.RawMessage
}

// Unknown holds an object with a missing or unrecognised type.
type Unknown struct {
	Kind string
	raw  json.RawMessage
}

func (AgentStart) Type() string { return string(domain.EventTypeAgentStart) }
func (AgentChunk) Type() string { return string(domain.EventTypeAgentChunk) }
func (AgentEnd) Type() string   { return string(domain.EventTypeAgentEnd) }
func (ErrorEvent) Type() string { return string(domain.EventTypeError) }
func (u Unknown) Type() string  { return u.Kind }

func (e AgentStart) Raw() json.RawMessage { return e.raw }
func (e AgentChunk) Raw() json.RawMessage { return e.raw }
func (e AgentEnd) Raw() json.RawMessage   { return e.raw }
func (e ErrorEvent) Raw() json.RawMessage { return e.raw }
func (u Unknown) Raw() json.RawMessage    { return u.raw }

func (AgentStart) isEvent() {}
func (AgentChunk) isEvent() {}
func (AgentEnd) isEvent()   {}
func (ErrorEvent) isEvent() {}
func (Unknown) isEvent()    {}

// Decode parses one JSON object into its event variant. Fields are read
// loosely: a non-string type yields Unknown, and non-string agent, data or
// timestamp values keep their JSON text. Only input that is not a JSON
// object is an error.
func Decode(raw json.RawMessage) (Event, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode agent event: %w", err)
	}
	if fields == nil {
		return nil, fmt.Errorf("failed to decode agent event: not an object")
	}
	kept := append(json.RawMessage(nil), raw...)

	var kind domain.EventType
	if err := json.Unmarshal(fields["type"], &kind); err != nil {
		return Unknown{raw: kept}, nil
	}
	agent := domain.AgentID(text(fields["agent"]))
	data := text(fields["data"])
	ts := text(fields["timestamp"])

	switch kind {
	case domain.EventTypeAgentStart:
		return AgentStart{Agent: agent, Timestamp: ts, raw: kept}, nil
	case domain.EventTypeAgentChunk:
		return AgentChunk{Agent: agent, Data: data, Timestamp: ts, raw: kept}, nil
	case domain.EventTypeAgentEnd:
		return AgentEnd{Agent: agent, Timestamp: ts, raw: kept}, nil
	case domain.EventTypeError:
		return ErrorEvent{Agent: agent, Data: data, Timestamp: ts, raw: kept}, nil
	default:
		return Unknown{Kind: string(kind), raw: kept}, nil
	}
}

// text returns a JSON string's value, or the literal JSON text of any other
// value. Absent and null fields are empty.
func text(v json.RawMessage) string {
	if len(v) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	return string(v)
}

// EventAgent returns the agent an event names, if any.
func EventAgent(ev Event) domain.AgentID {
	switch e := ev.(type) {
	case AgentStart:
		return e.Agent
	case AgentChunk:
		return e.Agent
	case AgentEnd:
		return e.Agent
	case ErrorEvent:
		return e.Agent
	default:
		return ""
	}
}
