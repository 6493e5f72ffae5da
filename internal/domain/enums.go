// Package domain defines the core domain models for the lending gateway.
package domain

import "fmt"

// AgentID identifies one stage of the mortgage pipeline.
type AgentID string

const (
	AgentCoordinator      AgentID = "COORDINATOR"
	AgentValidation       AgentID = "VALIDATION"
	AgentCreditRisk       AgentID = "CREDIT_RISK"
	AgentExternalServices AgentID = "EXTERNAL_SERVICES"
	AgentDecisioning      AgentID = "DECISIONING"
	AgentValuer           AgentID = "VALUER"
	AgentLMI              AgentID = "LMI"
)

// AllAgents lists every known agent in display order.
var AllAgents = []AgentID{
	AgentCoordinator,
	AgentValidation,
	AgentCreditRisk,
	AgentExternalServices,
	AgentDecisioning,
	AgentValuer,
	AgentLMI,
}

// Valid reports whether the id is one of the pipeline agents.
func (a AgentID) Valid() bool {
	for _, known := range AllAgents {
		if a == known {
			return true
		}
	}
	return false
}

// ParseAgentID validates a wire agent identifier.
func ParseAgentID(s string) (AgentID, error) {
	id := AgentID(s)
	if !id.Valid() {
		return "", fmt.Errorf("unknown agent %q", s)
	}
	return id, nil
}

// EventType is the `type` discriminant of a streamed agent event.
type EventType string

const (
	EventTypeAgentStart EventType = "agent_start"
	EventTypeAgentChunk EventType = "agent_chunk"
	EventTypeAgentEnd   EventType = "agent_end"
	EventTypeError      EventType = "error"
)

// StreamStatus represents the lifecycle state of a stream session.
type StreamStatus string

const (
	StreamStatusIdle      StreamStatus = "IDLE"
	StreamStatusStreaming StreamStatus = "STREAMING"
	StreamStatusCompleted StreamStatus = "COMPLETED"
	StreamStatusFailed    StreamStatus = "FAILED"
)

// Terminal reports whether no further events will be produced in this state.
func (s StreamStatus) Terminal() bool {
	return s == StreamStatusCompleted || s == StreamStatusFailed
}

// DefaultEndpointName is the runtime endpoint used when none is given.
const DefaultEndpointName = "DEFAULT"
