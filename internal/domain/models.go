package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// StreamRun is the persisted record of one stream session run.
type StreamRun struct {
	RunID        string             `json:"run_id"`
	SessionID    string             `json:"session_id"`
	EndpointName string             `json:"endpoint_name"`
	Status       StreamStatus       `json:"status"`
	StartedAt    time.Time          `json:"started_at"`
	EndedAt      *time.Time         `json:"ended_at,omitempty"`
	Error        string             `json:"error,omitempty"`
	Agents       map[AgentID]string `json:"agents,omitempty"`
}

// StreamEventRecord is one parsed event persisted for a run.
type StreamEventRecord struct {
	EventID   string          `json:"event_id"`
	RunID     string          `json:"run_id"`
	SessionID string          `json:"session_id"`
	Seq       int64           `json:"seq"`
	Type      string          `json:"type"`
	Agent     string          `json:"agent,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
	Raw       json.RawMessage `json:"raw"`
	CreatedAt time.Time       `json:"created_at"`
}

// StreamSnapshot is the live view of a server-side stream session.
type StreamSnapshot struct {
	SessionID string             `json:"session_id"`
	RunID     string             `json:"run_id"`
	Status    StreamStatus       `json:"status"`
	Error     string             `json:"error,omitempty"`
	Agents    map[AgentID]string `json:"agents"`
}

// ProcessFilePrompt is the prompt sent to the coordinator when a broker asks
// for an application file to be assessed.
func ProcessFilePrompt(key string) string {
	return fmt.Sprintf("Please process the mortgage application file: %s. Analyze the application data and provide a comprehensive assessment including validation, credit risk analysis, and decision recommendation.", key)
}
