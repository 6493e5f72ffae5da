package domain

// AgentSSEEvent is the JSON object carried in one `data:` frame of the
// agent runtime stream. Data is a pointer so an absent field can be told
// apart from an empty chunk.
type AgentSSEEvent struct {
	Type      EventType `json:"type,omitempty"`
	Agent     string    `json:"agent,omitempty"`
	Data      *string   `json:"data,omitempty"`
	Timestamp string    `json:"timestamp,omitempty"`
}
