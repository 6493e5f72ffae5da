package domain

import "encoding/json"

// InvokeAgentRequest is the body accepted by POST /api/invoke-agent.
type InvokeAgentRequest struct {
	Payload      json.RawMessage `json:"payload"`
	SessionID    string          `json:"session_id"`
	BearerToken  string          `json:"bearer_token"`
	EndpointName string          `json:"endpoint_name,omitempty"`
}

// InvokeLambdaRequest is the body accepted by POST /api/invoke-lambda.
type InvokeLambdaRequest struct {
	LambdaARN   string                 `json:"lambda_arn"`
	ToolName    string                 `json:"tool_name"`
	Arguments   map[string]interface{} `json:"arguments"`
	BearerToken string                 `json:"bearer_token"`
}

// InvokeLambdaResponse wraps a remote function result.
type InvokeLambdaResponse struct {
	StatusCode int             `json:"statusCode"`
	Body       json.RawMessage `json:"body"`
}

// StartStreamRequest is the body accepted by POST /api/streams.
type StartStreamRequest struct {
	Payload      json.RawMessage `json:"payload"`
	SessionID    string          `json:"session_id,omitempty"`
	EndpointName string          `json:"endpoint_name,omitempty"`
}

// StartStreamResponse is returned once a server-side stream is accepted.
type StartStreamResponse struct {
	SessionID string       `json:"session_id"`
	RunID     string       `json:"run_id"`
	Status    StreamStatus `json:"status"`
}

// ProcessFileRequest is the body accepted by POST /api/files/process.
type ProcessFileRequest struct {
	Key          string `json:"key"`
	EndpointName string `json:"endpoint_name,omitempty"`
}

// ErrorResponse is the JSON error body used by every handler.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
