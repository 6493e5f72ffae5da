// Package agentcore provides the HTTP client for the hosted agent runtime,
// which answers an invocation with an SSE stream of agent events.
package agentcore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/domain"
	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/stream"
)

// SessionHeader carries the runtime session id.
const SessionHeader = "X-Amzn-Bedrock-AgentCore-Runtime-Session-Id"

// Runtime opens agent invocation streams.
type Runtime interface {
	// Invoke starts an invocation and returns the SSE body. A non-2xx
	// response is returned as a *StatusError.
	Invoke(ctx context.Context, params stream.StartParams) (io.ReadCloser, error)
}

// Ensure Client implements Runtime.
var _ Runtime = (*Client)(nil)

// StatusError reports a non-success response from the runtime.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error! status: %d, body: %s", e.StatusCode, e.Body)
}

// Client is an HTTP client for the agent runtime.
type Client struct {
	baseURL    string
	agentARN   string
	httpClient *http.Client
}

// RegionalBaseURL returns the runtime endpoint for an AWS region.
func RegionalBaseURL(region string) string {
	return fmt.Sprintf("https://bedrock-agentcore.%s.amazonaws.com", region)
}

// NewClient creates a runtime client. timeout bounds a whole invocation,
// including reading the stream.
func NewClient(baseURL, agentARN string, timeout time.Duration) *Client {
	return &Client{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		agentARN: agentARN,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// InvocationURL builds the invocation URL for an endpoint qualifier.
func (c *Client) InvocationURL(endpointName string) string {
	u := c.baseURL + "/runtimes/" + escapeComponent(c.agentARN) + "/invocations"
	if endpointName != "" && endpointName != domain.DefaultEndpointName {
		u += "?qualifier=" + escapeComponent(endpointName)
	}
	return u
}

// Invoke calls the runtime and returns the SSE body for the caller to read
// and close.
func (c *Client) Invoke(ctx context.Context, params stream.StartParams) (io.ReadCloser, error) {
	if c.agentARN == "" {
		return nil, fmt.Errorf("agent runtime ARN is not configured")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.InvocationURL(params.EndpointName), bytes.NewReader(RequestBody(params.Payload)))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set(SessionHeader, params.SessionID)
	if params.BearerToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+params.BearerToken)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to invoke agent: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(bodyBytes)}
	}

	return resp.Body, nil
}

// RequestBody turns a client payload into the runtime request body. A
// payload sent as a JSON string is parsed as JSON when possible and
// otherwise wrapped as {"payload": <string>}.
func RequestBody(payload json.RawMessage) []byte {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return trimmed
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return trimmed
	}
	if inner := []byte(strings.TrimSpace(s)); json.Valid(inner) {
		return inner
	}
	wrapped, _ := json.Marshal(map[string]string{"payload": s})
	return wrapped
}

// escapeComponent escapes every reserved character, including ':' and '/'.
func escapeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
