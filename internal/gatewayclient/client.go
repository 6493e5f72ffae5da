// Package gatewayclient talks to the lending gateway's HTTP API the way the
// browser front-end does.
package gatewayclient

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

	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/auth"
	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/domain"
	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/stream"
)

// Client is a gateway API client.
type Client struct {
	baseURL    string
	tokens     auth.TokenSource
	httpClient *http.Client
	// timeout bounds non-streaming calls.
	timeout time.Duration
	now     func() time.Time
}

// New creates a client for the gateway at baseURL.
func New(baseURL string, tokens auth.TokenSource, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		tokens:     tokens,
		httpClient: &http.Client{},
		timeout:    timeout,
		now:        time.Now,
	}
}

// Token returns a usable bearer token.
func (c *Client) Token() (string, error) {
	tok, err := c.tokens.Token()
	if err != nil {
		return "", err
	}
	if err := auth.Check(tok, c.now()); err != nil {
		return "", err
	}
	return tok, nil
}

// OpenAgentStream posts to /api/invoke-agent and returns the SSE body. It
// has the shape of stream.Opener.
func (c *Client) OpenAgentStream(ctx context.Context, params stream.StartParams) (io.ReadCloser, error) {
	body, err := json.Marshal(domain.InvokeAgentRequest{
		Payload:      params.Payload,
		SessionID:    params.SessionID,
		BearerToken:  params.BearerToken,
		EndpointName: params.EndpointName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/invoke-agent", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach gateway: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP error! status: %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// ListFiles lists files under prefix ("input" or "output").
func (c *Client) ListFiles(ctx context.Context, prefix string) ([]domain.FileDescriptor, error) {
	var resp struct {
		Files []domain.FileDescriptor `json:"files"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/files/"+url.PathEscape(prefix), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Files, nil
}

// ReadFile returns the content of one file.
func (c *Client) ReadFile(ctx context.Context, key string) (string, error) {
	var resp struct {
		Content string `json:"content"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/files/content?key="+url.QueryEscape(key), nil, &resp); err != nil {
		return "", err
	}
	return resp.Content, nil
}

// ProcessFile asks the gateway to run an assessment of key server-side.
func (c *Client) ProcessFile(ctx context.Context, key, endpointName string) (*domain.StartStreamResponse, error) {
	var resp domain.StartStreamResponse
	req := domain.ProcessFileRequest{Key: key, EndpointName: endpointName}
	if err := c.doJSON(ctx, http.MethodPost, "/api/files/process", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetStream returns the gateway's view of a server-side session.
func (c *Client) GetStream(ctx context.Context, sessionID string) (*domain.StreamSnapshot, error) {
	var snap domain.StreamSnapshot
	if err := c.doJSON(ctx, http.MethodGet, "/api/streams/"+url.PathEscape(sessionID), nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// APIError is a non-2xx answer from the gateway.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("HTTP error! status: %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP error! status: %d: %s", e.StatusCode, e.Message)
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out interface{}) error {
	tok, err := c.Token()
	if err != nil {
		return err
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+tok)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errResp domain.ErrorResponse
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64*1024)).Decode(&errResp)
		msg := errResp.Error
		if errResp.Details != "" {
			msg = errResp.Details
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
