package agentcore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/domain"
	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/stream"
)

const testARN = "arn:aws:bedrock-agentcore:ap-south-1:123456789012:runtime/lending-abc"

func TestClientInvokeStreamsBody(t *testing.T) {
	var gotHeaders http.Header
	var gotURI string
	var gotBody map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		gotURI = r.RequestURI
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("failed to read body: %v", err)
		}
		if err := json.Unmarshal(body, &gotBody); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, `data: {"type":"agent_start","agent":"LMI","timestamp":"T1"}`+"\n\n")
	}))
	defer server.Close()

	client := NewClient(server.URL, testARN, time.Second)
	body, err := client.Invoke(context.Background(), stream.StartParams{
		Payload:      json.RawMessage(`{"prompt":"hello"}`),
		SessionID:    "sess-1",
		BearerToken:  "tok",
		EndpointName: domain.DefaultEndpointName,
	})
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Contains(t, string(data), "agent_start")

	assert.Equal(t, "/runtimes/arn%3Aaws%3Abedrock-agentcore%3Aap-south-1%3A123456789012%3Aruntime%2Flending-abc/invocations", gotURI)
	assert.Equal(t, "sess-1", gotHeaders.Get(SessionHeader))
	assert.Equal(t, "Bearer tok", gotHeaders.Get("Authorization"))
	assert.Equal(t, "application/json", gotHeaders.Get("Content-Type"))
	assert.Equal(t, "hello", gotBody["prompt"])
}

func TestClientInvokeQualifierAndNoToken(t *testing.T) {
	var gotQuery string
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("qualifier")
		gotAuth = r.Header.Get("Authorization")
	}))
	defer server.Close()

	client := NewClient(server.URL, testARN, time.Second)
	body, err := client.Invoke(context.Background(), stream.StartParams{
		Payload:      json.RawMessage(`{}`),
		SessionID:    "s",
		EndpointName: "staging v2",
	})
	require.NoError(t, err)
	body.Close()

	assert.Equal(t, "staging v2", gotQuery)
	assert.Empty(t, gotAuth)
	assert.True(t, strings.HasSuffix(client.InvocationURL("staging v2"), "?qualifier=staging%20v2"))
	assert.NotContains(t, client.InvocationURL(domain.DefaultEndpointName), "qualifier")
}

func TestClientInvokeNonSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"message":"denied"}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, testARN, time.Second)
	_, err := client.Invoke(context.Background(), stream.StartParams{SessionID: "s"})

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusForbidden, statusErr.StatusCode)
	assert.Contains(t, statusErr.Error(), "status: 403")
	assert.Contains(t, statusErr.Body, "denied")
}

func TestClientInvokeRequiresARN(t *testing.T) {
	client := NewClient("http://unused", "", time.Second)
	_, err := client.Invoke(context.Background(), stream.StartParams{SessionID: "s"})
	assert.Error(t, err)
}

func TestRequestBody(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{name: "object", payload: `{"prompt":"hi"}`, want: `{"prompt":"hi"}`},
		{name: "json in string", payload: `"{\"prompt\":\"hi\"}"`, want: `{"prompt":"hi"}`},
		{name: "plain string", payload: `"approve loan 42"`, want: `{"payload":"approve loan 42"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.JSONEq(t, tt.want, string(RequestBody(json.RawMessage(tt.payload))))
		})
	}
}

func TestMockRuntimeDrivesSession(t *testing.T) {
	var completed bool
	s := stream.NewSession(stream.Handlers{OnComplete: func() { completed = true }}, stream.Options{})

	err := s.Start(context.Background(), stream.StartParams{SessionID: "sess", BearerToken: "tok"}, NewMockRuntime(0).Invoke)
	require.NoError(t, err)
	assert.True(t, completed)

	snap := s.Aggregate().Snapshot()
	for _, id := range domain.AllAgents {
		assert.Contains(t, snap[id], "Agent "+string(id)+" started", id)
		assert.Contains(t, snap[id], "Agent "+string(id)+" completed", id)
	}
	assert.Contains(t, snap[domain.AgentLMI], "LMI assessment in progress... done.")
	assert.Contains(t, snap[domain.AgentCoordinator], "Recommendation: APPROVE")
}

func TestMockRuntimeHonoursCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	body, err := NewMockRuntime(time.Hour).Invoke(ctx, stream.StartParams{SessionID: "s"})
	require.NoError(t, err)
	defer body.Close()

	cancel()
	_, err = io.ReadAll(body)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewRuntimeMode(t *testing.T) {
	assert.IsType(t, &MockRuntime{}, NewRuntime(ModeMock, "", "", time.Second))
	assert.IsType(t, &Client{}, NewRuntime("", "http://x", testARN, time.Second))
}
