package gatewayclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/auth"
	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/domain"
	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/stream"
)

func TestOpenAgentStreamDrivesSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/invoke-agent", r.URL.Path)
		var req domain.InvokeAgentRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "s1", req.SessionID)
		assert.Equal(t, "tok", req.BearerToken)

		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, "data: {\"type\":\"agent_start\",\"agent\":\"COORDINATOR\",\"timestamp\":\"T1\"}\n\n")
		io.WriteString(w, "data: {\"type\":\"agent_chunk\",\"agent\":\"COORDINATOR\",\"data\":\"Hi\"}\n\n")
		io.WriteString(w, "data: {\"type\":\"agent_end\",\"agent\":\"COORDINATOR\",\"timestamp\":\"T3\"}\n\n")
	}))
	defer srv.Close()

	client := New(srv.URL, auth.StaticToken("tok"), time.Second)
	session := stream.NewSession(stream.Handlers{}, stream.Options{})

	err := session.Start(context.Background(), stream.StartParams{
		Payload:     json.RawMessage(`{"prompt":"hi"}`),
		SessionID:   "s1",
		BearerToken: "tok",
	}, client.OpenAgentStream)
	require.NoError(t, err)

	assert.Equal(t, domain.StreamStatusCompleted, session.Status())
	want := stream.StartMarker("T1", domain.AgentCoordinator) + "Hi" + stream.EndMarker("T3", domain.AgentCoordinator)
	assert.Equal(t, want, session.Aggregate().Get(domain.AgentCoordinator))
}

func TestOpenAgentStreamNonSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := New(srv.URL, auth.StaticToken("tok"), time.Second)
	_, err := client.OpenAgentStream(context.Background(), stream.StartParams{SessionID: "s1"})
	require.Error(t, err)
	assert.Equal(t, "HTTP error! status: 500", err.Error())
}

func TestFiles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/api/files/input":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"files": []domain.FileDescriptor{{Key: "input/a.json", DisplayName: "a.json", Size: 3}},
			})
		case "/api/files/content":
			if r.URL.Query().Get("key") != "input/a.json" {
				w.WriteHeader(http.StatusBadGateway)
				json.NewEncoder(w).Encode(domain.ErrorResponse{Error: "File not found"})
				return
			}
			json.NewEncoder(w).Encode(map[string]string{"key": "input/a.json", "content": "{}"})
		case "/api/files/process":
			json.NewEncoder(w).Encode(domain.StartStreamResponse{SessionID: "s9", RunID: "run_1", Status: domain.StreamStatusStreaming})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	client := New(srv.URL, auth.StaticToken("tok"), time.Second)

	files, err := client.ListFiles(ctx, domain.PrefixInput)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "a.json", files[0].DisplayName)

	content, err := client.ReadFile(ctx, "input/a.json")
	require.NoError(t, err)
	assert.Equal(t, "{}", content)

	_, err = client.ReadFile(ctx, "input/missing.json")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "File not found", apiErr.Message)

	resp, err := client.ProcessFile(ctx, "input/a.json", "")
	require.NoError(t, err)
	assert.Equal(t, "s9", resp.SessionID)
}

func TestTokenChecked(t *testing.T) {
	client := New("http://127.0.0.1:0", auth.StaticToken(""), time.Second)
	_, err := client.ListFiles(context.Background(), domain.PrefixInput)
	assert.ErrorIs(t, err, auth.ErrNoToken)
}
