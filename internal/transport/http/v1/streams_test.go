package v1

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/domain"
)

const stubRun = "data: {\"type\":\"agent_start\",\"agent\":\"CREDIT_RISK\",\"timestamp\":\"T1\"}\n" +
	"data: {\"type\":\"agent_chunk\",\"agent\":\"CREDIT_RISK\",\"data\":\"LVR 78%\"}{\"type\":\"agent_end\",\"agent\":\"CREDIT_RISK\",\"timestamp\":\"T2\"}\n"

func TestStreamLifecycle(t *testing.T) {
	h := newTestHandler(t, &stubRuntime{body: stubRun}, &stubInvoker{})

	rec := serve(h, http.MethodPost, "/api/streams", "tok", []byte(`{"payload":{"prompt":"assess"},"session_id":"s1"}`))
	require.Equal(t, http.StatusAccepted, rec.Code)

	var started domain.StartStreamResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &started))
	assert.Equal(t, "s1", started.SessionID)

	var snap domain.StreamSnapshot
	require.Eventually(t, func() bool {
		rec := serve(h, http.MethodGet, "/api/streams/s1", "tok", nil)
		if rec.Code != http.StatusOK {
			return false
		}
		return json.Unmarshal(rec.Body.Bytes(), &snap) == nil && snap.Status == domain.StreamStatusCompleted
	}, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, snap.Agents[domain.AgentCreditRisk], "LVR 78%")
	assert.Equal(t, started.RunID, snap.RunID)

	rec = serve(h, http.MethodGet, "/api/streams/s1/events?after_seq=1", "tok", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var events struct {
		Events []domain.StreamEventRecord `json:"events"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	require.Len(t, events.Events, 2)
	assert.Equal(t, "agent_chunk", events.Events[0].Type)

	rec = serve(h, http.MethodGet, "/api/streams/s1/runs", "tok", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), started.RunID)

	rec = serve(h, http.MethodDelete, "/api/streams/s1", "tok", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(h, http.MethodGet, "/api/streams/s1", "tok", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, domain.StreamStatusIdle, snap.Status)
	assert.Empty(t, snap.Agents)
}

func TestStreamErrors(t *testing.T) {
	h := newTestHandler(t, &stubRuntime{}, &stubInvoker{})

	rec := serve(h, http.MethodPost, "/api/streams", "", []byte(`{"payload":{"prompt":"x"}}`))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(h, http.MethodPost, "/api/streams", "tok", []byte(`{"session_id":"s1"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(h, http.MethodGet, "/api/streams/unknown", "tok", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(h, http.MethodGet, "/api/streams/unknown/events", "tok", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(h, http.MethodGet, "/api/streams/unknown/events?after_seq=-1", "tok", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(h, http.MethodDelete, "/api/streams/unknown", "tok", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
