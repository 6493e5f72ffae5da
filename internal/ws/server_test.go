package ws

import (
	"bytes"
	"context"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/config"
	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/domain"
	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/hub"
)

type fakeSnapshots struct {
	snaps map[string]*domain.StreamSnapshot
}

func (f *fakeSnapshots) GetStream(_ context.Context, sessionID string) (*domain.StreamSnapshot, error) {
	return f.snaps[sessionID], nil
}

func newTestServer(t *testing.T) (*hub.Hub, string) {
	t.Helper()
	h := hub.NewHub()
	go h.Run()
	t.Cleanup(h.Stop)

	cfg := config.Default()
	snaps := &fakeSnapshots{snaps: map[string]*domain.StreamSnapshot{
		"s1": {
			SessionID: "s1",
			RunID:     "run_abc",
			Status:    domain.StreamStatusStreaming,
			Agents:    map[domain.AgentID]string{domain.AgentCoordinator: "Hi"},
		},
	}}

	e := echo.New()
	e.GET("/ws", NewServer(cfg, h, snaps).HandleWebSocket)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	return h, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	return conn
}

func TestSubscribeReceivesSnapshotAndEvents(t *testing.T) {
	h, url := newTestServer(t)
	conn := dial(t, url)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": TypeSubscribe, "session_id": "s1", "request_id": "r1"}))

	var ack SubscribedMessage
	require.NoError(t, conn.ReadJSON(&ack))
	assert.Equal(t, TypeSubscribed, ack.Type)
	assert.Equal(t, "r1", ack.RequestID)
	assert.Equal(t, "run_abc", ack.RunID)
	require.NotNil(t, ack.Snapshot)
	assert.Equal(t, "Hi", ack.Snapshot.Agents[domain.AgentCoordinator])

	require.NoError(t, h.BroadcastJSON("s1", EventMessage{
		BaseMessage: BaseMessage{Type: TypeEvent, SessionID: "s1"},
		Seq:         1,
		Event:       []byte(`{"type":"agent_chunk","agent":"COORDINATOR","data":"!"}`),
	}))

	var ev EventMessage
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, TypeEvent, ev.Type)
	assert.Equal(t, int64(1), ev.Seq)
	assert.JSONEq(t, `{"type":"agent_chunk","agent":"COORDINATOR","data":"!"}`, string(ev.Event))
}

func TestSubscribeUnknownSessionHasNoSnapshot(t *testing.T) {
	_, url := newTestServer(t)
	conn := dial(t, url)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": TypeSubscribe, "session_id": "fresh"}))

	var ack SubscribedMessage
	require.NoError(t, conn.ReadJSON(&ack))
	assert.Equal(t, TypeSubscribed, ack.Type)
	assert.Nil(t, ack.Snapshot)
}

func TestProtocolErrors(t *testing.T) {
	_, url := newTestServer(t)
	conn := dial(t, url)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	var errMsg ErrorMessage
	require.NoError(t, conn.ReadJSON(&errMsg))
	assert.Equal(t, ErrorCodeInvalidMessage, errMsg.Code)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": TypeSubscribe}))
	require.NoError(t, conn.ReadJSON(&errMsg))
	assert.Equal(t, ErrorCodeSessionMissing, errMsg.Code)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "hello"}))
	require.NoError(t, conn.ReadJSON(&errMsg))
	assert.Equal(t, ErrorCodeInvalidMessage, errMsg.Code)
	assert.Contains(t, errMsg.Message, "hello")
}

func TestSubscribeViaQueryParam(t *testing.T) {
	_, url := newTestServer(t)
	conn := dial(t, url+"?session_id=s1")

	var ack SubscribedMessage
	require.NoError(t, conn.ReadJSON(&ack))
	assert.Equal(t, "s1", ack.SessionID)
	require.NotNil(t, ack.Snapshot)
}

func TestUpgradeFailureIsLoggedAsError(t *testing.T) {
	var logs bytes.Buffer
	log.SetOutput(&logs)
	defer log.SetOutput(os.Stderr)

	h := hub.NewHub()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	rec := httptest.NewRecorder()

	err := NewServer(config.Default(), h, &fakeSnapshots{}).HandleWebSocket(e.NewContext(req, rec))
	assert.Error(t, err)
	assert.Contains(t, logs.String(), "ERROR: failed to upgrade WebSocket")
	assert.Equal(t, 0, h.ConnectionCount())
}
