// Package ws serves the WebSocket endpoint clients use to follow stream
// sessions.
package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/config"
	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/domain"
	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/hub"
)

// SnapshotProvider returns the current view of a stream session, or nil
// when the session is unknown.
type SnapshotProvider interface {
	GetStream(ctx context.Context, sessionID string) (*domain.StreamSnapshot, error)
}

// Server handles WebSocket connections.
type Server struct {
	cfg       *config.Config
	hub       *hub.Hub
	snapshots SnapshotProvider
	upgrader  websocket.Upgrader
}

// NewServer creates a new WebSocket server.
func NewServer(cfg *config.Config, h *hub.Hub, snapshots SnapshotProvider) *Server {
	return &Server{
		cfg:       cfg,
		hub:       h,
		snapshots: snapshots,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// HandleWebSocket upgrades the request and starts the pumps.
func (s *Server) HandleWebSocket(c echo.Context) error {
	ws, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Printf("ERROR: failed to upgrade WebSocket: %v", err)
		return err
	}

	conn := s.hub.NewConnection(ws)
	s.hub.Register(conn)

	ws.SetReadLimit(s.cfg.MaxMessageSize)

	// A session can be chosen at connect time.
	if sessionID := c.QueryParam("session_id"); sessionID != "" {
		s.subscribe(conn, BaseMessage{SessionID: sessionID})
	}

	go s.writePump(conn)
	go s.readPump(conn)

	return nil
}

func (s *Server) readPump(conn *hub.Connection) {
	defer func() {
		s.hub.Unregister(conn)
		conn.Close()
	}()

	conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	conn.Conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		return nil
	})

	for {
		_, message, err := conn.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WARN: WebSocket error on %s: %v", conn.ID, err)
			}
			break
		}

		s.handleMessage(conn, message)
	}
}

func (s *Server) writePump(conn *hub.Connection) {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("WARN: failed to write to %s: %v", conn.ID, err)
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) handleMessage(conn *hub.Connection, data []byte) {
	var msg BaseMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.sendError(conn, "", ErrorCodeInvalidMessage, "invalid JSON message")
		return
	}

	switch msg.Type {
	case TypeSubscribe:
		s.subscribe(conn, msg)
	case TypeUnsubscribe:
		s.hub.Unsubscribe(conn)
	default:
		s.sendError(conn, msg.RequestID, ErrorCodeInvalidMessage, "unknown message type: "+msg.Type)
	}
}

func (s *Server) subscribe(conn *hub.Connection, msg BaseMessage) {
	if msg.SessionID == "" {
		s.sendError(conn, msg.RequestID, ErrorCodeSessionMissing, "session_id is required")
		return
	}
	s.hub.Subscribe(conn, msg.SessionID)

	ack := SubscribedMessage{
		BaseMessage: BaseMessage{
			Type:      TypeSubscribed,
			Ts:        time.Now().UnixMilli(),
			RequestID: msg.RequestID,
			SessionID: msg.SessionID,
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	snap, err := s.snapshots.GetStream(ctx, msg.SessionID)
	if err != nil {
		log.Printf("ERROR: failed to load snapshot for %s: %v", msg.SessionID, err)
		s.sendError(conn, msg.RequestID, ErrorCodeInternalError, "failed to load session")
		return
	}
	if snap != nil {
		ack.RunID = snap.RunID
		ack.Snapshot = snap
	}

	if err := s.hub.SendJSON(conn, ack); err != nil {
		log.Printf("WARN: failed to ack subscription on %s: %v", conn.ID, err)
	}
}

func (s *Server) sendError(conn *hub.Connection, requestID, code, message string) {
	errMsg := ErrorMessage{
		BaseMessage: BaseMessage{
			Type:      TypeError,
			Ts:        time.Now().UnixMilli(),
			RequestID: requestID,
			SessionID: s.hub.SessionOf(conn),
		},
		Code:    code,
		Message: message,
	}
	s.hub.SendJSON(conn, errMsg)
}
