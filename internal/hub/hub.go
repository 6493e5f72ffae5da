// Package hub fans stream session updates out to subscribed WebSocket
// connections.
package hub

import (
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var (
	// ErrBufferFull is returned when a connection's send buffer is full.
	ErrBufferFull = errors.New("send buffer full")
	// ErrClosed is returned when sending to a connection the hub dropped.
	ErrClosed = errors.New("connection closed")
)

const sendBufferSize = 256

// Connection is a single subscriber. SessionID and closed are guarded by
// the hub; Send is closed exactly once, when closed is set.
type Connection struct {
	ID        string
	SessionID string
	Conn      *websocket.Conn
	Send      chan []byte
	closed    bool
	mu        sync.Mutex
}

type set map[*Connection]struct{}

// Hub tracks connections and the session each one follows.
type Hub struct {
	clients   set
	followers map[string]set

	join    chan *Connection
	leave   chan *Connection
	publish chan frame
	done    chan struct{}
	stopped sync.Once

	mu sync.RWMutex
}

type frame struct {
	session string
	payload []byte
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients:   make(set),
		followers: make(map[string]set),
		join:      make(chan *Connection),
		leave:     make(chan *Connection),
		publish:   make(chan frame, sendBufferSize),
		done:      make(chan struct{}),
	}
}

// Run serves joins, leaves and published frames until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.closeAll()
			return
		case conn := <-h.join:
			h.add(conn)
		case conn := <-h.leave:
			h.remove(conn)
		case f := <-h.publish:
			h.deliver(f)
		}
	}
}

func (h *Hub) add(conn *Connection) {
	h.mu.Lock()
	h.clients[conn] = struct{}{}
	if conn.SessionID != "" {
		h.follow(conn, conn.SessionID)
	}
	h.mu.Unlock()
	log.Printf("INFO: connection %s joined", conn.ID)
}

func (h *Hub) remove(conn *Connection) {
	h.mu.Lock()
	_, ok := h.clients[conn]
	if ok {
		delete(h.clients, conn)
		h.unfollow(conn)
		h.closeLocked(conn)
	}
	h.mu.Unlock()
	if ok {
		log.Printf("INFO: connection %s left", conn.ID)
	}
}

// deliver never blocks on a slow reader; a full buffer drops the client.
func (h *Hub) deliver(f frame) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for conn := range h.followers[f.session] {
		if _, ok := h.clients[conn]; !ok {
			continue
		}
		select {
		case conn.Send <- f.payload:
		default:
			log.Printf("WARN: connection %s buffer full, dropping it", conn.ID)
			go h.Unregister(conn)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		h.closeLocked(conn)
	}
	h.clients = make(set)
	h.followers = make(map[string]set)
}

func (h *Hub) closeLocked(conn *Connection) {
	if conn.closed {
		return
	}
	conn.closed = true
	close(conn.Send)
}

// Stop ends Run and closes every connection's send channel.
func (h *Hub) Stop() {
	h.stopped.Do(func() { close(h.done) })
}

// NewConnection wraps ws without registering it.
func (h *Hub) NewConnection(ws *websocket.Conn) *Connection {
	return &Connection{
		ID:   "conn_" + uuid.New().String()[:8],
		Conn: ws,
		Send: make(chan []byte, sendBufferSize),
	}
}

// Register adds a connection.
func (h *Hub) Register(conn *Connection) {
	select {
	case h.join <- conn:
	case <-h.done:
	}
}

// Unregister removes a connection and closes its send channel.
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.leave <- conn:
	case <-h.done:
	}
}

// Subscribe moves a connection to sessionID.
func (h *Hub) Subscribe(conn *Connection, sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unfollow(conn)
	h.follow(conn, sessionID)
}

// Unsubscribe detaches a connection from its session.
func (h *Hub) Unsubscribe(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unfollow(conn)
	conn.SessionID = ""
}

// SessionOf returns the session a connection follows.
func (h *Hub) SessionOf(conn *Connection) string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return conn.SessionID
}

func (h *Hub) follow(conn *Connection, sessionID string) {
	conn.SessionID = sessionID
	group, ok := h.followers[sessionID]
	if !ok {
		group = make(set)
		h.followers[sessionID] = group
	}
	group[conn] = struct{}{}
}

func (h *Hub) unfollow(conn *Connection) {
	group, ok := h.followers[conn.SessionID]
	if !ok {
		return
	}
	delete(group, conn)
	if len(group) == 0 {
		delete(h.followers, conn.SessionID)
	}
}

// Broadcast queues data for every subscriber of sessionID. It is a no-op
// after Stop.
func (h *Hub) Broadcast(sessionID string, data []byte) {
	select {
	case h.publish <- frame{session: sessionID, payload: data}:
	case <-h.done:
	}
}

// BroadcastJSON marshals v and broadcasts it.
func (h *Hub) BroadcastJSON(sessionID string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Broadcast(sessionID, data)
	return nil
}

// SendJSON writes v to one connection's buffer. It never blocks and returns
// ErrClosed once the hub has dropped the connection.
func (h *Hub) SendJSON(conn *Connection, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if conn.closed {
		return ErrClosed
	}
	select {
	case conn.Send <- data:
		return nil
	default:
		return ErrBufferFull
	}
}

// ConnectionCount returns the number of registered connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// SessionCount returns the number of sessions with subscribers.
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.followers)
}

// HasSubscribers reports whether any connection follows sessionID.
func (h *Hub) HasSubscribers(sessionID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.followers[sessionID]) > 0
}

// WriteMessage serializes writes to the underlying socket.
func (c *Connection) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Conn.WriteMessage(messageType, data)
}

func (c *Connection) SetWriteDeadline(t time.Time) error {
	return c.Conn.SetWriteDeadline(t)
}

func (c *Connection) SetReadDeadline(t time.Time) error {
	return c.Conn.SetReadDeadline(t)
}

func (c *Connection) Close() error {
	return c.Conn.Close()
}
