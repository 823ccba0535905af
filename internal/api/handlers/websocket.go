package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/onnwee/repulse/internal/apierr"
	"github.com/onnwee/repulse/internal/logger"
	"github.com/onnwee/repulse/internal/metrics"
	"github.com/onnwee/repulse/internal/positions"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = 30 * time.Second

	// Maximum message size allowed from peer
	maxMessageSize = maxBodyBytes
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// CORS middleware handles origin checks
		return true
	},
}

// StreamRequest is one websocket message: a position document plus mode.
type StreamRequest struct {
	Mode string `json:"mode"`
	positions.Document
}

// streamClient is one websocket connection.
type streamClient struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

// ForceStream runs force passes for websocket clients, one reply per message.
type ForceStream struct {
	forces *ForceHandler

	mu      sync.Mutex
	clients map[*streamClient]struct{}
	closed  bool
}

// NewForceStream creates a stream handler sharing validation with forces.
func NewForceStream(forces *ForceHandler) *ForceStream {
	return &ForceStream{
		forces:  forces,
		clients: make(map[*streamClient]struct{}),
	}
}

// HandleWebSocket upgrades the connection and serves requests until the
// peer disconnects.
// GET /ws/forces
func (s *ForceStream) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error.
		logger.WarnContext(r.Context(), "Failed to upgrade to WebSocket", "error", err)
		return
	}

	c := &streamClient{
		conn: conn,
		send: make(chan []byte, 16),
		done: make(chan struct{}),
	}
	if !s.register(c) {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(writeWait))
		conn.Close()
		return
	}

	go s.writePump(c)
	s.readPump(c)
}

func (s *ForceStream) register(c *streamClient) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.clients[c] = struct{}{}
	metrics.WebSocketConnections.Inc()
	logger.Info("WebSocket client connected", "total_clients", len(s.clients))
	return true
}

func (s *ForceStream) unregister(c *streamClient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		metrics.WebSocketConnections.Dec()
		logger.Info("WebSocket client disconnected", "total_clients", len(s.clients))
	}
}

// Clients returns the number of connected clients.
func (s *ForceStream) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Close disconnects every client and rejects new ones.
func (s *ForceStream) Close() {
	s.mu.Lock()
	s.closed = true
	clients := make([]*streamClient, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(writeWait))
		c.conn.Close()
	}
}

// readPump decodes requests and queues replies until the connection fails.
func (s *ForceStream) readPump(c *streamClient) {
	defer func() {
		s.unregister(c)
		close(c.send)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("WebSocket unexpected close", "error", err)
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))

		reply := s.handle(message)
		select {
		case c.send <- reply:
		case <-c.done:
			return
		}
	}
}

func (s *ForceStream) handle(message []byte) []byte {
	var req StreamRequest
	var (
		payload any
		apiErr  *apierr.Error
	)
	if err := json.Unmarshal(message, &req); err != nil {
		apiErr = apierr.ValidationInvalidJSON()
	} else {
		// The upgrade request's context ends with the handshake.
		payload, apiErr = s.forces.Compute(context.Background(), req.Mode, req.Document)
	}
	if apiErr != nil {
		payload = apierr.ErrorResponse{Error: apiErr}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Failed to marshal WebSocket reply", "error", err)
		data, _ = json.Marshal(apierr.ErrorResponse{Error: apierr.SystemInternal("Failed to serialize response")})
	}
	return data
}

// writePump writes queued replies and keeps the connection alive with pings.
func (s *ForceStream) writePump(c *streamClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		close(c.done)
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
			metrics.WebSocketMessagesSent.Inc()

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
