package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/tembea/server/internal/recording"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512 * 1024 // 512KB for audio chunks
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Origin restrictions are handled by the CORS middleware.
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Hub tracks active clients and hands their events to the session
// manager. Each client maps to exactly one recording session.
type Hub struct {
	// Registered clients keyed by session ID.
	clients map[string]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Mutex for thread-safe access to clients map
	mu sync.RWMutex

	recorder *recording.Manager

	logger *zap.Logger
}

// NewHub creates a new WebSocket hub
func NewHub(recorder *recording.Manager, logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		recorder:   recorder,
		logger:     logger,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.sessionID] = client
			h.mu.Unlock()
			h.logger.Info("Client registered", zap.String("sessionID", client.sessionID))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.sessionID]; ok {
				delete(h.clients, client.sessionID)
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Info("Client unregistered", zap.String("sessionID", client.sessionID))
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

type WriteData struct {
	// MessageType is the type of the websocket message.
	// Expect websocket.TextMessage or websocket.BinaryMessage
	Type    int
	Payload []byte
}

// Client is a middleman between the websocket connection and the
// recording pipeline. It implements recording.Emitter; outcomes arriving
// after the connection closed are dropped.
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan WriteData

	// Recording session owned by this connection.
	sessionID string

	// Logger
	logger *zap.Logger
}

// HandleWebSocket handles websocket requests from the peer. Each upgraded
// connection gets a fresh recording session; session IDs are never reused
// across reconnects.
func HandleWebSocket(hub *Hub, c echo.Context, logger *zap.Logger) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	client := &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan WriteData, 256),
		logger: logger,
	}

	sessionID, err := hub.recorder.Connect(client)
	if err != nil {
		logger.Error("Failed to create recording session", zap.Error(err))
		conn.Close()
		return err
	}
	client.sessionID = sessionID

	client.hub.register <- client

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.writePump()
	go client.readPump()

	return nil
}

// readPump pumps messages from the websocket connection to the recording
// pipeline.
func (c *Client) readPump() {
	defer func() {
		c.hub.recorder.Disconnect(c.sessionID)
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", zap.Error(err))
			}
			break
		}

		switch messageType {
		case websocket.TextMessage:
			// Control messages (stop recording)
			c.processMessage(message)
		case websocket.BinaryMessage:
			// Next ordered fragment of audio
			c.hub.recorder.Chunk(c.sessionID, message)
		default:
			c.logger.Warn("Received unknown message type", zap.Int("type", messageType))
		}
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
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

			if err := c.conn.WriteMessage(message.Type, message.Payload); err != nil {
				c.logger.Error("Failed to write message", zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// processMessage processes incoming control messages from the client
func (c *Client) processMessage(message []byte) {
	var msg ControlMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		c.logger.Error("Failed to parse message", zap.Error(err))
		return
	}

	switch msg.Type {
	case MessageTypeStopRecording:
		c.hub.recorder.Finalize(c.sessionID)
	default:
		c.logger.Warn("Unknown message type", zap.String("type", string(msg.Type)))
	}
}

var _ recording.Emitter = &Client{}

// EmitTranscript implements recording.Emitter.
func (c *Client) EmitTranscript(sessionID, text string) {
	c.emit(TranscriptionMessage{
		Type:      MessageTypeTranscription,
		SessionID: sessionID,
		Text:      text,
	})
}

// EmitError implements recording.Emitter.
func (c *Client) EmitError(sessionID, message string) {
	c.emit(ErrorMessage{
		Type:      MessageTypeError,
		SessionID: sessionID,
		Message:   message,
	})
}

// emit queues an outbound message without blocking the session goroutine.
// If the send channel is gone or full the message is dropped; the client
// is no longer listening.
func (c *Client) emit(payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		c.logger.Error("Failed to marshal outbound message", zap.Error(err))
		return
	}

	defer func() {
		// The send channel closes when the client unregisters.
		if r := recover(); r != nil {
			c.logger.Debug("Dropped message for closed connection",
				zap.String("sessionID", c.sessionID))
		}
	}()

	select {
	case c.send <- WriteData{Type: websocket.TextMessage, Payload: data}:
	default:
		c.logger.Warn("Send buffer full, dropping message",
			zap.String("sessionID", c.sessionID))
	}
}
