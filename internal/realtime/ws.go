package realtime

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"ms-parking/internal/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendQueueSize  = 64
)

// clientMessage is what a gate display sends:
// {"type":"subscribe","payload":{"gateId":"gate_1"}}
type clientMessage struct {
	Type    string `json:"type"`
	Payload struct {
		GateID string `json:"gateId"`
	} `json:"payload"`
}

type wsConn struct {
	id   string
	ws   *websocket.Conn
	send chan []byte

	done      chan struct{}
	closeOnce sync.Once
}

func (c *wsConn) ID() string { return c.id }

// Send queues msg for the writer goroutine. It never blocks.
func (c *wsConn) Send(msg []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *wsConn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.ws.Close()
	})
}

// WSHandler upgrades /ws requests and speaks the subscribe/unsubscribe
// protocol.
type WSHandler struct {
	hub      *Hub
	logger   *logger.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler accepts any origin when allowedOrigins is empty or contains
// "*".
func NewWSHandler(hub *Hub, log *logger.Logger, allowedOrigins []string) *WSHandler {
	allowAll := len(allowedOrigins) == 0
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}

	return &WSHandler{
		hub:    hub,
		logger: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowAll || origin == "" || allowed[origin]
			},
		},
	}
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("REALTIME", fmt.Sprintf("Websocket upgrade failed: %v", err))
		return
	}

	conn := &wsConn{
		id:   uuid.NewString(),
		ws:   ws,
		send: make(chan []byte, sendQueueSize),
		done: make(chan struct{}),
	}
	h.hub.Register(conn)
	h.logger.Info("REALTIME", fmt.Sprintf("Websocket %s connected from %s", conn.id, r.RemoteAddr))

	go h.writePump(conn)
	h.readLoop(conn)
}

func (h *WSHandler) readLoop(c *wsConn) {
	defer func() {
		h.hub.Remove(c)
		c.close()
		h.logger.Info("REALTIME", fmt.Sprintf("Websocket %s disconnected", c.id))
	}()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("REALTIME", fmt.Sprintf("Websocket %s read error: %v", c.id, err))
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.logger.Warn("REALTIME", fmt.Sprintf("Ignoring malformed message from %s: %v", c.id, err))
			continue
		}
		if msg.Payload.GateID == "" {
			h.logger.Debug("REALTIME", fmt.Sprintf("Ignoring %q without gateId from %s", msg.Type, c.id))
			continue
		}

		switch msg.Type {
		case "subscribe":
			h.hub.Subscribe(c, msg.Payload.GateID)
		case "unsubscribe":
			h.hub.Unsubscribe(c, msg.Payload.GateID)
		default:
			h.logger.Debug("REALTIME", fmt.Sprintf("Ignoring unknown message type %q from %s", msg.Type, c.id))
		}
	}
}

// writePump is the only goroutine writing to the socket.
func (h *WSHandler) writePump(c *wsConn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.logger.Debug("REALTIME", fmt.Sprintf("Websocket %s write failed: %v", c.id, err))
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
