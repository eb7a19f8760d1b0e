package realtime

import (
	"fmt"
	"net/http"
	"time"

	"ms-parking/internal/logger"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// sseConn buffers messages for one event-stream response.
type sseConn struct {
	id     string
	events chan []byte
	done   chan struct{}
}

func (c *sseConn) ID() string { return c.id }

func (c *sseConn) Send(msg []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	// Non-blocking send to avoid slowing down the hub if the client is slow
	select {
	case c.events <- msg:
		return true
	default:
		return false
	}
}

// SSEHandler streams the same messages as the websocket endpoint to
// read-only displays that cannot open a socket.
type SSEHandler struct {
	hub    *Hub
	logger *logger.Logger
}

func NewSSEHandler(hub *Hub, log *logger.Logger) *SSEHandler {
	return &SSEHandler{hub: hub, logger: log}
}

// HandleGateEvents streams zone and admin updates for one gate.
func (h *SSEHandler) HandleGateEvents(w http.ResponseWriter, r *http.Request) {
	gateID := chi.URLParam(r, "gateId")
	if gateID == "" {
		http.Error(w, "Gate ID is required", http.StatusBadRequest)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	// Set headers for SSE
	setupSSEHeaders(w)
	// the stream outlives the server's write timeout
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	// Create a context that cancels when the client disconnects
	ctx := r.Context()

	conn := &sseConn{
		id:     "sse-" + uuid.NewString(),
		events: make(chan []byte, sendQueueSize),
		done:   make(chan struct{}),
	}
	defer func() {
		close(conn.done)
		h.hub.Remove(conn)
	}()

	// Send initial connection established message
	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\",\"gateId\":%q}\n\n", gateID)
	flusher.Flush()

	// initial zone sync is queued into conn.events
	h.hub.Subscribe(conn, gateID)
	h.logger.Info("SSE", fmt.Sprintf("Client connected to gate events for gate: %s", gateID))

	// Stream events
	for {
		select {
		case msg := <-conn.events:
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()

		case <-ctx.Done():
			h.logger.Debug("SSE", fmt.Sprintf("Client disconnected from gate events for: %s", gateID))
			return
		}
	}
}

// Helper function to set up SSE headers
func setupSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream;charset=UTF-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	w.Header().Set("X-Content-Type-Options", "nosniff")
}
