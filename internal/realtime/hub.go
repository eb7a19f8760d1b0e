// Package realtime pushes zone and admin updates to gate displays over
// websocket and server-sent events.
package realtime

import (
	"encoding/json"
	"fmt"
	"sync"

	"ms-parking/internal/logger"
	"ms-parking/internal/models"
)

// Conn is one live client. Send must not block: it returns false when the
// client is closed or its queue is full, and the message is dropped.
type Conn interface {
	ID() string
	Send(msg []byte) bool
}

// ZoneSource provides the zones shown at a gate for the initial sync.
type ZoneSource interface {
	ListZonesForGate(gateID string) []models.ZonePayload
}

// Hub maps gates to the connections watching them. It has its own lock so
// broadcasts never hold up check-ins.
type Hub struct {
	zones  ZoneSource
	logger *logger.Logger

	mu sync.RWMutex
	// every registered connection
	conns map[string]Conn
	// gateID -> connID set
	gates map[string]map[string]struct{}
	// connID -> gateID set
	subs map[string]map[string]struct{}
}

func NewHub(zones ZoneSource, log *logger.Logger) *Hub {
	return &Hub{
		zones:  zones,
		logger: log,
		conns:  make(map[string]Conn),
		gates:  make(map[string]map[string]struct{}),
		subs:   make(map[string]map[string]struct{}),
	}
}

// Register makes conn eligible for admin broadcasts before it subscribes to
// any gate.
func (h *Hub) Register(conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn.ID()] = conn
}

// Subscribe adds conn to gateID and sends it the current state of every zone
// reachable from that gate.
func (h *Hub) Subscribe(conn Conn, gateID string) {
	id := conn.ID()

	h.mu.Lock()
	h.conns[id] = conn
	if h.gates[gateID] == nil {
		h.gates[gateID] = make(map[string]struct{})
	}
	h.gates[gateID][id] = struct{}{}
	if h.subs[id] == nil {
		h.subs[id] = make(map[string]struct{})
	}
	h.subs[id][gateID] = struct{}{}
	h.mu.Unlock()

	h.logger.LogGate(gateID, fmt.Sprintf("connection %s subscribed", id))

	for _, z := range h.zones.ListZonesForGate(gateID) {
		msg, err := encode(models.MessageZoneUpdate, z)
		if err != nil {
			h.logger.Error("REALTIME", fmt.Sprintf("Failed to encode zone %s: %v", z.ID, err))
			continue
		}
		conn.Send(msg)
	}
}

func (h *Hub) Unsubscribe(conn Conn, gateID string) {
	id := conn.ID()

	h.mu.Lock()
	defer h.mu.Unlock()

	h.dropLocked(id, gateID)
}

// Remove forgets conn entirely. Called when the connection closes.
func (h *Hub) Remove(conn Conn) {
	id := conn.ID()

	h.mu.Lock()
	defer h.mu.Unlock()

	for gateID := range h.subs[id] {
		h.dropLocked(id, gateID)
	}
	delete(h.subs, id)
	delete(h.conns, id)
}

func (h *Hub) dropLocked(connID, gateID string) {
	if set := h.gates[gateID]; set != nil {
		delete(set, connID)
		// Clean up map entry if no more clients
		if len(set) == 0 {
			delete(h.gates, gateID)
		}
	}
	if set := h.subs[connID]; set != nil {
		delete(set, gateID)
	}
}

// BroadcastZoneUpdate serialises the payload once and sends it to every
// connection watching any of the gates. A connection watching several of
// those gates receives it once.
func (h *Hub) BroadcastZoneUpdate(update models.ZoneUpdate) int {
	msg, err := encode(models.MessageZoneUpdate, update.Zone)
	if err != nil {
		h.logger.Error("REALTIME", fmt.Sprintf("Failed to encode zone %s: %v", update.Zone.ID, err))
		return 0
	}

	h.mu.RLock()
	targets := make(map[string]Conn)
	for _, gateID := range update.GateIDs {
		for id := range h.gates[gateID] {
			targets[id] = h.conns[id]
		}
	}
	h.mu.RUnlock()

	return sendAll(targets, msg)
}

// BroadcastAdminUpdate sends event to every registered connection.
func (h *Hub) BroadcastAdminUpdate(event models.AdminEvent) int {
	msg, err := encode(models.MessageAdminUpdate, event)
	if err != nil {
		h.logger.Error("REALTIME", fmt.Sprintf("Failed to encode admin event %s: %v", event.Action, err))
		return 0
	}

	h.mu.RLock()
	targets := make(map[string]Conn, len(h.conns))
	for id, c := range h.conns {
		targets[id] = c
	}
	h.mu.RUnlock()

	return sendAll(targets, msg)
}

// ConnectionCount returns the number of connections watching gateID, or all
// registered connections when gateID is empty.
func (h *Hub) ConnectionCount(gateID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if gateID == "" {
		return len(h.conns)
	}
	return len(h.gates[gateID])
}

// ZoneUpdated, AdminUpdated, TicketCheckedIn and TicketCheckedOut let the hub
// act as a parking.Notifier.
func (h *Hub) ZoneUpdated(update models.ZoneUpdate) {
	h.BroadcastZoneUpdate(update)
}

func (h *Hub) AdminUpdated(event models.AdminEvent) {
	h.BroadcastAdminUpdate(event)
}

func (h *Hub) TicketCheckedIn(models.Ticket) {}

func (h *Hub) TicketCheckedOut(models.Ticket, models.CheckoutResult) {}

func sendAll(targets map[string]Conn, msg []byte) int {
	sent := 0
	for _, c := range targets {
		if c != nil && c.Send(msg) {
			sent++
		}
	}
	return sent
}

func encode(kind string, payload interface{}) ([]byte, error) {
	return json.Marshal(models.Message{Type: kind, Payload: payload})
}
