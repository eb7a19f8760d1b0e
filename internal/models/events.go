package models

import (
	"encoding/json"
	"time"
)

const (
	MessageZoneUpdate  = "zone-update"
	MessageAdminUpdate = "admin-update"
)

const (
	ActionCategoryRatesChanged = "category-rates-changed"
	ActionZoneOpened           = "zone-opened"
	ActionZoneClosed           = "zone-closed"
	ActionRushUpdated          = "rush-updated"
	ActionVacationAdded        = "vacation-added"
)

// Message is the envelope pushed to realtime clients.
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// ZoneUpdate carries a freshly computed zone payload together with every gate
// that exposes the zone.
type ZoneUpdate struct {
	Zone    ZonePayload
	GateIDs []string
}

type AdminEvent struct {
	AdminID    string      `json:"adminId"`
	Action     string      `json:"action"`
	TargetType string      `json:"targetType"`
	TargetID   string      `json:"targetId"`
	Details    interface{} `json:"details"`
	Timestamp  time.Time   `json:"timestamp"`
}

// ParkingEvent is the envelope written to the event stream.
type ParkingEvent struct {
	Type       string          `json:"type"`
	Key        string          `json:"key"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}
