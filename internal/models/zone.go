package models

import (
	"github.com/uptrace/bun"
)

type Category struct {
	bun.BaseModel `bun:"table:categories"`

	ID          string  `bun:"id,pk" json:"id"`
	Name        string  `bun:"name" json:"name"`
	Description string  `bun:"description" json:"description,omitempty"`
	RateNormal  float64 `bun:"rate_normal" json:"rateNormal"`
	RateSpecial float64 `bun:"rate_special" json:"rateSpecial"`
}

type Gate struct {
	bun.BaseModel `bun:"table:gates"`

	ID       string   `bun:"id,pk" json:"id"`
	Name     string   `bun:"name" json:"name"`
	ZoneIDs  []string `bun:"zone_ids" json:"zoneIds"`
	Location string   `bun:"location" json:"location"`
}

// Zone holds only the occupancy counter; every other figure is derived on
// read from tickets and subscriptions.
type Zone struct {
	bun.BaseModel `bun:"table:zones"`

	ID         string   `bun:"id,pk" json:"id"`
	Name       string   `bun:"name" json:"name"`
	CategoryID string   `bun:"category_id" json:"categoryId"`
	GateIDs    []string `bun:"gate_ids" json:"gateIds"`
	TotalSlots int      `bun:"total_slots" json:"totalSlots"`
	Occupied   int      `bun:"occupied" json:"occupied"`
	Open       bool     `bun:"open" json:"open"`
}

// ZoneState is the derived view of a zone at one instant.
type ZoneState struct {
	Occupied                int     `json:"occupied"`
	Free                    int     `json:"free"`
	Reserved                int     `json:"reserved"`
	AvailableForVisitors    int     `json:"availableForVisitors"`
	AvailableForSubscribers int     `json:"availableForSubscribers"`
	RateNormal              float64 `json:"rateNormal"`
	RateSpecial             float64 `json:"rateSpecial"`
}

// ZonePayload is the wire shape gate displays and the dashboard consume.
type ZonePayload struct {
	ID                      string   `json:"id"`
	Name                    string   `json:"name"`
	CategoryID              string   `json:"categoryId"`
	GateIDs                 []string `json:"gateIds"`
	TotalSlots              int      `json:"totalSlots"`
	Occupied                int      `json:"occupied"`
	Free                    int      `json:"free"`
	Reserved                int      `json:"reserved"`
	AvailableForVisitors    int      `json:"availableForVisitors"`
	AvailableForSubscribers int      `json:"availableForSubscribers"`
	RateNormal              float64  `json:"rateNormal"`
	RateSpecial             float64  `json:"rateSpecial"`
	Open                    bool     `json:"open"`
}

// ZoneReport is one row of the administrative parking-state report.
type ZoneReport struct {
	ZoneID                  string `json:"zoneId"`
	Name                    string `json:"name"`
	TotalSlots              int    `json:"totalSlots"`
	Occupied                int    `json:"occupied"`
	Free                    int    `json:"free"`
	Reserved                int    `json:"reserved"`
	AvailableForVisitors    int    `json:"availableForVisitors"`
	AvailableForSubscribers int    `json:"availableForSubscribers"`
	SubscriberCount         int    `json:"subscriberCount"`
	Open                    bool   `json:"open"`
}

type ZoneOpenResult struct {
	ZoneID string `json:"zoneId"`
	Open   bool   `json:"open"`
}
