package models

import (
	"time"

	"github.com/uptrace/bun"
)

type TicketType string

const (
	TicketVisitor    TicketType = "visitor"
	TicketSubscriber TicketType = "subscriber"
)

type Ticket struct {
	bun.BaseModel `bun:"table:tickets"`

	ID         string     `bun:"id,pk" json:"id"`
	Type       TicketType `bun:"type" json:"type"`
	ZoneID     string     `bun:"zone_id" json:"zoneId"`
	GateID     string     `bun:"gate_id" json:"gateId"`
	CheckinAt  time.Time  `bun:"checkin_at" json:"checkinAt"`
	CheckoutAt *time.Time `bun:"checkout_at,nullzero" json:"checkoutAt"`
}

// Parked reports whether the ticket has not been checked out yet.
func (t *Ticket) Parked() bool {
	return t.CheckoutAt == nil
}

type CheckInResult struct {
	Ticket    Ticket      `json:"ticket"`
	ZoneState ZonePayload `json:"zoneState"`
}

// BreakdownItem is one contiguous stretch of a stay billed at a single rate.
type BreakdownItem struct {
	From     time.Time `json:"from"`
	To       time.Time `json:"to"`
	Minutes  float64   `json:"minutes"`
	Hours    float64   `json:"hours"`
	RateMode string    `json:"rateMode"`
	Rate     float64   `json:"rate"`
	Amount   float64   `json:"amount"`
}

type CheckoutResult struct {
	TicketID      string          `json:"ticketId"`
	CheckinAt     time.Time       `json:"checkinAt"`
	CheckoutAt    time.Time       `json:"checkoutAt"`
	DurationHours float64         `json:"durationHours"`
	BillingType   TicketType      `json:"billingType"`
	Breakdown     []BreakdownItem `json:"breakdown"`
	Amount        float64         `json:"amount"`
	ZoneState     ZonePayload     `json:"zoneState"`
}
