package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Car struct {
	Plate string `json:"plate"`
	Brand string `json:"brand"`
	Model string `json:"model"`
	Color string `json:"color"`
}

// CheckinRef links a parked vehicle back to its ticket.
type CheckinRef struct {
	TicketID  string    `json:"ticketId"`
	ZoneID    string    `json:"zoneId"`
	CheckinAt time.Time `json:"checkinAt"`
}

type Subscription struct {
	bun.BaseModel `bun:"table:subscriptions"`

	ID              string       `bun:"id,pk" json:"id"`
	UserName        string       `bun:"user_name" json:"userName"`
	Active          bool         `bun:"active" json:"active"`
	Categories      []string     `bun:"categories" json:"categories"`
	Cars            []Car        `bun:"cars" json:"cars"`
	StartsAt        *time.Time   `bun:"starts_at,nullzero" json:"startsAt,omitempty"`
	ExpiresAt       *time.Time   `bun:"expires_at,nullzero" json:"expiresAt,omitempty"`
	CurrentCheckins []CheckinRef `bun:"current_checkins" json:"currentCheckins"`
}

// Permits reports whether the subscription may park in the given category.
func (s *Subscription) Permits(categoryID string) bool {
	for _, c := range s.Categories {
		if c == categoryID {
			return true
		}
	}
	return false
}
