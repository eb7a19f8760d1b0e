package models

import (
	"github.com/uptrace/bun"
)

// RushWindow is a weekly wall-clock range (UTC, half-open) billed at the
// special rate.
type RushWindow struct {
	bun.BaseModel `bun:"table:rush_hours"`

	ID      string `bun:"id,pk" json:"id"`
	WeekDay int    `bun:"week_day" json:"weekDay"`
	From    string `bun:"from_time" json:"from"`
	To      string `bun:"to_time" json:"to"`
}

// Vacation is an inclusive calendar-date range billed at the special rate.
type Vacation struct {
	bun.BaseModel `bun:"table:vacations"`

	ID   string `bun:"id,pk" json:"id"`
	Name string `bun:"name" json:"name"`
	From string `bun:"from_date" json:"from"`
	To   string `bun:"to_date" json:"to"`
}
