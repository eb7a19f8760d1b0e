package models

// Snapshot is the full working set of the parking service, as seeded or
// persisted.
type Snapshot struct {
	Users         []User         `json:"users"`
	Categories    []Category     `json:"categories"`
	Gates         []Gate         `json:"gates"`
	Zones         []Zone         `json:"zones"`
	Subscriptions []Subscription `json:"subscriptions"`
	Tickets       []Ticket       `json:"tickets"`
	RushHours     []RushWindow   `json:"rushHours"`
	Vacations     []Vacation     `json:"vacations"`
}
