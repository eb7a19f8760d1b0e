// Package seed reads the initial parking data set from a JSON file.
package seed

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"ms-parking/internal/auth"
	"ms-parking/internal/models"
)

type rawUser struct {
	models.User
	Password     string `json:"password"`
	PasswordHash string `json:"passwordHash"`
}

// rawSubscription accepts the legacy singular category field.
type rawSubscription struct {
	models.Subscription
	Category string `json:"category"`
}

type rawSnapshot struct {
	Users         []rawUser           `json:"users"`
	Categories    []models.Category   `json:"categories"`
	Gates         []models.Gate       `json:"gates"`
	Zones         []models.Zone       `json:"zones"`
	Subscriptions []rawSubscription   `json:"subscriptions"`
	Tickets       []models.Ticket     `json:"tickets"`
	RushHours     []models.RushWindow `json:"rushHours"`
	Vacations     []models.Vacation   `json:"vacations"`
}

// Load reads and normalises the seed file at path. Plaintext passwords are
// hashed with bcryptCost.
func Load(path string, bcryptCost int) (*models.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed %s: %w", path, err)
	}
	defer f.Close()

	snap, err := Decode(f, bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to load seed %s: %w", path, err)
	}
	return snap, nil
}

func Decode(r io.Reader, bcryptCost int) (*models.Snapshot, error) {
	var raw rawSnapshot
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("invalid seed json: %w", err)
	}

	snap := &models.Snapshot{
		Categories: raw.Categories,
		Gates:      raw.Gates,
		Zones:      raw.Zones,
		Tickets:    raw.Tickets,
		RushHours:  raw.RushHours,
		Vacations:  raw.Vacations,
	}

	for _, ru := range raw.Users {
		u := ru.User
		switch {
		case ru.PasswordHash != "":
			u.PasswordHash = ru.PasswordHash
		case ru.Password != "":
			hash, err := auth.HashPassword(ru.Password, bcryptCost)
			if err != nil {
				return nil, fmt.Errorf("failed to hash password for %s: %w", u.Username, err)
			}
			u.PasswordHash = hash
		}
		snap.Users = append(snap.Users, u)
	}

	for _, rs := range raw.Subscriptions {
		sub := rs.Subscription
		if rs.Category != "" && !sub.Permits(rs.Category) {
			sub.Categories = append(sub.Categories, rs.Category)
		}
		snap.Subscriptions = append(snap.Subscriptions, sub)
	}

	if err := Normalize(snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// Normalize fills missing collections and rejects references to unknown
// categories or zones.
func Normalize(snap *models.Snapshot) error {
	categories := make(map[string]bool, len(snap.Categories))
	for _, c := range snap.Categories {
		categories[c.ID] = true
	}
	zones := make(map[string]bool, len(snap.Zones))
	for i := range snap.Zones {
		z := &snap.Zones[i]
		if z.ID == "" {
			return fmt.Errorf("zone %d has no id", i)
		}
		if !categories[z.CategoryID] {
			return fmt.Errorf("zone %s references unknown category %q", z.ID, z.CategoryID)
		}
		if z.GateIDs == nil {
			z.GateIDs = []string{}
		}
		if z.Occupied < 0 {
			z.Occupied = 0
		}
		zones[z.ID] = true
	}

	for i := range snap.Gates {
		g := &snap.Gates[i]
		if g.ZoneIDs == nil {
			g.ZoneIDs = []string{}
		}
		for _, zoneID := range g.ZoneIDs {
			if !zones[zoneID] {
				return fmt.Errorf("gate %s references unknown zone %q", g.ID, zoneID)
			}
		}
	}

	for i := range snap.Subscriptions {
		s := &snap.Subscriptions[i]
		if s.Categories == nil {
			s.Categories = []string{}
		}
		if s.Cars == nil {
			s.Cars = []models.Car{}
		}
		if s.CurrentCheckins == nil {
			s.CurrentCheckins = []models.CheckinRef{}
		}
	}

	for i := range snap.Tickets {
		t := &snap.Tickets[i]
		t.CheckinAt = t.CheckinAt.UTC()
		if t.CheckoutAt != nil {
			out := t.CheckoutAt.UTC()
			t.CheckoutAt = &out
		}
	}
	return nil
}
