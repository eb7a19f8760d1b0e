package utils

import (
	"strings"

	"github.com/google/uuid"
)

// shortID returns the first group of a random UUID, e.g. "9b1deb4d".
func shortID() string {
	return strings.SplitN(uuid.NewString(), "-", 2)[0]
}

func NewTicketID() string {
	return "t_" + shortID()
}

func NewRushID() string {
	return "rush_" + shortID()
}

func NewVacationID() string {
	return "vac_" + shortID()
}

// NewSessionID creates the jti of an issued token.
func NewSessionID() string {
	return uuid.NewString()
}

// UUIDGenerator mints runtime identifiers for the parking service.
type UUIDGenerator struct{}

func (UUIDGenerator) TicketID() string   { return NewTicketID() }
func (UUIDGenerator) RushID() string     { return NewRushID() }
func (UUIDGenerator) VacationID() string { return NewVacationID() }
