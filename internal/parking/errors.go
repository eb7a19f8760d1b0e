package parking

import (
	"errors"
)

// Kind classifies a domain failure so the transport layer can pick a status.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindConflict
	KindInvalidInput
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindInvalidInput:
		return "invalid_input"
	case KindForbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

var (
	ErrZoneNotFound         = newError(KindNotFound, "zone_not_found", "Zone not found")
	ErrTicketNotFound       = newError(KindNotFound, "ticket_not_found", "Ticket not found")
	ErrSubscriptionNotFound = newError(KindNotFound, "subscription_not_found", "Subscription not found")
	ErrCategoryNotFound     = newError(KindNotFound, "category_not_found", "Category not found")

	ErrZoneClosed        = newError(KindConflict, "zone_closed", "Zone is closed")
	ErrNoVisitorSlots    = newError(KindConflict, "no_visitor_slots", "No available slots for visitors")
	ErrNoFreeSlots       = newError(KindConflict, "no_free_slots", "No free slots for subscribers")
	ErrAlreadyCheckedOut = newError(KindConflict, "already_checked_out", "Ticket already checked out")

	ErrInvalidSubscription = newError(KindInvalidInput, "invalid_subscription", "Invalid subscription")
	ErrInvalidType         = newError(KindInvalidInput, "invalid_type", "Invalid type")
	ErrMissingFields       = newError(KindInvalidInput, "missing_fields", "Missing required fields")
	ErrInvalidRushWindow   = newError(KindInvalidInput, "invalid_rush_window", "Invalid rush window")
	ErrInvalidVacation     = newError(KindInvalidInput, "invalid_vacation", "Invalid vacation")
	ErrInvalidRate         = newError(KindInvalidInput, "invalid_rate", "Rates must not be negative")

	ErrCategoryMismatch = newError(KindForbidden, "category_mismatch", "Subscription not valid for this category")
)

// KindOf extracts the Kind of err, or KindUnknown when err is not a domain
// error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
