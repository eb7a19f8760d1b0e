// Package rates decides whether an instant is billed at the normal or the
// special rate.
package rates

import (
	"errors"
	"fmt"
	"time"

	"ms-parking/internal/models"
)

type Reason string

const (
	ReasonNone     Reason = ""
	ReasonVacation Reason = "vacation"
	ReasonRush     Reason = "rush"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
)

var (
	ErrInvalidWeekDay = errors.New("weekDay must be between 0 and 6")
	ErrInvalidClock   = errors.New("time must be HH:MM")
	ErrInvalidDate    = errors.New("date must be YYYY-MM-DD")
	ErrEmptyRange     = errors.New("from must be before to")
)

// Classification is the outcome of IsSpecialRate.
type Classification struct {
	Special bool   `json:"special"`
	Reason  Reason `json:"reason,omitempty"`
}

// Calendar holds the vacation periods and weekly rush windows. It is not
// safe for concurrent mutation; the owner serialises access.
type Calendar struct {
	vacations []models.Vacation
	rushHours []models.RushWindow
}

func NewCalendar(vacations []models.Vacation, rushHours []models.RushWindow) *Calendar {
	c := &Calendar{}
	c.vacations = append(c.vacations, vacations...)
	c.rushHours = append(c.rushHours, rushHours...)
	return c
}

// IsSpecialRate classifies t. Vacations win over rush windows. All
// comparisons happen on the UTC calendar date and UTC wall clock.
func (c *Calendar) IsSpecialRate(t time.Time) Classification {
	utc := t.UTC()

	date := utc.Format(dateLayout)
	for _, v := range c.vacations {
		if date >= v.From && date <= v.To {
			return Classification{Special: true, Reason: ReasonVacation}
		}
	}

	weekDay := int(utc.Weekday())
	hhmm := utc.Format(clockLayout)
	for _, r := range c.rushHours {
		// to is exclusive
		if r.WeekDay == weekDay && r.From <= hhmm && hhmm < r.To {
			return Classification{Special: true, Reason: ReasonRush}
		}
	}

	return Classification{Special: false, Reason: ReasonNone}
}

func (c *Calendar) AddRushWindow(r models.RushWindow) {
	c.rushHours = append(c.rushHours, r)
}

func (c *Calendar) AddVacation(v models.Vacation) {
	c.vacations = append(c.vacations, v)
}

func (c *Calendar) RushHours() []models.RushWindow {
	return append([]models.RushWindow(nil), c.rushHours...)
}

func (c *Calendar) Vacations() []models.Vacation {
	return append([]models.Vacation(nil), c.vacations...)
}

// ValidateRushWindow checks a window before it is added. "24:00" is accepted
// as an end of day.
func ValidateRushWindow(weekDay int, from, to string) error {
	if weekDay < 0 || weekDay > 6 {
		return ErrInvalidWeekDay
	}
	if !validClock(from) || !validClock(to) || from == "24:00" {
		return fmt.Errorf("%w: from=%q to=%q", ErrInvalidClock, from, to)
	}
	if from >= to {
		return ErrEmptyRange
	}
	return nil
}

// ValidateVacation checks an inclusive date range.
func ValidateVacation(from, to string) error {
	if _, err := time.Parse(dateLayout, from); err != nil {
		return fmt.Errorf("%w: from=%q", ErrInvalidDate, from)
	}
	if _, err := time.Parse(dateLayout, to); err != nil {
		return fmt.Errorf("%w: to=%q", ErrInvalidDate, to)
	}
	if from > to {
		return ErrEmptyRange
	}
	return nil
}

func validClock(s string) bool {
	if s == "24:00" {
		return true
	}
	if len(s) != len(clockLayout) {
		return false
	}
	_, err := time.Parse(clockLayout, s)
	return err == nil
}
