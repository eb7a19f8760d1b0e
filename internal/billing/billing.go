// Package billing prices a parking stay minute by minute against the rate
// calendar and folds the minutes into rate segments.
package billing

import (
	"math"
	"time"

	"ms-parking/internal/models"
	"ms-parking/internal/rates"
)

type Mode string

const (
	ModeNormal  Mode = "normal"
	ModeSpecial Mode = "special"
)

const step = time.Minute

// Classifier tells normal from special instants. *rates.Calendar satisfies it.
type Classifier interface {
	IsSpecialRate(t time.Time) rates.Classification
}

// Rates are currency units per hour.
type Rates struct {
	Normal  float64
	Special float64
}

type Input struct {
	CheckinAt  time.Time
	CheckoutAt time.Time
	Rates      Rates
	// Charge is false for subscriber stays: segments are still produced but
	// every amount is zero.
	Charge bool
}

type Result struct {
	Breakdown     []models.BreakdownItem
	Amount        float64
	DurationHours float64
}

type segment struct {
	from, to time.Time
	mode     Mode
	rate     float64
	minutes  float64
	amount   float64
}

// Compute walks [CheckinAt, CheckoutAt) in one-minute steps. The last step may
// be shorter than a minute. Steps with the same mode and rate that touch each
// other are merged into one breakdown entry.
func Compute(cls Classifier, in Input) Result {
	from := in.CheckinAt.UTC()
	to := in.CheckoutAt.UTC()
	if to.Before(from) {
		to = from
	}

	var segs []*segment
	for t := from; t.Before(to); {
		next := t.Add(step)
		if next.After(to) {
			next = to
		}

		mode, rate := ModeNormal, in.Rates.Normal
		if cls.IsSpecialRate(t).Special {
			mode, rate = ModeSpecial, in.Rates.Special
		}

		minutes := next.Sub(t).Minutes()
		amount := 0.0
		if in.Charge {
			amount = minutes * rate / 60
		}

		if n := len(segs); n > 0 && segs[n-1].mode == mode && segs[n-1].rate == rate && segs[n-1].to.Equal(t) {
			last := segs[n-1]
			last.to = next
			last.minutes += minutes
			last.amount += amount
		} else {
			segs = append(segs, &segment{from: t, to: next, mode: mode, rate: rate, minutes: minutes, amount: amount})
		}
		t = next
	}

	res := Result{
		Breakdown:     make([]models.BreakdownItem, 0, len(segs)),
		DurationHours: Round(to.Sub(from).Hours(), 4),
	}
	total := 0.0
	for _, s := range segs {
		total += s.amount
		res.Breakdown = append(res.Breakdown, models.BreakdownItem{
			From:     s.from,
			To:       s.to,
			Minutes:  s.minutes,
			Hours:    Round(s.minutes/60, 4),
			RateMode: string(s.mode),
			Rate:     s.rate,
			Amount:   Round(s.amount, 2),
		})
	}
	// displayed segment amounts may sum to one cent off the total
	res.Amount = Round(total, 2)
	return res
}

// Round rounds half away from zero to the given number of decimals.
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
