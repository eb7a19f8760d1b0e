package parking

import (
	"time"

	"ms-parking/internal/billing"
	"ms-parking/internal/models"
)

type CheckoutRequest struct {
	TicketID string
	// ForceConvertToVisitor bills a subscriber ticket at visitor rates.
	ForceConvertToVisitor bool
}

// Checkout finalises a parked ticket and prices the stay. A ticket can be
// checked out once; later attempts fail with ErrAlreadyCheckedOut and leave
// occupancy untouched.
func (s *Service) Checkout(req CheckoutRequest) (*models.CheckoutResult, error) {
	if req.TicketID == "" {
		return nil, ErrMissingFields
	}

	out := &outbox{}
	result, err := s.checkout(req, out)
	if err != nil {
		return nil, err
	}
	s.deliver(out)
	return result, nil
}

func (s *Service) checkout(req CheckoutRequest, out *outbox) (*models.CheckoutResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket, ok := s.tickets[req.TicketID]
	if !ok {
		return nil, ErrTicketNotFound
	}
	if !ticket.Parked() {
		return nil, ErrAlreadyCheckedOut
	}
	zone, ok := s.zones[ticket.ZoneID]
	if !ok {
		return nil, ErrZoneNotFound
	}

	checkoutAt := s.now().UTC().Truncate(time.Millisecond)
	if checkoutAt.Before(ticket.CheckinAt) {
		checkoutAt = ticket.CheckinAt
	}

	billingType := ticket.Type
	if ticket.Type == models.TicketSubscriber && req.ForceConvertToVisitor {
		billingType = models.TicketVisitor
	}

	var r billing.Rates
	if c, ok := s.categories[zone.CategoryID]; ok {
		r = billing.Rates{Normal: c.RateNormal, Special: c.RateSpecial}
	}
	bill := billing.Compute(s.calendar, billing.Input{
		CheckinAt:  ticket.CheckinAt,
		CheckoutAt: checkoutAt,
		Rates:      r,
		Charge:     billingType == models.TicketVisitor,
	})

	ticket.CheckoutAt = &checkoutAt
	delete(s.openTickets, ticket.ID)
	zone.Occupied = max(0, zone.Occupied-1)

	if ticket.Type == models.TicketSubscriber {
		s.releaseCheckinLocked(ticket.ID)
	}

	result := &models.CheckoutResult{
		TicketID:      ticket.ID,
		CheckinAt:     ticket.CheckinAt,
		CheckoutAt:    checkoutAt,
		DurationHours: bill.DurationHours,
		BillingType:   billingType,
		Breakdown:     bill.Breakdown,
		Amount:        bill.Amount,
		ZoneState:     s.payloadLocked(zone),
	}
	out.checkOuts = append(out.checkOuts, checkedOut{ticket: cloneTicket(*ticket), result: *result})
	out.zones = append(out.zones, s.zoneUpdateLocked(zone))
	s.handOffLocked()
	return result, nil
}

// releaseCheckinLocked removes the ticket from whichever subscription holds
// it. Tickets do not record their subscription, so every one is searched.
func (s *Service) releaseCheckinLocked(ticketID string) {
	for _, id := range s.subscriptionOrder {
		sub := s.subscriptions[id]
		for i, ref := range sub.CurrentCheckins {
			if ref.TicketID == ticketID {
				sub.CurrentCheckins = append(sub.CurrentCheckins[:i], sub.CurrentCheckins[i+1:]...)
				break
			}
		}
	}
}
