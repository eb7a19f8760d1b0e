package parking

import (
	"time"

	"ms-parking/internal/models"
)

type CheckInRequest struct {
	GateID         string
	ZoneID         string
	Type           models.TicketType
	SubscriptionID string
}

// CheckIn admits a vehicle into a zone. The availability check, the occupancy
// increment, the ticket and the subscription link are applied together or not
// at all.
func (s *Service) CheckIn(req CheckInRequest) (*models.CheckInResult, error) {
	if req.GateID == "" || req.ZoneID == "" || req.Type == "" {
		return nil, ErrMissingFields
	}

	out := &outbox{}
	result, err := s.checkIn(req, out)
	if err != nil {
		return nil, err
	}
	s.deliver(out)
	return result, nil
}

func (s *Service) checkIn(req CheckInRequest, out *outbox) (*models.CheckInResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	zone, ok := s.zones[req.ZoneID]
	if !ok {
		return nil, ErrZoneNotFound
	}
	if !zone.Open {
		return nil, ErrZoneClosed
	}

	state := s.zoneStateLocked(zone)
	now := s.now().UTC().Truncate(time.Millisecond)

	var sub *models.Subscription
	switch req.Type {
	case models.TicketVisitor:
		if state.AvailableForVisitors <= 0 {
			return nil, ErrNoVisitorSlots
		}
	case models.TicketSubscriber:
		sub = s.subscriptions[req.SubscriptionID]
		if sub == nil || !validAt(sub, now) {
			return nil, ErrInvalidSubscription
		}
		if !sub.Permits(zone.CategoryID) {
			return nil, ErrCategoryMismatch
		}
		if state.Free <= 0 {
			return nil, ErrNoFreeSlots
		}
	default:
		return nil, ErrInvalidType
	}

	ticket := &models.Ticket{
		ID:        s.freeTicketIDLocked(),
		Type:      req.Type,
		ZoneID:    zone.ID,
		GateID:    req.GateID,
		CheckinAt: now,
	}
	s.tickets[ticket.ID] = ticket
	s.ticketOrder = append(s.ticketOrder, ticket.ID)
	s.openTickets[ticket.ID] = ticket
	zone.Occupied++

	if sub != nil {
		sub.CurrentCheckins = append(sub.CurrentCheckins, models.CheckinRef{
			TicketID:  ticket.ID,
			ZoneID:    zone.ID,
			CheckinAt: now,
		})
	}

	result := &models.CheckInResult{
		Ticket:    cloneTicket(*ticket),
		ZoneState: s.payloadLocked(zone),
	}
	out.checkIns = append(out.checkIns, result.Ticket)
	out.zones = append(out.zones, s.zoneUpdateLocked(zone))
	s.handOffLocked()
	return result, nil
}

// freeTicketIDLocked draws ticket ids until one is not already in use.
func (s *Service) freeTicketIDLocked() string {
	for {
		id := s.ids.TicketID()
		if _, taken := s.tickets[id]; !taken {
			return id
		}
	}
}
