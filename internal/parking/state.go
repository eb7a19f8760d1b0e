package parking

import (
	"time"

	"ms-parking/internal/models"
)

// reservedShare is the fraction of off-site subscribers held back as
// reserved slots, in percent.
const reservedShare = 15

// ComputeZoneState derives the live figures of a zone. Nothing is cached:
// tickets and subscriptions change between calls.
func (s *Service) ComputeZoneState(zoneID string) (models.ZoneState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	z, ok := s.zones[zoneID]
	if !ok {
		return models.ZoneState{}, ErrZoneNotFound
	}
	return s.zoneStateLocked(z), nil
}

// ZonePayload returns the wire shape of a zone.
func (s *Service) ZonePayload(zoneID string) (models.ZonePayload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	z, ok := s.zones[zoneID]
	if !ok {
		return models.ZonePayload{}, ErrZoneNotFound
	}
	return s.payloadLocked(z), nil
}

func (s *Service) zoneStateLocked(z *models.Zone) models.ZoneState {
	total := max(0, z.TotalSlots)
	free := max(0, total-z.Occupied)

	reserved := min(max(0, ceilPercent(s.subscribersOutsideLocked(z.CategoryID), reservedShare)), total)

	reservedOccupied := 0
	for _, t := range s.openTickets {
		if t.ZoneID == z.ID && t.Type == models.TicketSubscriber {
			reservedOccupied++
		}
	}
	reservedFree := max(0, reserved-reservedOccupied)

	st := models.ZoneState{
		Occupied:                z.Occupied,
		Free:                    free,
		Reserved:                reserved,
		AvailableForVisitors:    max(0, free-reservedFree),
		AvailableForSubscribers: free,
	}
	if c, ok := s.categories[z.CategoryID]; ok {
		st.RateNormal = c.RateNormal
		st.RateSpecial = c.RateSpecial
	}
	return st
}

func (s *Service) payloadLocked(z *models.Zone) models.ZonePayload {
	st := s.zoneStateLocked(z)
	return models.ZonePayload{
		ID:                      z.ID,
		Name:                    z.Name,
		CategoryID:              z.CategoryID,
		GateIDs:                 append([]string{}, z.GateIDs...),
		TotalSlots:              z.TotalSlots,
		Occupied:                st.Occupied,
		Free:                    st.Free,
		Reserved:                st.Reserved,
		AvailableForVisitors:    st.AvailableForVisitors,
		AvailableForSubscribers: st.AvailableForSubscribers,
		RateNormal:              st.RateNormal,
		RateSpecial:             st.RateSpecial,
		Open:                    z.Open,
	}
}

// subscribersOutsideLocked counts valid subscriptions for the category minus
// the vehicles they currently have parked. The result can be negative when
// a subscription parks more cars than it is counted for.
func (s *Service) subscribersOutsideLocked(categoryID string) int {
	now := s.now()
	active, checkedIn := 0, 0
	for _, id := range s.subscriptionOrder {
		sub := s.subscriptions[id]
		if !validAt(sub, now) || !sub.Permits(categoryID) {
			continue
		}
		active++
		checkedIn += len(sub.CurrentCheckins)
	}
	return active - checkedIn
}

// subscriberCountLocked counts valid subscriptions permitted for the
// category.
func (s *Service) subscriberCountLocked(categoryID string) int {
	now := s.now()
	n := 0
	for _, sub := range s.subscriptions {
		if validAt(sub, now) && sub.Permits(categoryID) {
			n++
		}
	}
	return n
}

// validAt reports whether sub is active and inside its optional validity
// window at t.
func validAt(sub *models.Subscription, t time.Time) bool {
	if !sub.Active {
		return false
	}
	if sub.StartsAt != nil && t.Before(*sub.StartsAt) {
		return false
	}
	if sub.ExpiresAt != nil && !t.Before(*sub.ExpiresAt) {
		return false
	}
	return true
}

// ceilPercent returns ceil(n*pct/100) using integer arithmetic.
func ceilPercent(n, pct int) int {
	if n <= 0 {
		return 0
	}
	return (n*pct + 99) / 100
}
