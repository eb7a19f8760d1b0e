package parking

import (
	"fmt"
	"strings"

	"ms-parking/internal/models"
	"ms-parking/internal/rates"
)

// CategoryUpdate carries the optional fields of a category edit. Nil fields
// are left as they are.
type CategoryUpdate struct {
	RateNormal  *float64
	RateSpecial *float64
	Name        *string
	Description *string
}

// SetCategoryRates edits a category and broadcasts the new rates to every
// client, plus a zone update for each zone priced by the category.
func (s *Service) SetCategoryRates(adminID, categoryID string, upd CategoryUpdate) (*models.Category, error) {
	if (upd.RateNormal != nil && *upd.RateNormal < 0) || (upd.RateSpecial != nil && *upd.RateSpecial < 0) {
		return nil, ErrInvalidRate
	}

	out := &outbox{}
	cat, err := func() (*models.Category, error) {
		s.mu.Lock()
		defer s.mu.Unlock()

		c, ok := s.categories[categoryID]
		if !ok {
			return nil, ErrCategoryNotFound
		}
		if upd.RateNormal != nil {
			c.RateNormal = *upd.RateNormal
		}
		if upd.RateSpecial != nil {
			c.RateSpecial = *upd.RateSpecial
		}
		if upd.Name != nil && *upd.Name != "" {
			c.Name = *upd.Name
		}
		if upd.Description != nil && *upd.Description != "" {
			c.Description = *upd.Description
		}

		out.admin = append(out.admin, models.AdminEvent{
			AdminID:    adminID,
			Action:     models.ActionCategoryRatesChanged,
			TargetType: "category",
			TargetID:   c.ID,
			Details:    map[string]float64{"rateNormal": c.RateNormal, "rateSpecial": c.RateSpecial},
			Timestamp:  s.now().UTC(),
		})
		for _, id := range s.zoneOrder {
			if z := s.zones[id]; z.CategoryID == c.ID {
				out.zones = append(out.zones, s.zoneUpdateLocked(z))
			}
		}

		s.handOffLocked()
		cp := *c
		return &cp, nil
	}()
	if err != nil {
		return nil, err
	}

	s.deliver(out)
	return cat, nil
}

// SetZoneOpen opens or closes a zone for new check-ins. Parked vehicles can
// always check out.
func (s *Service) SetZoneOpen(adminID, zoneID string, open bool) (*models.ZoneOpenResult, error) {
	out := &outbox{}
	res, err := func() (*models.ZoneOpenResult, error) {
		s.mu.Lock()
		defer s.mu.Unlock()

		z, ok := s.zones[zoneID]
		if !ok {
			return nil, ErrZoneNotFound
		}
		z.Open = open

		action := models.ActionZoneClosed
		if open {
			action = models.ActionZoneOpened
		}
		out.admin = append(out.admin, models.AdminEvent{
			AdminID:    adminID,
			Action:     action,
			TargetType: "zone",
			TargetID:   z.ID,
			Details:    map[string]bool{"open": open},
			Timestamp:  s.now().UTC(),
		})
		out.zones = append(out.zones, s.zoneUpdateLocked(z))
		s.handOffLocked()

		return &models.ZoneOpenResult{ZoneID: z.ID, Open: z.Open}, nil
	}()
	if err != nil {
		return nil, err
	}

	s.deliver(out)
	return res, nil
}

// AddRushWindow appends a weekly special-rate window. Windows are never
// edited or removed.
func (s *Service) AddRushWindow(adminID string, weekDay int, from, to string) (*models.RushWindow, error) {
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	if err := rates.ValidateRushWindow(weekDay, from, to); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRushWindow, err)
	}

	s.mu.Lock()
	r := models.RushWindow{ID: s.ids.RushID(), WeekDay: weekDay, From: from, To: to}
	s.calendar.AddRushWindow(r)
	event := models.AdminEvent{
		AdminID:    adminID,
		Action:     models.ActionRushUpdated,
		TargetType: "rush",
		TargetID:   r.ID,
		Details:    r,
		Timestamp:  s.now().UTC(),
	}
	s.handOffLocked()
	s.mu.Unlock()

	s.deliver(&outbox{admin: []models.AdminEvent{event}})
	return &r, nil
}

// AddVacation appends an inclusive date range billed at the special rate.
func (s *Service) AddVacation(adminID, name, from, to string) (*models.Vacation, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrMissingFields
	}
	if err := rates.ValidateVacation(from, to); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidVacation, err)
	}

	s.mu.Lock()
	v := models.Vacation{ID: s.ids.VacationID(), Name: name, From: from, To: to}
	s.calendar.AddVacation(v)
	event := models.AdminEvent{
		AdminID:    adminID,
		Action:     models.ActionVacationAdded,
		TargetType: "vacation",
		TargetID:   v.ID,
		Details:    v,
		Timestamp:  s.now().UTC(),
	}
	s.handOffLocked()
	s.mu.Unlock()

	s.deliver(&outbox{admin: []models.AdminEvent{event}})
	return &v, nil
}

// ParkingStateReport lists every zone with its live figures and the number
// of valid subscriptions that may park there.
func (s *Service) ParkingStateReport() []models.ZoneReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.ZoneReport, 0, len(s.zoneOrder))
	for _, id := range s.zoneOrder {
		z := s.zones[id]
		st := s.zoneStateLocked(z)
		out = append(out, models.ZoneReport{
			ZoneID:                  z.ID,
			Name:                    z.Name,
			TotalSlots:              z.TotalSlots,
			Occupied:                st.Occupied,
			Free:                    st.Free,
			Reserved:                st.Reserved,
			AvailableForVisitors:    st.AvailableForVisitors,
			AvailableForSubscribers: st.AvailableForSubscribers,
			SubscriberCount:         s.subscriberCountLocked(z.CategoryID),
			Open:                    z.Open,
		})
	}
	return out
}
