// Package parking owns the live working set of the car park: zones, tickets,
// subscriptions and the rate calendar. Every mutation runs inside one
// critical section; notifications go out after it is released.
package parking

import (
	"sync"
	"time"

	"ms-parking/internal/models"
	"ms-parking/internal/rates"
	"ms-parking/internal/utils"
)

// IDGenerator mints identifiers for records created at runtime.
type IDGenerator interface {
	TicketID() string
	RushID() string
	VacationID() string
}

type Option func(*Service)

// WithClock replaces time.Now. Tests use it to pin check-in and checkout
// instants.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithIDGenerator(ids IDGenerator) Option {
	return func(s *Service) { s.ids = ids }
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifiers = append(s.notifiers, n) }
}

type Service struct {
	mu sync.Mutex

	users         map[string]*models.User
	categories    map[string]*models.Category
	gates         map[string]*models.Gate
	zones         map[string]*models.Zone
	subscriptions map[string]*models.Subscription
	tickets       map[string]*models.Ticket

	// seed order, kept so listings are stable
	userOrder         []string
	categoryOrder     []string
	gateOrder         []string
	zoneOrder         []string
	subscriptionOrder []string
	ticketOrder       []string

	// parked tickets by id
	openTickets map[string]*models.Ticket

	calendar *rates.Calendar

	now func() time.Time
	ids IDGenerator

	// taken under mu by every mutation and released once its outbox is
	// delivered, so notifiers see changes in the order they were applied
	deliverMu sync.Mutex
	notifyMu  sync.RWMutex
	notifiers []Notifier
}

// NewService builds a service over a private copy of snap.
func NewService(snap *models.Snapshot, opts ...Option) *Service {
	if snap == nil {
		snap = &models.Snapshot{}
	}
	s := &Service{
		users:         make(map[string]*models.User),
		categories:    make(map[string]*models.Category),
		gates:         make(map[string]*models.Gate),
		zones:         make(map[string]*models.Zone),
		subscriptions: make(map[string]*models.Subscription),
		tickets:       make(map[string]*models.Ticket),
		openTickets:   make(map[string]*models.Ticket),
		now:           time.Now,
		ids:           utils.UUIDGenerator{},
	}
	for _, opt := range opts {
		opt(s)
	}

	for _, u := range snap.Users {
		s.users[u.ID] = &u
		s.userOrder = append(s.userOrder, u.ID)
	}
	for _, c := range snap.Categories {
		s.categories[c.ID] = &c
		s.categoryOrder = append(s.categoryOrder, c.ID)
	}
	for _, g := range snap.Gates {
		g := cloneGate(g)
		s.gates[g.ID] = &g
		s.gateOrder = append(s.gateOrder, g.ID)
	}
	for _, z := range snap.Zones {
		z := cloneZone(z)
		s.zones[z.ID] = &z
		s.zoneOrder = append(s.zoneOrder, z.ID)
	}
	for _, sub := range snap.Subscriptions {
		sub := cloneSubscription(sub)
		s.subscriptions[sub.ID] = &sub
		s.subscriptionOrder = append(s.subscriptionOrder, sub.ID)
	}
	for _, t := range snap.Tickets {
		t := cloneTicket(t)
		s.tickets[t.ID] = &t
		s.ticketOrder = append(s.ticketOrder, t.ID)
		if t.Parked() {
			s.openTickets[t.ID] = &t
		}
	}
	s.calendar = rates.NewCalendar(snap.Vacations, snap.RushHours)

	return s
}

// AddNotifier registers n for every later state change.
func (s *Service) AddNotifier(n Notifier) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	s.notifiers = append(s.notifiers, n)
}

// ---------------- READS ----------------

func (s *Service) ListGates() []models.Gate {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Gate, 0, len(s.gateOrder))
	for _, id := range s.gateOrder {
		out = append(out, cloneGate(*s.gates[id]))
	}
	return out
}

func (s *Service) ListCategories() []models.Category {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Category, 0, len(s.categoryOrder))
	for _, id := range s.categoryOrder {
		out = append(out, *s.categories[id])
	}
	return out
}

// ListZones returns the payload of every zone.
func (s *Service) ListZones() []models.ZonePayload {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.ZonePayload, 0, len(s.zoneOrder))
	for _, id := range s.zoneOrder {
		out = append(out, s.payloadLocked(s.zones[id]))
	}
	return out
}

// ListZonesForGate returns the payload of every zone reachable from gateID.
// An unknown gate yields an empty list.
func (s *Service) ListZonesForGate(gateID string) []models.ZonePayload {
	s.mu.Lock()
	defer s.mu.Unlock()

	zones := s.zonesForGateLocked(gateID)
	out := make([]models.ZonePayload, 0, len(zones))
	for _, z := range zones {
		out = append(out, s.payloadLocked(z))
	}
	return out
}

func (s *Service) GetTicket(ticketID string) (*models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tickets[ticketID]
	if !ok {
		return nil, ErrTicketNotFound
	}
	out := cloneTicket(*t)
	return &out, nil
}

func (s *Service) GetSubscription(subscriptionID string) (*models.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.subscriptions[subscriptionID]
	if !ok {
		return nil, ErrSubscriptionNotFound
	}
	out := cloneSubscription(*sub)
	return &out, nil
}

func (s *Service) ListSubscriptions() []models.Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Subscription, 0, len(s.subscriptionOrder))
	for _, id := range s.subscriptionOrder {
		out = append(out, cloneSubscription(*s.subscriptions[id]))
	}
	return out
}

func (s *Service) FindUserByUsername(username string) (*models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.userOrder {
		if u := s.users[id]; u.Username == username {
			out := *u
			return &out, true
		}
	}
	return nil, false
}

func (s *Service) GetUser(userID string) (*models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, false
	}
	out := *u
	return &out, true
}

// Snapshot copies the whole working set, e.g. for persistence on shutdown.
func (s *Service) Snapshot() *models.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := &models.Snapshot{
		Users:         make([]models.User, 0, len(s.userOrder)),
		Categories:    make([]models.Category, 0, len(s.categoryOrder)),
		Gates:         make([]models.Gate, 0, len(s.gateOrder)),
		Zones:         make([]models.Zone, 0, len(s.zoneOrder)),
		Subscriptions: make([]models.Subscription, 0, len(s.subscriptionOrder)),
		Tickets:       make([]models.Ticket, 0, len(s.ticketOrder)),
		RushHours:     s.calendar.RushHours(),
		Vacations:     s.calendar.Vacations(),
	}
	for _, id := range s.userOrder {
		snap.Users = append(snap.Users, *s.users[id])
	}
	for _, id := range s.categoryOrder {
		snap.Categories = append(snap.Categories, *s.categories[id])
	}
	for _, id := range s.gateOrder {
		snap.Gates = append(snap.Gates, cloneGate(*s.gates[id]))
	}
	for _, id := range s.zoneOrder {
		snap.Zones = append(snap.Zones, cloneZone(*s.zones[id]))
	}
	for _, id := range s.subscriptionOrder {
		snap.Subscriptions = append(snap.Subscriptions, cloneSubscription(*s.subscriptions[id]))
	}
	for _, id := range s.ticketOrder {
		snap.Tickets = append(snap.Tickets, cloneTicket(*s.tickets[id]))
	}
	return snap
}

// ---------------- TOPOLOGY ----------------

// zonesForGateLocked lists zones that name the gate or that the gate names,
// in zone order.
func (s *Service) zonesForGateLocked(gateID string) []*models.Zone {
	gate := s.gates[gateID]

	var out []*models.Zone
	for _, id := range s.zoneOrder {
		z := s.zones[id]
		if contains(z.GateIDs, gateID) || (gate != nil && contains(gate.ZoneIDs, z.ID)) {
			out = append(out, z)
		}
	}
	return out
}

// gatesForZoneLocked is the inverse of zonesForGateLocked.
func (s *Service) gatesForZoneLocked(z *models.Zone) []string {
	out := append([]string(nil), z.GateIDs...)
	for _, id := range s.gateOrder {
		if contains(s.gates[id].ZoneIDs, z.ID) && !contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

func (s *Service) zoneUpdateLocked(z *models.Zone) models.ZoneUpdate {
	return models.ZoneUpdate{
		Zone:    s.payloadLocked(z),
		GateIDs: s.gatesForZoneLocked(z),
	}
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// ---------------- COPIES ----------------

func cloneGate(g models.Gate) models.Gate {
	g.ZoneIDs = append([]string(nil), g.ZoneIDs...)
	return g
}

func cloneZone(z models.Zone) models.Zone {
	z.GateIDs = append([]string(nil), z.GateIDs...)
	return z
}

func cloneSubscription(sub models.Subscription) models.Subscription {
	sub.Categories = append([]string(nil), sub.Categories...)
	sub.Cars = append([]models.Car(nil), sub.Cars...)
	sub.CurrentCheckins = append([]models.CheckinRef{}, sub.CurrentCheckins...)
	if sub.StartsAt != nil {
		t := *sub.StartsAt
		sub.StartsAt = &t
	}
	if sub.ExpiresAt != nil {
		t := *sub.ExpiresAt
		sub.ExpiresAt = &t
	}
	return sub
}

func cloneTicket(t models.Ticket) models.Ticket {
	if t.CheckoutAt != nil {
		at := *t.CheckoutAt
		t.CheckoutAt = &at
	}
	return t
}
