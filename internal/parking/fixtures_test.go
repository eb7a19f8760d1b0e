package parking_test

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"ms-parking/internal/models"
	"ms-parking/internal/parking"

	"github.com/stretchr/testify/mock"
)

// fakeClock is a settable clock shared by a test and its service.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{now: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type seqIDs struct {
	n atomic.Int64
}

func (s *seqIDs) next(prefix string) string {
	return fmt.Sprintf("%s%d", prefix, s.n.Add(1))
}

func (s *seqIDs) TicketID() string   { return s.next("t_") }
func (s *seqIDs) RushID() string     { return s.next("rush_") }
func (s *seqIDs) VacationID() string { return s.next("vac_") }

// MockNotifier records every notification.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) ZoneUpdated(update models.ZoneUpdate) {
	m.Called(update)
}

func (m *MockNotifier) AdminUpdated(event models.AdminEvent) {
	m.Called(event)
}

func (m *MockNotifier) TicketCheckedIn(ticket models.Ticket) {
	m.Called(ticket)
}

func (m *MockNotifier) TicketCheckedOut(ticket models.Ticket, result models.CheckoutResult) {
	m.Called(ticket, result)
}

// Monday 2025-01-06 10:00 UTC, outside every rush window below.
var testStart = time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)

func testSnapshot() *models.Snapshot {
	return &models.Snapshot{
		Users: []models.User{
			{ID: "admin", Username: "admin", Role: models.RoleAdmin},
			{ID: "emp1", Username: "employee", Role: models.RoleEmployee},
		},
		Categories: []models.Category{
			{ID: "cat_premium", Name: "Premium", RateNormal: 5, RateSpecial: 8},
			{ID: "cat_economy", Name: "Economy", RateNormal: 2, RateSpecial: 3},
		},
		Gates: []models.Gate{
			{ID: "gate_1", Name: "Main Entrance", ZoneIDs: []string{"zone_a", "zone_b"}, Location: "North"},
			{ID: "gate_2", Name: "East Entrance", ZoneIDs: []string{"zone_c"}, Location: "East"},
		},
		Zones: []models.Zone{
			{ID: "zone_a", Name: "Zone A", CategoryID: "cat_premium", GateIDs: []string{"gate_1"}, TotalSlots: 10, Open: true},
			{ID: "zone_b", Name: "Zone B", CategoryID: "cat_economy", GateIDs: []string{"gate_1"}, TotalSlots: 5, Open: false},
			{ID: "zone_c", Name: "Zone C", CategoryID: "cat_economy", GateIDs: []string{"gate_2"}, TotalSlots: 3, Open: true},
		},
		Subscriptions: []models.Subscription{
			{ID: "sub_active", UserName: "Ali", Active: true, Categories: []string{"cat_premium"},
				Cars: []models.Car{{Plate: "ABC-123", Brand: "Toyota", Model: "Corolla", Color: "white"}}},
			{ID: "sub_inactive", UserName: "Mona", Active: false, Categories: []string{"cat_premium"}},
			{ID: "sub_economy", UserName: "Omar", Active: true, Categories: []string{"cat_economy"}},
		},
		RushHours: []models.RushWindow{
			{ID: "rush_seed", WeekDay: 1, From: "07:00", To: "09:00"},
		},
	}
}

func newTestService(opts ...parking.Option) (*parking.Service, *fakeClock) {
	clock := newFakeClock(testStart)
	opts = append([]parking.Option{parking.WithClock(clock.Now), parking.WithIDGenerator(&seqIDs{})}, opts...)
	return parking.NewService(testSnapshot(), opts...), clock
}
