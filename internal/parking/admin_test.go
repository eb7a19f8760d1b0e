package parking_test

import (
	"testing"
	"time"

	"ms-parking/internal/models"
	"ms-parking/internal/parking"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func float(v float64) *float64 { return &v }
func str(v string) *string     { return &v }

func TestSetCategoryRates(t *testing.T) {
	n := &MockNotifier{}
	svc, _ := newTestService(parking.WithNotifier(n))

	n.On("AdminUpdated", mock.MatchedBy(func(e models.AdminEvent) bool {
		d, ok := e.Details.(map[string]float64)
		return ok && e.AdminID == "admin" &&
			e.Action == models.ActionCategoryRatesChanged &&
			e.TargetType == "category" && e.TargetID == "cat_economy" &&
			d["rateNormal"] == 2.5 && d["rateSpecial"] == 3 &&
			e.Timestamp.Equal(testStart)
	})).Once()
	// both economy zones carry the new rate
	n.On("ZoneUpdated", mock.MatchedBy(func(u models.ZoneUpdate) bool {
		return u.Zone.CategoryID == "cat_economy" && u.Zone.RateNormal == 2.5
	})).Twice()

	cat, err := svc.SetCategoryRates("admin", "cat_economy", parking.CategoryUpdate{
		RateNormal:  float(2.5),
		Description: str("Outdoor lots"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2.5, cat.RateNormal)
	assert.Equal(t, 3.0, cat.RateSpecial)
	assert.Equal(t, "Economy", cat.Name)
	assert.Equal(t, "Outdoor lots", cat.Description)

	n.AssertExpectations(t)

	st, err := svc.ComputeZoneState("zone_c")
	require.NoError(t, err)
	assert.Equal(t, 2.5, st.RateNormal)
}

func TestSetCategoryRates_NewRateBillsCheckout(t *testing.T) {
	svc, clock := newTestService()

	in, err := svc.CheckIn(visitor("zone_a"))
	require.NoError(t, err)

	_, err = svc.SetCategoryRates("admin", "cat_premium", parking.CategoryUpdate{RateNormal: float(10)})
	require.NoError(t, err)

	clock.Advance(time.Hour)
	out, err := svc.Checkout(parking.CheckoutRequest{TicketID: in.Ticket.ID})
	require.NoError(t, err)
	assert.Equal(t, 10.0, out.Amount)
}

func TestSetCategoryRates_Errors(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.SetCategoryRates("admin", "cat_missing", parking.CategoryUpdate{RateNormal: float(1)})
	assert.ErrorIs(t, err, parking.ErrCategoryNotFound)
	assert.Equal(t, parking.KindNotFound, parking.KindOf(err))

	_, err = svc.SetCategoryRates("admin", "cat_premium", parking.CategoryUpdate{RateSpecial: float(-1)})
	assert.ErrorIs(t, err, parking.ErrInvalidRate)
	assert.Equal(t, parking.KindInvalidInput, parking.KindOf(err))
}

func TestSetZoneOpen(t *testing.T) {
	n := &MockNotifier{}
	svc, _ := newTestService(parking.WithNotifier(n))

	n.On("AdminUpdated", mock.MatchedBy(func(e models.AdminEvent) bool {
		return e.Action == models.ActionZoneOpened && e.TargetType == "zone" && e.TargetID == "zone_b"
	})).Once()
	n.On("ZoneUpdated", mock.MatchedBy(func(u models.ZoneUpdate) bool {
		return u.Zone.ID == "zone_b" && u.Zone.Open
	})).Once()

	res, err := svc.SetZoneOpen("admin", "zone_b", true)
	require.NoError(t, err)
	assert.Equal(t, &models.ZoneOpenResult{ZoneID: "zone_b", Open: true}, res)
	n.AssertExpectations(t)

	n.On("TicketCheckedIn", mock.Anything).Once()
	n.On("ZoneUpdated", mock.MatchedBy(func(u models.ZoneUpdate) bool {
		return u.Zone.ID == "zone_b" && u.Zone.Occupied == 1
	})).Once()

	_, err = svc.CheckIn(visitor("zone_b"))
	assert.NoError(t, err)
	n.AssertExpectations(t)
}

func TestSetZoneOpen_CloseKeepsCheckoutWorking(t *testing.T) {
	svc, clock := newTestService()

	in, err := svc.CheckIn(visitor("zone_a"))
	require.NoError(t, err)

	_, err = svc.SetZoneOpen("admin", "zone_a", false)
	require.NoError(t, err)

	_, err = svc.CheckIn(visitor("zone_a"))
	assert.ErrorIs(t, err, parking.ErrZoneClosed)

	clock.Advance(time.Hour)
	_, err = svc.Checkout(parking.CheckoutRequest{TicketID: in.Ticket.ID})
	assert.NoError(t, err)

	_, err = svc.SetZoneOpen("admin", "zone_missing", true)
	assert.ErrorIs(t, err, parking.ErrZoneNotFound)
}

func TestAddRushWindow(t *testing.T) {
	n := &MockNotifier{}
	svc, clock := newTestService(parking.WithNotifier(n))

	n.On("AdminUpdated", mock.MatchedBy(func(e models.AdminEvent) bool {
		r, ok := e.Details.(models.RushWindow)
		return ok && e.Action == models.ActionRushUpdated && e.TargetType == "rush" && r.ID == e.TargetID
	})).Once()

	r, err := svc.AddRushWindow("admin", 1, "10:00", "11:00")
	require.NoError(t, err)
	assert.Equal(t, "rush_1", r.ID)
	n.AssertExpectations(t)

	n.On("TicketCheckedIn", mock.Anything)
	n.On("TicketCheckedOut", mock.Anything, mock.Anything)
	n.On("ZoneUpdated", mock.Anything)

	in, err := svc.CheckIn(visitor("zone_a"))
	require.NoError(t, err)
	clock.Advance(time.Hour)
	out, err := svc.Checkout(parking.CheckoutRequest{TicketID: in.Ticket.ID})
	require.NoError(t, err)
	require.Len(t, out.Breakdown, 1)
	assert.Equal(t, "special", out.Breakdown[0].RateMode)
	assert.Equal(t, 8.0, out.Amount)
}

func TestAddRushWindow_Invalid(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.AddRushWindow("admin", 9, "10:00", "11:00")
	assert.ErrorIs(t, err, parking.ErrInvalidRushWindow)
	assert.Equal(t, parking.KindInvalidInput, parking.KindOf(err))

	_, err = svc.AddRushWindow("admin", 1, "11:00", "10:00")
	assert.ErrorIs(t, err, parking.ErrInvalidRushWindow)

	assert.Len(t, svc.Snapshot().RushHours, 1)
}

func TestAddVacation(t *testing.T) {
	n := &MockNotifier{}
	svc, clock := newTestService(parking.WithNotifier(n))
	n.On("AdminUpdated", mock.MatchedBy(func(e models.AdminEvent) bool {
		return e.Action == models.ActionVacationAdded && e.TargetType == "vacation"
	})).Once()

	v, err := svc.AddVacation("admin", "New Year", "2025-01-06", "2025-01-06")
	require.NoError(t, err)
	assert.Equal(t, "vac_1", v.ID)
	assert.Equal(t, "New Year", v.Name)
	n.AssertExpectations(t)

	n.On("TicketCheckedIn", mock.Anything)
	n.On("TicketCheckedOut", mock.Anything, mock.Anything)
	n.On("ZoneUpdated", mock.Anything)

	in, err := svc.CheckIn(visitor("zone_a"))
	require.NoError(t, err)
	clock.Advance(30 * time.Minute)
	out, err := svc.Checkout(parking.CheckoutRequest{TicketID: in.Ticket.ID})
	require.NoError(t, err)
	assert.Equal(t, 4.0, out.Amount)
}

func TestAddVacation_Invalid(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.AddVacation("admin", "", "2025-01-01", "2025-01-02")
	assert.ErrorIs(t, err, parking.ErrMissingFields)

	_, err = svc.AddVacation("admin", "Bad", "2025-01-05", "2025-01-01")
	assert.ErrorIs(t, err, parking.ErrInvalidVacation)

	_, err = svc.AddVacation("admin", "Bad", "tomorrow", "2025-01-01")
	assert.ErrorIs(t, err, parking.ErrInvalidVacation)
}
