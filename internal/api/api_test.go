package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"ms-parking/internal/api"
	"ms-parking/internal/auth"
	"ms-parking/internal/logger"
	"ms-parking/internal/models"
	"ms-parking/internal/parking"
	"ms-parking/internal/realtime"
	"ms-parking/internal/tickets/qr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Monday 2025-01-06 10:00 UTC.
var testStart = time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	server  *httptest.Server
	service *parking.Service
	qr      *qr.QRGenerator
	clock   *testClock
}

func testSnapshot(t *testing.T) *models.Snapshot {
	t.Helper()
	hash, err := auth.HashPassword("secret", 4)
	require.NoError(t, err)
	return &models.Snapshot{
		Users: []models.User{
			{ID: "admin", Username: "admin", Role: models.RoleAdmin, PasswordHash: hash},
			{ID: "emp1", Username: "employee", Role: models.RoleEmployee, PasswordHash: hash},
		},
		Categories: []models.Category{
			{ID: "cat_premium", Name: "Premium", RateNormal: 5, RateSpecial: 8},
			{ID: "cat_economy", Name: "Economy", RateNormal: 2, RateSpecial: 3},
		},
		Gates: []models.Gate{
			{ID: "gate_1", Name: "Main", ZoneIDs: []string{"zone_a", "zone_b"}},
			{ID: "gate_2", Name: "East", ZoneIDs: []string{"zone_c"}},
		},
		Zones: []models.Zone{
			{ID: "zone_a", Name: "Zone A", CategoryID: "cat_premium", GateIDs: []string{"gate_1"}, TotalSlots: 10, Open: true},
			{ID: "zone_b", Name: "Zone B", CategoryID: "cat_economy", GateIDs: []string{"gate_1"}, TotalSlots: 5, Open: false},
			{ID: "zone_c", Name: "Zone C", CategoryID: "cat_economy", GateIDs: []string{"gate_2"}, TotalSlots: 3, Open: true},
		},
		Subscriptions: []models.Subscription{
			{ID: "sub_active", UserName: "Ali", Active: true, Categories: []string{"cat_premium"}},
			{ID: "sub_economy", UserName: "Omar", Active: true, Categories: []string{"cat_economy"}},
		},
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{clock: &testClock{now: testStart}}
	log := logger.NewNop()

	env.service = parking.NewService(testSnapshot(t), parking.WithClock(env.clock.Now))
	authenticator := auth.NewAuthenticator(env.service, auth.NewIssuer("test-secret", time.Hour), auth.NewMemorySessionStore(), log)
	env.qr = qr.NewQRGenerator("qr-test-key")
	hub := realtime.NewHub(env.service, log)
	env.service.AddNotifier(hub)

	router := api.NewRouter(api.RouterConfig{
		BasePath:       "/api/v1",
		AllowedOrigins: []string{"*"},
		Handler:        &api.Handler{Service: env.service, Auth: authenticator, QR: env.qr, Logger: log},
		WS:             realtime.NewWSHandler(hub, log, nil),
		SSE:            realtime.NewSSEHandler(hub, log),
	})
	env.server = httptest.NewServer(router)
	t.Cleanup(env.server.Close)
	return env
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	buf := new(bytes.Buffer)
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

func (e *testEnv) login(t *testing.T, username string) string {
	t.Helper()
	resp, body := e.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": username, "password": "secret"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var out struct {
		User  map[string]string `json:"user"`
		Token string            `json:"token"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	require.NotEmpty(t, out.Token)
	return out.Token
}

func errorMessage(t *testing.T, body []byte) string {
	t.Helper()
	var out map[string]string
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "error", out["status"])
	return out["message"]
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "ok")
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "admin", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid credentials", errorMessage(t, body))

	resp, _ = env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "admin"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "admin", "password": "secret"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, string(body), "password")
	assert.Contains(t, string(body), `"role":"admin"`)
}

func TestLogoutRevokesToken(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "admin")

	resp, _ := env.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, "/api/v1/admin/subscriptions", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMasterEndpoints(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, http.MethodGet, "/api/v1/master/gates", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var gates []models.Gate
	require.NoError(t, json.Unmarshal(body, &gates))
	assert.Len(t, gates, 2)

	resp, body = env.do(t, http.MethodGet, "/api/v1/master/zones?gateId=gate_1", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var zones []models.ZonePayload
	require.NoError(t, json.Unmarshal(body, &zones))
	require.Len(t, zones, 2)
	assert.Equal(t, "zone_a", zones[0].ID)
	assert.Equal(t, 5.0, zones[0].RateNormal)

	_, body = env.do(t, http.MethodGet, "/api/v1/master/zones", "", nil)
	require.NoError(t, json.Unmarshal(body, &zones))
	assert.Len(t, zones, 3)

	_, body = env.do(t, http.MethodGet, "/api/v1/master/zones?gateId=gate_x", "", nil)
	assert.JSONEq(t, "[]", string(body))

	resp, body = env.do(t, http.MethodGet, "/api/v1/master/categories", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "cat_economy")

	resp, body = env.do(t, http.MethodGet, "/api/v1/subscriptions/sub_active", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"userName":"Ali"`)

	resp, body = env.do(t, http.MethodGet, "/api/v1/subscriptions/sub_missing", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Subscription not found", errorMessage(t, body))
}

func TestCheckInAndCheckoutFlow(t *testing.T) {
	env := newTestEnv(t)
	employee := env.login(t, "employee")

	resp, body := env.do(t, http.MethodPost, "/api/v1/tickets/checkin", "", map[string]string{
		"gateId": "gate_1", "zoneId": "zone_a", "type": "visitor",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var checkin models.CheckInResult
	require.NoError(t, json.Unmarshal(body, &checkin))
	assert.Equal(t, 1, checkin.ZoneState.Occupied)
	ticketID := checkin.Ticket.ID

	resp, body = env.do(t, http.MethodGet, "/api/v1/tickets/"+ticketID, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"checkoutAt":null`)

	env.clock.Advance(90 * time.Minute)

	// checkout needs staff
	resp, _ = env.do(t, http.MethodPost, "/api/v1/tickets/checkout", "", map[string]string{"ticketId": ticketID})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body = env.do(t, http.MethodPost, "/api/v1/tickets/checkout", employee, map[string]string{"ticketId": ticketID})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var out models.CheckoutResult
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, 7.5, out.Amount)
	assert.Equal(t, 1.5, out.DurationHours)
	assert.Equal(t, 0, out.ZoneState.Occupied)

	resp, body = env.do(t, http.MethodPost, "/api/v1/tickets/checkout", employee, map[string]string{"ticketId": ticketID})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "Ticket already checked out", errorMessage(t, body))
}

func TestCheckInErrors(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		name    string
		body    map[string]string
		status  int
		message string
	}{
		{"missing fields", map[string]string{"gateId": "gate_1"}, http.StatusBadRequest, "Missing required fields"},
		{"unknown zone", map[string]string{"gateId": "gate_1", "zoneId": "zone_x", "type": "visitor"}, http.StatusNotFound, "Zone not found"},
		{"closed zone", map[string]string{"gateId": "gate_1", "zoneId": "zone_b", "type": "visitor"}, http.StatusConflict, "Zone is closed"},
		{"bad type", map[string]string{"gateId": "gate_1", "zoneId": "zone_a", "type": "truck"}, http.StatusBadRequest, "Invalid type"},
		{"unknown subscription", map[string]string{"gateId": "gate_1", "zoneId": "zone_a", "type": "subscriber", "subscriptionId": "sub_x"}, http.StatusBadRequest, "Invalid subscription"},
		{"wrong category", map[string]string{"gateId": "gate_1", "zoneId": "zone_a", "type": "subscriber", "subscriptionId": "sub_economy"}, http.StatusForbidden, "Subscription not valid for this category"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := env.do(t, http.MethodPost, "/api/v1/tickets/checkin", "", tc.body)
			assert.Equal(t, tc.status, resp.StatusCode)
			assert.Equal(t, tc.message, errorMessage(t, body))
		})
	}

	resp, _ := env.do(t, http.MethodPost, "/api/v1/tickets/checkin", "", "not an object")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCheckoutByQR(t *testing.T) {
	env := newTestEnv(t)
	employee := env.login(t, "employee")

	res, err := env.service.CheckIn(parking.CheckInRequest{GateID: "gate_1", ZoneID: "zone_a", Type: models.TicketSubscriber, SubscriptionID: "sub_active"})
	require.NoError(t, err)

	resp, body := env.do(t, http.MethodGet, "/api/v1/tickets/"+res.Ticket.ID+"/qr", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(body, []byte("\x89PNG")))

	payload, err := env.qr.EncryptPayload(res.Ticket)
	require.NoError(t, err)

	env.clock.Advance(time.Hour)
	resp, body = env.do(t, http.MethodPost, "/api/v1/tickets/checkout", employee, map[string]interface{}{"qr": payload, "forceConvertToVisitor": true})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var out models.CheckoutResult
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, res.Ticket.ID, out.TicketID)
	assert.Equal(t, models.TicketVisitor, out.BillingType)
	assert.Equal(t, 5.0, out.Amount)

	resp, body = env.do(t, http.MethodPost, "/api/v1/tickets/checkout", employee, map[string]string{"qr": "garbage"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid QR code", errorMessage(t, body))

	resp, _ = env.do(t, http.MethodGet, "/api/v1/tickets/t_missing/qr", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAdminGuards(t *testing.T) {
	env := newTestEnv(t)
	employee := env.login(t, "employee")

	resp, _ := env.do(t, http.MethodGet, "/api/v1/admin/reports/parking-state", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := env.do(t, http.MethodGet, "/api/v1/admin/reports/parking-state", employee, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Forbidden", errorMessage(t, body))
}

func TestAdminEndpoints(t *testing.T) {
	env := newTestEnv(t)
	admin := env.login(t, "admin")

	resp, body := env.do(t, http.MethodGet, "/api/v1/admin/reports/parking-state", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var report []models.ZoneReport
	require.NoError(t, json.Unmarshal(body, &report))
	require.Len(t, report, 3)
	assert.Equal(t, 1, report[0].SubscriberCount)

	resp, body = env.do(t, http.MethodPut, "/api/v1/admin/categories/cat_premium", admin, map[string]interface{}{"rateNormal": 6.5})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Contains(t, string(body), `"rateNormal":6.5`)
	assert.Contains(t, string(body), `"rateSpecial":8`)

	resp, _ = env.do(t, http.MethodPut, "/api/v1/admin/categories/cat_premium", admin, map[string]interface{}{"rateSpecial": -1})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPut, "/api/v1/admin/categories/cat_x", admin, map[string]interface{}{"rateNormal": 1})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = env.do(t, http.MethodPut, "/api/v1/admin/zones/zone_b/open", admin, map[string]interface{}{"open": "true"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"zoneId":"zone_b","open":true}`, string(body))

	resp, body = env.do(t, http.MethodPut, "/api/v1/admin/zones/zone_b/open", admin, map[string]interface{}{"open": 0})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"zoneId":"zone_b","open":false}`, string(body))

	resp, _ = env.do(t, http.MethodPut, "/api/v1/admin/zones/zone_b/open", admin, map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = env.do(t, http.MethodPost, "/api/v1/admin/rush-hours", admin, map[string]interface{}{"weekDay": 2, "from": "17:00", "to": "19:00"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	assert.Contains(t, string(body), `"id":"rush_`)

	resp, _ = env.do(t, http.MethodPost, "/api/v1/admin/rush-hours", admin, map[string]interface{}{"weekDay": 9, "from": "17:00", "to": "19:00"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, "/api/v1/admin/rush-hours", admin, map[string]interface{}{"from": "17:00", "to": "19:00"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = env.do(t, http.MethodPost, "/api/v1/admin/vacations", admin, map[string]string{"name": "Eid", "from": "2025-03-30", "to": "2025-04-01"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	assert.Contains(t, string(body), `"id":"vac_`)

	resp, _ = env.do(t, http.MethodPost, "/api/v1/admin/vacations", admin, map[string]string{"name": "Bad", "from": "2025-04-02", "to": "2025-04-01"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = env.do(t, http.MethodGet, "/api/v1/admin/subscriptions", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var subs []models.Subscription
	require.NoError(t, json.Unmarshal(body, &subs))
	assert.Len(t, subs, 2)
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)

	req, err := http.NewRequest(http.MethodOptions, env.server.URL+"/api/v1/tickets/checkin", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://dashboard.local")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.True(t, strings.Contains(resp.Header.Get("Access-Control-Allow-Methods"), "POST"))
}
