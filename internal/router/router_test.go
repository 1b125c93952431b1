package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/smart-parking/internal/handler"
	"github.com/iliyamo/smart-parking/internal/middleware"
	"github.com/iliyamo/smart-parking/internal/parking"
	"github.com/iliyamo/smart-parking/internal/utils"
)

const (
	testSecret = "router-secret"
	hourlyRate = 20
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type testServer struct {
	e     *echo.Echo
	clock *clock
	token string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	hash, err := utils.HashPassword("pw", bcrypt.MinCost)
	require.NoError(t, err)
	return newServerWithHash(t, hash)
}

// newServerWithHash builds a server whose operator password hash is hash;
// an empty hash leaves the operator routes open.
func newServerWithHash(t *testing.T, hash string) *testServer {
	t.Helper()
	clk := &clock{now: time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC)}
	lot, err := parking.NewLot(parking.Options{
		Rates: parking.Rates{HourlyRate: hourlyRate, DayPassRate: 100},
		Clock: clk.Now,
	})
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	hm, err := middleware.NewHTTPMetrics(reg)
	require.NoError(t, err)

	e := New(Deps{
		Parking:   handler.NewParkingHandler(lot),
		Auth:      handler.NewAuthHandler("operator", hash, testSecret, time.Hour),
		JWTSecret: testSecret,
		Metrics:   hm,
		Gatherer:  reg,
	})
	tok, err := utils.NewAccessToken(testSecret, "operator", utils.RoleOperator, time.Hour)
	require.NoError(t, err)
	return &testServer{e: e, clock: clk, token: tok.Token}
}

func (s *testServer) do(t *testing.T, method, path, body string, auth bool) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if auth {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+s.token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	var out map[string]interface{}
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestParkingScenario(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(t, http.MethodPost, "/api/parking-space/initialize", `{"regular":1}`, true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, true, body["success"])
	slots := body["slots"].([]interface{})
	require.Len(t, slots, 1)
	assert.Equal(t, "R1", slots[0].(map[string]interface{})["name"])

	rec, body = s.do(t, http.MethodPost, "/api/vehicle/register",
		`{"number":"ka01ab1234","vehicleType":"car","billingType":"Hourly"}`, false)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	session := body["session"].(map[string]interface{})
	sessionID := session["_id"].(string)
	assert.Equal(t, "KA01AB1234", session["parkVehicle"].(map[string]interface{})["number"])
	assert.Equal(t, "R1", session["parkSlot"].(map[string]interface{})["name"])
	assert.Equal(t, "occupied", body["slot"].(map[string]interface{})["status"])
	assert.NotContains(t, session, "amount")

	rec, body = s.do(t, http.MethodPost, "/api/vehicle/register",
		`{"number":"KA02CD5678","vehicleType":"car","billingType":"Hourly"}`, false)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.NotEmpty(t, body["message"])

	s.clock.Advance(90 * time.Minute)
	rec, body = s.do(t, http.MethodPost, "/api/vehicle/exit/"+sessionID, "", false)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(2*hourlyRate), data["amount"])
	assert.Equal(t, "completed", data["status"])

	rec, body = s.do(t, http.MethodPost, "/api/vehicle/exit/"+sessionID, "", false)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, body = s.do(t, http.MethodGet, "/api/parking-space/get", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	space := body["parkingSpace"].(map[string]interface{})
	assert.Equal(t, float64(1), space["regularEmptySlot"])
	assert.Equal(t, float64(2*hourlyRate), space["totalMoneyCollected"])
	assert.Equal(t, []interface{}{}, space["evSlotAvailable"])

	_, body = s.do(t, http.MethodGet, "/api/sessions/get", "", false)
	assert.Empty(t, body["sessions"])
	_, body = s.do(t, http.MethodGet, "/api/sessions/gets", "", false)
	assert.Len(t, body["sessions"], 1)

	vehicleID := data["parkVehicle"].(map[string]interface{})["_id"].(string)
	rec, body = s.do(t, http.MethodGet, "/api/vehicle/get/"+vehicleID, "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "KA01AB1234", body["vehicle"].(map[string]interface{})["number"])
}

func TestRegisterBeforeInitialize(t *testing.T) {
	s := newTestServer(t)
	rec, body := s.do(t, http.MethodPost, "/api/vehicle/register",
		`{"number":"AB12","vehicleType":"car","billingType":"Hourly"}`, false)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, false, body["success"])
}

func TestRegisterValidation(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/api/parking-space/initialize", "", true)

	cases := map[string]string{
		"missing number": `{"vehicleType":"car","billingType":"Hourly"}`,
		"bad type":       `{"number":"AB12","vehicleType":"truck","billingType":"Hourly"}`,
		"bad billing":    `{"number":"AB12","vehicleType":"car","billingType":"Weekly"}`,
		"malformed":      `{"number":`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			rec, body := s.do(t, http.MethodPost, "/api/vehicle/register", payload, false)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, false, body["success"])
		})
	}
}

func TestOperatorRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(t, http.MethodPost, "/api/parking-space/initialize", "", false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, false, body["success"])

	rec, _ = s.do(t, http.MethodPost, "/api/slot/maintenance/x", "", false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOperatorRoutesOpenWithoutPasswordHash(t *testing.T) {
	s := newServerWithHash(t, "")

	rec, body := s.do(t, http.MethodPost, "/api/parking-space/initialize", "", false)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, true, body["success"])
	slots := body["slots"].([]interface{})
	require.Len(t, slots, parking.DefaultInventory.Total())

	rec, body = s.do(t, http.MethodPost, "/api/vehicle/register",
		`{"number":"KA01AB1234","vehicleType":"car","billingType":"Hourly"}`, false)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "R1", body["slot"].(map[string]interface{})["name"])

	id := slots[len(slots)-1].(map[string]interface{})["_id"].(string)
	rec, _ = s.do(t, http.MethodPost, "/api/slot/maintenance/"+id, "", false)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = s.do(t, http.MethodDelete, "/api/slot/maintenance/"+id, "", false)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/api/auth/login", `{"username":"operator","password":"pw"}`, false)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMaintenanceToggle(t *testing.T) {
	s := newTestServer(t)
	_, body := s.do(t, http.MethodPost, "/api/parking-space/initialize", `{"ev":1}`, true)
	id := body["slots"].([]interface{})[0].(map[string]interface{})["_id"].(string)

	for i := 0; i < 2; i++ {
		rec, body := s.do(t, http.MethodPost, "/api/slot/maintenance/"+id, "", true)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "maintenance", body["slot"].(map[string]interface{})["status"])
	}

	rec, _ := s.do(t, http.MethodPost, "/api/vehicle/register",
		`{"number":"EV1","vehicleType":"EV","billingType":"Day-Pass"}`, false)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, body = s.do(t, http.MethodDelete, "/api/slot/maintenance/"+id, "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "available", body["slot"].(map[string]interface{})["status"])

	rec, _ = s.do(t, http.MethodPost, "/api/slot/maintenance/missing", "", true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNotFoundUsesEnvelope(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(t, http.MethodGet, "/api/nope", "", false)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, body["success"])

	rec, body = s.do(t, http.MethodPost, "/api/vehicle/exit/missing", "", false)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, body["success"])
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(t, http.MethodPost, "/api/auth/login", `{"username":"operator","password":"pw"}`, false)
	require.Equal(t, http.StatusOK, rec.Code)
	s.token = body["accessToken"].(string)
	assert.NotEmpty(t, body["expiresAt"])

	rec, _ = s.do(t, http.MethodPost, "/api/parking-space/initialize", "", true)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/api/auth/login", `{"username":"operator","password":"nope"}`, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec, _ = s.do(t, http.MethodPost, "/api/auth/login", `{"username":"operator"}`, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(t, http.MethodGet, "/healthz", "", false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec, _ = s.do(t, http.MethodGet, "/metrics", "", false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_server_requests_total")
}
