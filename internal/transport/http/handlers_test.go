package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swasthyasetu/surgeplane/internal/authz"
	"github.com/swasthyasetu/surgeplane/internal/forecast"
	"github.com/swasthyasetu/surgeplane/internal/hospital"
	"github.com/swasthyasetu/surgeplane/internal/session"
	"github.com/swasthyasetu/surgeplane/internal/store"
)

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func registerCity(t *testing.T, s *testServer) {
	t.Helper()
	resp := s.postJSON(t, "/hospital/register", "",
		`{"hospital_name":"City Hospital","hospital_code":"city1","admin_username":"Admin","admin_password":"Secret123"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func tokenFor(t *testing.T, s *testServer, username, password string) string {
	t.Helper()
	resp := s.login(t, username, password)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody[map[string]string](t, resp)
	require.Equal(t, "bearer", body["token_type"])
	return body["access_token"]
}

// TestPurpose: Validates the complete onboarding flow from hospital registration to a doctor session.
// Scope: Integration Test (HTTP, in-memory store)
// Security: Tenant-scoped credentials and role propagation into tokens
// Expected: admin_login is "admin@CITY1"; admin and doctor tokens carry their roles and the hospital.
// Test Case ID: E2E-01
func TestFlow_CityHospital(t *testing.T) {
	s := newTestServer(t, nil)

	resp := s.postJSON(t, "/hospital/register", "",
		`{"hospital_name":"City Hospital","hospital_code":"city1","admin_username":"Admin","admin_password":"Secret123"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	reg := decodeBody[map[string]any](t, resp)
	assert.Equal(t, true, reg["success"])
	assert.Equal(t, "Hospital registered successfully!", reg["message"])
	assert.Equal(t, "CITY1", reg["hospital_code"])
	assert.Equal(t, "admin@CITY1", reg["admin_login"])
	assert.Equal(t, "Use the password you just set", reg["password_hint"])
	assert.NotContains(t, reg, "admin_password")

	adminToken := tokenFor(t, s, "admin@CITY1", "Secret123")
	admin, err := s.verifier.Verify(adminToken)
	require.NoError(t, err)
	assert.Equal(t, authz.RoleAdmin, admin.Role)
	assert.Equal(t, "City Hospital", admin.TenantName)

	resp = s.postJSON(t, "/auth/staff/add", adminToken,
		`{"name":"Dr. Rao","username":"rao","password":"pw123456","role":"doctor"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	added := decodeBody[map[string]any](t, resp)
	assert.Equal(t, "Staff added successfully!", added["message"])
	assert.Equal(t, "rao", added["username"])

	doctorToken := tokenFor(t, s, "rao@CITY1", "pw123456")
	doctor, err := s.verifier.Verify(doctorToken)
	require.NoError(t, err)
	assert.Equal(t, authz.RoleDoctor, doctor.Role)
	assert.Equal(t, admin.TenantID, doctor.TenantID)
}

// TestPurpose: Validates duplicate hospital codes are rejected regardless of case.
// Scope: Integration Test (HTTP)
// Security: Tenant uniqueness
// Expected: A second registration of "CITY1" returns 409.
// Test Case ID: E2E-02
func TestRegister_DuplicateCode(t *testing.T) {
	s := newTestServer(t, nil)
	registerCity(t, s)

	resp := s.postJSON(t, "/hospital/register", "",
		`{"hospital_name":"Other","hospital_code":"CITY1","admin_username":"x","admin_password":"y"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = s.postJSON(t, "/hospital/register", "", `{"hospital_name":"","hospital_code":"c2"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = s.postJSON(t, "/hospital/register", "", `{not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// TestPurpose: Validates that login failures do not reveal whether the username exists.
// Scope: Integration Test (HTTP)
// Security: User enumeration prevention (CWE-204)
// Expected: Unknown user and wrong password produce identical 401 responses; unknown hospital is 404; malformed is 400.
// Test Case ID: E2E-03
func TestLogin_Failures(t *testing.T) {
	s := newTestServer(t, nil)
	registerCity(t, s)

	wrongPw := s.login(t, "admin@CITY1", "nope")
	wrongUser := s.login(t, "ghost@CITY1", "Secret123")
	require.Equal(t, http.StatusUnauthorized, wrongPw.StatusCode)
	require.Equal(t, http.StatusUnauthorized, wrongUser.StatusCode)

	b1, _ := io.ReadAll(wrongPw.Body)
	b2, _ := io.ReadAll(wrongUser.Body)
	assert.Equal(t, string(b1), string(b2))

	assert.Equal(t, http.StatusNotFound, s.login(t, "admin@NOWHERE", "Secret123").StatusCode)
	assert.Equal(t, http.StatusBadRequest, s.login(t, "admin", "Secret123").StatusCode)
	assert.Equal(t, http.StatusBadRequest, s.login(t, "", "").StatusCode)

	// Case-insensitive login for both parts.
	assert.Equal(t, http.StatusOK, s.login(t, "  ADMIN@city1 ", "Secret123").StatusCode)
}

// TestPurpose: Validates role enforcement on staff provisioning and global alert updates.
// Scope: Integration Test (HTTP)
// Security: Privilege escalation prevention (CWE-269)
// Expected: A doctor gets 403 on staff add and global update; the admin succeeds; duplicates return 409.
// Test Case ID: E2E-04
func TestRoleEnforcement(t *testing.T) {
	s := newTestServer(t, nil)
	registerCity(t, s)
	adminToken := tokenFor(t, s, "admin@CITY1", "Secret123")

	resp := s.postJSON(t, "/auth/staff/add", adminToken, `{"name":"Doc","username":"Doc1","password":"pw","role":"doctor"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = s.postJSON(t, "/auth/staff/add", adminToken, `{"name":"Doc","username":"doc1","password":"pw","role":"doctor"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp = s.postJSON(t, "/auth/staff/add", adminToken, `{"name":"X","username":"x","password":"pw","role":"superuser"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	doctorToken := tokenFor(t, s, "doc1@CITY1", "pw")
	resp = s.postJSON(t, "/auth/staff/add", doctorToken, `{"name":"Y","username":"y","password":"pw","role":"staff"}`)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = s.postJSON(t, "/global/update", doctorToken, `{"festival_data":{"festival":"Holi"}}`)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = s.postJSON(t, "/global/update", adminToken, `{"festival_data":{"festival":"Diwali","duration_days":5}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "National alert updated & broadcasted to all hospitals", decodeBody[map[string]any](t, resp)["message"])

	resp = s.postJSON(t, "/global/update", adminToken, `{"pollution_data":{"aqi":410,"pm2_5":250}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = s.get(t, "/global", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	events := decodeBody[hospital.GlobalEvents](t, resp)
	require.NotNil(t, events.Festival)
	require.NotNil(t, events.Pollution)
	assert.Equal(t, "Diwali", events.Festival.Festival)
	assert.Equal(t, 250, events.Pollution.PM25)
}

// TestPurpose: Validates that the tenant is taken from the token and never from client hints.
// Scope: Integration Test (HTTP)
// Security: Tenant isolation (CWE-639)
// Expected: Metrics written by hospital A are invisible to hospital B even when B sends A's id as a hint.
// Test Case ID: E2E-05
func TestTenantIsolation_IgnoresHints(t *testing.T) {
	s := newTestServer(t, nil)
	registerCity(t, s)
	resp := s.postJSON(t, "/hospital/register", "",
		`{"hospital_name":"Town Clinic","hospital_code":"town1","admin_username":"admin","admin_password":"Secret456"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	cityToken := tokenFor(t, s, "admin@CITY1", "Secret123")
	townToken := tokenFor(t, s, "admin@TOWN1", "Secret456")
	city, _ := s.verifier.Verify(cityToken)

	resp = s.postJSON(t, "/hospital/metrics", cityToken, `{"patients_today":140,"oxygen_stock":"High","hospital_id":"spoof"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Metrics updated", decodeBody[map[string]string](t, resp)["msg"])

	resp = s.get(t, "/hospital/metrics?hospital_id="+city.TenantID, townToken, map[string]string{"X-Tenant-ID": city.TenantID})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	town := decodeBody[hospital.Metrics](t, resp)
	assert.Equal(t, 0, town.PatientsToday)
	assert.Equal(t, hospital.DefaultOxygenStock, town.OxygenStock)

	resp = s.get(t, "/hospital/metrics", cityToken, nil)
	assert.Equal(t, 140, decodeBody[hospital.Metrics](t, resp).PatientsToday)

	resp = s.postJSON(t, "/hospital/metrics", cityToken, `{"patients_today":-1}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// TestPurpose: Validates bearer authentication on protected routes.
// Scope: Integration Test (HTTP)
// Security: Authentication enforcement (CWE-306) and token tampering (CWE-347)
// Expected: Missing or tampered tokens return 401 with WWW-Authenticate.
// Test Case ID: E2E-06
func TestAuthMiddleware(t *testing.T) {
	s := newTestServer(t, nil)
	registerCity(t, s)
	token := tokenFor(t, s, "admin@CITY1", "Secret123")

	for _, path := range []string{"/hospital/metrics", "/hospital/prediction", "/hospital/recommendations", "/hospital/advisories"} {
		resp := s.get(t, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
		assert.Contains(t, resp.Header.Get("WWW-Authenticate"), "Bearer", path)
	}

	tampered := token + "A"
	resp := s.get(t, "/hospital/metrics", tampered, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = s.postJSON(t, "/global/update", "", `{}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// TestPurpose: Validates forecast, recommendation and advisory endpoints.
// Scope: Integration Test (HTTP)
// Security: N/A
// Expected: Seven forecast days, three priority actions and two advisories are returned.
// Test Case ID: E2E-07
func TestDashboardEndpoints(t *testing.T) {
	s := newTestServer(t, nil)
	registerCity(t, s)
	token := tokenFor(t, s, "admin@CITY1", "Secret123")

	resp := s.get(t, "/hospital/prediction", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	f := decodeBody[forecast.Forecast](t, resp)
	assert.Len(t, f.Next7Days, forecast.Horizon)

	resp = s.get(t, "/hospital/recommendations", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeBody[forecast.Recommendations](t, resp).PriorityActions, 3)

	resp = s.get(t, "/hospital/advisories", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeBody[[]forecast.Advisory](t, resp), 2)

	resp = s.get(t, "/hospital/global", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// TestPurpose: Validates public system endpoints and the Prometheus exposition.
// Scope: Integration Test (HTTP)
// Security: Prevents MIME sniffing on JSON responses
// Expected: / and /health return JSON; /metrics reports request counters by route pattern.
// Test Case ID: E2E-08
func TestSystemEndpoints(t *testing.T) {
	s := newTestServer(t, nil)

	resp := s.get(t, "/health", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")
	assert.Equal(t, map[string]string{"status": "healthy", "service": "surgeplane"}, decodeBody[map[string]string](t, resp))

	resp = s.get(t, "/", "", nil)
	assert.Equal(t, "SwasthyaSetu Backend is LIVE!", decodeBody[map[string]string](t, resp)["message"])

	resp = s.get(t, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `surgeplane_test_http_requests_total{method="GET",route="/health",status="200"} 1`)
}

// TestPurpose: Validates per-client rate limiting.
// Scope: Integration Test (HTTP)
// Security: Brute-force mitigation (CWE-307)
// Expected: Requests beyond the burst receive 429.
// Test Case ID: E2E-09
func TestRateLimit(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	t.Cleanup(rl.Stop)
	s := newTestServer(t, rl)

	assert.Equal(t, http.StatusOK, s.get(t, "/health", "", nil).StatusCode)
	assert.Equal(t, http.StatusOK, s.get(t, "/health", "", nil).StatusCode)
	resp := s.get(t, "/health", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
}

// TestPurpose: Validates that infrastructure failures map to 503 without leaking details.
// Scope: Integration Test (HTTP)
// Security: Information disclosure prevention (CWE-209)
// Expected: A storage outage during login returns 503 with a generic message.
// Test Case ID: E2E-10
func TestStorageUnavailable(t *testing.T) {
	s := newTestServer(t, nil)
	s.store.failNext = errors.Join(store.ErrStorageUnavailable, errors.New("dial tcp 10.0.0.5:5432: connection refused"))

	resp := s.login(t, "admin@CITY1", "Secret123")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.False(t, strings.Contains(string(body), "10.0.0.5"))
}

// TestPurpose: Validates that the admin_login returned by registration works for hospital codes with non-ASCII case variants.
// Scope: Integration Test (HTTP)
// Security: Canonical tenant resolution and code uniqueness
// Expected: Codes spelled with the Kelvin sign or dotted capital I log in with their admin_login; the ASCII spelling of a taken code is 409.
// Test Case ID: E2E-11
func TestRegisterThenLogin_UnicodeCodes(t *testing.T) {
	s := newTestServer(t, nil)

	for code, want := range map[string]string{"\u212A1": "K1", "\u0130ST": "IST"} {
		resp := s.postJSON(t, "/hospital/register", "",
			`{"hospital_name":"Unicode Hospital","hospital_code":"`+code+`","admin_username":"admin","admin_password":"Secret123"}`)
		require.Equal(t, http.StatusCreated, resp.StatusCode, want)
		reg := decodeBody[map[string]any](t, resp)
		assert.Equal(t, want, reg["hospital_code"])

		login, ok := reg["admin_login"].(string)
		require.True(t, ok)
		assert.Equal(t, "admin@"+want, login)

		token := tokenFor(t, s, login, "Secret123")
		p, err := s.verifier.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, authz.RoleAdmin, p.Role)
	}

	resp := s.postJSON(t, "/hospital/register", "",
		`{"hospital_name":"Ascii Hospital","hospital_code":"k1","admin_username":"admin","admin_password":"Secret123"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	assert.Equal(t, http.StatusOK, s.login(t, "admin@k1", "Secret123").StatusCode)
}

// TestPurpose: Validates that 401 responses carry fixed text regardless of why the token was rejected.
// Scope: Integration Test (HTTP)
// Security: Information disclosure via error messages (CWE-209)
// Expected: Expired and tampered tokens both yield {"error":"invalid or expired token"}; a missing token yields {"error":"not authenticated"}.
// Test Case ID: E2E-12
func TestUnauthorized_FixedMessages(t *testing.T) {
	s := newTestServer(t, nil)
	registerCity(t, s)
	token := tokenFor(t, s, "admin@CITY1", "Secret123")

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &session.Claims{
		HospitalID: "tenant-city",
		Username:   "admin",
		Role:       string(authz.RoleAdmin),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}).SignedString(testSecret)
	require.NoError(t, err)

	for name, tok := range map[string]string{"expired": expired, "tampered": token + "A"} {
		resp := s.get(t, "/hospital/metrics", tok, nil)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode, name)
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"error":"invalid or expired token"}`, string(raw), name)
		assert.NotContains(t, string(raw), "claims", name)
	}

	resp := s.get(t, "/hospital/metrics", "", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"not authenticated"}`, string(raw))
}
