//go:build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseURL = getEnv("SURGEPLANE_API_URL", "http://127.0.0.1:8000")

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

type TestClient struct {
	httpClient *http.Client
	token      string
}

func NewTestClient() *TestClient {
	return &TestClient{httpClient: &http.Client{Timeout: 10 * time.Second}}
}

func (c *TestClient) Do(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, _ := http.NewRequest(method, baseURL+path, bodyReader)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return c.httpClient.Do(req)
}

func (c *TestClient) Login(username, password string) (*http.Response, error) {
	form := url.Values{"username": {username}, "password": {password}}
	resp, err := c.httpClient.Post(baseURL+"/auth/staff/login",
		"application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil || resp.StatusCode != http.StatusOK {
		return resp, err
	}
	defer resp.Body.Close()

	var tok struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return resp, err
	}
	c.token = tok.AccessToken
	return resp, nil
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// TestPurpose: Drives the hospital onboarding and dashboard workflow against a running server.
// Scope: E2E Test
// Security: Tenant isolation, role enforcement
// Expected: A new hospital can register, log in, add staff, publish metrics and read forecasts; other hospitals see none of it.
// Test Case ID: E2E-SYS-01
func TestE2E_HospitalWorkflow(t *testing.T) {
	suffix := time.Now().Unix()
	codeA := fmt.Sprintf("E2EA%d", suffix)
	codeB := fmt.Sprintf("E2EB%d", suffix)

	admin := NewTestClient()
	doctor := NewTestClient()
	other := NewTestClient()

	t.Run("Register Hospitals", func(t *testing.T) {
		for _, code := range []string{codeA, codeB} {
			resp, err := admin.Do("POST", "/hospital/register", map[string]string{
				"hospital_name":  "E2E Hospital " + code,
				"hospital_code":  code,
				"location":       "Pune",
				"admin_username": "admin",
				"admin_password": "admin_pass_123",
			})
			require.NoError(t, err)
			body := decode(t, resp)
			require.Equal(t, http.StatusCreated, resp.StatusCode, body)
			assert.Equal(t, "admin@"+code, body["admin_login"])
		}

		resp, err := admin.Do("POST", "/hospital/register", map[string]string{
			"hospital_name":  "Duplicate",
			"hospital_code":  codeA,
			"admin_username": "admin",
			"admin_password": "admin_pass_123",
		})
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("Admin Adds Staff", func(t *testing.T) {
		resp, err := admin.Login("admin@"+codeA, "admin_pass_123")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp, err = admin.Do("POST", "/auth/staff/add", map[string]string{
			"name":     "Dr. E2E",
			"username": "doctor",
			"password": "doctor_pass_123",
			"role":     "doctor",
		})
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		resp, err = doctor.Login("doctor@"+codeA, "doctor_pass_123")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp, err = doctor.Do("POST", "/auth/staff/add", map[string]string{
			"name": "Nope", "username": "nope", "password": "nope_pass_123", "role": "staff",
		})
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("Metrics And Forecast", func(t *testing.T) {
		resp, err := doctor.Do("POST", "/hospital/metrics", map[string]any{
			"patients_today": 180,
			"available_beds": 42,
			"icu_occupancy":  71,
			"oxygen_stock":   "Adequate",
			"staff_on_duty":  55,
		})
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp, err = doctor.Do("GET", "/hospital/metrics", nil)
		require.NoError(t, err)
		body := decode(t, resp)
		assert.EqualValues(t, 180, body["patients_today"])

		resp, err = doctor.Do("GET", "/hospital/prediction", nil)
		require.NoError(t, err)
		body = decode(t, resp)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		days, ok := body["next_7_days"].([]any)
		require.True(t, ok)
		assert.Len(t, days, 7)
	})

	t.Run("Tenant Isolation", func(t *testing.T) {
		resp, err := other.Login("admin@"+codeB, "admin_pass_123")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp, err = other.Do("GET", "/hospital/metrics", nil)
		require.NoError(t, err)
		body := decode(t, resp)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.NotEqualValues(t, 180, body["patients_today"])

		// Doctor credentials do not exist in hospital B.
		resp, err = NewTestClient().Login("doctor@"+codeB, "doctor_pass_123")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}
