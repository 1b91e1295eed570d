package http

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/swasthyasetu/surgeplane/internal/audit"
	"github.com/swasthyasetu/surgeplane/internal/authz"
	"github.com/swasthyasetu/surgeplane/internal/cache"
	"github.com/swasthyasetu/surgeplane/internal/forecast"
	"github.com/swasthyasetu/surgeplane/internal/hospital"
	"github.com/swasthyasetu/surgeplane/internal/identity"
	"github.com/swasthyasetu/surgeplane/internal/observability/metrics"
	"github.com/swasthyasetu/surgeplane/internal/session"
	"github.com/swasthyasetu/surgeplane/internal/tenant"
)

var testSecret = []byte("test-secret-key-that-is-32-bytes!")

// memStore backs tenants, users, metrics and global events in memory.
type memStore struct {
	mu       sync.Mutex
	tenants  map[string]*tenant.Tenant
	users    map[string]*identity.User
	metrics  map[string]*hospital.Metrics
	events   hospital.GlobalEvents
	failNext error
}

func newMemStore() *memStore {
	return &memStore{
		tenants: map[string]*tenant.Tenant{},
		users:   map[string]*identity.User{},
		metrics: map[string]*hospital.Metrics{},
	}
}

func userKey(tenantID, username string) string { return tenantID + "/" + username }

func (s *memStore) GetByCode(_ context.Context, code string) (*tenant.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failNext; err != nil {
		s.failNext = nil
		return nil, err
	}
	t, ok := s.tenants[code]
	if !ok {
		return nil, tenant.ErrTenantNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *memStore) CreateWithAdmin(_ context.Context, t *tenant.Tenant, admin *identity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tenants[t.Code]; ok {
		return tenant.ErrDuplicateTenant
	}
	s.tenants[t.Code] = t
	s.users[userKey(t.ID, admin.Username)] = admin
	return nil
}

type memUsers struct{ *memStore }

func (s memUsers) GetByUsername(_ context.Context, tenantID, username string) (*identity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userKey(tenantID, username)]
	if !ok {
		return nil, identity.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s memUsers) Create(_ context.Context, u *identity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := userKey(u.TenantID, u.Username)
	if _, ok := s.users[k]; ok {
		return identity.ErrDuplicateUser
	}
	s.users[k] = u
	return nil
}

type memMetrics struct{ *memStore }

func (s memMetrics) Get(_ context.Context, tenantID string) (*hospital.Metrics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.metrics[tenantID]
	if !ok {
		return nil, hospital.ErrMetricsNotFound
	}
	cp := *m
	return &cp, nil
}

func (s memMetrics) Upsert(_ context.Context, tenantID string, m *hospital.Metrics) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *m
	s.metrics[tenantID] = &cp
	return nil
}

type memEvents struct{ *memStore }

func (s memEvents) Get(context.Context) (*hospital.GlobalEvents, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := s.events
	return &cp, nil
}

func (s memEvents) Merge(_ context.Context, u *hospital.GlobalEvents) (*hospital.GlobalEvents, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = s.events.Merge(*u)
	cp := s.events
	return &cp, nil
}

type testServer struct {
	*httptest.Server
	store       *memStore
	verifier    *session.Verifier
	httpMetrics *metrics.HTTPMetrics
}

func newTestServer(t *testing.T, limiter *RateLimiter) *testServer {
	t.Helper()
	ctx := context.Background()

	policy, err := authz.NewPolicy(ctx)
	require.NoError(t, err)

	st := newMemStore()
	hasher := identity.NewPasswordHasher(bcrypt.MinCost)
	auditLogger := audit.NewSlogLogger(slog.New(slog.DiscardHandler))

	mem := cache.NewMemoryCache()
	t.Cleanup(func() { _ = mem.Close() })
	forecasts := forecast.NewCachingGenerator(forecast.NewMockGenerator(), mem, time.Minute, nil)

	verifier := session.NewVerifier(testSecret)
	httpMetrics := metrics.NewHTTPMetrics("surgeplane_test")

	h := NewHandler(Deps{
		Registrar:   tenant.NewRegistrar(st, hasher, auditLogger),
		Issuer:      session.NewIssuer(st, memUsers{st}, hasher, auditLogger, session.IssuerConfig{Secret: testSecret}),
		Verifier:    verifier,
		Provisioner: identity.NewProvisioner(memUsers{st}, hasher, policy, auditLogger),
		Hospitals:   hospital.NewService(memMetrics{st}, memEvents{st}, policy, forecasts, auditLogger),
		Forecasts:   forecasts,
		Authorizer:  policy,
		AuditLogger: auditLogger,
		HTTPMetrics: httpMetrics,
	})

	srv := httptest.NewServer(NewRouter(h, RouterConfig{
		AllowedOrigins: []string{"http://localhost:3000"},
		RateLimiter:    limiter,
	}))
	t.Cleanup(srv.Close)

	return &testServer{Server: srv, store: st, verifier: verifier, httpMetrics: httpMetrics}
}

func (s *testServer) postJSON(t *testing.T, path, token, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, s.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (s *testServer) get(t *testing.T, path, token string, headers map[string]string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, s.URL+path, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (s *testServer) login(t *testing.T, username, password string) *http.Response {
	t.Helper()
	form := url.Values{"username": {username}, "password": {password}}
	resp, err := s.Client().PostForm(s.URL+"/auth/staff/login", form)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}
