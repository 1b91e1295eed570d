// Copyright 2026 The SurgePlane Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// @title SurgePlane API
// @version 1.0.0
// @description Multi-tenant hospital surge coordination backend

// @host localhost:8000
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/swasthyasetu/surgeplane/internal/audit"
	"github.com/swasthyasetu/surgeplane/internal/authz"
	"github.com/swasthyasetu/surgeplane/internal/forecast"
	"github.com/swasthyasetu/surgeplane/internal/hospital"
	"github.com/swasthyasetu/surgeplane/internal/identity"
	"github.com/swasthyasetu/surgeplane/internal/observability/logger"
	"github.com/swasthyasetu/surgeplane/internal/observability/metrics"
	"github.com/swasthyasetu/surgeplane/internal/session"
	"github.com/swasthyasetu/surgeplane/internal/store"
	"github.com/swasthyasetu/surgeplane/internal/tenant"
)

const (
	serviceName  = "surgeplane"
	maxBodyBytes = 1 << 20
)

// Deps are the collaborators the HTTP layer dispatches to.
type Deps struct {
	Registrar   *tenant.Registrar
	Issuer      *session.Issuer
	Verifier    *session.Verifier
	Provisioner *identity.Provisioner
	Hospitals   *hospital.Service
	Forecasts   forecast.Generator
	Authorizer  authz.Authorizer
	AuditLogger audit.Logger
	// Counters and HTTPMetrics may be nil.
	Counters    *metrics.AuthCounters
	HTTPMetrics *metrics.HTTPMetrics
}

// Handler holds HTTP handlers and dependencies
type Handler struct {
	registrar   *tenant.Registrar
	issuer      *session.Issuer
	verifier    *session.Verifier
	provisioner *identity.Provisioner
	hospitals   *hospital.Service
	forecasts   forecast.Generator
	authorizer  authz.Authorizer
	auditLogger audit.Logger
	counters    *metrics.AuthCounters
	httpMetrics *metrics.HTTPMetrics
}

// NewHandler creates a new HTTP handler
func NewHandler(d Deps) *Handler {
	return &Handler{
		registrar:   d.Registrar,
		issuer:      d.Issuer,
		verifier:    d.Verifier,
		provisioner: d.Provisioner,
		hospitals:   d.Hospitals,
		forecasts:   d.Forecasts,
		authorizer:  d.Authorizer,
		auditLogger: d.AuditLogger,
		counters:    d.Counters,
		httpMetrics: d.HTTPMetrics,
	}
}

// RouterConfig holds cross-cutting HTTP settings.
type RouterConfig struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
	// RateLimiter may be nil to disable limiting.
	RateLimiter *RateLimiter
}

// NewRouter creates a new HTTP router
func NewRouter(h *Handler, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if cfg.RateLimiter != nil {
		r.Use(RateLimitMiddleware(cfg.RateLimiter))
	}
	r.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "http_request",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	})
	if h.httpMetrics != nil {
		r.Use(MetricsMiddleware(h.httpMetrics))
	}
	r.Use(LoggingMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))

	r.Get("/", h.Home)
	r.Get("/health", h.HealthCheck)
	if h.httpMetrics != nil {
		r.Method(http.MethodGet, "/metrics", h.httpMetrics.Handler())
	}

	// Public onboarding and login.
	r.Post("/hospital/register", h.RegisterHospital)
	r.Post("/auth/staff/login", h.StaffLogin)

	// National alert is readable by anyone.
	r.Get("/global", h.GetGlobalEvents)
	r.Get("/hospital/global", h.GetGlobalEvents)

	// Bearer-authenticated; tenant comes only from the token.
	r.Group(func(r chi.Router) {
		r.Use(h.AuthMiddleware)

		r.Post("/auth/staff/add", h.AddStaff)
		r.Post("/global/update", h.UpdateGlobalEvents)

		r.Route("/hospital", func(r chi.Router) {
			r.Get("/metrics", h.GetMetrics)
			r.Post("/metrics", h.RecordMetrics)
			r.Get("/prediction", h.GetPrediction)
			r.Get("/recommendations", h.GetRecommendations)
			r.Get("/advisories", h.GetAdvisories)
		})
	})

	return r
}

// Home is the liveness banner.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "SwasthyaSetu Backend is LIVE!",
	})
}

// HealthCheck returns the health status
// @Summary Health Check
// @Description Checks if the service is up and running
// @Tags System
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": serviceName,
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", logger.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// writeError maps domain errors to HTTP status codes. Unknown errors are
// logged and reported generically.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, tenant.ErrInvalidRegistration),
		errors.Is(err, session.ErrMalformedCredential),
		errors.Is(err, identity.ErrInvalidRole),
		errors.Is(err, identity.ErrInvalidStaff),
		errors.Is(err, hospital.ErrInvalidMetrics):
		respondError(w, http.StatusBadRequest, err.Error())

	case errors.Is(err, identity.ErrInvalidCredentials):
		w.Header().Set("WWW-Authenticate", "Bearer")
		respondError(w, http.StatusUnauthorized, "Invalid credentials")

	case errors.Is(err, session.ErrInvalidToken):
		w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
		respondError(w, http.StatusUnauthorized, session.ErrInvalidToken.Error())

	case errors.Is(err, session.ErrUnauthenticated):
		w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
		respondError(w, http.StatusUnauthorized, session.ErrUnauthenticated.Error())

	case errors.Is(err, authz.ErrForbidden):
		respondError(w, http.StatusForbidden, "insufficient permissions")

	case errors.Is(err, tenant.ErrTenantNotFound):
		respondError(w, http.StatusNotFound, "Hospital not found")

	case errors.Is(err, tenant.ErrDuplicateTenant):
		respondError(w, http.StatusConflict, "Hospital code already exists. Choose another.")

	case errors.Is(err, identity.ErrDuplicateUser):
		respondError(w, http.StatusConflict, "Username already exists")

	case errors.Is(err, store.ErrStorageUnavailable):
		slog.ErrorContext(r.Context(), "storage unavailable", logger.Error(err), logger.ErrorType("storage"))
		w.Header().Set("Retry-After", "5")
		respondError(w, http.StatusServiceUnavailable, "service temporarily unavailable")

	default:
		slog.ErrorContext(r.Context(), "request failed",
			logger.Error(err),
			logger.ErrorType(fmt.Sprintf("%T", err)),
			logger.Path(r.URL.Path),
		)
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

func getIPAddress(r *http.Request) string {
	// RealIP has already folded X-Forwarded-For / X-Real-IP into RemoteAddr.
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}
