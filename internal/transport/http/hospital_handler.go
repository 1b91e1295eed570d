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

package http

import (
	"net/http"

	"github.com/swasthyasetu/surgeplane/internal/authz"
	"github.com/swasthyasetu/surgeplane/internal/forecast"
	"github.com/swasthyasetu/surgeplane/internal/hospital"
)

// GetGlobalEvents returns the national alert document.
func (h *Handler) GetGlobalEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.hospitals.GlobalEvents(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, events)
}

// UpdateGlobalEvents merges the supplied sections into the national alert.
// @Summary Update national alert
// @Tags Hospital
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body hospital.GlobalEvents true "Event sections"
// @Success 200 {object} map[string]any
// @Failure 403 {object} map[string]string
// @Router /global/update [post]
func (h *Handler) UpdateGlobalEvents(w http.ResponseWriter, r *http.Request) {
	var update hospital.GlobalEvents
	if err := decodeJSON(w, r, &update); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if _, err := h.hospitals.UpdateGlobalEvents(r.Context(), GetPrincipal(r.Context()), update); err != nil {
		writeError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "National alert updated & broadcasted to all hospitals",
	})
}

// GetMetrics returns the caller's hospital metrics.
func (h *Handler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	m, err := h.hospitals.Metrics(r.Context(), GetPrincipal(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, m)
}

// RecordMetrics replaces the caller's hospital metrics.
func (h *Handler) RecordMetrics(w http.ResponseWriter, r *http.Request) {
	var m hospital.Metrics
	if err := decodeJSON(w, r, &m); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.hospitals.RecordMetrics(r.Context(), GetPrincipal(r.Context()), m); err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"msg": "Metrics updated"})
}

// GetPrediction returns the seven-day surge forecast for the caller's hospital.
// @Summary Surge forecast
// @Tags Hospital
// @Produce json
// @Security BearerAuth
// @Success 200 {object} forecast.Forecast
// @Failure 401 {object} map[string]string
// @Router /hospital/prediction [get]
func (h *Handler) GetPrediction(w http.ResponseWriter, r *http.Request) {
	p := GetPrincipal(r.Context())
	if err := h.authorizer.Authorize(r.Context(), p, authz.ActionForecastRead); err != nil {
		writeError(w, r, err)
		return
	}

	f, err := h.forecasts.Predict(r.Context(), p.TenantID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, f)
}

// GetRecommendations returns operational guidance for the caller's hospital.
func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	p := GetPrincipal(r.Context())
	if err := h.authorizer.Authorize(r.Context(), p, authz.ActionForecastRead); err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, forecast.GuidanceFor(p.TenantID))
}

// GetAdvisories returns active public health advisories.
func (h *Handler) GetAdvisories(w http.ResponseWriter, r *http.Request) {
	if err := h.authorizer.Authorize(r.Context(), GetPrincipal(r.Context()), authz.ActionAdvisoriesRead); err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, forecast.Advisories())
}
