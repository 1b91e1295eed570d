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
	"errors"
	"net/http"

	"github.com/swasthyasetu/surgeplane/internal/identity"
	"github.com/swasthyasetu/surgeplane/internal/tenant"
)

// RegisterHospitalRequest is the self-service onboarding payload.
type RegisterHospitalRequest struct {
	HospitalName  string `json:"hospital_name"`
	HospitalCode  string `json:"hospital_code"`
	Location      string `json:"location"`
	AdminUsername string `json:"admin_username"`
	AdminPassword string `json:"admin_password"`
}

// RegisterHospital creates a hospital and its admin account.
// @Summary Register a hospital
// @Description Create a hospital and its first admin account
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body RegisterHospitalRequest true "Registration Data"
// @Success 201 {object} map[string]any
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /hospital/register [post]
func (h *Handler) RegisterHospital(w http.ResponseWriter, r *http.Request) {
	var req RegisterHospitalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reg, err := h.registrar.Register(r.Context(), tenant.RegisterInput{
		HospitalName:  req.HospitalName,
		HospitalCode:  req.HospitalCode,
		Location:      req.Location,
		AdminUsername: req.AdminUsername,
		AdminPassword: req.AdminPassword,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.counters.Registration(r.Context())

	respondJSON(w, http.StatusCreated, map[string]any{
		"success":       true,
		"message":       "Hospital registered successfully!",
		"hospital_code": reg.HospitalCode,
		"admin_login":   reg.AdminLogin,
		"password_hint": "Use the password you just set",
	})
}

// StaffLogin exchanges form credentials "user@CODE" + password for a bearer token.
// @Summary Staff login
// @Tags Auth
// @Accept x-www-form-urlencoded
// @Produce json
// @Param username formData string true "username@HOSPITAL_CODE"
// @Param password formData string true "Password"
// @Success 200 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /auth/staff/login [post]
func (h *Handler) StaffLogin(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		respondError(w, http.StatusBadRequest, "invalid form body")
		return
	}
	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")
	if username == "" || password == "" {
		respondError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	tok, err := h.issuer.Login(r.Context(), username, password)
	if err != nil {
		h.counters.Login(r.Context(), loginOutcome(err))
		writeError(w, r, err)
		return
	}
	h.counters.Login(r.Context(), "success")

	w.Header().Set("Cache-Control", "no-store")
	respondJSON(w, http.StatusOK, map[string]string{
		"access_token": tok.AccessToken,
		"token_type":   tok.TokenType,
	})
}

func loginOutcome(err error) string {
	switch {
	case errors.Is(err, identity.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, tenant.ErrTenantNotFound):
		return "hospital_not_found"
	default:
		return "error"
	}
}

// AddStaffRequest provisions a staff account in the caller's hospital.
type AddStaffRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// AddStaff creates a staff account. Only hospital admins may call it.
// @Summary Add staff
// @Tags Auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body AddStaffRequest true "Staff Data"
// @Success 201 {object} map[string]any
// @Failure 403 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /auth/staff/add [post]
func (h *Handler) AddStaff(w http.ResponseWriter, r *http.Request) {
	p := GetPrincipal(r.Context())

	var req AddStaffRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.provisioner.AddStaff(r.Context(), p, identity.StaffInput{
		Name:     req.Name,
		Username: req.Username,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.counters.StaffAdded(r.Context(), user.Role.String())

	respondJSON(w, http.StatusCreated, map[string]any{
		"success":  true,
		"message":  "Staff added successfully!",
		"username": user.Username,
	})
}
