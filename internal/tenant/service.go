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

package tenant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/swasthyasetu/surgeplane/internal/audit"
	"github.com/swasthyasetu/surgeplane/internal/authz"
	"github.com/swasthyasetu/surgeplane/internal/id"
	"github.com/swasthyasetu/surgeplane/internal/identity"
)

// RegisterInput is a self-service hospital registration.
type RegisterInput struct {
	HospitalName  string
	HospitalCode  string
	Location      string
	AdminUsername string
	AdminPassword string
}

// Registration is the outcome of a successful registration.
// It deliberately carries no identifiers or secrets.
type Registration struct {
	HospitalCode string
	AdminLogin   string
}

// Registrar creates hospitals together with their first admin account.
type Registrar struct {
	repo        Repository
	hasher      identity.Hasher
	auditLogger audit.Logger
}

// NewRegistrar creates a new tenant registrar
func NewRegistrar(repo Repository, hasher identity.Hasher, auditLogger audit.Logger) *Registrar {
	return &Registrar{
		repo:        repo,
		hasher:      hasher,
		auditLogger: auditLogger,
	}
}

// Register creates a hospital and its admin. Either both rows exist afterwards or neither does.
func (r *Registrar) Register(ctx context.Context, in RegisterInput) (*Registration, error) {
	name := strings.TrimSpace(in.HospitalName)
	code := NormalizeCode(in.HospitalCode)
	username := identity.NormalizeUsername(in.AdminUsername)

	if name == "" || code == "" || strings.Contains(code, "@") ||
		!identity.ValidUsername(username) || in.AdminPassword == "" {
		return nil, ErrInvalidRegistration
	}

	if _, err := r.repo.GetByCode(ctx, code); err == nil {
		return nil, ErrDuplicateTenant
	} else if !errors.Is(err, ErrTenantNotFound) {
		return nil, fmt.Errorf("failed to check hospital code: %w", err)
	}

	hash, err := r.hasher.Hash(ctx, in.AdminPassword)
	if err != nil {
		return nil, err
	}

	location := strings.TrimSpace(in.Location)
	if location == "" {
		location = DefaultLocation
	}

	now := time.Now().UTC()
	t := &Tenant{
		ID:        id.NewUUIDv7(),
		Name:      name,
		Code:      code,
		Location:  location,
		CreatedAt: now,
	}
	admin := &identity.User{
		ID:           id.NewUUIDv7(),
		TenantID:     t.ID,
		Username:     username,
		PasswordHash: hash,
		DisplayName:  username,
		Role:         authz.RoleAdmin,
		IsActive:     true,
		CreatedAt:    now,
	}

	if err := r.repo.CreateWithAdmin(ctx, t, admin); err != nil {
		if errors.Is(err, ErrDuplicateTenant) {
			return nil, ErrDuplicateTenant
		}
		return nil, fmt.Errorf("failed to register hospital: %w", err)
	}

	r.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeHospitalRegistered,
		TenantID: t.ID,
		ActorID:  username,
		Resource: code,
		Metadata: map[string]any{"hospital_name": name},
	})

	return &Registration{
		HospitalCode: code,
		AdminLogin:   username + "@" + code,
	}, nil
}
