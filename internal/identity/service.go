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

package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/swasthyasetu/surgeplane/internal/audit"
	"github.com/swasthyasetu/surgeplane/internal/authz"
	"github.com/swasthyasetu/surgeplane/internal/id"
)

// StaffInput is the request to add a staff account.
type StaffInput struct {
	Name     string
	Username string
	Password string
	Role     string
}

// Provisioner adds staff accounts to the caller's hospital.
type Provisioner struct {
	repo        UserRepository
	hasher      Hasher
	authorizer  authz.Authorizer
	auditLogger audit.Logger
}

// NewProvisioner creates a new staff provisioner
func NewProvisioner(repo UserRepository, hasher Hasher, authorizer authz.Authorizer, auditLogger audit.Logger) *Provisioner {
	return &Provisioner{
		repo:        repo,
		hasher:      hasher,
		authorizer:  authorizer,
		auditLogger: auditLogger,
	}
}

// NormalizeUsername trims and lower-cases a username.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// ValidUsername reports whether username can be used in a "user@CODE" login.
func ValidUsername(username string) bool {
	return username != "" && !strings.Contains(username, "@")
}

// AddStaff creates a user in the principal's tenant. Only admins may call it.
// The tenant is always taken from the principal, never from the input.
func (p *Provisioner) AddStaff(ctx context.Context, principal *authz.Principal, in StaffInput) (*User, error) {
	if err := p.authorizer.Authorize(ctx, principal, authz.ActionStaffAdd); err != nil {
		if errors.Is(err, authz.ErrForbidden) && principal != nil {
			p.auditLogger.Log(ctx, audit.Event{
				Type:     audit.TypeAccessDenied,
				TenantID: principal.TenantID,
				ActorID:  principal.Username,
				Resource: string(authz.ActionStaffAdd),
				Metadata: map[string]any{"role": string(principal.Role)},
			})
		}
		return nil, err
	}

	username := NormalizeUsername(in.Username)
	name := strings.TrimSpace(in.Name)
	if name == "" || !ValidUsername(username) || in.Password == "" {
		return nil, ErrInvalidStaff
	}

	role, ok := authz.ParseRole(in.Role)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, strings.TrimSpace(in.Role))
	}

	existing, err := p.repo.GetByUsername(ctx, principal.TenantID, username)
	if err == nil && existing != nil {
		return nil, ErrDuplicateUser
	}
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	hash, err := p.hasher.Hash(ctx, in.Password)
	if err != nil {
		return nil, err
	}

	user := &User{
		ID:           id.NewUUIDv7(),
		TenantID:     principal.TenantID,
		Username:     username,
		PasswordHash: hash,
		DisplayName:  name,
		Role:         role,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}

	// The unique index is authoritative; a concurrent insert surfaces as ErrDuplicateUser.
	if err := p.repo.Create(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicateUser) {
			return nil, ErrDuplicateUser
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	p.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeStaffAdded,
		TenantID: principal.TenantID,
		ActorID:  principal.Username,
		Resource: username,
		Metadata: map[string]any{"role": string(role)},
	})

	return user, nil
}
