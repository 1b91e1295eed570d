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
	"time"

	"github.com/swasthyasetu/surgeplane/internal/authz"
)

// Domain errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateUser      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidStaff       = errors.New("name, username and password are required")
)

// User is a staff account scoped to exactly one hospital.
// Username is stored lower-cased and is unique per tenant only.
type User struct {
	ID           string
	TenantID     string
	Username     string
	PasswordHash string
	DisplayName  string
	Role         authz.Role
	IsActive     bool
	CreatedAt    time.Time
}

// UserRepository defines the interface for user persistence
type UserRepository interface {
	// GetByUsername returns ErrUserNotFound when no user matches within the tenant.
	GetByUsername(ctx context.Context, tenantID, username string) (*User, error)

	// Create returns ErrDuplicateUser if (tenant, username) is taken.
	Create(ctx context.Context, user *User) error
}
