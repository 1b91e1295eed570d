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

	"github.com/swasthyasetu/surgeplane/internal/identity"
)

var (
	ErrTenantNotFound      = errors.New("hospital not found")
	ErrDuplicateTenant     = errors.New("hospital code already registered")
	ErrInvalidRegistration = errors.New("hospital name, code, admin username and password are required")
)

// Repository persists hospitals.
type Repository interface {
	// GetByCode looks up a hospital by its normalized code.
	GetByCode(ctx context.Context, code string) (*Tenant, error)

	// CreateWithAdmin inserts the hospital and its first admin atomically.
	// It returns ErrDuplicateTenant if the code is taken.
	CreateWithAdmin(ctx context.Context, t *Tenant, admin *identity.User) error
}
