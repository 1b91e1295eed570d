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

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/swasthyasetu/surgeplane/internal/identity"
	"github.com/swasthyasetu/surgeplane/internal/store"
	"github.com/swasthyasetu/surgeplane/internal/tenant"
)

// TenantRepository implements tenant.Repository
type TenantRepository struct {
	db *DB
}

// NewTenantRepository creates a new tenant repository
func NewTenantRepository(db *DB) *TenantRepository {
	return &TenantRepository{db: db}
}

// GetByCode retrieves a hospital by its normalized code
func (r *TenantRepository) GetByCode(ctx context.Context, code string) (*tenant.Tenant, error) {
	var t tenant.Tenant
	err := r.db.pool.QueryRow(ctx, `
		SELECT id, name, code, location, created_at
		FROM hospitals
		WHERE code = $1
	`, code).Scan(&t.ID, &t.Name, &t.Code, &t.Location, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, tenant.ErrTenantNotFound
		}
		return nil, unavailable("failed to get hospital", err)
	}
	return &t, nil
}

// CreateWithAdmin inserts the hospital and its admin in one transaction.
func (r *TenantRepository) CreateWithAdmin(ctx context.Context, t *tenant.Tenant, admin *identity.User) error {
	err := pgx.BeginFunc(ctx, r.db.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO hospitals (id, name, code, location, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`, t.ID, t.Name, t.Code, t.Location, t.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return tenant.ErrDuplicateTenant
			}
			return unavailable("failed to insert hospital", err)
		}

		if err := insertUser(ctx, tx, admin); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, tenant.ErrDuplicateTenant) ||
			errors.Is(err, identity.ErrDuplicateUser) ||
			errors.Is(err, store.ErrStorageUnavailable) {
			return err
		}
		return unavailable("failed to commit hospital registration", err)
	}
	return nil
}
