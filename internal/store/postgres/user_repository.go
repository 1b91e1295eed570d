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
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/swasthyasetu/surgeplane/internal/authz"
	"github.com/swasthyasetu/surgeplane/internal/identity"
)

// UserRepository implements identity.UserRepository
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByUsername retrieves a user within a tenant
func (r *UserRepository) GetByUsername(ctx context.Context, tenantID, username string) (*identity.User, error) {
	var user identity.User
	var role string

	err := r.db.pool.QueryRow(ctx, `
		SELECT id, tenant_id, username, password_hash, display_name, role, is_active, created_at
		FROM users
		WHERE tenant_id = $1 AND username = $2
	`, tenantID, username).Scan(
		&user.ID, &user.TenantID, &user.Username, &user.PasswordHash,
		&user.DisplayName, &role, &user.IsActive, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, identity.ErrUserNotFound
		}
		return nil, unavailable("failed to get user", err)
	}

	user.Role, _ = authz.ParseRole(role)
	return &user, nil
}

// Create inserts a user
func (r *UserRepository) Create(ctx context.Context, user *identity.User) error {
	return insertUser(ctx, r.db.pool, user)
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertUser(ctx context.Context, q execer, user *identity.User) error {
	_, err := q.Exec(ctx, `
		INSERT INTO users (id, tenant_id, username, password_hash, display_name, role, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		user.ID, user.TenantID, user.Username, user.PasswordHash,
		user.DisplayName, string(user.Role), user.IsActive, user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return identity.ErrDuplicateUser
		}
		return unavailable("failed to insert user", err)
	}
	return nil
}
