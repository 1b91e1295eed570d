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

package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/swasthyasetu/surgeplane/internal/audit"
	"github.com/swasthyasetu/surgeplane/internal/identity"
	"github.com/swasthyasetu/surgeplane/internal/tenant"
)

// DefaultTTL is the session lifetime when none is configured.
const DefaultTTL = 24 * time.Hour

// IssuerConfig holds token signing parameters.
type IssuerConfig struct {
	Secret []byte
	TTL    time.Duration
}

// Issuer authenticates "user@CODE" credentials and mints session tokens.
type Issuer struct {
	tenants     tenant.Repository
	users       identity.UserRepository
	hasher      identity.Hasher
	auditLogger audit.Logger
	secret      []byte
	ttl         time.Duration
	now         func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// NewIssuer creates a new session issuer
func NewIssuer(
	tenants tenant.Repository,
	users identity.UserRepository,
	hasher identity.Hasher,
	auditLogger audit.Logger,
	cfg IssuerConfig,
) *Issuer {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{
		tenants:     tenants,
		users:       users,
		hasher:      hasher,
		auditLogger: auditLogger,
		secret:      cfg.Secret,
		ttl:         ttl,
		now:         time.Now,
	}
}

// SplitLogin parses "user@CODE" into the canonical username and code, using
// the same normalization as registration.
func SplitLogin(raw string) (username, code string, err error) {
	s := strings.TrimSpace(raw)
	if strings.Count(s, "@") != 1 {
		return "", "", ErrMalformedCredential
	}
	user, rawCode, _ := strings.Cut(s, "@")
	username = identity.NormalizeUsername(user)
	code = tenant.NormalizeCode(rawCode)
	if username == "" || code == "" {
		return "", "", ErrMalformedCredential
	}
	return username, code, nil
}

// Login authenticates the credential and returns a signed token.
// Unknown users and wrong passwords both yield identity.ErrInvalidCredentials;
// the distinction is recorded only in the audit trail.
func (s *Issuer) Login(ctx context.Context, rawUsername, password string) (*Token, error) {
	username, code, err := SplitLogin(rawUsername)
	if err != nil {
		s.loginFailed(ctx, "", rawUsername, "malformed")
		return nil, err
	}

	t, err := s.tenants.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, tenant.ErrTenantNotFound) {
			s.loginFailed(ctx, "", username+"@"+code, "hospital_not_found")
			return nil, tenant.ErrTenantNotFound
		}
		return nil, fmt.Errorf("failed to resolve hospital: %w", err)
	}

	user, err := s.users.GetByUsername(ctx, t.ID, username)
	if err != nil {
		if !errors.Is(err, identity.ErrUserNotFound) {
			return nil, fmt.Errorf("failed to resolve user: %w", err)
		}
		// Burn a comparison so unknown users cost the same as wrong passwords.
		_, _ = s.hasher.Verify(ctx, password, s.dummy(ctx))
		s.loginFailed(ctx, t.ID, username, "user_not_found")
		return nil, identity.ErrInvalidCredentials
	}

	ok, err := s.hasher.Verify(ctx, password, user.PasswordHash)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.loginFailed(ctx, t.ID, username, "corrupt_hash")
		return nil, identity.ErrInvalidCredentials
	}
	if !ok {
		s.loginFailed(ctx, t.ID, username, "invalid_password")
		return nil, identity.ErrInvalidCredentials
	}
	if !user.IsActive {
		s.loginFailed(ctx, t.ID, username, "inactive")
		return nil, identity.ErrInvalidCredentials
	}

	now := s.now()
	exp := now.Add(s.ttl)
	signed, err := sign(s.secret, &Claims{
		HospitalID:   t.ID,
		HospitalName: t.Name,
		Username:     user.Username,
		Role:         string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	if err != nil {
		return nil, err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeLoginSuccess,
		TenantID: t.ID,
		ActorID:  user.Username,
		Resource: "session",
		Metadata: map[string]any{"role": string(user.Role)},
	})

	return &Token{AccessToken: signed, TokenType: "bearer", ExpiresAt: exp}, nil
}

func (s *Issuer) dummy(ctx context.Context) string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash(context.WithoutCancel(ctx), "surgeplane-timing-equalizer")
	})
	return s.dummyHash
}

func (s *Issuer) loginFailed(ctx context.Context, tenantID, login, reason string) {
	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeLoginFailed,
		TenantID: tenantID,
		Resource: login,
		Metadata: map[string]any{"reason": reason},
	})
}
