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
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/swasthyasetu/surgeplane/internal/authz"
)

var (
	ErrMalformedCredential = errors.New("use format: username@HOSPITAL_CODE")
	ErrUnauthenticated     = errors.New("not authenticated")
	ErrInvalidToken        = errors.New("invalid or expired token")
)

// Claims is the signed session payload.
type Claims struct {
	HospitalID   string `json:"hospital_id"`
	HospitalName string `json:"hospital_name"`
	Username     string `json:"username"`
	Role         string `json:"role"`
	jwt.RegisteredClaims
}

// Token is an issued bearer credential.
type Token struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
}

func sign(secret []byte, claims *Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return s, nil
}

// Verifier validates bearer tokens and yields the principal they carry.
// It is stateless and safe for concurrent use.
type Verifier struct {
	secret []byte
	now    func() time.Time
}

// NewVerifier creates a verifier for tokens signed with secret.
func NewVerifier(secret []byte) *Verifier {
	return &Verifier{secret: secret, now: time.Now}
}

// Verify checks signature, algorithm and expiry. Tokens without a hospital
// claim are rejected. An unknown role claim maps to authz.RoleUnknown.
func (v *Verifier) Verify(tokenString string) (*authz.Principal, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, ErrUnauthenticated
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return v.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.HospitalID == "" {
		return nil, fmt.Errorf("%w: missing hospital_id", ErrInvalidToken)
	}

	role, _ := authz.ParseRole(claims.Role)
	return &authz.Principal{
		TenantID:   claims.HospitalID,
		TenantName: claims.HospitalName,
		Username:   claims.Username,
		Role:       role,
	}, nil
}
