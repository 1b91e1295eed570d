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

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the bcrypt input ceiling. Longer passwords are truncated
// to this many bytes before hashing and before verification.
const MaxPasswordBytes = 72

// Hasher hashes and verifies passwords.
type Hasher interface {
	Hash(ctx context.Context, password string) (string, error)
	Verify(ctx context.Context, password, encodedHash string) (bool, error)
}

// PasswordHasher implements Hasher with bcrypt.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher returns a bcrypt hasher. cost is clamped to the bcrypt range.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &PasswordHasher{cost: cost}
}

// TruncatePassword returns at most MaxPasswordBytes of the password's bytes.
// The cut is on raw bytes and may split a multi-byte character.
func TruncatePassword(password string) []byte {
	b := []byte(password)
	if len(b) > MaxPasswordBytes {
		b = b[:MaxPasswordBytes]
	}
	return b
}

type hashResult struct {
	hash []byte
	err  error
}

// Hash hashes the truncated password. It returns ctx.Err() if the context
// ends first; the background computation is discarded.
func (h *PasswordHasher) Hash(ctx context.Context, password string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	pw := TruncatePassword(password)
	ch := make(chan hashResult, 1)
	go func() {
		hash, err := bcrypt.GenerateFromPassword(pw, h.cost)
		ch <- hashResult{hash: hash, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.err != nil {
			return "", fmt.Errorf("failed to hash password: %w", res.err)
		}
		return string(res.hash), nil
	}
}

// Verify compares the truncated password against encodedHash.
// A mismatch is (false, nil); a malformed hash is an error.
func (h *PasswordHasher) Verify(ctx context.Context, password, encodedHash string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	pw := TruncatePassword(password)
	ch := make(chan error, 1)
	go func() {
		ch <- bcrypt.CompareHashAndPassword([]byte(encodedHash), pw)
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case err := <-ch:
		if err == nil {
			return true, nil
		}
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, fmt.Errorf("invalid password hash: %w", err)
	}
}
