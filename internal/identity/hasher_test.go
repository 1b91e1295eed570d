package identity

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// TestPurpose: Validates that passwords longer than the bcrypt ceiling are accepted and verified deterministically.
// Scope: Unit Test
// Security: Credential handling (no rejection or silent mismatch of long passwords)
// Expected: A 100-byte password hashes and verifies; any password sharing the first 72 bytes also verifies.
// Test Case ID: IDN-01
func TestPasswordHasher_LongPasswordTruncation(t *testing.T) {
	ctx := context.Background()
	hasher := NewPasswordHasher(bcrypt.MinCost)

	long := strings.Repeat("a", 100)
	hash, err := hasher.Hash(ctx, long)
	require.NoError(t, err)

	ok, err := hasher.Verify(ctx, long, hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = hasher.Verify(ctx, strings.Repeat("a", 72)+"different-tail", hash)
	require.NoError(t, err)
	assert.True(t, ok, "bytes past the ceiling are ignored")

	ok, err = hasher.Verify(ctx, strings.Repeat("a", 71), hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

// TestPurpose: Validates that truncation operates on raw bytes, including multi-byte characters.
// Scope: Unit Test
// Security: Deterministic credential comparison
// Expected: TruncatePassword never returns more than 72 bytes and leaves short input untouched.
// Test Case ID: IDN-02
func TestTruncatePassword(t *testing.T) {
	assert.Equal(t, []byte("short"), TruncatePassword("short"))
	assert.Len(t, TruncatePassword(strings.Repeat("é", 50)), MaxPasswordBytes)
	assert.Len(t, TruncatePassword(strings.Repeat("x", 72)), MaxPasswordBytes)
}

// TestPurpose: Validates that a wrong password and a malformed hash are reported differently.
// Scope: Unit Test
// Security: Authentication correctness
// Expected: Mismatch returns (false, nil); a non-bcrypt hash returns an error.
// Test Case ID: IDN-03
func TestPasswordHasher_Verify(t *testing.T) {
	ctx := context.Background()
	hasher := NewPasswordHasher(bcrypt.MinCost)

	hash, err := hasher.Hash(ctx, "secret123")
	require.NoError(t, err)

	ok, err := hasher.Verify(ctx, "wrong", hash)
	assert.NoError(t, err)
	assert.False(t, ok)

	ok, err = hasher.Verify(ctx, "secret123", "not-a-hash")
	assert.Error(t, err)
	assert.False(t, ok)
}

// TestPurpose: Validates that hashing honours context cancellation.
// Scope: Unit Test
// Security: Resource exhaustion (abandoned requests must not keep callers waiting)
// Expected: A cancelled context returns context.Canceled without producing a hash.
// Test Case ID: IDN-04
func TestPasswordHasher_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	hasher := NewPasswordHasher(bcrypt.MinCost)
	hash, err := hasher.Hash(ctx, "secret123")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, hash)

	ok, err := hasher.Verify(ctx, "secret123", "$2a$04$abc")
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ok)
}

// TestPurpose: Validates cost clamping.
// Scope: Unit Test
// Security: Weak hashing prevention
// Expected: Out-of-range costs are clamped to the bcrypt bounds.
// Test Case ID: IDN-05
func TestNewPasswordHasher_ClampsCost(t *testing.T) {
	assert.Equal(t, bcrypt.MinCost, NewPasswordHasher(1).cost)
	assert.Equal(t, bcrypt.MaxCost, NewPasswordHasher(99).cost)
	assert.Equal(t, 12, NewPasswordHasher(12).cost)
}
