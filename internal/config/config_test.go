package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPurpose: Validates default values and environment overrides.
// Scope: Unit Test
// Security: Secrets come from the environment only
// Expected: Defaults apply when unset and environment values override them.
// Test Case ID: CFG-01
func TestLoadFrom_DefaultsAndOverrides(t *testing.T) {
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("SECRET_KEY", "0123456789abcdef0123456789abcdef")
	t.Setenv("SESSION_TOKEN_TTL", "2h")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.example, http://b.example")
	t.Setenv("CACHE_TYPE", "Redis")

	cfg, err := LoadFrom(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8000", cfg.Server.Addr())
	assert.Equal(t, 12, cfg.Security.BcryptCost)
	assert.Equal(t, 2*time.Hour, cfg.Session.TokenTTL)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "redis", cfg.Cache.Type)
	assert.Equal(t, "gemini-1.5-flash", cfg.Forecast.Model)
	assert.False(t, cfg.IsDevelopment())
}

// TestPurpose: Validates rejection of unsafe configuration.
// Scope: Unit Test
// Security: Weak signing keys and out-of-range bcrypt costs (CWE-521, CWE-916)
// Expected: Short secrets, bad bcrypt cost and missing DB password fail validation.
// Test Case ID: CFG-02
func TestLoadFrom_Validation(t *testing.T) {
	t.Setenv("DB_PASSWORD", "")
	t.Setenv("SECRET_KEY", "short")
	t.Setenv("BCRYPT_COST", "40")

	_, err := LoadFrom(viper.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_PASSWORD")
	assert.Contains(t, err.Error(), "SECRET_KEY")
	assert.Contains(t, err.Error(), "BCRYPT_COST")
}

// TestPurpose: Validates the development secret fallback.
// Scope: Unit Test
// Security: Fallback secret is confined to APP_ENV=development
// Expected: Development starts without SECRET_KEY; production does not.
// Test Case ID: CFG-03
func TestLoadFrom_DevelopmentSecret(t *testing.T) {
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("SECRET_KEY", "")
	t.Setenv("APP_ENV", "development")

	cfg, err := LoadFrom(viper.New())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(cfg.Session.SecretKey), minSecretBytes)

	t.Setenv("APP_ENV", "production")
	_, err = LoadFrom(viper.New())
	assert.Error(t, err)
}
