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

// Package config loads application configuration from the environment and
// an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvDevelopment relaxes secret requirements for local runs.
const EnvDevelopment = "development"

const (
	minSecretBytes = 32
	devSecret      = "surgeplane-local-development-secret-key"
)

// Config holds all application configuration
type Config struct {
	Env           string
	Server        ServerConfig
	Database      DatabaseConfig
	Session       SessionConfig
	Security      SecurityConfig
	Observability ObservabilityConfig
	RateLimit     RateLimitConfig
	CORS          CORSConfig
	Cache         CacheConfig
	Redis         RedisConfig
	Forecast      ForecastConfig
	Metrics       MetricsConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// Addr is the listen address.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

// SessionConfig holds bearer token settings
type SessionConfig struct {
	SecretKey string
	TokenTTL  time.Duration
}

// SecurityConfig holds password hashing settings
type SecurityConfig struct {
	BcryptCost int
}

// ObservabilityConfig holds logging and tracing configuration
type ObservabilityConfig struct {
	LogLevel       string
	LogFormat      string
	OTELEnabled    bool
	OTELEndpoint   string
	OTELInsecure   bool
	SamplingRate   float64
	ServiceName    string
	ServiceVersion string
}

// RateLimitConfig holds per-client rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	Burst             int
}

// CORSConfig lists the dashboard origins allowed to call the API
type CORSConfig struct {
	AllowedOrigins []string
}

// CacheConfig selects the forecast cache backend
type CacheConfig struct {
	Type string // memory, redis
	TTL  time.Duration
}

// RedisConfig addresses the shared cache
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// ForecastConfig selects the prediction strategy. An empty GeminiAPIKey
// selects the deterministic generator.
type ForecastConfig struct {
	GeminiAPIKey string
	Model        string
	Temperature  float64
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Enabled   bool
	Namespace string
}

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // missing .env is fine

	return LoadFrom(v)
}

// LoadFrom builds Config from v after applying environment overrides and defaults.
func LoadFrom(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Env: strings.ToLower(v.GetString("APP_ENV")),
		Server: ServerConfig{
			Host:            v.GetString("SERVER_HOST"),
			Port:            v.GetString("SERVER_PORT"),
			ReadTimeout:     v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout:    v.GetDuration("SERVER_WRITE_TIMEOUT"),
			IdleTimeout:     v.GetDuration("SERVER_IDLE_TIMEOUT"),
			RequestTimeout:  v.GetDuration("SERVER_REQUEST_TIMEOUT"),
			ShutdownTimeout: v.GetDuration("SERVER_SHUTDOWN_TIMEOUT"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetString("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			Database:        v.GetString("DB_NAME"),
			SSLMode:         v.GetString("DB_SSLMODE"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
			AutoMigrate:     v.GetBool("DB_AUTO_MIGRATE"),
		},
		Session: SessionConfig{
			SecretKey: v.GetString("SECRET_KEY"),
			TokenTTL:  v.GetDuration("SESSION_TOKEN_TTL"),
		},
		Security: SecurityConfig{
			BcryptCost: v.GetInt("BCRYPT_COST"),
		},
		Observability: ObservabilityConfig{
			LogLevel:       v.GetString("LOG_LEVEL"),
			LogFormat:      v.GetString("LOG_FORMAT"),
			OTELEnabled:    v.GetBool("OTEL_ENABLED"),
			OTELEndpoint:   v.GetString("OTEL_ENDPOINT"),
			OTELInsecure:   v.GetBool("OTEL_INSECURE"),
			SamplingRate:   v.GetFloat64("OTEL_SAMPLING_RATE"),
			ServiceName:    v.GetString("OTEL_SERVICE_NAME"),
			ServiceVersion: v.GetString("OTEL_SERVICE_VERSION"),
		},
		RateLimit: RateLimitConfig{
			Enabled:           v.GetBool("RATELIMIT_ENABLED"),
			RequestsPerSecond: v.GetFloat64("RATELIMIT_RPS"),
			Burst:             v.GetInt("RATELIMIT_BURST"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Cache: CacheConfig{
			Type: strings.ToLower(v.GetString("CACHE_TYPE")),
			TTL:  v.GetDuration("CACHE_TTL"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Forecast: ForecastConfig{
			GeminiAPIKey: v.GetString("GEMINI_API_KEY"),
			Model:        v.GetString("GEMINI_MODEL"),
			Temperature:  v.GetFloat64("GEMINI_TEMPERATURE"),
		},
		Metrics: MetricsConfig{
			Enabled:   v.GetBool("METRICS_ENABLED"),
			Namespace: v.GetString("METRICS_NAMESPACE"),
		},
	}

	if cfg.Session.SecretKey == "" && cfg.IsDevelopment() {
		cfg.Session.SecretKey = devSecret
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "production")

	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", "8000")
	v.SetDefault("SERVER_READ_TIMEOUT", "15s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "30s")
	v.SetDefault("SERVER_IDLE_TIMEOUT", "60s")
	v.SetDefault("SERVER_REQUEST_TIMEOUT", "25s")
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", "30s")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "surgeplane")
	v.SetDefault("DB_NAME", "surgeplane")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "5m")
	v.SetDefault("DB_AUTO_MIGRATE", false)

	v.SetDefault("SESSION_TOKEN_TTL", "24h")
	v.SetDefault("BCRYPT_COST", 12)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_SAMPLING_RATE", 1.0)
	v.SetDefault("OTEL_SERVICE_NAME", "surgeplane")
	v.SetDefault("OTEL_SERVICE_VERSION", "0.1.0")

	v.SetDefault("RATELIMIT_ENABLED", true)
	v.SetDefault("RATELIMIT_RPS", 10)
	v.SetDefault("RATELIMIT_BURST", 20)

	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")

	v.SetDefault("CACHE_TYPE", "memory")
	v.SetDefault("CACHE_TTL", "15m")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("GEMINI_MODEL", "gemini-1.5-flash")
	v.SetDefault("GEMINI_TEMPERATURE", 0.3)

	v.SetDefault("METRICS_ENABLED", true)
	v.SetDefault("METRICS_NAMESPACE", "surgeplane")
}

// IsDevelopment reports whether APP_ENV=development.
func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

// Validate validates the configuration
func (c *Config) Validate() error {
	var errs []error

	if c.Database.Password == "" {
		errs = append(errs, errors.New("DB_PASSWORD is required"))
	}
	if len(c.Session.SecretKey) < minSecretBytes {
		errs = append(errs, fmt.Errorf("SECRET_KEY must be at least %d bytes", minSecretBytes))
	}
	if c.Session.TokenTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TOKEN_TTL must be positive"))
	}
	if c.Security.BcryptCost < 4 || c.Security.BcryptCost > 31 {
		errs = append(errs, errors.New("BCRYPT_COST must be between 4 and 31"))
	}
	switch c.Cache.Type {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("CACHE_TYPE must be memory or redis, got %q", c.Cache.Type))
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0) {
		errs = append(errs, errors.New("RATELIMIT_RPS and RATELIMIT_BURST must be positive"))
	}

	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
