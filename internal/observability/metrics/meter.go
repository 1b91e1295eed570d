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

package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Config holds metrics configuration
type Config struct {
	Enabled bool
}

// Meter wraps OpenTelemetry meter
type Meter struct {
	meter metric.Meter
}

// New creates a new meter instance
func New(ctx context.Context, cfg Config, serviceName string) (*Meter, error) {
	if !cfg.Enabled {
		return &Meter{
			meter: otel.Meter("noop"),
		}, nil
	}

	// Exporters are attached to the global provider by the process owner.
	return &Meter{
		meter: otel.Meter(serviceName),
	}, nil
}

// GetMeter returns the underlying meter
func (m *Meter) GetMeter() metric.Meter {
	return m.meter
}

// CreateCounter creates a new counter metric
func (m *Meter) CreateCounter(name, description string) (metric.Int64Counter, error) {
	counter, err := m.meter.Int64Counter(
		name,
		metric.WithDescription(description),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create counter %s: %w", name, err)
	}
	return counter, nil
}

// AuthCounters counts identity events. A nil *AuthCounters is a no-op.
type AuthCounters struct {
	logins        metric.Int64Counter
	registrations metric.Int64Counter
	staffAdded    metric.Int64Counter
}

// NewAuthCounters registers the identity counters on m.
func NewAuthCounters(m *Meter) (*AuthCounters, error) {
	logins, err := m.CreateCounter("surgeplane.auth.logins", "Staff login attempts by outcome")
	if err != nil {
		return nil, err
	}
	registrations, err := m.CreateCounter("surgeplane.hospital.registrations", "Hospitals registered")
	if err != nil {
		return nil, err
	}
	staffAdded, err := m.CreateCounter("surgeplane.staff.added", "Staff accounts provisioned")
	if err != nil {
		return nil, err
	}
	return &AuthCounters{logins: logins, registrations: registrations, staffAdded: staffAdded}, nil
}

// Login records a login attempt with outcome such as "success" or "invalid_credentials".
func (c *AuthCounters) Login(ctx context.Context, outcome string) {
	if c == nil {
		return
	}
	c.logins.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// Registration records a successful hospital registration.
func (c *AuthCounters) Registration(ctx context.Context) {
	if c == nil {
		return
	}
	c.registrations.Add(ctx, 1)
}

// StaffAdded records a provisioned staff account.
func (c *AuthCounters) StaffAdded(ctx context.Context, role string) {
	if c == nil {
		return
	}
	c.staffAdded.Add(ctx, 1, metric.WithAttributes(attribute.String("role", role)))
}
