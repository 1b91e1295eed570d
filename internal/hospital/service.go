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

package hospital

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/swasthyasetu/surgeplane/internal/audit"
	"github.com/swasthyasetu/surgeplane/internal/authz"
	"github.com/swasthyasetu/surgeplane/internal/observability/logger"
)

// DefaultOxygenStock is reported for hospitals that have not submitted metrics.
const DefaultOxygenStock = "Low"

// Service implements hospital dashboard operations. Every tenant-scoped call
// is keyed on the principal's tenant.
type Service struct {
	metrics     MetricsRepository
	events      EventsRepository
	authorizer  authz.Authorizer
	invalidator ForecastInvalidator
	auditLogger audit.Logger
	now         func() time.Time
}

// NewService creates a new hospital service. invalidator may be nil.
func NewService(
	metrics MetricsRepository,
	events EventsRepository,
	authorizer authz.Authorizer,
	invalidator ForecastInvalidator,
	auditLogger audit.Logger,
) *Service {
	return &Service{
		metrics:     metrics,
		events:      events,
		authorizer:  authorizer,
		invalidator: invalidator,
		auditLogger: auditLogger,
		now:         time.Now,
	}
}

// Metrics returns the tenant's latest metrics or a zeroed snapshot.
func (s *Service) Metrics(ctx context.Context, p *authz.Principal) (*Metrics, error) {
	if err := s.authorizer.Authorize(ctx, p, authz.ActionMetricsRead); err != nil {
		return nil, err
	}

	m, err := s.metrics.Get(ctx, p.TenantID)
	if errors.Is(err, ErrMetricsNotFound) {
		return &Metrics{
			OxygenStock: DefaultOxygenStock,
			LastUpdated: s.now().UTC().Format(time.RFC3339),
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics: %w", err)
	}
	return m, nil
}

// RecordMetrics replaces the tenant's metrics snapshot.
func (s *Service) RecordMetrics(ctx context.Context, p *authz.Principal, m Metrics) error {
	if err := s.authorizer.Authorize(ctx, p, authz.ActionMetricsWrite); err != nil {
		return err
	}
	if err := m.Validate(); err != nil {
		return err
	}
	if m.LastUpdated == "" {
		m.LastUpdated = s.now().UTC().Format(time.RFC3339)
	}

	if err := s.metrics.Upsert(ctx, p.TenantID, &m); err != nil {
		return fmt.Errorf("failed to record metrics: %w", err)
	}

	if s.invalidator != nil {
		if err := s.invalidator.Invalidate(ctx, p.TenantID); err != nil {
			slog.WarnContext(ctx, "failed to invalidate cached forecast",
				logger.Operation("update_metrics"), logger.TenantID(p.TenantID), logger.Error(err))
		}
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeMetricsRecorded,
		TenantID: p.TenantID,
		ActorID:  p.Username,
		Resource: "metrics",
	})
	return nil
}

// GlobalEvents returns the current national alert document.
func (s *Service) GlobalEvents(ctx context.Context) (*GlobalEvents, error) {
	ev, err := s.events.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get global events: %w", err)
	}
	return ev, nil
}

// UpdateGlobalEvents merges the supplied sections into the national alert
// document. Only hospital admins may publish.
func (s *Service) UpdateGlobalEvents(ctx context.Context, p *authz.Principal, update GlobalEvents) (*GlobalEvents, error) {
	if err := s.authorizer.Authorize(ctx, p, authz.ActionGlobalUpdate); err != nil {
		if errors.Is(err, authz.ErrForbidden) && p != nil {
			s.auditLogger.Log(ctx, audit.Event{
				Type:     audit.TypeAccessDenied,
				TenantID: p.TenantID,
				ActorID:  p.Username,
				Resource: string(authz.ActionGlobalUpdate),
				Metadata: map[string]any{"role": string(p.Role)},
			})
		}
		return nil, err
	}

	merged, err := s.events.Merge(ctx, &update)
	if err != nil {
		return nil, fmt.Errorf("failed to update global events: %w", err)
	}

	if s.invalidator != nil {
		if err := s.invalidator.InvalidateAll(ctx); err != nil {
			slog.WarnContext(ctx, "failed to invalidate cached forecasts",
				logger.Operation("update_global_events"), logger.Error(err))
		}
	}

	sections := []string{}
	if update.Festival != nil {
		sections = append(sections, "festival_data")
	}
	if update.Pollution != nil {
		sections = append(sections, "pollution_data")
	}
	if update.Epidemic != nil {
		sections = append(sections, "epidemic_data")
	}
	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeGlobalEventsUpdated,
		TenantID: p.TenantID,
		ActorID:  p.Username,
		Resource: "global_events",
		Metadata: map[string]any{"sections": sections},
	})

	return merged, nil
}
