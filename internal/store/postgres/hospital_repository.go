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
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/swasthyasetu/surgeplane/internal/hospital"
)

// MetricsRepository implements hospital.MetricsRepository
type MetricsRepository struct {
	db *DB
}

// NewMetricsRepository creates a new metrics repository
func NewMetricsRepository(db *DB) *MetricsRepository {
	return &MetricsRepository{db: db}
}

// Get returns the tenant's metrics document
func (r *MetricsRepository) Get(ctx context.Context, tenantID string) (*hospital.Metrics, error) {
	var m hospital.Metrics
	err := r.db.pool.QueryRow(ctx, `
		SELECT data FROM hospital_metrics WHERE tenant_id = $1
	`, tenantID).Scan(&m)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, hospital.ErrMetricsNotFound
		}
		return nil, unavailable("failed to get metrics", err)
	}
	return &m, nil
}

// Upsert replaces the tenant's metrics document
func (r *MetricsRepository) Upsert(ctx context.Context, tenantID string, m *hospital.Metrics) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO hospital_metrics (tenant_id, data, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (tenant_id) DO UPDATE
		SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at
	`, tenantID, m, time.Now().UTC())
	if err != nil {
		return unavailable("failed to upsert metrics", err)
	}
	return nil
}

// EventsRepository implements hospital.EventsRepository over a single-row table.
type EventsRepository struct {
	db *DB
}

// NewEventsRepository creates a new global events repository
func NewEventsRepository(db *DB) *EventsRepository {
	return &EventsRepository{db: db}
}

// Get returns the published document, or an empty one.
func (r *EventsRepository) Get(ctx context.Context) (*hospital.GlobalEvents, error) {
	var ev hospital.GlobalEvents
	err := r.db.pool.QueryRow(ctx, `
		SELECT festival_data, pollution_data, epidemic_data
		FROM global_events
		WHERE id = 1
	`).Scan(&ev.Festival, &ev.Pollution, &ev.Epidemic)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &hospital.GlobalEvents{}, nil
		}
		return nil, unavailable("failed to get global events", err)
	}
	return &ev, nil
}

// Merge upserts the document; NULL sections keep their stored value.
func (r *EventsRepository) Merge(ctx context.Context, update *hospital.GlobalEvents) (*hospital.GlobalEvents, error) {
	var ev hospital.GlobalEvents
	err := r.db.pool.QueryRow(ctx, `
		INSERT INTO global_events (id, festival_data, pollution_data, epidemic_data, updated_at)
		VALUES (1, $1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			festival_data  = COALESCE(EXCLUDED.festival_data, global_events.festival_data),
			pollution_data = COALESCE(EXCLUDED.pollution_data, global_events.pollution_data),
			epidemic_data  = COALESCE(EXCLUDED.epidemic_data, global_events.epidemic_data),
			updated_at     = EXCLUDED.updated_at
		RETURNING festival_data, pollution_data, epidemic_data
	`, update.Festival, update.Pollution, update.Epidemic, time.Now().UTC()).
		Scan(&ev.Festival, &ev.Pollution, &ev.Epidemic)
	if err != nil {
		return nil, unavailable("failed to merge global events", err)
	}
	return &ev, nil
}
