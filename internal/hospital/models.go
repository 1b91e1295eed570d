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
)

var (
	ErrMetricsNotFound = errors.New("metrics not found")
	ErrInvalidMetrics  = errors.New("metric counts must be non-negative")
)

// Metrics is a hospital's latest operational snapshot.
type Metrics struct {
	PatientsToday        int    `json:"patients_today"`
	AvailableBeds        int    `json:"available_beds"`
	ICUOccupancy         int    `json:"icu_occupancy"`
	OxygenStock          string `json:"oxygen_stock"`
	StaffOnDuty          int    `json:"staff_on_duty"`
	AQILevel             int    `json:"aqi_level"`
	RespiratoryCases     int    `json:"respiratory_cases"`
	VentilatorsAvailable int    `json:"ventilators_available"`
	LastUpdated          string `json:"last_updated"`
}

// Validate rejects negative counts.
func (m *Metrics) Validate() error {
	for _, v := range []int{
		m.PatientsToday, m.AvailableBeds, m.ICUOccupancy, m.StaffOnDuty,
		m.AQILevel, m.RespiratoryCases, m.VentilatorsAvailable,
	} {
		if v < 0 {
			return ErrInvalidMetrics
		}
	}
	return nil
}

type FestivalData struct {
	Festival          string `json:"festival"`
	StartDate         string `json:"start_date"`
	DurationDays      int    `json:"duration_days"`
	CrowdImpact       string `json:"crowd_impact"`
	InjuryRisk        string `json:"injury_risk"`
	RespiratoryImpact string `json:"respiratory_impact"`
	Notes             string `json:"notes"`
}

type PollutionData struct {
	AQI          int    `json:"aqi"`
	PM25         int    `json:"pm2_5"`
	PM10         int    `json:"pm10"`
	Category     string `json:"category"`
	StartDate    string `json:"start_date"`
	DurationDays int    `json:"duration_days"`
	Notes        string `json:"notes"`
}

type EpidemicData struct {
	Disease              string `json:"disease"`
	Severity             string `json:"severity"`
	SpreadLevel          string `json:"spread_level"`
	ExpectedSurgePercent int    `json:"expected_surge_percent"`
	Notes                string `json:"notes"`
}

// GlobalEvents is the national alert document shared by every hospital.
// A nil section is either unset or, in an update, left unchanged.
type GlobalEvents struct {
	Festival  *FestivalData  `json:"festival_data"`
	Pollution *PollutionData `json:"pollution_data"`
	Epidemic  *EpidemicData  `json:"epidemic_data"`
}

// Merge overlays the non-nil sections of update onto g.
func (g GlobalEvents) Merge(update GlobalEvents) GlobalEvents {
	if update.Festival != nil {
		g.Festival = update.Festival
	}
	if update.Pollution != nil {
		g.Pollution = update.Pollution
	}
	if update.Epidemic != nil {
		g.Epidemic = update.Epidemic
	}
	return g
}

// MetricsRepository persists one metrics document per hospital.
type MetricsRepository interface {
	// Get returns ErrMetricsNotFound when the hospital has never reported.
	Get(ctx context.Context, tenantID string) (*Metrics, error)
	Upsert(ctx context.Context, tenantID string, m *Metrics) error
}

// EventsRepository persists the global events document.
type EventsRepository interface {
	// Get returns an empty document when nothing has been published.
	Get(ctx context.Context) (*GlobalEvents, error)

	// Merge applies the non-nil sections of update and returns the result.
	Merge(ctx context.Context, update *GlobalEvents) (*GlobalEvents, error)
}

// ForecastInvalidator drops cached forecasts after their inputs change.
type ForecastInvalidator interface {
	Invalidate(ctx context.Context, tenantID string) error
	InvalidateAll(ctx context.Context) error
}
