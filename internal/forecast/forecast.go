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

// Package forecast produces seven-day patient surge predictions and the
// guidance shown alongside them on the hospital dashboard.
package forecast

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Horizon is the number of days a forecast covers.
const Horizon = 7

const dateLayout = "2006-01-02"

// Alert levels.
const (
	AlertNormal   = "Normal"
	AlertHigh     = "High"
	AlertCritical = "Critical"
)

var ErrInvalidForecast = errors.New("invalid forecast")

// SurgeDay is one day of a forecast.
type SurgeDay struct {
	Date             string  `json:"date"`
	ExpectedPatients int     `json:"expected_patients"`
	Confidence       int     `json:"confidence"`
	Alert            string  `json:"alert"`
	Reason           *string `json:"reason"`
}

// Forecast is a seven-day surge prediction for one hospital.
type Forecast struct {
	Next7Days []SurgeDay `json:"next_7_days"`
	Factors   []string   `json:"factors"`
}

// Validate checks the shape of a forecast produced by an external model.
func (f *Forecast) Validate() error {
	if len(f.Next7Days) != Horizon {
		return fmt.Errorf("%w: expected %d days, got %d", ErrInvalidForecast, Horizon, len(f.Next7Days))
	}
	for i, d := range f.Next7Days {
		if _, err := time.Parse(dateLayout, d.Date); err != nil {
			return fmt.Errorf("%w: day %d has bad date %q", ErrInvalidForecast, i, d.Date)
		}
		if d.ExpectedPatients < 0 || d.Confidence < 0 || d.Confidence > 100 {
			return fmt.Errorf("%w: day %d out of range", ErrInvalidForecast, i)
		}
		switch d.Alert {
		case AlertNormal, AlertHigh, AlertCritical:
		default:
			return fmt.Errorf("%w: day %d has alert %q", ErrInvalidForecast, i, d.Alert)
		}
	}
	if f.Factors == nil {
		f.Factors = []string{}
	}
	return nil
}

// Generator produces a forecast for a hospital.
type Generator interface {
	Predict(ctx context.Context, tenantID string) (*Forecast, error)
}

var mockFactors = []string{
	"Diwali Festival (High firecracker use)",
	"AQI expected > 350 (Severe)",
	"Rising viral fever cases",
	"Historical post-festival surge pattern",
}

const mockPeakReason = "Diwali + Severe Pollution"

// MockGenerator returns a deterministic festival-season curve starting today.
type MockGenerator struct {
	now func() time.Time
}

func NewMockGenerator() *MockGenerator {
	return &MockGenerator{now: time.Now}
}

func (g *MockGenerator) Predict(_ context.Context, _ string) (*Forecast, error) {
	start := g.now()
	days := make([]SurgeDay, Horizon)
	for i := range days {
		d := SurgeDay{
			Date:             start.AddDate(0, 0, i).Format(dateLayout),
			ExpectedPatients: 220 + i*35,
			Confidence:       88 - i*2,
			Alert:            AlertNormal,
		}
		if i >= 3 {
			d.ExpectedPatients += 50
			reason := mockPeakReason
			d.Reason = &reason
		}
		switch {
		case i >= 4:
			d.Alert = AlertCritical
		case i >= 2:
			d.Alert = AlertHigh
		}
		days[i] = d
	}

	return &Forecast{
		Next7Days: days,
		Factors:   append([]string(nil), mockFactors...),
	}, nil
}
