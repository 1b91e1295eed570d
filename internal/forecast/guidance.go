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

package forecast

// PriorityAction is a dated action item for hospital management.
type PriorityAction struct {
	Action   string `json:"action"`
	Priority string `json:"priority"`
	Deadline string `json:"deadline"`
}

// Recommendations is operational guidance for the current surge season.
type Recommendations struct {
	Staffing           string            `json:"staffing"`
	Supplies           string            `json:"supplies"`
	Advisory           string            `json:"advisory"`
	PriorityActions    []PriorityAction  `json:"priority_actions"`
	ResourceAllocation map[string]string `json:"resource_allocation"`
}

// Advisory is a public health notice.
type Advisory struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Type           string `json:"type"`
	Severity       string `json:"severity"`
	Message        string `json:"message"`
	Date           string `json:"date"`
	TargetAudience string `json:"target_audience"`
	ActionRequired string `json:"action_required"`
}

// GuidanceFor returns the season guidance for a hospital. The content is
// currently the same for every hospital.
func GuidanceFor(_ string) *Recommendations {
	return &Recommendations{
		Staffing: "Increase on-duty doctors and nurses by 40% from 24th October. Deploy extra staff in Emergency & Respiratory wards.",
		Supplies: "Stock additional 200 oxygen cylinders, 5000 N95 masks, and antiviral medications before 23rd October.",
		Advisory: "Issue public advisory: Avoid outdoor activity, especially children and elderly. Use air purifiers and masks.",
		PriorityActions: []PriorityAction{
			{Action: "Activate 10 additional ICU beds", Priority: "High", Deadline: "2025-10-23"},
			{Action: "Call in 5 respiratory specialists on standby", Priority: "High", Deadline: "2025-10-24"},
			{Action: "Set up temporary fever clinic tent", Priority: "Medium", Deadline: "2025-10-25"},
		},
		ResourceAllocation: map[string]string{
			"emergency_ward":   "+50%",
			"icu":              "+60%",
			"respiratory_unit": "+80%",
			"general_ward":     "+20%",
		},
	}
}

// Advisories returns the active public health advisories.
func Advisories() []Advisory {
	return []Advisory{
		{
			ID:             "adv001",
			Title:          "Severe Air Pollution Alert",
			Type:           "warning",
			Severity:       "high",
			Message:        "AQI expected to cross 400+ due to Diwali fireworks and weather inversion.",
			Date:           "2025-10-20",
			TargetAudience: "Public & Patients",
			ActionRequired: "Stay indoors • Use N95 masks • Avoid physical activity • Keep inhalers ready",
		},
		{
			ID:             "adv002",
			Title:          "Respiratory Cases Surge Warning",
			Type:           "info",
			Severity:       "medium",
			Message:        "30% increase in asthma and breathing difficulty cases expected.",
			Date:           "2025-10-21",
			TargetAudience: "Hospitals",
			ActionRequired: "Prepare nebulizers • Stock salbutamol • Train staff for mass casualty",
		},
	}
}
