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

package authz

import "errors"

// ErrForbidden is returned when a principal's role does not permit an action.
var ErrForbidden = errors.New("forbidden")

// Action names an operation subject to the role policy.
type Action string

const (
	ActionStaffAdd       Action = "staff:add"
	ActionGlobalUpdate   Action = "global:update"
	ActionMetricsRead    Action = "metrics:read"
	ActionMetricsWrite   Action = "metrics:write"
	ActionForecastRead   Action = "forecast:read"
	ActionAdvisoriesRead Action = "advisories:read"
)

// Principal is the authenticated caller as decoded from a verified session token.
// TenantID is the only source of tenant scope for protected operations.
type Principal struct {
	TenantID   string
	TenantName string
	Username   string
	Role       Role
}
