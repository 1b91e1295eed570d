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

import "strings"

// Role is the closed set of staff roles within a hospital.
type Role string

const (
	// RoleAdmin manages the hospital: staff provisioning and national alerts.
	RoleAdmin Role = "admin"

	// RoleDoctor is clinical staff with read/write access to operational data.
	RoleDoctor Role = "doctor"

	// RoleStaff is general hospital staff.
	RoleStaff Role = "staff"

	// RoleAnalyst reads dashboards and forecasts.
	RoleAnalyst Role = "analyst"

	// RoleUnknown is assigned to any stored or presented role outside the set.
	// It authorizes nothing.
	RoleUnknown Role = "unknown"
)

var knownRoles = map[Role]struct{}{
	RoleAdmin:   {},
	RoleDoctor:  {},
	RoleStaff:   {},
	RoleAnalyst: {},
}

// ParseRole normalizes s and maps it onto the closed role set.
// The boolean is false when s does not name a known role.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := knownRoles[r]; !ok {
		return RoleUnknown, false
	}
	return r, true
}

// Known reports whether r is part of the closed role set.
func (r Role) Known() bool {
	_, ok := knownRoles[r]
	return ok
}

func (r Role) String() string {
	return string(r)
}
