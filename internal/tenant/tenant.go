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

package tenant

import (
	"strings"
	"time"
)

// DefaultLocation is stored when a hospital registers without a location.
const DefaultLocation = "Not provided"

// Tenant is a registered hospital. Code is stored upper-cased and is globally unique.
type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	Location  string    `json:"location"`
	CreatedAt time.Time `json:"created_at"`
}

// NormalizeCode trims and case-folds a hospital code to its stored form.
// Lowering first maps letters such as the Kelvin sign onto the same upper
// case as their ASCII counterparts, so every spelling of a code collides.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.ToLower(strings.TrimSpace(code)))
}
