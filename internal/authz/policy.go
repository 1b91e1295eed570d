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

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/v1/rego"
)

const policyQuery = "data.surgeplane.authz.allow"

// Elevated actions are reserved for hospital admins. Every other action is
// open to any known role. A principal without a tenant is never allowed.
const defaultRegoPolicy = `package surgeplane.authz

default allow := false

elevated_actions := {"staff:add", "global:update"}

known_roles := {"admin", "doctor", "staff", "analyst"}

allow if {
	input.tenant_id != ""
	input.role == "admin"
}

allow if {
	input.tenant_id != ""
	input.role in known_roles
	not input.action in elevated_actions
}
`

// Authorizer decides whether a principal may perform an action.
type Authorizer interface {
	Authorize(ctx context.Context, p *Principal, action Action) error
}

// Policy evaluates role decisions with an embedded OPA Rego module.
// The query is compiled once and is safe for concurrent use.
type Policy struct {
	query rego.PreparedEvalQuery
}

// NewPolicy compiles the role policy.
func NewPolicy(ctx context.Context) (*Policy, error) {
	pq, err := rego.New(
		rego.Query(policyQuery),
		rego.Module("authz.rego", defaultRegoPolicy),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile authorization policy: %w", err)
	}
	return &Policy{query: pq}, nil
}

// Authorize returns ErrForbidden unless the policy allows the action.
// Evaluation failures deny.
func (p *Policy) Authorize(ctx context.Context, principal *Principal, action Action) error {
	if principal == nil {
		return ErrForbidden
	}

	input := map[string]any{
		"tenant_id": principal.TenantID,
		"role":      string(principal.Role),
		"action":    string(action),
	}

	rs, err := p.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return fmt.Errorf("%w: policy evaluation failed: %v", ErrForbidden, err)
	}
	if !rs.Allowed() {
		return ErrForbidden
	}
	return nil
}
