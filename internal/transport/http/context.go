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

package http

import (
	"context"

	"github.com/swasthyasetu/surgeplane/internal/authz"
)

type contextKey string

const (
	principalKey   contextKey = "principal"
	requestInfoKey contextKey = "request_info"
)

// requestInfo is created by the outermost middleware so that values learned
// deeper in the chain, such as the tenant, reach the access log.
type requestInfo struct {
	tenantID string
	role     string
}

func withRequestInfo(ctx context.Context) (context.Context, *requestInfo) {
	info := &requestInfo{}
	return context.WithValue(ctx, requestInfoKey, info), info
}

// WithPrincipal stores the authenticated caller in ctx.
func WithPrincipal(ctx context.Context, p *authz.Principal) context.Context {
	if info, ok := ctx.Value(requestInfoKey).(*requestInfo); ok && p != nil {
		info.tenantID = p.TenantID
		info.role = string(p.Role)
	}
	return context.WithValue(ctx, principalKey, p)
}

// GetPrincipal retrieves the authenticated caller from context, or nil.
func GetPrincipal(ctx context.Context) *authz.Principal {
	if p, ok := ctx.Value(principalKey).(*authz.Principal); ok {
		return p
	}
	return nil
}
