// Copyright 2025 Perseid Labs
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


// Package access resolves callers to their processing grants.
//
// Batch processing is permission gated. A Resolver maps a caller
// identity to a core.Grant that names the caller's role and, for album
// administrators, the albums they may process.
package access

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/perseid/argos/core"
)

// SystemCaller is the identity used by internal components such as the
// scheduler. It always resolves to a site administrator grant.
const SystemCaller = "system"

// ErrUnknownCaller indicates the caller has no grant configured.
var ErrUnknownCaller = errors.New("unknown caller")

// Resolver maps a caller identity to its processing grant.
type Resolver interface {
	Resolve(ctx context.Context, caller string) (core.Grant, error)
}

// StaticResolver is a Resolver backed by an in-memory grant table.
// The system caller is always present with a site administrator grant.
type StaticResolver struct {
	mu     sync.RWMutex
	grants map[string]core.Grant
}

// NewStaticResolver creates a resolver seeded with the system grant.
func NewStaticResolver() *StaticResolver {
	return &StaticResolver{
		grants: map[string]core.Grant{
			SystemCaller: {Role: core.RoleSiteAdmin},
		},
	}
}

// Grant registers or replaces the grant for a caller.
func (r *StaticResolver) Grant(caller string, grant core.Grant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.grants[caller] = grant
}

// Revoke removes a caller's grant. The system grant cannot be revoked.
func (r *StaticResolver) Revoke(caller string) {
	if caller == SystemCaller {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.grants, caller)
}

// Resolve returns the grant for a caller, or ErrUnknownCaller.
func (r *StaticResolver) Resolve(ctx context.Context, caller string) (core.Grant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	grant, ok := r.grants[caller]
	if !ok {
		return core.Grant{}, fmt.Errorf("%w: %q", ErrUnknownCaller, caller)
	}
	return grant, nil
}

var _ Resolver = (*StaticResolver)(nil)
