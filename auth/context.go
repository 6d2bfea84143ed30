// Copyright 2023 The occi-os Authors
//
//    Licensed under the Apache License, Version 2.0 (the "License"); you may
//    not use this file except in compliance with the License. You may obtain
//    a copy of the License at
//
//         http://www.apache.org/licenses/LICENSE-2.0
//
//    Unless required by applicable law or agreed to in writing, software
//    distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
//    WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
//    License for the specific language governing permissions and limitations
//    under the License.

package auth

import (
	"context"
)

type contextFlags string

const (
	identityFlag contextFlags = "caller_identity"
)

// Identity is the caller credential/scope information the OCCI frontend
// resolved for a request. The glue layer never inspects it beyond
// logging; it is carried on the context and handed to every provider
// call unmodified.
type Identity struct {
	// UserID identifies the calling user.
	UserID string `json:"user_id"`
	// ProjectID is the tenant all provider operations are scoped to.
	ProjectID string `json:"project_id"`
	// AuthToken is the token the frontend authenticated with.
	AuthToken string `json:"-"`
}

// PopulateContext attaches the caller identity to the context.
func PopulateContext(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityFlag, identity)
}

// IdentityFromContext returns the identity previously set on the
// context, if any.
func IdentityFromContext(ctx context.Context) Identity {
	identity := ctx.Value(identityFlag)
	if identity == nil {
		return Identity{}
	}
	return identity.(Identity)
}
