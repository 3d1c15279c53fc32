/*
 * Copyright 2026 The Chronicle Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package revision

import "context"

// scopeKey is the key for the context.Context.
type scopeKey struct{}

// WithScope returns a new context carrying a fresh revision scope. Each
// execution context owns exactly one scope and must not share it; creating
// the scope is the context owner's responsibility, typically right where the
// goroutine or request handler starts.
func WithScope(ctx context.Context) context.Context {
	return context.WithValue(ctx, scopeKey{}, newScope())
}

// HasScope returns whether the given context carries a revision scope.
func HasScope(ctx context.Context) bool {
	return scopeFrom(ctx) != nil
}

// scopeFrom returns the scope attached to the context, or nil.
func scopeFrom(ctx context.Context) *scope {
	s, _ := ctx.Value(scopeKey{}).(*scope)
	return s
}
