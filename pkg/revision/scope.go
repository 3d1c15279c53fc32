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

import (
	"github.com/rs/xid"

	"github.com/chronicle-team/chronicle/backend/database"
	"github.com/chronicle-team/chronicle/pkg/entity"
)

// capture holds one captured entity together with its snapshot, keyed by the
// entity's Ref in the scope. The entity reference is kept so relationship
// traversal at commit time can walk outward from it.
type capture struct {
	entity  entity.Entity
	version *database.VersionInfo
}

// metaEntry is a pending side-table record declared while the scope was
// active.
type metaEntry struct {
	kind   string
	fields map[string]any
}

// scope is the state of revision tracking for one execution context. It is
// never shared between contexts, so no field is synchronized.
type scope struct {
	// id correlates the log lines of one unit of work. It survives clear so
	// a reused context keeps its identity in logs.
	id string

	depth              int
	captured           map[entity.Ref]*capture
	actor              string
	comment            string
	meta               []metaEntry
	invalid            bool
	suppressDuplicates bool
}

// newScope creates an idle scope.
func newScope() *scope {
	return &scope{
		id:       xid.New().String(),
		captured: map[entity.Ref]*capture{},
	}
}

// active returns whether the scope is between Start and its matching End.
func (s *scope) active() bool {
	return s.depth > 0
}

// clear puts the scope back into its default state. It runs exactly once per
// outermost exit, on every exit path.
func (s *scope) clear() {
	s.depth = 0
	s.captured = map[entity.Ref]*capture{}
	s.actor = ""
	s.comment = ""
	s.meta = nil
	s.invalid = false
	s.suppressDuplicates = false
}
