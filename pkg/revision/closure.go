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
	"fmt"

	"github.com/chronicle-team/chronicle/pkg/entity"
)

// followRelationships expands the captured set with every entity reachable
// through the registered follow relationships. The traversal is an explicit
// worklist with a visited index keyed by identity, so cyclic relationship
// graphs terminate and deep graphs cannot exhaust the stack.
//
// Entities discovered only by traversal are snapshotted with the Changed
// kind; the explicit captures overlay the result afterwards, so their change
// kind and payload always win.
func (m *Manager) followRelationships(captured map[entity.Ref]*capture) (map[entity.Ref]*capture, error) {
	visited := map[entity.Ref]*capture{}

	worklist := make([]entity.Entity, 0, len(captured))
	for _, c := range captured {
		worklist = append(worklist, c.entity)
	}

	for len(worklist) > 0 {
		e := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		if e == nil {
			continue
		}

		// An entity whose key was already cleared, e.g. the base row while a
		// delete cascades, has nothing left to capture.
		if e.EntityID() == "" {
			continue
		}

		ref := entity.RefOf(e)
		if _, ok := visited[ref]; ok {
			continue
		}

		version, err := m.snapshot(e, entity.Changed)
		if err != nil {
			return nil, err
		}
		visited[ref] = &capture{entity: e, version: version}

		info, err := m.registry.Lookup(ref.Kind)
		if err != nil {
			return nil, err
		}

		for _, rel := range info.Follow() {
			related := rel.Resolve(e)
			switch target := related.(type) {
			case nil:
				// The relationship currently has no target.
			case entity.Entity:
				worklist = append(worklist, target)
			case []entity.Entity:
				worklist = append(worklist, target...)
			default:
				return nil, fmt.Errorf("follow %q of %s resolved to %T: %w",
					rel.Name, ref, related, ErrInvalidFollowTarget)
			}
		}

		// A view also versions the base row it projects, when the base kind
		// is registered on its own.
		if info.IsView() {
			if base := info.Base(e); base != nil && m.registry.IsRegistered(base.EntityKind()) {
				worklist = append(worklist, base)
			}
		}
	}

	for ref, c := range captured {
		visited[ref] = c
	}

	return visited, nil
}
