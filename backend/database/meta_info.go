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

package database

import (
	"maps"

	"github.com/chronicle-team/chronicle/pkg/types"
)

// MetaInfo is an arbitrary side-table record attached to a revision, e.g.
// an approval ticket or an import batch reference.
type MetaInfo struct {
	// ID is the unique identifier of the meta record.
	ID types.ID `bson:"_id"`

	// RevisionID is the ID of the revision this record belongs to.
	RevisionID types.ID `bson:"revision_id"`

	// Kind names the meta record type declared by the host.
	Kind string `bson:"kind"`

	// Fields holds the record payload.
	Fields map[string]any `bson:"fields"`
}

// DeepCopy creates a deep copy of the MetaInfo.
func (m *MetaInfo) DeepCopy() *MetaInfo {
	if m == nil {
		return nil
	}

	return &MetaInfo{
		ID:         m.ID,
		RevisionID: m.RevisionID,
		Kind:       m.Kind,
		Fields:     maps.Clone(m.Fields),
	}
}
