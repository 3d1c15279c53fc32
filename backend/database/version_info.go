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
	"slices"
	"time"

	"github.com/chronicle-team/chronicle/pkg/entity"
	"github.com/chronicle-team/chronicle/pkg/types"
)

// VersionInfo represents the snapshot of a single entity within a revision.
// It is built by the revision manager at capture time and completed by the
// store with its ID, revision ID and creation time.
type VersionInfo struct {
	// ID is the unique identifier of the version row.
	ID types.ID `bson:"_id"`

	// RevisionID is the ID of the revision this version belongs to.
	RevisionID types.ID `bson:"revision_id"`

	// EntityKind is the registered kind of the captured entity.
	EntityKind entity.Kind `bson:"entity_kind"`

	// EntityID is the identity of the captured entity in string form.
	EntityID entity.ID `bson:"entity_id"`

	// EntityIDInt is the numeric form of EntityID, set only for kinds
	// registered with integral identities.
	EntityIDInt *int64 `bson:"entity_id_int,omitempty"`

	// Format is the serialization format of Snapshot.
	Format string `bson:"format"`

	// Snapshot is the serialized field values of the entity at capture time.
	Snapshot []byte `bson:"snapshot"`

	// Repr is a human-readable representation of the entity.
	Repr string `bson:"repr"`

	// Change records how the entity was mutated.
	Change entity.ChangeKind `bson:"change"`

	// CreatedAt is the time when this version was stored.
	CreatedAt time.Time `bson:"created_at"`
}

// Ref returns the entity identity this version captures.
func (v *VersionInfo) Ref() entity.Ref {
	return entity.Ref{Kind: v.EntityKind, ID: v.EntityID}
}

// DeepCopy creates a deep copy of the VersionInfo.
func (v *VersionInfo) DeepCopy() *VersionInfo {
	if v == nil {
		return nil
	}

	clone := *v
	clone.Snapshot = slices.Clone(v.Snapshot)
	if v.EntityIDInt != nil {
		idInt := *v.EntityIDInt
		clone.EntityIDInt = &idInt
	}

	return &clone
}
