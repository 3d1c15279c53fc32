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
	"time"

	"github.com/chronicle-team/chronicle/pkg/types"
)

// RevisionInfo represents one atomic group of entity snapshots captured by a
// revision scope.
type RevisionInfo struct {
	// ID is the unique identifier of the revision.
	ID types.ID `bson:"_id"`

	// Seq is the store-assigned sequence number. It is strictly increasing
	// in creation order and defines which revision is "most recent" for
	// duplicate detection.
	Seq int64 `bson:"seq"`

	// Actor identifies who produced the revision. Empty when unset.
	Actor string `bson:"actor"`

	// Comment is the free-form description attached to the revision.
	Comment string `bson:"comment"`

	// CreatedAt is the time when this revision was created.
	CreatedAt time.Time `bson:"created_at"`
}

// DeepCopy creates a deep copy of the RevisionInfo.
func (r *RevisionInfo) DeepCopy() *RevisionInfo {
	if r == nil {
		return nil
	}

	return &RevisionInfo{
		ID:        r.ID,
		Seq:       r.Seq,
		Actor:     r.Actor,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
	}
}
