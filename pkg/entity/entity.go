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

// Package entity defines the contract between host applications and the
// revision tracking core. Hosts expose their domain objects to Chronicle by
// implementing Entity and registering the kind with the registry.
package entity

import "fmt"

// Kind is the name of a registered entity type, such as "blog.Article".
type Kind string

// String returns a string representation of this Kind.
func (k Kind) String() string {
	return string(k)
}

// ID is the identity of an entity instance within its kind, in string form.
// An empty ID means the instance has no resolvable identity, e.g. its key
// was already cleared while a delete cascades.
type ID string

// String returns a string representation of this ID.
func (id ID) String() string {
	return string(id)
}

// Ref is the identity of an entity instance across all kinds. It is the key
// under which captured snapshots are stored within a revision scope.
type Ref struct {
	Kind Kind
	ID   ID
}

// String returns a string representation of this Ref.
func (r Ref) String() string {
	return fmt.Sprintf("%s:%s", r.Kind, r.ID)
}

// Entity is a domain object that can be captured into revisions.
type Entity interface {
	// EntityKind returns the registered kind of this entity.
	EntityKind() Kind

	// EntityID returns the identity of this entity, or an empty ID when the
	// identity is not currently resolvable.
	EntityID() ID
}

// RefOf returns the Ref of the given entity.
func RefOf(e Entity) Ref {
	return Ref{Kind: e.EntityKind(), ID: e.EntityID()}
}

// ChangeKind represents how an entity was mutated when it was captured.
type ChangeKind int

const (
	// Added means the entity was newly created.
	Added ChangeKind = iota + 1

	// Changed means an existing entity was updated. Snapshots discovered by
	// relationship traversal default to this kind.
	Changed

	// Deleted means the entity was about to be deleted.
	Deleted
)

// String returns the string representation of this ChangeKind.
func (k ChangeKind) String() string {
	switch k {
	case Added:
		return "added"
	case Changed:
		return "changed"
	case Deleted:
		return "deleted"
	default:
		return fmt.Sprintf("changekind_%d", int(k))
	}
}
