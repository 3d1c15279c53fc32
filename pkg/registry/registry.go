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

// Package registry keeps the registration information of entity kinds under
// revision control. Field access and relationship traversal are resolved
// into typed accessor functions at registration time, so the core never
// inspects host objects through reflection.
package registry

import (
	"fmt"
	"sync"

	"github.com/chronicle-team/chronicle/internal/validation"
	"github.com/chronicle-team/chronicle/pkg/codec"
	"github.com/chronicle-team/chronicle/pkg/entity"
	"github.com/chronicle-team/chronicle/pkg/errors"
)

var (
	// ErrNotRegistered is returned when the given kind is not registered.
	ErrNotRegistered = errors.NotFound("kind is not registered").WithCode("ErrNotRegistered")

	// ErrAlreadyRegistered is returned when the given kind is registered twice.
	ErrAlreadyRegistered = errors.AlreadyExists("kind is already registered").WithCode("ErrAlreadyRegistered")

	// ErrBaseNotRegistered is returned when a view kind is registered before
	// the base kind it projects.
	ErrBaseNotRegistered = errors.FailedPrecond("base kind is not registered").WithCode("ErrBaseNotRegistered")
)

// ValuesFunc returns the capturable field values of an entity. The returned
// map is owned by the caller and must reflect the entity's current state.
// Foreign keys should be exposed as their captured key value, not as a lazy
// reference that re-reads mutated state later.
type ValuesFunc func(entity.Entity) map[string]any

// ResolveFunc resolves a declared relationship of an entity. The result must
// be nil when the relationship currently has no target, a single
// entity.Entity, or a []entity.Entity. Any other value is reported as a
// configuration error at traversal time.
type ResolveFunc func(entity.Entity) any

// BaseFunc resolves the base instance that a view entity projects.
type BaseFunc func(entity.Entity) entity.Entity

// Relationship is a named relationship whose targets must be captured
// together with the owning entity.
type Relationship struct {
	Name    string
	Resolve ResolveFunc
}

// Options configures the registration of an entity kind.
type Options struct {
	// Values yields the capturable field values of an instance. Required.
	Values ValuesFunc

	// Fields restricts the captured values to the named subset. Nil captures
	// every value the Values function yields.
	Fields []string

	// Follow lists the relationships whose targets are pulled into the same
	// revision, in declaration order.
	Follow []Relationship

	// Format names the serialization format. Empty selects the default.
	Format codec.Format

	// IntegerIDs marks kinds whose identity is integral, enabling the
	// numeric id column on stored versions.
	IntegerIDs bool

	// Base marks this kind as a view over BaseKind and resolves the backing
	// base instance. View instances are traversed but never persisted
	// themselves.
	Base     BaseFunc
	BaseKind entity.Kind
}

// Info is the immutable registration information of an entity kind.
type Info struct {
	kind       entity.Kind
	fields     []string
	values     ValuesFunc
	follow     []Relationship
	format     codec.Format
	integerIDs bool
	base       BaseFunc
	baseKind   entity.Kind
}

// Kind returns the registered kind.
func (i *Info) Kind() entity.Kind {
	return i.kind
}

// Format returns the serialization format of this kind.
func (i *Info) Format() codec.Format {
	return i.format
}

// Follow returns the declared relationships in declaration order.
func (i *Info) Follow() []Relationship {
	return i.follow
}

// IntegerIDs returns whether this kind has an integral identity.
func (i *Info) IntegerIDs() bool {
	return i.integerIDs
}

// IsView returns whether this kind is a view over another registered kind.
func (i *Info) IsView() bool {
	return i.base != nil
}

// Base resolves the base instance of the given view entity.
func (i *Info) Base(e entity.Entity) entity.Entity {
	return i.base(e)
}

// BaseKind returns the kind this view projects.
func (i *Info) BaseKind() entity.Kind {
	return i.baseKind
}

// Values returns the capturable field values of the given entity, filtered
// to the registered field subset.
func (i *Info) Values(e entity.Entity) map[string]any {
	values := i.values(e)
	if i.fields == nil {
		return values
	}

	filtered := make(map[string]any, len(i.fields))
	for _, field := range i.fields {
		if v, ok := values[field]; ok {
			filtered[field] = v
		}
	}

	return filtered
}

// Registry maps entity kinds to their registration information. It is built
// once at startup and read-mostly afterwards; concurrent lookups are safe.
type Registry struct {
	mu    sync.RWMutex
	infos map[entity.Kind]*Info
}

// New creates a new Registry.
func New() *Registry {
	return &Registry{
		infos: map[entity.Kind]*Info{},
	}
}

// Register registers the given kind. It fails when the kind is already
// registered, or when a view kind names a base that is not yet registered.
func (r *Registry) Register(kind entity.Kind, opts Options) error {
	if err := validation.ValidateValue(kind.String(), "required,kind"); err != nil {
		return fmt.Errorf("%s: %w", kind, errors.InvalidArgument(err.Error()).WithCode("ErrInvalidKindName"))
	}
	if opts.Values == nil {
		return fmt.Errorf("%s: %w", kind, errors.InvalidArgument("values function is required").WithCode("ErrMissingValuesFunc"))
	}
	if (opts.Base == nil) != (opts.BaseKind == "") {
		return fmt.Errorf("%s: %w", kind, errors.InvalidArgument("base function and base kind must be set together").WithCode("ErrInvalidBase"))
	}

	format := opts.Format
	if format == "" {
		format = codec.DefaultFormat
	}
	if _, err := codec.Get(format); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.infos[kind]; ok {
		return fmt.Errorf("%s: %w", kind, ErrAlreadyRegistered)
	}
	if opts.Base != nil {
		if _, ok := r.infos[opts.BaseKind]; !ok {
			return fmt.Errorf("%s views %s: %w", kind, opts.BaseKind, ErrBaseNotRegistered)
		}
	}

	r.infos[kind] = &Info{
		kind:       kind,
		fields:     opts.Fields,
		values:     opts.Values,
		follow:     opts.Follow,
		format:     format,
		integerIDs: opts.IntegerIDs,
		base:       opts.Base,
		baseKind:   opts.BaseKind,
	}

	return nil
}

// Unregister removes the given kind from revision control.
func (r *Registry) Unregister(kind entity.Kind) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.infos[kind]; !ok {
		return fmt.Errorf("%s: %w", kind, ErrNotRegistered)
	}
	delete(r.infos, kind)

	return nil
}

// IsRegistered checks whether the given kind is registered.
func (r *Registry) IsRegistered(kind entity.Kind) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.infos[kind]
	return ok
}

// Lookup returns the registration information of the given kind.
func (r *Registry) Lookup(kind entity.Kind) (*Info, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info, ok := r.infos[kind]
	if !ok {
		return nil, fmt.Errorf("%s: %w", kind, ErrNotRegistered)
	}

	return info, nil
}
