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

// Package revision implements the revision tracking core: a per-context
// scope state machine, relationship closure over captured entities, duplicate
// detection against the most recent prior revision, and the manager that
// orchestrates them into persisted revisions.
package revision

import (
	"context"
	"fmt"
	"strconv"

	"github.com/chronicle-team/chronicle/backend/database"
	"github.com/chronicle-team/chronicle/internal/log"
	"github.com/chronicle-team/chronicle/internal/metrics"
	"github.com/chronicle-team/chronicle/pkg/codec"
	"github.com/chronicle-team/chronicle/pkg/entity"
	"github.com/chronicle-team/chronicle/pkg/errors"
	"github.com/chronicle-team/chronicle/pkg/registry"
)

var (
	// ErrNoScopeContext is returned when a context was never prepared with
	// WithScope. This is a setup bug in the hosting code.
	ErrNoScopeContext = errors.Internal("context carries no revision scope").WithCode("ErrNoScopeContext")

	// ErrNoActiveScope is returned when a scope accessor is used outside a
	// Start/End pair.
	ErrNoActiveScope = errors.FailedPrecond("no active revision scope in this context").WithCode("ErrNoActiveScope")

	// ErrInvalidFollowTarget is returned when a relationship resolver yields
	// a value that is neither absent, an entity, nor a slice of entities.
	ErrInvalidFollowTarget = errors.InvalidArgument("relationship resolved to an unsupported value").WithCode("ErrInvalidFollowTarget")

	// ErrUnbalancedScope is returned when an execution context ends while a
	// scope is still open, i.e. a Start without its matching End.
	ErrUnbalancedScope = errors.Internal("execution context ended with an open revision scope").WithCode("ErrUnbalancedScope")
)

// Manager coordinates scope lifecycle, capture, closure, duplicate detection
// and persistence. A single Manager serves all execution contexts; all
// mutable tracking state lives in the per-context scope.
type Manager struct {
	registry *registry.Registry
	db       database.Database
	metrics  *metrics.Metrics
	logger   log.Logger
}

// New creates a Manager persisting through the given database.
func New(db database.Database) *Manager {
	return &Manager{
		registry: registry.New(),
		db:       db,
		metrics:  metrics.NewMetrics(),
		logger:   log.New("revision"),
	}
}

// Metrics returns the metrics of this manager, e.g. to expose its registry
// on a scrape endpoint.
func (m *Manager) Metrics() *metrics.Metrics {
	return m.metrics
}

// Register registers the given kind. After registration the lifecycle hook
// adapters start capturing mutations of this kind.
func (m *Manager) Register(kind entity.Kind, opts registry.Options) error {
	return m.registry.Register(kind, opts)
}

// Unregister removes the given kind from revision control.
func (m *Manager) Unregister(kind entity.Kind) error {
	return m.registry.Unregister(kind)
}

// IsRegistered checks whether the given kind is registered.
func (m *Manager) IsRegistered(kind entity.Kind) bool {
	return m.registry.IsRegistered(kind)
}

// Start begins a revision scope for the calling execution context. Calls
// nest: only the End that matches the outermost Start commits.
func (m *Manager) Start(ctx context.Context) error {
	s := scopeFrom(ctx)
	if s == nil {
		return ErrNoScopeContext
	}

	s.depth++
	return nil
}

// IsActive returns whether the calling execution context has an active scope.
func (m *Manager) IsActive(ctx context.Context) bool {
	s := scopeFrom(ctx)
	return s != nil && s.active()
}

// End closes the innermost open scope. Closing the outermost scope runs the
// commit pipeline and then clears the scope state, regardless of the
// pipeline's outcome.
func (m *Manager) End(ctx context.Context) error {
	s := scopeFrom(ctx)
	if s == nil {
		return ErrNoScopeContext
	}
	if !s.active() {
		return ErrNoActiveScope
	}

	s.depth--
	if s.depth > 0 {
		return nil
	}

	defer s.clear()
	return m.commit(ctx, s)
}

// Invalidate marks the current scope as broken. At outermost exit the
// captured objects are discarded without error.
func (m *Manager) Invalidate(ctx context.Context) error {
	s, err := m.activeScope(ctx)
	if err != nil {
		return err
	}

	s.invalid = true
	return nil
}

// SetActor sets the actor for the current revision.
func (m *Manager) SetActor(ctx context.Context, actor string) error {
	s, err := m.activeScope(ctx)
	if err != nil {
		return err
	}

	s.actor = actor
	return nil
}

// SetComment sets the comment for the current revision.
func (m *Manager) SetComment(ctx context.Context, comment string) error {
	s, err := m.activeScope(ctx)
	if err != nil {
		return err
	}

	s.comment = comment
	return nil
}

// AddMeta attaches a side-table record to the current revision.
func (m *Manager) AddMeta(ctx context.Context, kind string, fields map[string]any) error {
	s, err := m.activeScope(ctx)
	if err != nil {
		return err
	}

	s.meta = append(s.meta, metaEntry{kind: kind, fields: fields})
	return nil
}

// SetSuppressDuplicates sets whether a revision identical to the most recent
// prior revision of the same objects is silently dropped.
func (m *Manager) SetSuppressDuplicates(ctx context.Context, suppress bool) error {
	s, err := m.activeScope(ctx)
	if err != nil {
		return err
	}

	s.suppressDuplicates = suppress
	return nil
}

// Add captures the given entity into the current scope. Capturing the same
// identity again overwrites the earlier snapshot and change kind.
func (m *Manager) Add(ctx context.Context, e entity.Entity, change entity.ChangeKind) error {
	s, err := m.activeScope(ctx)
	if err != nil {
		return err
	}

	version, err := m.snapshot(e, change)
	if err != nil {
		return err
	}

	s.captured[entity.RefOf(e)] = &capture{entity: e, version: version}
	return nil
}

// Scoped runs the given unit of work inside exactly one Start/End pair. When
// the work fails or panics the scope is invalidated and the original failure
// propagates; the scope is ended on every path.
func (m *Manager) Scoped(ctx context.Context, work func(ctx context.Context) error) (err error) {
	if !HasScope(ctx) {
		ctx = WithScope(ctx)
	}

	if err := m.Start(ctx); err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			_ = m.Invalidate(ctx)
			_ = m.End(ctx)
			panic(r)
		}

		if err != nil {
			_ = m.Invalidate(ctx)
			_ = m.End(ctx)
			return
		}

		err = m.End(ctx)
	}()

	return work(ctx)
}

// OnEntitySaved is the adapter the host calls right after an entity was
// created or updated. Mutations outside an active scope, and mutations of
// unregistered kinds, are not tracked and not an error.
func (m *Manager) OnEntitySaved(ctx context.Context, e entity.Entity, created bool) error {
	if !m.IsActive(ctx) || !m.registry.IsRegistered(e.EntityKind()) {
		return nil
	}

	change := entity.Changed
	if created {
		change = entity.Added
	}
	return m.Add(ctx, e, change)
}

// OnEntityDeleting is the adapter the host calls right before an entity is
// deleted, while its identity is still resolvable.
func (m *Manager) OnEntityDeleting(ctx context.Context, e entity.Entity) error {
	if !m.IsActive(ctx) || !m.registry.IsRegistered(e.EntityKind()) {
		return nil
	}

	return m.Add(ctx, e, entity.Deleted)
}

// OnContextEnded is the adapter the host calls exactly once when an
// execution context is torn down. An open scope at this point is a caller
// bug: the leak is reported and the scope is reset so a pooled context can
// be reused safely.
func (m *Manager) OnContextEnded(ctx context.Context) error {
	s := scopeFrom(ctx)
	if s == nil || !s.active() {
		return nil
	}

	depth := s.depth
	s.clear()
	m.logger.Warnf("scope %s leaked with depth %d", s.id, depth)
	return fmt.Errorf("depth %d: %w", depth, ErrUnbalancedScope)
}

// activeScope returns the scope of the context if one is active.
func (m *Manager) activeScope(ctx context.Context) (*scope, error) {
	s := scopeFrom(ctx)
	if s == nil {
		return nil, ErrNoScopeContext
	}
	if !s.active() {
		return nil, ErrNoActiveScope
	}
	return s, nil
}

// snapshot builds the version row of the given entity through its
// registration: resolve field values, serialize them, and carry the identity
// in both string and, for integral kinds, numeric form.
func (m *Manager) snapshot(e entity.Entity, change entity.ChangeKind) (*database.VersionInfo, error) {
	kind := e.EntityKind()
	info, err := m.registry.Lookup(kind)
	if err != nil {
		return nil, err
	}

	id := e.EntityID()
	c, err := codec.Get(info.Format())
	if err != nil {
		return nil, err
	}

	snapshot, err := c.Marshal(kind, id, info.Values(e))
	if err != nil {
		return nil, err
	}

	var idInt *int64
	if info.IntegerIDs() {
		parsed, err := strconv.ParseInt(id.String(), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", id,
				errors.InvalidArgument("identity of an integral kind is not an integer").WithCode("ErrMalformedIntegerID"))
		}
		idInt = &parsed
	}

	return &database.VersionInfo{
		EntityKind:  kind,
		EntityID:    id,
		EntityIDInt: idInt,
		Format:      string(info.Format()),
		Snapshot:    snapshot,
		Repr:        fmt.Sprintf("%v", e),
		Change:      change,
	}, nil
}

// commit is the outermost-exit pipeline: closure, duplicate check, persist.
// The caller clears the scope afterwards on every path.
func (m *Manager) commit(ctx context.Context, s *scope) error {
	if len(s.captured) == 0 {
		m.metrics.AddRevisionSkipped(metrics.ReasonEmpty)
		return nil
	}
	if s.invalid {
		m.metrics.AddRevisionSkipped(metrics.ReasonInvalidated)
		m.logger.Debugf("scope %s invalidated, %d captured objects discarded", s.id, len(s.captured))
		return nil
	}

	expanded, err := m.followRelationships(s.captured)
	if err != nil {
		return err
	}

	// View entities are traversed for their relationships but never stored
	// themselves.
	var members []*database.VersionInfo
	for ref, c := range expanded {
		info, err := m.registry.Lookup(ref.Kind)
		if err != nil {
			return err
		}
		if info.IsView() {
			continue
		}
		members = append(members, c.version)
	}

	if len(members) == 0 {
		m.metrics.AddRevisionSkipped(metrics.ReasonEmpty)
		return nil
	}

	if s.suppressDuplicates {
		duplicate, err := m.isDuplicate(ctx, members)
		if err != nil {
			return err
		}
		if duplicate {
			m.metrics.AddRevisionSkipped(metrics.ReasonDuplicate)
			m.logger.Debugf("scope %s suppressed as duplicate of the latest revision", s.id)
			return nil
		}
	}

	revision, err := m.db.CreateRevisionInfo(ctx, s.actor, s.comment)
	if err != nil {
		return err
	}

	snapshotBytes := 0
	for _, member := range members {
		member.RevisionID = revision.ID
		if _, err := m.db.CreateVersionInfo(ctx, member); err != nil {
			return err
		}
		snapshotBytes += len(member.Snapshot)
	}

	for _, meta := range s.meta {
		if _, err := m.db.CreateMetaInfo(ctx, &database.MetaInfo{
			RevisionID: revision.ID,
			Kind:       meta.kind,
			Fields:     meta.fields,
		}); err != nil {
			return err
		}
	}

	m.metrics.AddRevisionPersisted(len(members), snapshotBytes)
	m.logger.Infof("scope %s persisted revision %s with %d members", s.id, revision.ID, len(members))
	return nil
}
