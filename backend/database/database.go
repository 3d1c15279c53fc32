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

// Package database provides the storage interface for persisted revisions.
package database

import (
	"context"

	"github.com/chronicle-team/chronicle/pkg/entity"
	"github.com/chronicle-team/chronicle/pkg/errors"
	"github.com/chronicle-team/chronicle/pkg/types"
)

var (
	// ErrRevisionNotFound is returned when the revision could not be found.
	ErrRevisionNotFound = errors.NotFound("revision not found").WithCode("ErrRevisionNotFound")

	// ErrVersionNotFound is returned when the version could not be found.
	ErrVersionNotFound = errors.NotFound("version not found").WithCode("ErrVersionNotFound")
)

// Database is the interface the revision manager persists through. The
// manager makes at most one persist attempt per scope exit and propagates
// failures unchanged, so implementations should not retry internally.
type Database interface {
	// CreateRevisionInfo creates a new revision with the given actor and
	// comment. The store assigns the ID, the monotonic sequence number and
	// the creation time.
	CreateRevisionInfo(ctx context.Context, actor, comment string) (*RevisionInfo, error)

	// CreateVersionInfo stores a member snapshot of a revision.
	CreateVersionInfo(ctx context.Context, info *VersionInfo) (*VersionInfo, error)

	// CreateMetaInfo stores a side-table record attached to a revision.
	CreateMetaInfo(ctx context.Context, info *MetaInfo) (*MetaInfo, error)

	// FindLatestRevisionInfoByRefs returns the most recent revision that
	// contains a version matching any of the given refs. It returns
	// ErrRevisionNotFound when no revision matches.
	FindLatestRevisionInfoByRefs(ctx context.Context, refs []entity.Ref) (*RevisionInfo, error)

	// FindVersionInfosByRevisionID returns the member versions of the given
	// revision.
	FindVersionInfosByRevisionID(ctx context.Context, revisionID types.ID) ([]*VersionInfo, error)

	// FindVersionInfosByRef returns the stored versions of a single entity,
	// most recent first.
	FindVersionInfosByRef(ctx context.Context, ref entity.Ref) ([]*VersionInfo, error)

	// FindMetaInfosByRevisionID returns the side-table records attached to
	// the given revision.
	FindMetaInfosByRevisionID(ctx context.Context, revisionID types.ID) ([]*MetaInfo, error)

	// FindRevisionInfosByPaging returns revisions ordered by their sequence
	// number.
	FindRevisionInfosByPaging(ctx context.Context, paging types.Paging[int64]) ([]*RevisionInfo, error)

	// Close closes all resources of this database.
	Close() error
}
