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

// Package memory implements the database interface using an in-memory
// database. It is used for testing and for hosts without durable storage.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	gotime "time"

	"github.com/hashicorp/go-memdb"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/chronicle-team/chronicle/backend/database"
	"github.com/chronicle-team/chronicle/pkg/entity"
	"github.com/chronicle-team/chronicle/pkg/types"
)

// DB is an in-memory database.
type DB struct {
	db  *memdb.MemDB
	seq atomic.Int64
}

// New returns a new in-memory database.
func New() (*DB, error) {
	memDB, err := memdb.NewMemDB(schema)
	if err != nil {
		return nil, fmt.Errorf("new memdb: %w", err)
	}

	return &DB{
		db: memDB,
	}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return nil
}

// CreateRevisionInfo creates a new revision with the given actor and comment.
func (d *DB) CreateRevisionInfo(
	_ context.Context,
	actor, comment string,
) (*database.RevisionInfo, error) {
	txn := d.db.Txn(true)
	defer txn.Abort()

	info := &database.RevisionInfo{
		ID:        newID(),
		Seq:       d.seq.Add(1),
		Actor:     actor,
		Comment:   comment,
		CreatedAt: gotime.Now(),
	}

	if err := txn.Insert(tblRevisions, info); err != nil {
		return nil, fmt.Errorf("insert revision: %w", err)
	}

	txn.Commit()
	return info.DeepCopy(), nil
}

// CreateVersionInfo stores a member snapshot of a revision.
func (d *DB) CreateVersionInfo(
	_ context.Context,
	info *database.VersionInfo,
) (*database.VersionInfo, error) {
	txn := d.db.Txn(true)
	defer txn.Abort()

	stored := info.DeepCopy()
	stored.ID = newID()
	stored.CreatedAt = gotime.Now()

	if err := txn.Insert(tblVersions, stored); err != nil {
		return nil, fmt.Errorf("insert version: %w", err)
	}

	txn.Commit()
	return stored.DeepCopy(), nil
}

// CreateMetaInfo stores a side-table record attached to a revision.
func (d *DB) CreateMetaInfo(
	_ context.Context,
	info *database.MetaInfo,
) (*database.MetaInfo, error) {
	txn := d.db.Txn(true)
	defer txn.Abort()

	stored := info.DeepCopy()
	stored.ID = newID()

	if err := txn.Insert(tblMetas, stored); err != nil {
		return nil, fmt.Errorf("insert meta: %w", err)
	}

	txn.Commit()
	return stored.DeepCopy(), nil
}

// FindLatestRevisionInfoByRefs returns the most recent revision containing a
// version that matches any of the given refs.
func (d *DB) FindLatestRevisionInfoByRefs(
	_ context.Context,
	refs []entity.Ref,
) (*database.RevisionInfo, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	var latest *database.RevisionInfo
	for _, ref := range refs {
		iter, err := txn.Get(tblVersions, "ref", ref.Kind.String(), ref.ID.String())
		if err != nil {
			return nil, fmt.Errorf("find versions by ref: %w", err)
		}

		for raw := iter.Next(); raw != nil; raw = iter.Next() {
			version := raw.(*database.VersionInfo)
			rawRevision, err := txn.First(tblRevisions, "id", version.RevisionID.String())
			if err != nil {
				return nil, fmt.Errorf("find revision: %w", err)
			}
			if rawRevision == nil {
				continue
			}

			revision := rawRevision.(*database.RevisionInfo)
			if latest == nil || revision.Seq > latest.Seq {
				latest = revision
			}
		}
	}

	if latest == nil {
		return nil, database.ErrRevisionNotFound
	}

	return latest.DeepCopy(), nil
}

// FindVersionInfosByRevisionID returns the member versions of the given
// revision.
func (d *DB) FindVersionInfosByRevisionID(
	_ context.Context,
	revisionID types.ID,
) ([]*database.VersionInfo, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	iter, err := txn.Get(tblVersions, "revision_id", revisionID.String())
	if err != nil {
		return nil, fmt.Errorf("find versions by revision: %w", err)
	}

	var infos []*database.VersionInfo
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		infos = append(infos, raw.(*database.VersionInfo).DeepCopy())
	}

	return infos, nil
}

// FindVersionInfosByRef returns the stored versions of a single entity, most
// recent first.
func (d *DB) FindVersionInfosByRef(
	_ context.Context,
	ref entity.Ref,
) ([]*database.VersionInfo, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	iter, err := txn.Get(tblVersions, "ref", ref.Kind.String(), ref.ID.String())
	if err != nil {
		return nil, fmt.Errorf("find versions by ref: %w", err)
	}

	var infos []*database.VersionInfo
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		infos = append(infos, raw.(*database.VersionInfo).DeepCopy())
	}

	sort.Slice(infos, func(i, j int) bool {
		if infos[i].CreatedAt.Equal(infos[j].CreatedAt) {
			return infos[i].ID > infos[j].ID
		}
		return infos[i].CreatedAt.After(infos[j].CreatedAt)
	})

	return infos, nil
}

// FindMetaInfosByRevisionID returns the side-table records attached to the
// given revision.
func (d *DB) FindMetaInfosByRevisionID(
	_ context.Context,
	revisionID types.ID,
) ([]*database.MetaInfo, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	iter, err := txn.Get(tblMetas, "revision_id", revisionID.String())
	if err != nil {
		return nil, fmt.Errorf("find metas by revision: %w", err)
	}

	var infos []*database.MetaInfo
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		infos = append(infos, raw.(*database.MetaInfo).DeepCopy())
	}

	return infos, nil
}

// FindRevisionInfosByPaging returns revisions ordered by sequence number.
func (d *DB) FindRevisionInfosByPaging(
	_ context.Context,
	paging types.Paging[int64],
) ([]*database.RevisionInfo, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	iter, err := txn.Get(tblRevisions, "seq")
	if err != nil {
		return nil, fmt.Errorf("find revisions: %w", err)
	}

	var all []*database.RevisionInfo
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		all = append(all, raw.(*database.RevisionInfo))
	}

	if !paging.IsForward {
		for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
			all[i], all[j] = all[j], all[i]
		}
	}

	var infos []*database.RevisionInfo
	for _, info := range all {
		if paging.Offset > 0 {
			if paging.IsForward && info.Seq <= paging.Offset {
				continue
			}
			if !paging.IsForward && info.Seq >= paging.Offset {
				continue
			}
		}
		if paging.PageSize > 0 && len(infos) >= paging.PageSize {
			break
		}
		infos = append(infos, info.DeepCopy())
	}

	return infos, nil
}

func newID() types.ID {
	return types.ID(bson.NewObjectID().Hex())
}
