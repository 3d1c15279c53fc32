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

// Package testcases contains testcases for database implementations. Every
// backend runs the same suite against the database interface.
package testcases

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronicle-team/chronicle/backend/database"
	"github.com/chronicle-team/chronicle/pkg/entity"
	"github.com/chronicle-team/chronicle/pkg/types"
)

func createVersion(
	t *testing.T,
	db database.Database,
	revisionID types.ID,
	ref entity.Ref,
	snapshot string,
) *database.VersionInfo {
	t.Helper()

	info, err := db.CreateVersionInfo(context.Background(), &database.VersionInfo{
		RevisionID: revisionID,
		EntityKind: ref.Kind,
		EntityID:   ref.ID,
		Format:     "json",
		Snapshot:   []byte(snapshot),
		Repr:       ref.String(),
		Change:     entity.Changed,
	})
	require.NoError(t, err)
	return info
}

// RunCreateRevisionInfoTest runs the CreateRevisionInfo test for the given db.
func RunCreateRevisionInfoTest(t *testing.T, db database.Database) {
	ctx := context.Background()

	first, err := db.CreateRevisionInfo(ctx, "alice", "initial import")
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, "alice", first.Actor)
	assert.Equal(t, "initial import", first.Comment)
	assert.False(t, first.CreatedAt.IsZero())

	second, err := db.CreateRevisionInfo(ctx, "", "")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Greater(t, second.Seq, first.Seq)
}

// RunFindVersionInfosByRevisionIDTest runs the member listing test for the
// given db.
func RunFindVersionInfosByRevisionIDTest(t *testing.T, db database.Database) {
	ctx := context.Background()

	revision, err := db.CreateRevisionInfo(ctx, "bob", "edit pair")
	require.NoError(t, err)

	refA := entity.Ref{Kind: "blog.Article", ID: "a-1"}
	refB := entity.Ref{Kind: "blog.Author", ID: "b-1"}
	createVersion(t, db, revision.ID, refA, `{"title":"A"}`)
	createVersion(t, db, revision.ID, refB, `{"name":"B"}`)

	infos, err := db.FindVersionInfosByRevisionID(ctx, revision.ID)
	require.NoError(t, err)
	assert.Len(t, infos, 2)

	refs := map[entity.Ref]bool{}
	for _, info := range infos {
		assert.Equal(t, revision.ID, info.RevisionID)
		assert.NotEmpty(t, info.ID)
		refs[info.Ref()] = true
	}
	assert.True(t, refs[refA])
	assert.True(t, refs[refB])

	empty, err := db.FindVersionInfosByRevisionID(ctx, types.ID("000000000000000000000000"))
	require.NoError(t, err)
	assert.Empty(t, empty)
}

// RunFindLatestRevisionInfoByRefsTest runs the latest-revision lookup test
// for the given db.
func RunFindLatestRevisionInfoByRefsTest(t *testing.T, db database.Database) {
	ctx := context.Background()

	refX := entity.Ref{Kind: "shop.Order", ID: "x"}
	refY := entity.Ref{Kind: "shop.Order", ID: "y"}

	older, err := db.CreateRevisionInfo(ctx, "carol", "first")
	require.NoError(t, err)
	createVersion(t, db, older.ID, refX, `{"state":"open"}`)

	newer, err := db.CreateRevisionInfo(ctx, "carol", "second")
	require.NoError(t, err)
	createVersion(t, db, newer.ID, refY, `{"state":"open"}`)

	t.Run("single ref resolves its revision", func(t *testing.T) {
		found, err := db.FindLatestRevisionInfoByRefs(ctx, []entity.Ref{refX})
		require.NoError(t, err)
		assert.Equal(t, older.ID, found.ID)
	})

	t.Run("most recent revision wins across refs", func(t *testing.T) {
		found, err := db.FindLatestRevisionInfoByRefs(ctx, []entity.Ref{refX, refY})
		require.NoError(t, err)
		assert.Equal(t, newer.ID, found.ID)
	})

	t.Run("no match returns ErrRevisionNotFound", func(t *testing.T) {
		_, err := db.FindLatestRevisionInfoByRefs(ctx, []entity.Ref{{Kind: "shop.Order", ID: "missing"}})
		assert.ErrorIs(t, err, database.ErrRevisionNotFound)
	})

	t.Run("version rows without a revision are ignored", func(t *testing.T) {
		dangling := entity.Ref{Kind: "shop.Order", ID: "z"}
		createVersion(t, db, types.ID("000000000000000000000000"), dangling, `{"state":"open"}`)

		_, err := db.FindLatestRevisionInfoByRefs(ctx, []entity.Ref{dangling})
		assert.ErrorIs(t, err, database.ErrRevisionNotFound)

		found, err := db.FindLatestRevisionInfoByRefs(ctx, []entity.Ref{dangling, refY})
		require.NoError(t, err)
		assert.Equal(t, newer.ID, found.ID)
	})
}

// RunFindVersionInfosByRefTest runs the per-entity history test for the
// given db.
func RunFindVersionInfosByRefTest(t *testing.T, db database.Database) {
	ctx := context.Background()

	ref := entity.Ref{Kind: "wiki.Page", ID: "p-1"}

	first, err := db.CreateRevisionInfo(ctx, "dave", "v1")
	require.NoError(t, err)
	createVersion(t, db, first.ID, ref, `{"body":"one"}`)

	second, err := db.CreateRevisionInfo(ctx, "dave", "v2")
	require.NoError(t, err)
	createVersion(t, db, second.ID, ref, `{"body":"two"}`)

	infos, err := db.FindVersionInfosByRef(ctx, ref)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, []byte(`{"body":"two"}`), infos[0].Snapshot)
	assert.Equal(t, []byte(`{"body":"one"}`), infos[1].Snapshot)
}

// RunFindRevisionInfosByPagingTest runs the revision paging test for the
// given db. It assumes an empty revisions table.
func RunFindRevisionInfosByPagingTest(t *testing.T, db database.Database) {
	ctx := context.Background()

	var seqs []int64
	for i := 0; i < 5; i++ {
		revision, err := db.CreateRevisionInfo(ctx, "erin", "page fill")
		require.NoError(t, err)
		seqs = append(seqs, revision.Seq)
	}

	t.Run("forward from offset", func(t *testing.T) {
		infos, err := db.FindRevisionInfosByPaging(ctx, types.Paging[int64]{
			Offset:    seqs[1],
			PageSize:  2,
			IsForward: true,
		})
		require.NoError(t, err)
		require.Len(t, infos, 2)
		assert.Equal(t, seqs[2], infos[0].Seq)
		assert.Equal(t, seqs[3], infos[1].Seq)
	})

	t.Run("backward returns newest first", func(t *testing.T) {
		infos, err := db.FindRevisionInfosByPaging(ctx, types.Paging[int64]{
			PageSize: 2,
		})
		require.NoError(t, err)
		require.Len(t, infos, 2)
		assert.Equal(t, seqs[4], infos[0].Seq)
		assert.Equal(t, seqs[3], infos[1].Seq)
	})
}

// RunCreateMetaInfoTest runs the meta record test for the given db.
func RunCreateMetaInfoTest(t *testing.T, db database.Database) {
	ctx := context.Background()

	revision, err := db.CreateRevisionInfo(ctx, "frank", "with meta")
	require.NoError(t, err)

	meta, err := db.CreateMetaInfo(ctx, &database.MetaInfo{
		RevisionID: revision.ID,
		Kind:       "approval",
		Fields:     map[string]any{"ticket": "OPS-42"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, meta.ID)
	assert.Equal(t, revision.ID, meta.RevisionID)
	assert.Equal(t, "approval", meta.Kind)
	assert.Equal(t, "OPS-42", meta.Fields["ticket"])

	other, err := db.CreateRevisionInfo(ctx, "frank", "without meta")
	require.NoError(t, err)

	infos, err := db.FindMetaInfosByRevisionID(ctx, revision.ID)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, meta.ID, infos[0].ID)
	assert.Equal(t, "OPS-42", infos[0].Fields["ticket"])

	empty, err := db.FindMetaInfosByRevisionID(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
